package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

func newTestStore(t *testing.T, stock int) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	s.Seed(domain.Product{
		ID: "p1", Name: "LaserJet M111w", Price: 2350000, Stock: stock,
		Category: domain.CategoryPrinter, Subcategory: "Laser",
	})
	return s
}

func TestReserveDecrements(t *testing.T) {
	s := newTestStore(t, 5)
	require.NoError(t, s.Reserve(context.Background(), "p1", 3))
	p, err := s.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 2, p.Stock)
}

func TestReserveInsufficientStockLeavesCountUntouched(t *testing.T) {
	s := newTestStore(t, 2)
	err := s.Reserve(context.Background(), "p1", 3)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.Contains(t, err.Error(), "LaserJet M111w")

	p, gerr := s.Get(context.Background(), "p1")
	require.NoError(t, gerr)
	require.Equal(t, 2, p.Stock)
}

func TestReserveUnknownProduct(t *testing.T) {
	s := newTestStore(t, 1)
	err := s.Reserve(context.Background(), "missing", 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestReleaseRestoresStock(t *testing.T) {
	s := newTestStore(t, 5)
	require.NoError(t, s.Reserve(context.Background(), "p1", 4))
	require.NoError(t, s.Release(context.Background(), "p1", 4))
	p, err := s.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)
}

// Two concurrent reservations for the full remaining stock: exactly one may
// win and stock must end at zero, never negative.
func TestConcurrentReserveOnlyOneWins(t *testing.T) {
	s := newTestStore(t, 2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Reserve(context.Background(), "p1", 2)
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrInsufficientStock):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)

	p, err := s.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)
}
