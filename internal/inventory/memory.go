package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory inventory used in tests and when
// the service runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[domain.ProductID]domain.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[domain.ProductID]domain.Product)}
}

// Seed inserts or replaces a product.
func (s *MemoryStore) Seed(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *MemoryStore) Get(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	return p, nil
}

func (s *MemoryStore) Reserve(ctx context.Context, id domain.ProductID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	if p.Stock < qty {
		return fmt.Errorf("product %q has %d in stock, requested %d: %w", p.Name, p.Stock, qty, domain.ErrInsufficientStock)
	}
	p.Stock -= qty
	s.products[id] = p
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, id domain.ProductID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	p.Stock += qty
	s.products[id] = p
	return nil
}
