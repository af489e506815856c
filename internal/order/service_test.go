package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Suzzal26/Your-IT-Center/internal/auth"
	"github.com/Suzzal26/Your-IT-Center/internal/domain"
	"github.com/Suzzal26/Your-IT-Center/internal/inventory"
	"github.com/Suzzal26/Your-IT-Center/internal/notify"
)

var (
	userAlice = auth.Identity{UserID: "u-alice", Role: auth.RoleUser}
	userBob   = auth.Identity{UserID: "u-bob", Role: auth.RoleUser}
	admin     = auth.Identity{UserID: "admin", Role: auth.RoleAdmin}
)

type recordingNotifier struct {
	mu    sync.Mutex
	notes []notify.Notification
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, note notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notes = append(n.notes, note)
	return nil
}

func (n *recordingNotifier) sent() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Notification, len(n.notes))
	copy(out, n.notes)
	return out
}

type fixture struct {
	svc      *Service
	inv      *inventory.MemoryStore
	repo     *MemoryRepository
	notifier *recordingNotifier
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	inv := inventory.NewMemoryStore()
	inv.Seed(domain.Product{ID: "p-laptop", Name: "ProBook 450", Price: 1000, Stock: 5, Category: domain.CategoryComputer, Subcategory: "Laptop"})
	inv.Seed(domain.Product{ID: "p-printer", Name: "LaserJet M111w", Price: 2500, Stock: 2, Category: domain.CategoryPrinter, Subcategory: "Laser"})

	repo := NewMemoryRepository(map[domain.UserID]domain.Purchaser{
		"u-alice": {Name: "Alice", Email: "alice@example.com"},
		"u-bob":   {Name: "Bob", Email: "bob@example.com"},
	})
	notifier := &recordingNotifier{}

	f := &fixture{inv: inv, repo: repo, notifier: notifier, clock: time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)}
	var seq int
	f.svc = NewService(ServiceConfig{
		Repo:      repo,
		Inventory: inv,
		Notifier:  notifier,
		Now:       func() time.Time { return f.clock },
		NewID: func() domain.OrderID {
			seq++
			return domain.OrderID(fmt.Sprintf("order-%d", seq))
		},
	})
	return f
}

func (f *fixture) stock(t *testing.T, id domain.ProductID) int {
	t.Helper()
	p, err := f.inv.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func validInput() PlacementInput {
	return PlacementInput{
		Items: []ItemInput{
			{ProductID: "p-laptop", Quantity: 2},
			{ProductID: "p-printer", Quantity: 1},
		},
		Shipping: domain.ShippingSnapshot{
			Name: "Alice", Phone: "9800000000", Address: "New Road", City: "Kathmandu",
		},
		PaymentMethod: domain.PaymentCOD,
	}
}

func TestPlaceOrderTotalIsSnapshotPlusDeliveryFee(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.PlaceOrder(context.Background(), userAlice, validInput())
	require.NoError(t, err)
	require.False(t, res.Replayed)

	o, err := f.repo.Get(context.Background(), res.OrderID)
	require.NoError(t, err)
	// 2x1000 + 1x2500 + delivery fee
	require.Equal(t, int64(4500)+domain.DefaultDeliveryFee, o.TotalAmount)
	require.Equal(t, o.Subtotal()+f.svc.DeliveryFee(), o.TotalAmount)
	require.Equal(t, domain.OrderStatusPending, o.Status)
	require.Equal(t, domain.PaymentCOD, o.PaymentMethod)
	require.True(t, o.IsVerified)

	// Price changes after placement never touch the stored total.
	f.inv.Seed(domain.Product{ID: "p-laptop", Name: "ProBook 450", Price: 9999, Stock: 3, Category: domain.CategoryComputer})
	again, err := f.repo.Get(context.Background(), res.OrderID)
	require.NoError(t, err)
	require.Equal(t, o.TotalAmount, again.TotalAmount)

	require.Equal(t, 3, f.stock(t, "p-laptop"))
	require.Equal(t, 1, f.stock(t, "p-printer"))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		mutate func(*PlacementInput)
	}{
		{"empty items", func(in *PlacementInput) { in.Items = nil }},
		{"zero quantity", func(in *PlacementInput) { in.Items[0].Quantity = 0 }},
		{"missing product id", func(in *PlacementInput) { in.Items[0].ProductID = " " }},
		{"missing city", func(in *PlacementInput) { in.Shipping.City = "" }},
		{"missing phone", func(in *PlacementInput) { in.Shipping.Phone = "" }},
		{"prepaid", func(in *PlacementInput) { in.PaymentMethod = domain.PaymentPrepaid }},
		{"unknown method", func(in *PlacementInput) { in.PaymentMethod = "Wallet" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.svc.PlaceOrder(context.Background(), userAlice, in)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	// Nothing was reserved by any failed attempt.
	require.Equal(t, 5, f.stock(t, "p-laptop"))
	require.Equal(t, 2, f.stock(t, "p-printer"))
}

func TestPlaceOrderClientTotalMismatch(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.ClientTotal = 123

	_, err := f.svc.PlaceOrder(context.Background(), userAlice, in)
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Equal(t, 5, f.stock(t, "p-laptop"))

	in.ClientTotal = 4500 + domain.DefaultDeliveryFee
	_, err = f.svc.PlaceOrder(context.Background(), userAlice, in)
	require.NoError(t, err)
}

func TestPlaceOrderInsufficientStockFailsWholeRequest(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Items[1].Quantity = 3 // printer has only 2

	_, err := f.svc.PlaceOrder(context.Background(), userAlice, in)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.Contains(t, err.Error(), "LaserJet M111w")
	require.Contains(t, err.Error(), "2")

	// No order, no decrement for any item in the request.
	orders, lerr := f.repo.ListByUser(context.Background(), userAlice.UserID)
	require.NoError(t, lerr)
	require.Empty(t, orders)
	require.Equal(t, 5, f.stock(t, "p-laptop"))
	require.Equal(t, 2, f.stock(t, "p-printer"))
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Items[0].ProductID = "p-ghost"

	_, err := f.svc.PlaceOrder(context.Background(), userAlice, in)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	require.Equal(t, 2, f.stock(t, "p-printer"))
}

// failOnReserve passes the advisory check but fails the reservation for one
// product, forcing the rollback path that a concurrent shopper would trigger.
type failOnReserve struct {
	*inventory.MemoryStore
	failID domain.ProductID
}

func (s *failOnReserve) Reserve(ctx context.Context, id domain.ProductID, qty int) error {
	if id == s.failID {
		return fmt.Errorf("product %s: %w", id, domain.ErrInsufficientStock)
	}
	return s.MemoryStore.Reserve(ctx, id, qty)
}

func TestPlaceOrderRollsBackEarlierReservations(t *testing.T) {
	f := newFixture(t)
	wrapped := &failOnReserve{MemoryStore: f.inv, failID: "p-printer"}
	svc := NewService(ServiceConfig{Repo: f.repo, Inventory: wrapped, Notifier: f.notifier})

	_, err := svc.PlaceOrder(context.Background(), userAlice, validInput())
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// The laptop reservation succeeded first and must have been released.
	require.Equal(t, 5, f.stock(t, "p-laptop"))
	require.Equal(t, 2, f.stock(t, "p-printer"))
}

func TestPlaceOrderConcurrentOversell(t *testing.T) {
	f := newFixture(t)
	in := PlacementInput{
		Items:         []ItemInput{{ProductID: "p-printer", Quantity: 2}}, // stock = 2
		Shipping:      validInput().Shipping,
		PaymentMethod: domain.PaymentCOD,
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), userAlice, in)
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
	// Both may pass the advisory check; the atomic reservation admits one.
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)
	require.Equal(t, 0, f.stock(t, "p-printer"))
}

func TestPlaceOrderIdempotencyReplay(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.IdempotencyKey = "retry-123"

	first, err := f.svc.PlaceOrder(context.Background(), userAlice, in)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := f.svc.PlaceOrder(context.Background(), userAlice, in)
	require.NoError(t, err)
	require.True(t, second.Replayed)
	require.Equal(t, first.OrderID, second.OrderID)

	// Stock decremented exactly once.
	require.Equal(t, 3, f.stock(t, "p-laptop"))
	require.Equal(t, 1, f.stock(t, "p-printer"))
}

func placePending(t *testing.T, f *fixture, caller auth.Identity) domain.OrderID {
	t.Helper()
	res, err := f.svc.PlaceOrder(context.Background(), caller, validInput())
	require.NoError(t, err)
	return res.OrderID
}

func TestCancelPendingOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)
	require.Equal(t, 3, f.stock(t, "p-laptop"))

	updated, err := f.svc.Cancel(context.Background(), userAlice, id, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, updated.Status)
	require.Equal(t, "changed my mind", updated.CancelReason)

	require.Equal(t, 5, f.stock(t, "p-laptop"))
	require.Equal(t, 2, f.stock(t, "p-printer"))
}

func TestCancelWithoutReasonUsesPlaceholder(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	updated, err := f.svc.Cancel(context.Background(), userAlice, id, "")
	require.NoError(t, err)
	require.Equal(t, domain.DefaultCancelReason, updated.CancelReason)
}

func TestCancelByNonOwnerLooksLikeMissingOrder(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	_, err := f.svc.Cancel(context.Background(), userBob, id, "not mine")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	o, gerr := f.repo.Get(context.Background(), id)
	require.NoError(t, gerr)
	require.Equal(t, domain.OrderStatusPending, o.Status)
	require.Empty(t, o.CancelReason)
}

func TestCancelNonPendingOrderFails(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	_, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), userAlice, id, "too late")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	// Confirmed order keeps its reservation.
	require.Equal(t, 3, f.stock(t, "p-laptop"))
}

func TestSetStatusRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	_, err := f.svc.SetStatus(context.Background(), userAlice, id, domain.OrderStatusConfirmed)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSetStatusRejectsUnknownTarget(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	_, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusPending)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.SetStatus(context.Background(), admin, id, "shipped")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetStatusWalksTheMachineAndNotifies(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	confirmed, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)
	require.Equal(t, "alice@example.com", confirmed.User.Email)

	delivered, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusDelivered)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusDelivered, delivered.Status)

	notes := f.notifier.sent()
	require.Len(t, notes, 2)
	require.Equal(t, domain.OrderStatusConfirmed, notes[0].Status)
	require.Equal(t, domain.OrderStatusDelivered, notes[1].Status)
	require.Equal(t, "alice@example.com", notes[0].UserEmail)
	require.Equal(t, id, notes[0].OrderID)
}

func TestSetStatusRejectsSkippingConfirmation(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	_, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusDelivered)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Empty(t, f.notifier.sent())
}

func TestSetStatusDoubleConfirmIsRejected(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)

	_, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusConfirmed)
	require.NoError(t, err)

	// A second confirm is rejected, and no second notification goes out.
	_, err = f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusConfirmed)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Len(t, f.notifier.sent(), 1)
}

func TestAdminCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)
	require.Equal(t, 3, f.stock(t, "p-laptop"))

	updated, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, updated.Status)
	require.Equal(t, 5, f.stock(t, "p-laptop"))
	require.Equal(t, 2, f.stock(t, "p-printer"))

	notes := f.notifier.sent()
	require.Len(t, notes, 1)
	require.Equal(t, domain.OrderStatusCancelled, notes[0].Status)
}

func TestNotificationFailureDoesNotRollBackTransition(t *testing.T) {
	f := newFixture(t)
	id := placePending(t, f, userAlice)
	f.notifier.err = errors.New("smtp down")

	updated, err := f.svc.SetStatus(context.Background(), admin, id, domain.OrderStatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusConfirmed, updated.Status)

	o, gerr := f.repo.Get(context.Background(), id)
	require.NoError(t, gerr)
	require.Equal(t, domain.OrderStatusConfirmed, o.Status)
}

func TestListAllRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	placePending(t, f, userAlice)

	_, err := f.svc.ListAll(context.Background(), userAlice)
	require.ErrorIs(t, err, domain.ErrForbidden)

	orders, err := f.svc.ListAll(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "Alice", orders[0].User.Name)
	require.Equal(t, "alice@example.com", orders[0].User.Email)
}

func TestListMineReturnsOwnOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := placePending(t, f, userAlice)
	f.clock = f.clock.Add(time.Hour)
	second := placePending(t, f, userAlice)

	bobIn := validInput()
	bobIn.Items = []ItemInput{{ProductID: "p-laptop", Quantity: 1}}
	_, err := f.svc.PlaceOrder(context.Background(), userBob, bobIn)
	require.NoError(t, err)

	mine, err := f.svc.ListMine(context.Background(), userAlice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, second, mine[0].ID)
	require.Equal(t, first, mine[1].ID)
}
