// Package order implements the storefront core: order placement against live
// inventory, the order status machine, and sales aggregation.
package order

import (
	"context"
	"errors"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

// ErrDuplicateIdempotencyKey is returned by Create when the idempotency key
// already maps to an order, either from an earlier request or a concurrent
// retry that won the race.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

// Repository persists orders. Orders are created once, mutated only through
// UpdateStatus, and never deleted.
type Repository interface {
	// Create persists a new order. A non-empty idempotencyKey is recorded
	// uniquely; a conflict yields ErrDuplicateIdempotencyKey.
	Create(ctx context.Context, o *domain.Order, idempotencyKey string) error
	Get(ctx context.Context, id domain.OrderID) (domain.Order, error)
	GetWithUser(ctx context.Context, id domain.OrderID) (domain.OrderWithUser, error)
	// OrderIDByIdempotencyKey returns the order previously created under key,
	// or domain.ErrOrderNotFound.
	OrderIDByIdempotencyKey(ctx context.Context, key string) (domain.OrderID, error)
	// ListAll returns every order, newest first, purchaser joined.
	ListAll(ctx context.Context) ([]domain.OrderWithUser, error)
	// ListByUser returns one user's orders, newest first.
	ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Order, error)
	// ListDelivered returns all delivered orders, purchaser joined.
	ListDelivered(ctx context.Context) ([]domain.OrderWithUser, error)
	// UpdateStatus moves id from status `from` to `to` in one conditional
	// write. When the precondition no longer holds it fails with
	// domain.ErrInvalidTransition (or domain.ErrOrderNotFound if the order is
	// gone), so a racing transition loses cleanly. cancelReason is recorded
	// only when non-empty.
	UpdateStatus(ctx context.Context, id domain.OrderID, from, to domain.OrderStatus, cancelReason string) (domain.Order, error)
}
