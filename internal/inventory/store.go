// Package inventory holds per-product stock counts and the reservation
// contract used by order placement.
package inventory

import (
	"context"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

// Store is the inventory contract. Reserve is atomic per product: it
// decrements stock only when stock >= qty and fails without mutating
// otherwise. There is no cross-product atomicity; callers that reserve
// several products must release earlier reservations themselves when a later
// one fails.
type Store interface {
	// Get returns the live product record, or domain.ErrProductNotFound.
	Get(ctx context.Context, id domain.ProductID) (domain.Product, error)
	// Reserve decrements stock by qty. Fails with domain.ErrInsufficientStock
	// when stock < qty, domain.ErrProductNotFound when the product is absent.
	Reserve(ctx context.Context, id domain.ProductID, qty int) error
	// Release returns qty units to stock.
	Release(ctx context.Context, id domain.ProductID, qty int) error
}
