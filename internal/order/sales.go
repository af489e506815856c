package order

import (
	"context"
	"fmt"
	"sort"

	"github.com/Suzzal26/Your-IT-Center/internal/auth"
	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

// WeeklySale is one ISO-week revenue bucket over delivered orders.
type WeeklySale struct {
	Week         int   `json:"week"`
	TotalRevenue int64 `json:"totalRevenue"`
	OrderCount   int   `json:"orderCount"`
}

// SalesReport is the admin sales view: sparse weekly buckets over the
// trailing window plus every delivered order for drill-down.
type SalesReport struct {
	WeeklySales       []WeeklySale           `json:"weeklySales"`
	DeliveredProducts []domain.OrderWithUser `json:"deliveredProducts"`
}

// DefaultSalesWindowDays is the trailing window for the weekly buckets.
const DefaultSalesWindowDays = 30

// WeeklySales sums the stored totalAmount of delivered orders created inside
// the trailing window, bucketed by ISO-8601 week. Revenue is the frozen
// snapshot total, never recomputed from live prices. Weeks with no delivered
// orders produce no bucket.
func (s *Service) WeeklySales(ctx context.Context, caller auth.Identity, windowDays int) (SalesReport, error) {
	if !caller.IsAdmin() {
		return SalesReport{}, fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	}
	if windowDays <= 0 {
		windowDays = DefaultSalesWindowDays
	}

	delivered, err := s.repo.ListDelivered(ctx)
	if err != nil {
		return SalesReport{}, err
	}

	since := s.now().UTC().AddDate(0, 0, -windowDays)

	type weekKey struct {
		year int
		week int
	}
	buckets := make(map[weekKey]*WeeklySale)
	for _, o := range delivered {
		if o.CreatedAt.Before(since) {
			continue
		}
		y, w := o.CreatedAt.UTC().ISOWeek()
		k := weekKey{year: y, week: w}
		b, ok := buckets[k]
		if !ok {
			b = &WeeklySale{Week: w}
			buckets[k] = b
		}
		b.TotalRevenue += o.TotalAmount
		b.OrderCount++
	}

	keys := make([]weekKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].week < keys[j].week
	})

	weekly := make([]WeeklySale, 0, len(keys))
	for _, k := range keys {
		weekly = append(weekly, *buckets[k])
	}

	return SalesReport{WeeklySales: weekly, DeliveredProducts: delivered}, nil
}
