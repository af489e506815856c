package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

// MemoryRepository is a mutex-guarded in-memory Repository for tests and
// database-less runs. The users map plays the role of the user collection
// join for admin listings and notification addressing.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[domain.OrderID]domain.Order
	idem   map[string]domain.OrderID
	users  map[domain.UserID]domain.Purchaser
	seq    int // creation order tie-break for equal timestamps
	seqs   map[domain.OrderID]int
}

func NewMemoryRepository(users map[domain.UserID]domain.Purchaser) *MemoryRepository {
	if users == nil {
		users = make(map[domain.UserID]domain.Purchaser)
	}
	return &MemoryRepository{
		orders: make(map[domain.OrderID]domain.Order),
		idem:   make(map[string]domain.OrderID),
		users:  users,
		seqs:   make(map[domain.OrderID]int),
	}
}

// AddUser registers a purchaser for listing joins.
func (r *MemoryRepository) AddUser(id domain.UserID, p domain.Purchaser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = p
}

func (r *MemoryRepository) Create(ctx context.Context, o *domain.Order, idempotencyKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idempotencyKey != "" {
		if _, exists := r.idem[idempotencyKey]; exists {
			return ErrDuplicateIdempotencyKey
		}
		r.idem[idempotencyKey] = o.ID
	}
	r.seq++
	r.seqs[o.ID] = r.seq
	r.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id domain.OrderID) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	return cloneOrder(o), nil
}

func (r *MemoryRepository) GetWithUser(ctx context.Context, id domain.OrderID) (domain.OrderWithUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.OrderWithUser{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	return domain.OrderWithUser{Order: cloneOrder(o), User: r.users[o.UserID]}, nil
}

func (r *MemoryRepository) OrderIDByIdempotencyKey(ctx context.Context, key string) (domain.OrderID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idem[key]
	if !ok {
		return "", fmt.Errorf("idempotency key: %w", domain.ErrOrderNotFound)
	}
	return id, nil
}

func (r *MemoryRepository) ListAll(ctx context.Context) ([]domain.OrderWithUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.OrderWithUser, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, domain.OrderWithUser{Order: cloneOrder(o), User: r.users[o.UserID]})
	}
	r.sortNewestFirstWithUser(out)
	return out, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seqs[out[i].ID] > r.seqs[out[j].ID]
	})
	return out, nil
}

func (r *MemoryRepository) ListDelivered(ctx context.Context) ([]domain.OrderWithUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.OrderWithUser
	for _, o := range r.orders {
		if o.Status == domain.OrderStatusDelivered {
			out = append(out, domain.OrderWithUser{Order: cloneOrder(o), User: r.users[o.UserID]})
		}
	}
	r.sortNewestFirstWithUser(out)
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id domain.OrderID, from, to domain.OrderStatus, cancelReason string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	if o.Status != from {
		return domain.Order{}, fmt.Errorf("order %s is %s, expected %s: %w", id, o.Status, from, domain.ErrInvalidTransition)
	}
	o.Status = to
	if cancelReason != "" {
		o.CancelReason = cancelReason
	}
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	return cloneOrder(o), nil
}

func (r *MemoryRepository) sortNewestFirstWithUser(out []domain.OrderWithUser) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seqs[out[i].ID] > r.seqs[out[j].ID]
	})
}

func cloneOrder(o domain.Order) domain.Order {
	items := make([]domain.LineItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
