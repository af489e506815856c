package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Suzzal26/Your-IT-Center/internal/auth"
	"github.com/Suzzal26/Your-IT-Center/internal/domain"
	"github.com/Suzzal26/Your-IT-Center/internal/inventory"
	"github.com/Suzzal26/Your-IT-Center/internal/notify"
	"github.com/Suzzal26/Your-IT-Center/pkg/logging"
)

const serviceName = "storefront"

// Service wires placement, the status machine and reporting over a
// Repository and an inventory.Store. Every operation takes the verified
// caller identity explicitly.
type Service struct {
	repo        Repository
	inv         inventory.Store
	notifier    notify.Notifier
	deliveryFee int64
	now         func() time.Time
	newID       func() domain.OrderID
}

type ServiceConfig struct {
	Repo      Repository
	Inventory inventory.Store
	Notifier  notify.Notifier
	// DeliveryFee in minor units; 0 means domain.DefaultDeliveryFee.
	DeliveryFee int64
	// Now and NewID exist for tests; nil picks the real clock and uuid.
	Now   func() time.Time
	NewID func() domain.OrderID
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:        cfg.Repo,
		inv:         cfg.Inventory,
		notifier:    cfg.Notifier,
		deliveryFee: cfg.DeliveryFee,
		now:         cfg.Now,
		newID:       cfg.NewID,
	}
	if s.deliveryFee == 0 {
		s.deliveryFee = domain.DefaultDeliveryFee
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() domain.OrderID { return domain.OrderID(uuid.NewString()) }
	}
	if s.notifier == nil {
		s.notifier = &notify.LogNotifier{Service: serviceName}
	}
	return s
}

// DeliveryFee returns the flat fee added to every order total.
func (s *Service) DeliveryFee() int64 { return s.deliveryFee }

type ItemInput struct {
	ProductID domain.ProductID
	Quantity  int
}

type PlacementInput struct {
	Items    []ItemInput
	Shipping domain.ShippingSnapshot
	// PaymentMethod must be COD; Prepaid has no implemented flow.
	PaymentMethod domain.PaymentMethod
	// ClientTotal, when non-zero, is checked against the server-side total.
	ClientTotal int64
	// IdempotencyKey, when non-empty, makes retries return the original order.
	IdempotencyKey string
}

type PlacementResult struct {
	OrderID  domain.OrderID
	Replayed bool
}

// PlaceOrder validates the cart, reserves stock item by item and creates the
// order in pending state. A reservation failure releases every earlier
// reservation before returning, so a partially reserved order is never
// observable from outside.
func (s *Service) PlaceOrder(ctx context.Context, caller auth.Identity, in PlacementInput) (PlacementResult, error) {
	if err := validatePlacement(in); err != nil {
		return PlacementResult{}, err
	}

	if in.IdempotencyKey != "" {
		if existing, err := s.repo.OrderIDByIdempotencyKey(ctx, in.IdempotencyKey); err == nil {
			return PlacementResult{OrderID: existing, Replayed: true}, nil
		}
	}

	// Advisory pass: snapshot name/price and report the shortfall the way the
	// storefront always has, before touching any counter.
	items := make([]domain.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := s.inv.Get(ctx, it.ProductID)
		if err != nil {
			return PlacementResult{}, err
		}
		if p.Stock < it.Quantity {
			return PlacementResult{}, fmt.Errorf("not enough stock for %q, available: %d: %w", p.Name, p.Stock, domain.ErrInsufficientStock)
		}
		items = append(items, domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
	}

	total := s.deliveryFee
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}
	if in.ClientTotal != 0 && in.ClientTotal != total {
		return PlacementResult{}, fmt.Errorf("totalAmount %d does not match computed total %d: %w", in.ClientTotal, total, domain.ErrValidation)
	}

	// Reservation pass: each Reserve is an atomic conditional decrement. On
	// the first failure release everything reserved so far.
	reserved := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		if err := s.inv.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
			s.releaseAll(ctx, reserved)
			return PlacementResult{}, err
		}
		reserved = append(reserved, it)
	}

	nowUTC := s.now().UTC()
	o := &domain.Order{
		ID:            s.newID(),
		UserID:        caller.UserID,
		Items:         items,
		Shipping:      in.Shipping,
		TotalAmount:   total,
		PaymentMethod: domain.PaymentCOD,
		Status:        domain.OrderStatusPending,
		IsVerified:    true, // COD needs no OTP step
		CreatedAt:     nowUTC,
		UpdatedAt:     nowUTC,
	}

	if err := s.repo.Create(ctx, o, in.IdempotencyKey); err != nil {
		s.releaseAll(ctx, reserved)
		if errors.Is(err, ErrDuplicateIdempotencyKey) && in.IdempotencyKey != "" {
			if existing, qerr := s.repo.OrderIDByIdempotencyKey(ctx, in.IdempotencyKey); qerr == nil {
				return PlacementResult{OrderID: existing, Replayed: true}, nil
			}
		}
		return PlacementResult{}, err
	}

	logging.Log(logging.Fields{
		Service: serviceName,
		OrderID: string(o.ID),
		UserID:  string(caller.UserID),
		Step:    "place_order",
		Status:  string(o.Status),
	})
	return PlacementResult{OrderID: o.ID}, nil
}

func validatePlacement(in PlacementInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("items is required: %w", domain.ErrValidation)
	}
	for _, it := range in.Items {
		if strings.TrimSpace(string(it.ProductID)) == "" {
			return fmt.Errorf("each item must have a productId: %w", domain.ErrValidation)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("each item quantity must be > 0: %w", domain.ErrValidation)
		}
	}
	sh := in.Shipping
	if strings.TrimSpace(sh.Name) == "" || strings.TrimSpace(sh.Phone) == "" ||
		strings.TrimSpace(sh.Address) == "" || strings.TrimSpace(sh.City) == "" {
		return fmt.Errorf("shipping name, phone, address and city are required: %w", domain.ErrValidation)
	}
	switch in.PaymentMethod {
	case domain.PaymentCOD, "":
	case domain.PaymentPrepaid:
		return fmt.Errorf("payment method Prepaid is not available: %w", domain.ErrValidation)
	default:
		return fmt.Errorf("unknown payment method %q: %w", in.PaymentMethod, domain.ErrValidation)
	}
	return nil
}

func (s *Service) releaseAll(ctx context.Context, items []domain.LineItem) {
	for _, it := range items {
		if err := s.inv.Release(ctx, it.ProductID, it.Quantity); err != nil {
			logging.Log(logging.Fields{
				Service:   serviceName,
				ProductID: string(it.ProductID),
				Step:      "release_stock",
				Status:    "failed",
				Error:     err.Error(),
			})
		}
	}
}

// Cancel lets the owner cancel a still-pending order. The decremented stock
// is returned to inventory.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, id domain.OrderID, reason string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	// Scoped lookup: another user's order looks absent, not forbidden.
	if o.UserID != caller.UserID {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	if o.Status != domain.OrderStatusPending {
		return domain.Order{}, fmt.Errorf("only pending orders can be cancelled: %w", domain.ErrInvalidTransition)
	}
	if strings.TrimSpace(reason) == "" {
		reason = domain.DefaultCancelReason
	}

	updated, err := s.repo.UpdateStatus(ctx, id, domain.OrderStatusPending, domain.OrderStatusCancelled, reason)
	if err != nil {
		return domain.Order{}, err
	}
	s.releaseAll(ctx, updated.Items)

	logging.Log(logging.Fields{
		Service: serviceName,
		OrderID: string(id),
		UserID:  string(caller.UserID),
		Step:    "cancel",
		Status:  string(updated.Status),
		Message: reason,
	})
	return updated, nil
}

// settableStatuses restricts what the admin endpoint accepts; pending is
// creation-only.
var settableStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusConfirmed: true,
	domain.OrderStatusCancelled: true,
	domain.OrderStatusDelivered: true,
}

// SetStatus moves an order along the state machine on behalf of an admin and
// emits exactly one notification for the new status. Notification failures
// are logged and never roll back the transition.
func (s *Service) SetStatus(ctx context.Context, caller auth.Identity, id domain.OrderID, newStatus domain.OrderStatus) (domain.OrderWithUser, error) {
	if !caller.IsAdmin() {
		return domain.OrderWithUser{}, fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	}
	if !settableStatuses[newStatus] {
		return domain.OrderWithUser{}, fmt.Errorf("invalid status value %q: %w", newStatus, domain.ErrValidation)
	}

	ow, err := s.repo.GetWithUser(ctx, id)
	if err != nil {
		return domain.OrderWithUser{}, err
	}
	if !domain.CanTransition(ow.Status, newStatus) {
		return domain.OrderWithUser{}, fmt.Errorf("cannot move order from %s to %s: %w", ow.Status, newStatus, domain.ErrInvalidTransition)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, ow.Status, newStatus, "")
	if err != nil {
		return domain.OrderWithUser{}, err
	}
	if newStatus == domain.OrderStatusCancelled {
		s.releaseAll(ctx, updated.Items)
	}

	if err := s.notifier.Notify(ctx, notify.Notification{
		OrderID:   id,
		Status:    newStatus,
		UserName:  ow.User.Name,
		UserEmail: ow.User.Email,
	}); err != nil {
		logging.Log(logging.Fields{
			Service: serviceName,
			OrderID: string(id),
			Step:    "notify",
			Status:  "failed",
			Error:   err.Error(),
		})
	}

	logging.Log(logging.Fields{
		Service: serviceName,
		OrderID: string(id),
		UserID:  string(caller.UserID),
		Step:    "set_status",
		Status:  string(newStatus),
	})
	ow.Order = updated
	return ow, nil
}

// ListAll returns every order for the admin console, newest first.
func (s *Service) ListAll(ctx context.Context, caller auth.Identity) ([]domain.OrderWithUser, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	}
	return s.repo.ListAll(ctx)
}

// ListMine returns the caller's own orders, newest first.
func (s *Service) ListMine(ctx context.Context, caller auth.Identity) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, caller.UserID)
}
