// Package notify delivers order-status notifications. Delivery is best
// effort: a failed send is logged by the caller and never affects the
// transition that triggered it.
package notify

import (
	"context"
	"time"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
	"github.com/Suzzal26/Your-IT-Center/pkg/contracts"
	"github.com/Suzzal26/Your-IT-Center/pkg/logging"
)

// Notification describes one order-status email to the purchaser.
type Notification struct {
	OrderID   domain.OrderID
	Status    domain.OrderStatus
	UserName  string
	UserEmail string
}

// EventType maps an order status to its published event type.
func (n Notification) EventType() string {
	switch n.Status {
	case domain.OrderStatusConfirmed:
		return contracts.EventOrderConfirmed
	case domain.OrderStatusDelivered:
		return contracts.EventOrderDelivered
	case domain.OrderStatusCancelled:
		return contracts.EventOrderCancelled
	default:
		return contracts.EventOrderPlaced
	}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier records the notification in the service log instead of sending
// it anywhere. Used when no broker is configured.
type LogNotifier struct {
	Service string
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	logging.Log(logging.Fields{
		Service: l.Service,
		OrderID: string(n.OrderID),
		Step:    n.EventType(),
		Status:  "emitted",
		Message: "notification for " + n.UserEmail + " at " + time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}
