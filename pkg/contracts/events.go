package contracts

import "time"

// Event is the envelope published for every order notification.
type Event struct {
	EventID   string         `json:"event_id"`
	OrderID   string         `json:"order_id"`
	CreatedAt time.Time      `json:"created_at"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
}

const (
	EventOrderPlaced    = "order.placed"
	EventOrderConfirmed = "order.confirmed"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
)
