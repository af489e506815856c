// Package domain holds the storefront's core types: products, orders and the
// error taxonomy shared by every layer above.
package domain

import "time"

type OrderID string
type ProductID string
type UserID string

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusDelivered OrderStatus = "delivered"
)

// legalTransitions enumerates every permitted status edge. delivered and
// cancelled are terminal.
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusDelivered},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "COD"
	PaymentPrepaid PaymentMethod = "Prepaid"
)

// DefaultDeliveryFee is the flat delivery charge in minor units (Rs 100).
const DefaultDeliveryFee int64 = 10000

// DefaultCancelReason is recorded when a user cancels without giving one.
const DefaultCancelReason = "No reason provided"

// LineItem is one product entry within an order. Name and Price are frozen at
// placement time; the live product record may change afterwards.
type LineItem struct {
	ProductID ProductID `json:"productId"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
}

// ShippingSnapshot is the delivery contact captured with the order.
type ShippingSnapshot struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Address string   `json:"address"`
	City    string   `json:"city"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

type Order struct {
	ID            OrderID          `json:"id"`
	UserID        UserID           `json:"userId"`
	Items         []LineItem       `json:"items"`
	Shipping      ShippingSnapshot `json:"shippingAddress"`
	TotalAmount   int64            `json:"totalAmount"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Status        OrderStatus      `json:"status"`
	CancelReason  string           `json:"cancelReason,omitempty"`
	IsVerified    bool             `json:"isVerified"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Subtotal is the sum of line item price times quantity, without delivery fee.
func (o Order) Subtotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.Price * int64(it.Quantity)
	}
	return sum
}

// Purchaser is the name/email pair joined onto admin-facing order listings.
type Purchaser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderWithUser is an order together with its purchaser, for admin views and
// notification addressing.
type OrderWithUser struct {
	Order
	User Purchaser `json:"user"`
}
