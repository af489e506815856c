package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusCancelled, false},
		{OrderStatusConfirmed, OrderStatusConfirmed, false},
		{OrderStatusDelivered, OrderStatusConfirmed, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	require.True(t, OrderStatusDelivered.IsTerminal())
	require.True(t, OrderStatusCancelled.IsTerminal())
	require.False(t, OrderStatusPending.IsTerminal())
	require.False(t, OrderStatusConfirmed.IsTerminal())
}

func TestCategoryTaxonomy(t *testing.T) {
	require.True(t, CategoryComputer.Valid())
	require.True(t, CategoryPOS.Valid())
	require.False(t, Category("gadgets").Valid())

	require.True(t, ValidSubcategory(CategoryComputer, "Laptop"))
	require.True(t, ValidSubcategory(CategoryPrinter, "Laser"))
	require.True(t, ValidSubcategory(CategoryProjector, ""))
	require.False(t, ValidSubcategory(CategoryProjector, "Laser"))
	require.False(t, ValidSubcategory(CategoryComputer, "Barcode Scanner"))
}

func TestOrderSubtotal(t *testing.T) {
	o := Order{Items: []LineItem{
		{Price: 1000, Quantity: 2},
		{Price: 2500, Quantity: 1},
	}}
	require.Equal(t, int64(4500), o.Subtotal())
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{ErrValidation, "validation_error", http.StatusBadRequest},
		{ErrInsufficientStock, "insufficient_stock", http.StatusBadRequest},
		{ErrProductNotFound, "product_not_found", http.StatusBadRequest},
		{ErrInvalidTransition, "invalid_transition", http.StatusBadRequest},
		{ErrUnauthorized, "unauthorized", http.StatusUnauthorized},
		{ErrForbidden, "forbidden", http.StatusForbidden},
		{ErrOrderNotFound, "order_not_found", http.StatusNotFound},
		{errors.New("boom"), "internal", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("context: %w", tc.err)
		require.Equal(t, tc.kind, Kind(wrapped))
		require.Equal(t, tc.status, HTTPStatus(wrapped))
	}
	require.Equal(t, "", Kind(nil))
	require.Equal(t, http.StatusOK, HTTPStatus(nil))
}
