package domain

import (
	"errors"
	"strings"
	"time"
)

// OrderStatus captures the lifecycle of an order in the system.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// ErrInvalidTransition is returned when a status change is requested that the
// order state machine does not define, including any change out of a terminal state.
var ErrInvalidTransition = errors.New("invalid order status transition")

// OrderItem is a single line of an order. It has no identity of its own and is
// copied into the order at creation time.
type OrderItem struct {
	ProductID  string `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// Order represents a purchase request and its payment settlement status.
type Order struct {
	ID         string      `json:"id"`
	Items      []OrderItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
	Currency   string      `json:"currency"`
	Status     OrderStatus `json:"status"`
	PaymentID  string      `json:"payment_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TotalCents sums quantity times unit price across all items.
func TotalCents(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Quantity * item.PriceCents
	}
	return total
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return errors.New("items are required")
	}
	for _, item := range o.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return errors.New("product_id is required")
		}
		if item.Quantity <= 0 {
			return errors.New("quantity must be positive")
		}
		if item.PriceCents < 0 {
			return errors.New("price_cents must not be negative")
		}
	}
	if strings.TrimSpace(o.Currency) == "" {
		return errors.New("currency is required")
	}
	if o.TotalCents != TotalCents(o.Items) {
		return errors.New("total_cents does not match items")
	}
	return nil
}

// IsTerminal indicates whether the order is in a terminal state.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine defines an edge from the
// current status to next. The only edges are pending->completed and
// pending->cancelled; terminal states have no outgoing edges.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusCompleted || next == StatusCancelled
}

// ParseOrderStatus converts a raw string into a known OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case StatusPending, StatusCompleted, StatusCancelled:
		return OrderStatus(raw), nil
	default:
		return "", errors.New("unknown order status: " + raw)
	}
}
