package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/payflow/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
//
// AttachPayment and Transition are read-modify-write operations; implementations
// must apply them atomically with respect to concurrent access to the same order.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)

	// AttachPayment records the provider's payment id on the order. The
	// reference is never cleared once set.
	AttachPayment(ctx context.Context, id, paymentID string) error

	// Transition moves the order to the given status, refreshing updated_at.
	// Only the edges defined by domain.OrderStatus.CanTransitionTo are accepted;
	// anything else fails with domain.ErrInvalidTransition.
	Transition(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

// ListFilter narrows list queries by status and pagination.
type ListFilter struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
)
