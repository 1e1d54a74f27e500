package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/ports"
	"github.com/google/uuid"
)

// ErrOrderCreationFailed is returned when payment initiation fails during
// order creation. The order is left behind in cancelled status and remains
// retrievable; the underlying gateway error is wrapped, not surfaced raw.
var ErrOrderCreationFailed = errors.New("order creation failed")

// ErrInvalidCommand marks input validation failures so the transport layer
// can tell a caller mistake apart from an internal fault.
var ErrInvalidCommand = errors.New("invalid command")

type CreateOrderCommand struct {
	Items    []domain.OrderItem
	Currency string
}

func (c CreateOrderCommand) Validate() error {
	if len(c.Items) == 0 {
		return errors.New("items are required")
	}
	for _, item := range c.Items {
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
	if strings.TrimSpace(c.Currency) == "" {
		return errors.New("currency is required")
	}
	return nil
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

// PaymentWatcher starts background reconciliation for an order that obtained
// a payment id.
type PaymentWatcher interface {
	Watch(orderID, paymentID string)
}

type CreateOrderCommandHandler struct {
	repo    ports.OrderRepository
	gateway ports.PaymentGateway
	events  ports.EventBus
	watcher PaymentWatcher
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	gateway ports.PaymentGateway,
	events ports.EventBus,
	watcher PaymentWatcher,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:    repo,
		gateway: gateway,
		events:  events,
		watcher: watcher,
	}
}

// Handle persists a pending order, initiates payment synchronously, and on
// success hands the order to the watcher for asynchronous settlement. The
// order is visible to reads as soon as it is inserted, before payment completes.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.NewString(),
		Items:      append([]domain.OrderItem(nil), cmd.Items...),
		TotalCents: domain.TotalCents(cmd.Items),
		Currency:   cmd.Currency,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	if err := h.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	payment, err := h.gateway.CreatePayment(ctx, order.TotalCents, order.Currency)
	if err != nil {
		// The order is not rolled back; it stays retrievable in cancelled status.
		if _, cancelErr := h.repo.Transition(ctx, order.ID, domain.StatusCancelled); cancelErr != nil {
			return nil, fmt.Errorf("%w: %w (cancelling order: %w)", ErrOrderCreationFailed, err, cancelErr)
		}
		_ = h.events.PublishOrderCancelled(ctx, order.ID, "payment initiation failed")
		return nil, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	if err := h.repo.AttachPayment(ctx, order.ID, payment.ID); err != nil {
		return nil, err
	}
	order.PaymentID = payment.ID
	order.UpdatedAt = time.Now().UTC()

	// Once payment initiation succeeded the watcher must run, or the order
	// would stay pending forever. Event delivery is best-effort; failures are
	// recorded by the event bus decorator.
	h.watcher.Watch(order.ID, payment.ID)
	_ = h.events.PublishOrderCreated(ctx, order.ID)

	return &order, nil
}
