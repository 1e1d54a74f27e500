package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/ports"
)

// UpdateOrderStatusCommand requests a manual status change, e.g. an operator
// correcting an order. It goes through the same state machine as the watcher:
// terminal orders cannot be moved again.
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  domain.OrderStatus
}

func (c UpdateOrderStatusCommand) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return errors.New("order_id is required")
	}
	if _, err := domain.ParseOrderStatus(string(c.Status)); err != nil {
		return err
	}
	return nil
}

type UpdateOrderStatusCommandHandler struct {
	repo   ports.OrderRepository
	events ports.EventBus
}

func NewUpdateOrderStatusCommandHandler(repo ports.OrderRepository, events ports.EventBus) *UpdateOrderStatusCommandHandler {
	return &UpdateOrderStatusCommandHandler{repo: repo, events: events}
}

func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	order, err := h.repo.Transition(ctx, cmd.OrderID, cmd.Status)
	if err != nil {
		return nil, err
	}

	switch cmd.Status {
	case domain.StatusCompleted:
		_ = h.events.PublishOrderCompleted(ctx, order.ID)
	case domain.StatusCancelled:
		_ = h.events.PublishOrderCancelled(ctx, order.ID, "manual status update")
	}

	return order, nil
}
