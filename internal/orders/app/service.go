package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/payflow/internal/orders/app/commands"
	"github.com/dejobratic/payflow/internal/orders/app/queries"
	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/metrics"
	"github.com/dejobratic/payflow/internal/orders/ports"
)

// Service bundles use cases for handling orders via the API.
type Service struct {
	idemStore           ports.IdempotencyStore
	createOrderHandler  commands.CommandHandler
	updateStatusHandler *commands.UpdateOrderStatusCommandHandler
	getOrderHandler     *queries.GetOrderQueryHandler
	listOrdersHandler   *queries.ListOrdersQueryHandler
}

// NewService wires required dependencies.
func NewService(
	repo ports.OrderRepository,
	gateway ports.PaymentGateway,
	events ports.EventBus,
	watcher commands.PaymentWatcher,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	coreHandler := commands.NewCreateOrderCommandHandler(repo, gateway, events, watcher)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, metrics)

	return &Service{
		idemStore:           idem,
		createOrderHandler:  observableHandler,
		updateStatusHandler: commands.NewUpdateOrderStatusCommandHandler(repo, events),
		getOrderHandler:     queries.NewGetOrderQueryHandler(repo),
		listOrdersHandler:   queries.NewListOrdersQueryHandler(repo),
	}
}

// CreateOrderInput captures payload for creating an order.
type CreateOrderInput struct {
	Items    []domain.OrderItem `json:"items"`
	Currency string             `json:"currency"`
}

// CreateOrder orchestrates order creation, payment initiation, and watcher startup.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	cmd := commands.CreateOrderCommand{
		Items:    input.Items,
		Currency: input.Currency,
	}
	return s.createOrderHandler.Handle(ctx, cmd)
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return s.listOrdersHandler.Handle(ctx, queries.ListOrdersQuery{Filter: filter})
}

// UpdateOrderStatus applies a manual status transition to an order.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	cmd := commands.UpdateOrderStatusCommand{OrderID: id, Status: status}
	return s.updateStatusHandler.Handle(ctx, cmd)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
