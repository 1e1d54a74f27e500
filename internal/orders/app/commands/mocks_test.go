package commands_test

import (
	"context"

	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/ports"
)

type mockRepository struct {
	createFn        func(ctx context.Context, order domain.Order) error
	getByIDFn       func(ctx context.Context, id string) (*domain.Order, error)
	attachPaymentFn func(ctx context.Context, id, paymentID string) error
	transitionFn    func(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)

	created     []domain.Order
	attached    map[string]string
	transitions map[string]domain.OrderStatus
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		attached:    make(map[string]string),
		transitions: make(map[string]domain.OrderStatus),
	}
}

func (m *mockRepository) Create(ctx context.Context, order domain.Order) error {
	m.created = append(m.created, order)
	if m.createFn != nil {
		return m.createFn(ctx, order)
	}
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) AttachPayment(ctx context.Context, id, paymentID string) error {
	m.attached[id] = paymentID
	if m.attachPaymentFn != nil {
		return m.attachPaymentFn(ctx, id, paymentID)
	}
	return nil
}

func (m *mockRepository) Transition(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	m.transitions[id] = status
	if m.transitionFn != nil {
		return m.transitionFn(ctx, id, status)
	}
	return &domain.Order{ID: id, Status: status}, nil
}

type mockGateway struct {
	createPaymentFn func(ctx context.Context, amountCents int64, currency string) (*domain.Payment, error)
	getPaymentFn    func(ctx context.Context, id string) (*domain.Payment, error)

	createdAmounts []int64
}

func (m *mockGateway) CreatePayment(ctx context.Context, amountCents int64, currency string) (*domain.Payment, error) {
	m.createdAmounts = append(m.createdAmounts, amountCents)
	if m.createPaymentFn != nil {
		return m.createPaymentFn(ctx, amountCents, currency)
	}
	return &domain.Payment{ID: "pay-1", Status: domain.PaymentPending, AmountCents: amountCents, Currency: currency}, nil
}

func (m *mockGateway) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	if m.getPaymentFn != nil {
		return m.getPaymentFn(ctx, id)
	}
	return &domain.Payment{ID: id, Status: domain.PaymentPending}, nil
}

type mockEventBus struct {
	publishCreatedFn func(ctx context.Context, orderID string) error

	created   []string
	completed []string
	cancelled []string
}

func (m *mockEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	m.created = append(m.created, orderID)
	if m.publishCreatedFn != nil {
		return m.publishCreatedFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishOrderCompleted(_ context.Context, orderID string) error {
	m.completed = append(m.completed, orderID)
	return nil
}

func (m *mockEventBus) PublishOrderCancelled(_ context.Context, orderID string, reason string) error {
	m.cancelled = append(m.cancelled, orderID)
	return nil
}

type mockWatcher struct {
	watched [][2]string
}

func (m *mockWatcher) Watch(orderID, paymentID string) {
	m.watched = append(m.watched, [2]string{orderID, paymentID})
}
