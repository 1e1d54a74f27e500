package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal      metric.Int64Counter
	orderCreationDuration   metric.Float64Histogram
	paymentsReconciledTotal metric.Int64Counter
	watcherPollErrorsTotal  metric.Int64Counter
	watchersActive          metric.Int64UpDownCounter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.paymentsReconciledTotal, err = meter.Int64Counter(
		"payments_reconciled_total",
		metric.WithDescription("Settlements applied to orders by the reconciler"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payments_reconciled_total counter: %w", err)
	}

	m.watcherPollErrorsTotal, err = meter.Int64Counter(
		"watcher_poll_errors_total",
		metric.WithDescription("Payment polls that failed and terminated a watcher"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create watcher_poll_errors_total counter: %w", err)
	}

	m.watchersActive, err = meter.Int64UpDownCounter(
		"watchers_active",
		metric.WithDescription("Currently running payment watchers"),
		metric.WithUnit("{watcher}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create watchers_active counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordPaymentReconciled(ctx context.Context, outcome string) {
	m.paymentsReconciledTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordWatcherPollError(ctx context.Context) {
	m.watcherPollErrorsTotal.Add(ctx, 1)
}

func (m *Metrics) WatcherStarted(ctx context.Context) {
	m.watchersActive.Add(ctx, 1)
}

func (m *Metrics) WatcherStopped(ctx context.Context) {
	m.watchersActive.Add(ctx, -1)
}
