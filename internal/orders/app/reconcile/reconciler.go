package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/metrics"
	"github.com/dejobratic/payflow/internal/orders/ports"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 5 * time.Second

// Reconciler keeps order status eventually consistent with the payment
// provider. Each watched order gets its own goroutine that polls the gateway
// until the payment reaches a terminal state or a poll fails. Watchers are
// registered in a supervising set so the process can cancel them on shutdown
// and tests can wait for completion deterministically.
type Reconciler struct {
	repo     ports.OrderRepository
	gateway  ports.PaymentGateway
	events   ports.EventBus
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration

	baseCtx   context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup

	mu       sync.Mutex
	watchers map[string]*watcher
}

type watcher struct {
	paymentID string
	cancel    context.CancelFunc
	done      chan struct{}
}

// New constructs a Reconciler polling at the given interval.
func New(
	repo ports.OrderRepository,
	gateway ports.PaymentGateway,
	events ports.EventBus,
	logger *slog.Logger,
	m *metrics.Metrics,
	interval time.Duration,
) *Reconciler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		repo:      repo,
		gateway:   gateway,
		events:    events,
		logger:    logger,
		metrics:   m,
		interval:  interval,
		baseCtx:   ctx,
		cancelAll: cancel,
		watchers:  make(map[string]*watcher),
	}
}

// Watch starts background reconciliation for the order's payment. At most one
// watcher runs per order; calling Watch again while one is running is a no-op.
func (r *Reconciler) Watch(orderID, paymentID string) {
	r.mu.Lock()
	if _, running := r.watchers[orderID]; running {
		r.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(r.baseCtx)
	w := &watcher{
		paymentID: paymentID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.watchers[orderID] = w
	r.mu.Unlock()

	r.metrics.WatcherStarted(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(w.done)
		defer r.remove(orderID)
		defer cancel()
		defer r.metrics.WatcherStopped(r.baseCtx)
		r.watch(ctx, orderID, paymentID)
	}()
}

func (r *Reconciler) watch(ctx context.Context, orderID, paymentID string) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "watching payment",
		"order_id", orderID,
		"payment_id", paymentID,
		"interval", r.interval,
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payment, err := r.gateway.GetPayment(ctx, paymentID)
			if err != nil {
				// A single failed poll ends the watcher permanently; the order
				// keeps its current status and only the sink hears about it.
				r.metrics.RecordWatcherPollError(ctx)
				r.logger.ErrorContext(ctx, "payment poll failed, stopping watcher",
					"order_id", orderID,
					"payment_id", paymentID,
					"error", err,
				)
				return
			}

			switch {
			case payment.Status.Settled():
				r.settle(ctx, orderID, domain.StatusCompleted)
				return
			case payment.Status.IsTerminal():
				r.settle(ctx, orderID, domain.StatusCancelled)
				return
			default:
				// Payment still in flight; wait for the next tick.
			}
		}
	}
}

func (r *Reconciler) settle(ctx context.Context, orderID string, status domain.OrderStatus) {
	_, err := r.repo.Transition(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// The order reached a terminal state through another path, e.g. a
			// manual status update. Nothing left to reconcile.
			r.logger.WarnContext(ctx, "order already terminal, skipping transition",
				"order_id", orderID,
				"status", status,
			)
			return
		}
		r.metrics.RecordPaymentReconciled(ctx, "error")
		r.logger.ErrorContext(ctx, "failed to apply settlement",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
		return
	}

	r.metrics.RecordPaymentReconciled(ctx, string(status))
	r.logger.InfoContext(ctx, "order settled",
		"order_id", orderID,
		"status", status,
	)

	switch status {
	case domain.StatusCompleted:
		_ = r.events.PublishOrderCompleted(ctx, orderID)
	case domain.StatusCancelled:
		_ = r.events.PublishOrderCancelled(ctx, orderID, "payment not settled")
	}
}

func (r *Reconciler) remove(orderID string) {
	r.mu.Lock()
	delete(r.watchers, orderID)
	r.mu.Unlock()
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done returns a channel that closes when the order's watcher exits. If no
// watcher is running for the order, the returned channel is already closed.
func (r *Reconciler) Done(orderID string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.watchers[orderID]; ok {
		return w.done
	}
	return closedDone
}

// Cancel stops the order's watcher, if any, without touching the order.
func (r *Reconciler) Cancel(orderID string) {
	r.mu.Lock()
	w, ok := r.watchers[orderID]
	r.mu.Unlock()
	if ok {
		w.cancel()
	}
}

// Running reports how many watchers are currently active.
func (r *Reconciler) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers)
}

// Shutdown cancels all watchers and waits for them to exit or for ctx to expire.
func (r *Reconciler) Shutdown(ctx context.Context) error {
	r.cancelAll()

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
