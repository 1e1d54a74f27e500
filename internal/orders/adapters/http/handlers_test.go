package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	idemmemory "github.com/dejobratic/payflow/internal/idempotency/memory"
	httpadapter "github.com/dejobratic/payflow/internal/orders/adapters/http"
	ordersmemory "github.com/dejobratic/payflow/internal/orders/adapters/memory"
	"github.com/dejobratic/payflow/internal/orders/app"
	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/metrics"
	"github.com/dejobratic/payflow/internal/orders/ports"
	"go.opentelemetry.io/otel/metric/noop"
)

type fakeGateway struct {
	fail bool
}

func (g *fakeGateway) CreatePayment(_ context.Context, amountCents int64, currency string) (*domain.Payment, error) {
	if g.fail {
		return nil, &ports.GatewayError{Op: "create", StatusCode: http.StatusServiceUnavailable}
	}
	return &domain.Payment{ID: "pay-1", Status: domain.PaymentPending, AmountCents: amountCents, Currency: currency}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*domain.Payment, error) {
	return &domain.Payment{ID: id, Status: domain.PaymentPending}, nil
}

type fakeBus struct{}

func (fakeBus) PublishOrderCreated(context.Context, string) error           { return nil }
func (fakeBus) PublishOrderCompleted(context.Context, string) error         { return nil }
func (fakeBus) PublishOrderCancelled(context.Context, string, string) error { return nil }

type fakeWatcher struct{}

func (fakeWatcher) Watch(string, string) {}

// failingRepository simulates a store outage on insert.
type failingRepository struct {
	ports.OrderRepository
}

func (failingRepository) Create(context.Context, domain.Order) error {
	return errors.New("connection refused")
}

func newTestServer(t *testing.T, gateway ports.PaymentGateway) (*httptest.Server, *ordersmemory.Repository) {
	t.Helper()

	repo := ordersmemory.NewRepository()
	server := newTestServerWithRepo(t, repo, gateway)
	return server, repo
}

func newTestServerWithRepo(t *testing.T, repo ports.OrderRepository, gateway ports.PaymentGateway) *httptest.Server {
	t.Helper()

	m, err := metrics.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := app.NewService(repo, gateway, fakeBus{}, fakeWatcher{}, idemmemory.NewStore(), logger, m)

	mux := http.NewServeMux()
	httpadapter.NewHandler(service).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func decodeOrder(t *testing.T, body io.Reader) domain.Order {
	t.Helper()
	var payload struct {
		Order domain.Order `json:"order"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload.Order
}

const createBody = `{"items":[{"product_id":"p1","quantity":2,"price_cents":50}],"currency":"USD"}`

func postOrder(t *testing.T, server *httptest.Server, idemKey, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/orders", strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateOrderEndpoint(t *testing.T) {
	t.Run("accepts a valid order", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeGateway{})

		resp := postOrder(t, server, "key-1", createBody)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", resp.StatusCode)
		}

		order := decodeOrder(t, resp.Body)
		if order.Status != domain.StatusPending {
			t.Errorf("order status = %s, want pending", order.Status)
		}
		if order.PaymentID != "pay-1" {
			t.Errorf("payment id = %q, want pay-1", order.PaymentID)
		}
		if order.TotalCents != 100 {
			t.Errorf("total = %d, want 100", order.TotalCents)
		}
	})

	t.Run("requires an idempotency key", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeGateway{})

		resp := postOrder(t, server, "", createBody)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("replays the stored response for a reused key", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeGateway{})

		first := postOrder(t, server, "key-1", createBody)
		firstOrder := decodeOrder(t, first.Body)

		second := postOrder(t, server, "key-1", createBody)
		if second.StatusCode != http.StatusAccepted {
			t.Fatalf("replay status = %d, want 202", second.StatusCode)
		}
		secondOrder := decodeOrder(t, second.Body)

		if firstOrder.ID != secondOrder.ID {
			t.Errorf("replay returned a different order: %s vs %s", firstOrder.ID, secondOrder.ID)
		}
	})

	t.Run("maps payment initiation failure to 502 and keeps the cancelled order", func(t *testing.T) {
		server, repo := newTestServer(t, &fakeGateway{fail: true})

		resp := postOrder(t, server, "key-1", createBody)
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", resp.StatusCode)
		}

		orders, err := repo.List(context.Background(), ports.ListFilter{})
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		if len(orders) != 1 {
			t.Fatalf("expected 1 order in the store, got %d", len(orders))
		}
		if orders[0].Status != domain.StatusCancelled {
			t.Errorf("order status = %s, want cancelled", orders[0].Status)
		}
	})

	t.Run("maps store failures to 500", func(t *testing.T) {
		repo := failingRepository{OrderRepository: ordersmemory.NewRepository()}
		server := newTestServerWithRepo(t, repo, &fakeGateway{})

		resp := postOrder(t, server, "key-1", createBody)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", resp.StatusCode)
		}
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		server, _ := newTestServer(t, &fakeGateway{})

		tests := []struct {
			name string
			body string
		}{
			{"malformed json", `{`},
			{"no items", `{"items":[],"currency":"USD"}`},
			{"missing currency", `{"items":[{"product_id":"p1","quantity":1,"price_cents":10}]}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := postOrder(t, server, "key-"+tt.name, tt.body)
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("status = %d, want 400", resp.StatusCode)
				}
			})
		}
	})
}

func TestGetOrderEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakeGateway{})

	created := postOrder(t, server, "key-1", createBody)
	order := decodeOrder(t, created.Body)

	t.Run("returns the order by id", func(t *testing.T) {
		resp, err := server.Client().Get(server.URL + "/v1/orders/" + order.ID)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		got := decodeOrder(t, resp.Body)
		if got.ID != order.ID {
			t.Errorf("id = %s, want %s", got.ID, order.ID)
		}
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		resp, err := server.Client().Get(server.URL + "/v1/orders/unknown")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestListOrdersEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakeGateway{})
	postOrder(t, server, "key-1", createBody)

	t.Run("lists orders by status", func(t *testing.T) {
		resp, err := server.Client().Get(server.URL + "/v1/orders?status=pending")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var payload struct {
			Orders []domain.Order `json:"orders"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(payload.Orders) != 1 {
			t.Errorf("expected 1 order, got %d", len(payload.Orders))
		}
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		resp, err := server.Client().Get(server.URL + "/v1/orders?status=shipped")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakeGateway{})

	created := postOrder(t, server, "key-1", createBody)
	order := decodeOrder(t, created.Body)

	patchStatus := func(t *testing.T, id, status string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPatch, server.URL+"/v1/orders/"+id+"/status", strings.NewReader(`{"status":"`+status+`"}`))
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		resp, err := server.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("applies a pending to completed transition", func(t *testing.T) {
		resp := patchStatus(t, order.ID, "completed")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		got := decodeOrder(t, resp.Body)
		if got.Status != domain.StatusCompleted {
			t.Errorf("order status = %s, want completed", got.Status)
		}
	})

	t.Run("rejects a transition out of a terminal state", func(t *testing.T) {
		resp := patchStatus(t, order.ID, "cancelled")
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("returns 404 for unknown order", func(t *testing.T) {
		resp := patchStatus(t, "unknown", "completed")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		resp := patchStatus(t, order.ID, "shipped")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}
