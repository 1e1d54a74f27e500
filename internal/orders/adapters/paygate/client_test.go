package paygate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dejobratic/payflow/internal/orders/adapters/paygate"
	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/ports"
)

func TestCreatePayment(t *testing.T) {
	t.Run("posts amount and currency and decodes the payment", func(t *testing.T) {
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/payments" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("failed to decode request body: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			// Literal provider response: the wire format is camelCase.
			_, _ = w.Write([]byte(`{"id":"pay-1","status":"pending","amountCents":1299,"currency":"USD"}`))
		}))
		defer server.Close()

		client := paygate.NewClient(server.URL, 5*time.Second)

		payment, err := client.CreatePayment(context.Background(), 1299, "USD")
		if err != nil {
			t.Fatalf("CreatePayment() error: %v", err)
		}
		if payment.ID != "pay-1" || payment.Status != domain.PaymentPending {
			t.Errorf("unexpected payment: %+v", payment)
		}
		if payment.AmountCents != 1299 {
			t.Errorf("AmountCents = %d, want 1299", payment.AmountCents)
		}
		if gotBody["amountCents"] != float64(1299) || gotBody["currency"] != "USD" {
			t.Errorf("unexpected request body: %v", gotBody)
		}
		if _, legacy := gotBody["amount_cents"]; legacy {
			t.Error("request body must not contain a snake_case amount key")
		}
	})

	t.Run("returns GatewayError on non-success response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := paygate.NewClient(server.URL, 5*time.Second)

		_, err := client.CreatePayment(context.Background(), 100, "USD")

		var gerr *ports.GatewayError
		if !errors.As(err, &gerr) {
			t.Fatalf("expected GatewayError, got: %v", err)
		}
		if gerr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want 500", gerr.StatusCode)
		}
	})

	t.Run("returns GatewayError on transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close() // refuse connections

		client := paygate.NewClient(server.URL, time.Second)

		_, err := client.CreatePayment(context.Background(), 100, "USD")

		var gerr *ports.GatewayError
		if !errors.As(err, &gerr) {
			t.Fatalf("expected GatewayError, got: %v", err)
		}
		if gerr.StatusCode != 0 {
			t.Errorf("StatusCode = %d, want 0 for transport failure", gerr.StatusCode)
		}
	})
}

func TestGetPayment(t *testing.T) {
	t.Run("fetches the payment by id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/payments/pay-1" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"pay-1","status":"completed","amountCents":1299,"currency":"USD"}`))
		}))
		defer server.Close()

		client := paygate.NewClient(server.URL, 5*time.Second)

		payment, err := client.GetPayment(context.Background(), "pay-1")
		if err != nil {
			t.Fatalf("GetPayment() error: %v", err)
		}
		if payment.Status != domain.PaymentCompleted {
			t.Errorf("Status = %s, want completed", payment.Status)
		}
		if payment.AmountCents != 1299 {
			t.Errorf("AmountCents = %d, want 1299", payment.AmountCents)
		}
	})

	t.Run("returns GatewayError when the provider does not know the payment", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := paygate.NewClient(server.URL, 5*time.Second)

		_, err := client.GetPayment(context.Background(), "missing")

		var gerr *ports.GatewayError
		if !errors.As(err, &gerr) {
			t.Fatalf("expected GatewayError, got: %v", err)
		}
		if gerr.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", gerr.StatusCode)
		}
	})
}
