package paygate

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/payflow/internal/orders/domain"
	"github.com/dejobratic/payflow/internal/orders/ports"
	"github.com/go-resty/resty/v2"
)

// Client talks to the payment provider's HTTP API. Retries are disabled on
// purpose: a failed attempt must surface to the caller unmodified.
type Client struct {
	http *resty.Client
}

// NewClient constructs a gateway client for the provider at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
	}
}

// createPaymentRequest is the provider's wire format; keys are camelCase.
type createPaymentRequest struct {
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// CreatePayment initiates a payment for the given amount and currency.
func (c *Client) CreatePayment(ctx context.Context, amountCents int64, currency string) (*domain.Payment, error) {
	var payment domain.Payment

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createPaymentRequest{AmountCents: amountCents, Currency: currency}).
		SetResult(&payment).
		Post("/payments")
	if err != nil {
		return nil, &ports.GatewayError{Op: "create", Err: err}
	}
	if resp.IsError() {
		return nil, &ports.GatewayError{
			Op:         "create",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("provider responded %s", resp.Status()),
		}
	}

	return &payment, nil
}

// GetPayment fetches the current payment state by identifier.
func (c *Client) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	var payment domain.Payment

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&payment).
		Get("/payments/{id}")
	if err != nil {
		return nil, &ports.GatewayError{Op: "get", Err: err}
	}
	if resp.IsError() {
		return nil, &ports.GatewayError{
			Op:         "get",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("provider responded %s", resp.Status()),
		}
	}

	return &payment, nil
}
