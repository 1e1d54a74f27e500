package ports

import (
	"context"
	"fmt"

	"github.com/dejobratic/payflow/internal/orders/domain"
)

// PaymentGateway abstracts the external payment provider. Every call hits the
// provider; there is no caching and no retry at this layer. A single failed
// attempt is reported immediately to the caller.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, amountCents int64, currency string) (*domain.Payment, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
}

// GatewayError is any transport failure or non-success response from the
// payment provider. It is produced only by gateway adapters.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
