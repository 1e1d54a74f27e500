package domain

// PaymentStatus is the provider-defined lifecycle of a payment. The provider
// may report statuses beyond these; anything not listed is treated as in-flight.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// Payment is the provider's view of a money movement. It is owned by the
// external gateway and read-only from this service's perspective. The json
// tags follow the provider's wire format, which uses camelCase keys.
type Payment struct {
	ID          string        `json:"id"`
	Status      PaymentStatus `json:"status"`
	AmountCents int64         `json:"amountCents"`
	Currency    string        `json:"currency"`
}

// IsTerminal indicates whether the provider will never change this status again.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	default:
		return false
	}
}

// Settled indicates the payment collected money successfully.
func (s PaymentStatus) Settled() bool {
	return s == PaymentCompleted
}
