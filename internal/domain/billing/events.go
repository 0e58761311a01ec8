package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrylos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePaymentRequest = "PaymentRequest"

// Event type constants
const (
	EventTypePaymentRequested = "PaymentRequested"
	EventTypePaymentSettled   = "PaymentSettled"
)

// PaymentRequestedEvent is raised when a payment request is created
type PaymentRequestedEvent struct {
	shared.BaseDomainEvent
	PaymentID        uuid.UUID       `json:"payment_id"`
	ServiceRequestID uuid.UUID       `json:"service_request_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
}

// NewPaymentRequestedEvent creates a new PaymentRequestedEvent
func NewPaymentRequestedEvent(p *PaymentRequest) *PaymentRequestedEvent {
	return &PaymentRequestedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentRequested, AggregateTypePaymentRequest, p.ID),
		PaymentID:        p.ID,
		ServiceRequestID: p.ServiceRequestID,
		Amount:           p.Amount,
		Currency:         p.Currency,
	}
}

// EventType returns the event type name
func (e *PaymentRequestedEvent) EventType() string {
	return EventTypePaymentRequested
}

// PaymentSettledEvent is raised when a payment transitions to paid
type PaymentSettledEvent struct {
	shared.BaseDomainEvent
	PaymentID        uuid.UUID       `json:"payment_id"`
	ServiceRequestID uuid.UUID       `json:"service_request_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	TransactionID    string          `json:"transaction_id"`
}

// NewPaymentSettledEvent creates a new PaymentSettledEvent
func NewPaymentSettledEvent(p *PaymentRequest) *PaymentSettledEvent {
	txID := ""
	if p.TransactionID != nil {
		txID = *p.TransactionID
	}
	return &PaymentSettledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentSettled, AggregateTypePaymentRequest, p.ID),
		PaymentID:        p.ID,
		ServiceRequestID: p.ServiceRequestID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		TransactionID:    txID,
	}
}

// EventType returns the event type name
func (e *PaymentSettledEvent) EventType() string {
	return EventTypePaymentSettled
}
