package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrylos/backend/internal/domain/shared"
)

// PaymentStatus represents the settlement state of a payment request
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// DefaultCurrency is applied when a payment request carries no currency
const DefaultCurrency = "INR"

// PaymentRequest represents a payment demand attached to a service request
// Settlement is one-way: pending becomes paid exactly once
type PaymentRequest struct {
	shared.BaseAggregateRoot
	ServiceRequestID uuid.UUID
	Amount           decimal.Decimal
	Currency         string
	Status           PaymentStatus
	TransactionID    *string
	PaidAt           *time.Time
	PaymentNote      string
	UPIID            string `gorm:"column:upi_id"`
	QRCodeURL        string `gorm:"column:qr_code_url"`
}

// TableName returns the database table name
func (PaymentRequest) TableName() string {
	return "payment_requests"
}

// NewPaymentRequest creates a new pending payment request
func NewPaymentRequest(serviceRequestID uuid.UUID, amount decimal.Decimal, currency string) (*PaymentRequest, error) {
	if serviceRequestID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", "Service request ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	payment := &PaymentRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ServiceRequestID:  serviceRequestID,
		Amount:            amount,
		Currency:          currency,
		Status:            PaymentStatusPending,
	}

	payment.AddDomainEvent(NewPaymentRequestedEvent(payment))

	return payment, nil
}

// SetPayoutDetails sets the payout instructions shown to the payer
func (p *PaymentRequest) SetPayoutDetails(note, upiID, qrCodeURL string) {
	p.PaymentNote = note
	p.UPIID = upiID
	p.QRCodeURL = qrCodeURL
	p.UpdatedAt = time.Now()
}

// IsSettled reports whether the payment has been settled
func (p *PaymentRequest) IsSettled() bool {
	return p.Status == PaymentStatusPaid
}

// Settle marks the payment as paid with the given transaction reference
// A settled payment keeps its first transaction id and paid_at forever
func (p *PaymentRequest) Settle(transactionID string) error {
	if transactionID == "" {
		return shared.NewDomainError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}
	if p.Status == PaymentStatusPaid {
		return shared.NewDomainError("ALREADY_SETTLED", "Payment has already been settled")
	}

	now := time.Now()
	p.Status = PaymentStatusPaid
	p.TransactionID = &transactionID
	p.PaidAt = &now
	p.UpdatedAt = now

	p.AddDomainEvent(NewPaymentSettledEvent(p))

	return nil
}
