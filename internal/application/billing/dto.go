package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrylos/backend/internal/domain/billing"
)

// CreatePaymentInput represents a request to raise a payment demand
type CreatePaymentInput struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	PaymentNote string          `json:"payment_note" binding:"omitempty,max=500"`
	UPIID       string          `json:"upi_id" binding:"omitempty,max=100"`
	QRCodeURL   string          `json:"qr_code_url" binding:"omitempty,url"`
}

// SubmitTransactionInput represents the payer's settlement submission
type SubmitTransactionInput struct {
	TransactionID string `json:"transaction_id" binding:"required,min=1,max=100"`
}

// PaymentListFilter represents filter options for payment lists
type PaymentListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending paid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PaymentResponse represents a payment request in API responses
type PaymentResponse struct {
	ID               uuid.UUID       `json:"id"`
	ServiceRequestID uuid.UUID       `json:"service_request_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	TransactionID    *string         `json:"transaction_id,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	PaymentNote      string          `json:"payment_note,omitempty"`
	UPIID            string          `json:"upi_id,omitempty"`
	QRCodeURL        string          `json:"qr_code_url,omitempty"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToPaymentResponse converts a domain payment request to a response DTO
func ToPaymentResponse(p *billing.PaymentRequest) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		ServiceRequestID: p.ServiceRequestID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           p.Status.String(),
		TransactionID:    p.TransactionID,
		PaidAt:           p.PaidAt,
		PaymentNote:      p.PaymentNote,
		UPIID:            p.UPIID,
		QRCodeURL:        p.QRCodeURL,
		Version:          p.GetVersion(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ToPaymentResponses converts a slice of domain payments to response DTOs
func ToPaymentResponses(payments []billing.PaymentRequest) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
