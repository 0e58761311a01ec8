package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/request"
)

// CreateRequestInput represents a request to submit a new service request
type CreateRequestInput struct {
	Title        string `json:"title" binding:"required,min=1,max=200"`
	Description  string `json:"description" binding:"required,min=1"`
	ClientName   string `json:"client_name" binding:"required,min=1,max=200"`
	CompanyName  string `json:"company_name" binding:"omitempty,max=200"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string `json:"contact_phone" binding:"omitempty,max=30"`
	ServiceType  string `json:"service_type" binding:"omitempty,max=100"`
	BudgetRange  string `json:"budget_range" binding:"omitempty,max=100"`
	Timeline     string `json:"timeline" binding:"omitempty,max=100"`
	Priority     string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

// ChangeStatusInput represents a lifecycle transition request
type ChangeStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// RespondInput represents the operator response to a request
type RespondInput struct {
	Response string `json:"response" binding:"required,min=1"`
}

// AddNoteInput represents a note appended to a request
type AddNoteInput struct {
	Note string `json:"note" binding:"required,min=1"`
}

// RequestListFilter represents filter options for request lists
type RequestListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority string     `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	PMID     *uuid.UUID `form:"pm_id"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RequestResponse represents a service request in API responses
type RequestResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ClientName    string     `json:"client_name"`
	CompanyName   string     `json:"company_name,omitempty"`
	ContactEmail  string     `json:"contact_email,omitempty"`
	ContactPhone  string     `json:"contact_phone,omitempty"`
	ServiceType   string     `json:"service_type,omitempty"`
	BudgetRange   string     `json:"budget_range,omitempty"`
	Timeline      string     `json:"timeline,omitempty"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	AdminResponse string     `json:"admin_response,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	AssignedPMID  *uuid.UUID `json:"assigned_pm_id,omitempty"`
	PMAssignedAt  *time.Time `json:"pm_assigned_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AssignedPMInfo represents the assigned project manager in the enriched view
type AssignedPMInfo struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Available      bool      `json:"available"`
}

// PaymentInfo represents a payment request in the enriched view
type PaymentInfo struct {
	ID            uuid.UUID  `json:"id"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// EnrichedRequestResponse joins a request with its PM and payment sub-ledger
type EnrichedRequestResponse struct {
	RequestResponse
	AssignedPM *AssignedPMInfo `json:"assigned_pm,omitempty"`
	Payments   []PaymentInfo   `json:"payments"`
}

// ToRequestResponse converts a domain service request to a response DTO
func ToRequestResponse(req *request.ServiceRequest) RequestResponse {
	return RequestResponse{
		ID:            req.ID,
		Title:         req.Title,
		Description:   req.Description,
		ClientName:    req.ClientName,
		CompanyName:   req.CompanyName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		ServiceType:   req.ServiceType,
		BudgetRange:   req.BudgetRange,
		Timeline:      req.Timeline,
		Priority:      req.Priority.String(),
		Status:        req.Status.String(),
		AdminResponse: req.AdminResponse,
		Notes:         req.Notes,
		OwnerID:       req.OwnerID,
		AssignedPMID:  req.AssignedPMID,
		PMAssignedAt:  req.PMAssignedAt,
		CompletedAt:   req.CompletedAt,
		CancelledAt:   req.CancelledAt,
		Version:       req.GetVersion(),
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
}

// ToRequestResponses converts a slice of domain requests to response DTOs
func ToRequestResponses(reqs []request.ServiceRequest) []RequestResponse {
	responses := make([]RequestResponse, len(reqs))
	for i := range reqs {
		responses[i] = ToRequestResponse(&reqs[i])
	}
	return responses
}
