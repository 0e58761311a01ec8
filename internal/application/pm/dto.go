package pm

import (
	"time"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/pm"
)

// RegisterPMInput represents a request to register a project manager
type RegisterPMInput struct {
	Name           string `json:"name" binding:"required,min=1,max=200"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"omitempty,max=30"`
	Specialization string `json:"specialization" binding:"omitempty,max=100"`
}

// UpdatePMInput represents a request to update a project manager profile
type UpdatePMInput struct {
	Name           string `json:"name" binding:"required,min=1,max=200"`
	Phone          string `json:"phone" binding:"omitempty,max=30"`
	Specialization string `json:"specialization" binding:"omitempty,max=100"`
}

// PMListFilter represents filter options for project manager lists
type PMListFilter struct {
	Search    string `form:"search"`
	Available *bool  `form:"available"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PMResponse represents a project manager in API responses
type PMResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Available      bool      `json:"available"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AssignedRequestSummary represents one active request in a workload view
type AssignedRequestSummary struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	ClientName   string     `json:"client_name"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	PMAssignedAt *time.Time `json:"pm_assigned_at,omitempty"`
}

// WorkloadResponse represents a project manager with their active assignments
type WorkloadResponse struct {
	PM             PMResponse               `json:"pm"`
	ActiveCount    int64                    `json:"active_count"`
	ActiveRequests []AssignedRequestSummary `json:"active_requests"`
}

// ToPMResponse converts a domain project manager to a response DTO
func ToPMResponse(mgr *pm.ProjectManager) PMResponse {
	return PMResponse{
		ID:             mgr.ID,
		Name:           mgr.Name,
		Email:          mgr.Email,
		Phone:          mgr.Phone,
		Specialization: mgr.Specialization,
		Available:      mgr.Available,
		Version:        mgr.GetVersion(),
		CreatedAt:      mgr.CreatedAt,
		UpdatedAt:      mgr.UpdatedAt,
	}
}

// ToPMResponses converts a slice of domain project managers to response DTOs
func ToPMResponses(mgrs []pm.ProjectManager) []PMResponse {
	responses := make([]PMResponse, len(mgrs))
	for i := range mgrs {
		responses[i] = ToPMResponse(&mgrs[i])
	}
	return responses
}
