package request

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/shared"
)

// RequestStatus represents the lifecycle status of a service request
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status admits no further transitions
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusInProgress || target == StatusCompleted || target == StatusCancelled
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// Priority represents the urgency classification of a service request
// It is informational and does not participate in lifecycle rules
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is a valid Priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// String returns the string representation of Priority
func (p Priority) String() string {
	return string(p)
}

// ServiceRequest represents a client service request aggregate root
// It manages the request lifecycle from submission to completion and
// carries the project manager assignment link
type ServiceRequest struct {
	shared.BaseAggregateRoot
	Title         string
	Description   string
	ClientName    string
	CompanyName   string
	ContactEmail  string
	ContactPhone  string
	ServiceType   string
	BudgetRange   string
	Timeline      string
	Priority      Priority
	Status        RequestStatus
	AdminResponse string
	Notes         string
	OwnerID       uuid.UUID
	AssignedPMID  *uuid.UUID `gorm:"column:assigned_pm_id"`
	PMAssignedAt  *time.Time `gorm:"column:pm_assigned_at"`
	CompletedAt   *time.Time
	CancelledAt   *time.Time
}

// TableName returns the database table name
func (ServiceRequest) TableName() string {
	return "service_requests"
}

// NewServiceRequest creates a new service request in pending status
func NewServiceRequest(ownerID uuid.UUID, title, description, clientName string) (*ServiceRequest, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if clientName == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}

	req := &ServiceRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		Description:       description,
		ClientName:        clientName,
		Priority:          PriorityMedium,
		Status:            StatusPending,
		OwnerID:           ownerID,
	}

	req.AddDomainEvent(NewRequestCreatedEvent(req))

	return req, nil
}

// SetPriority sets the request priority
func (r *ServiceRequest) SetPriority(priority Priority) error {
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", fmt.Sprintf("Unknown priority %q", priority))
	}
	r.Priority = priority
	r.UpdatedAt = time.Now()
	return nil
}

// IsAssigned reports whether a project manager is linked to the request
func (r *ServiceRequest) IsAssigned() bool {
	return r.AssignedPMID != nil
}

// IsActive reports whether the request still counts toward PM workload
func (r *ServiceRequest) IsActive() bool {
	return !r.Status.IsTerminal()
}

// Assign links a project manager to the request
// Both AssignedPMID and PMAssignedAt are set together
func (r *ServiceRequest) Assign(pmID uuid.UUID, pmName, pmEmail string) error {
	if pmID == uuid.Nil {
		return shared.NewDomainError("INVALID_PM", "Project manager ID cannot be empty")
	}
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot assign a request in %s status", r.Status))
	}
	if r.AssignedPMID != nil {
		return shared.NewDomainError("ALREADY_ASSIGNED", "Request already has an assigned project manager")
	}

	now := time.Now()
	r.AssignedPMID = &pmID
	r.PMAssignedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(NewRequestAssignedEvent(r, pmID, pmName, pmEmail))

	return nil
}

// Unassign removes the project manager link
// Both AssignedPMID and PMAssignedAt are cleared together
func (r *ServiceRequest) Unassign() error {
	if r.AssignedPMID == nil {
		return shared.NewDomainError("NOT_ASSIGNED", "Request has no assigned project manager")
	}

	pmID := *r.AssignedPMID
	r.AssignedPMID = nil
	r.PMAssignedAt = nil
	r.UpdatedAt = time.Now()

	r.AddDomainEvent(NewRequestUnassignedEvent(r, pmID))

	return nil
}

// ChangeStatus transitions the request to the target status
// A same-state transition is a no-op and succeeds without side effects
func (r *ServiceRequest) ChangeStatus(target RequestStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown status %q", target))
	}
	if target == r.Status {
		return nil
	}
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", r.Status, target))
	}

	now := time.Now()
	from := r.Status
	r.Status = target
	r.UpdatedAt = now

	switch target {
	case StatusCompleted:
		r.CompletedAt = &now
	case StatusCancelled:
		r.CancelledAt = &now
	}

	r.AddDomainEvent(NewRequestStatusChangedEvent(r, from, target))

	return nil
}

// AddNote appends a timestamped note to the request
// Notes are append-only; existing notes are never rewritten
func (r *ServiceRequest) AddNote(note string) error {
	if note == "" {
		return shared.NewDomainError("INVALID_NOTE", "Note cannot be empty")
	}

	now := time.Now()
	stamped := fmt.Sprintf("[%s] %s", now.Format("2006-01-02 15:04:05"), note)
	if r.Notes == "" {
		r.Notes = stamped
	} else {
		r.Notes = r.Notes + "\n\n" + stamped
	}
	r.UpdatedAt = now

	return nil
}

// SetAdminResponse records the operator's response to the client
func (r *ServiceRequest) SetAdminResponse(response string) error {
	if response == "" {
		return shared.NewDomainError("INVALID_RESPONSE", "Response cannot be empty")
	}
	r.AdminResponse = response
	r.UpdatedAt = time.Now()
	return nil
}

// SetContactDetails sets the optional contact and intake fields
func (r *ServiceRequest) SetContactDetails(companyName, contactEmail, contactPhone string) {
	r.CompanyName = companyName
	r.ContactEmail = contactEmail
	r.ContactPhone = contactPhone
	r.UpdatedAt = time.Now()
}

// SetIntakeDetails sets the descriptive intake classification fields
func (r *ServiceRequest) SetIntakeDetails(serviceType, budgetRange, timeline string) {
	r.ServiceType = serviceType
	r.BudgetRange = budgetRange
	r.Timeline = timeline
	r.UpdatedAt = time.Now()
}
