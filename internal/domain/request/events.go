package request

import (
	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeServiceRequest = "ServiceRequest"

// Event type constants
const (
	EventTypeRequestCreated       = "ServiceRequestCreated"
	EventTypeRequestAssigned      = "ServiceRequestAssigned"
	EventTypeRequestUnassigned    = "ServiceRequestUnassigned"
	EventTypeRequestStatusChanged = "ServiceRequestStatusChanged"
)

// RequestCreatedEvent is raised when a new service request is submitted
type RequestCreatedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID `json:"request_id"`
	Title      string    `json:"title"`
	ClientName string    `json:"client_name"`
	OwnerID    uuid.UUID `json:"owner_id"`
}

// NewRequestCreatedEvent creates a new RequestCreatedEvent
func NewRequestCreatedEvent(req *ServiceRequest) *RequestCreatedEvent {
	return &RequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestCreated, AggregateTypeServiceRequest, req.ID),
		RequestID:       req.ID,
		Title:           req.Title,
		ClientName:      req.ClientName,
		OwnerID:         req.OwnerID,
	}
}

// EventType returns the event type name
func (e *RequestCreatedEvent) EventType() string {
	return EventTypeRequestCreated
}

// RequestAssignedEvent is raised when a project manager is assigned
// It carries everything the notification handler needs so the handler
// does not have to re-read the aggregates
type RequestAssignedEvent struct {
	shared.BaseDomainEvent
	RequestID    uuid.UUID `json:"request_id"`
	RequestTitle string    `json:"request_title"`
	ClientName   string    `json:"client_name"`
	ClientPhone  string    `json:"client_phone"`
	PMID         uuid.UUID `json:"pm_id"`
	PMName       string    `json:"pm_name"`
	PMEmail      string    `json:"pm_email"`
}

// NewRequestAssignedEvent creates a new RequestAssignedEvent
func NewRequestAssignedEvent(req *ServiceRequest, pmID uuid.UUID, pmName, pmEmail string) *RequestAssignedEvent {
	return &RequestAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestAssigned, AggregateTypeServiceRequest, req.ID),
		RequestID:       req.ID,
		RequestTitle:    req.Title,
		ClientName:      req.ClientName,
		ClientPhone:     req.ContactPhone,
		PMID:            pmID,
		PMName:          pmName,
		PMEmail:         pmEmail,
	}
}

// EventType returns the event type name
func (e *RequestAssignedEvent) EventType() string {
	return EventTypeRequestAssigned
}

// RequestUnassignedEvent is raised when the project manager link is removed
type RequestUnassignedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID `json:"request_id"`
	PMID      uuid.UUID `json:"pm_id"`
}

// NewRequestUnassignedEvent creates a new RequestUnassignedEvent
func NewRequestUnassignedEvent(req *ServiceRequest, pmID uuid.UUID) *RequestUnassignedEvent {
	return &RequestUnassignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestUnassigned, AggregateTypeServiceRequest, req.ID),
		RequestID:       req.ID,
		PMID:            pmID,
	}
}

// EventType returns the event type name
func (e *RequestUnassignedEvent) EventType() string {
	return EventTypeRequestUnassigned
}

// RequestStatusChangedEvent is raised on every effective status transition
type RequestStatusChangedEvent struct {
	shared.BaseDomainEvent
	RequestID    uuid.UUID  `json:"request_id"`
	FromStatus   string     `json:"from_status"`
	ToStatus     string     `json:"to_status"`
	AssignedPMID *uuid.UUID `json:"assigned_pm_id,omitempty"`
}

// NewRequestStatusChangedEvent creates a new RequestStatusChangedEvent
func NewRequestStatusChangedEvent(req *ServiceRequest, from, to RequestStatus) *RequestStatusChangedEvent {
	return &RequestStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestStatusChanged, AggregateTypeServiceRequest, req.ID),
		RequestID:       req.ID,
		FromStatus:      from.String(),
		ToStatus:        to.String(),
		AssignedPMID:    req.AssignedPMID,
	}
}

// EventType returns the event type name
func (e *RequestStatusChangedEvent) EventType() string {
	return EventTypeRequestStatusChanged
}
