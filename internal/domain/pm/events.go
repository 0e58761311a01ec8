package pm

import (
	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProjectManager = "ProjectManager"

// Event type constants
const (
	EventTypePMRegistered          = "ProjectManagerRegistered"
	EventTypePMAvailabilityChanged = "ProjectManagerAvailabilityChanged"
)

// PMRegisteredEvent is raised when a project manager joins the registry
type PMRegisteredEvent struct {
	shared.BaseDomainEvent
	PMID  uuid.UUID `json:"pm_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// NewPMRegisteredEvent creates a new PMRegisteredEvent
func NewPMRegisteredEvent(mgr *ProjectManager) *PMRegisteredEvent {
	return &PMRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePMRegistered, AggregateTypeProjectManager, mgr.ID),
		PMID:            mgr.ID,
		Name:            mgr.Name,
		Email:           mgr.Email,
	}
}

// EventType returns the event type name
func (e *PMRegisteredEvent) EventType() string {
	return EventTypePMRegistered
}

// PMAvailabilityChangedEvent is raised when the availability flag flips
type PMAvailabilityChangedEvent struct {
	shared.BaseDomainEvent
	PMID      uuid.UUID `json:"pm_id"`
	Available bool      `json:"available"`
}

// NewPMAvailabilityChangedEvent creates a new PMAvailabilityChangedEvent
func NewPMAvailabilityChangedEvent(mgr *ProjectManager) *PMAvailabilityChangedEvent {
	return &PMAvailabilityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePMAvailabilityChanged, AggregateTypeProjectManager, mgr.ID),
		PMID:            mgr.ID,
		Available:       mgr.Available,
	}
}

// EventType returns the event type name
func (e *PMAvailabilityChangedEvent) EventType() string {
	return EventTypePMAvailabilityChanged
}
