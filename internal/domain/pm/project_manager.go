package pm

import (
	"strings"
	"time"

	"github.com/thrylos/backend/internal/domain/shared"
)

// ProjectManager represents a project manager aggregate root
// Availability is derived bookkeeping: false while at least one
// non-terminal request is assigned to the manager
type ProjectManager struct {
	shared.BaseAggregateRoot
	Name           string
	Email          string
	Phone          string
	Specialization string
	Available      bool
}

// TableName returns the database table name
func (ProjectManager) TableName() string {
	return "project_managers"
}

// NewProjectManager creates a new project manager, available by default
func NewProjectManager(name, email, phone, specialization string) (*ProjectManager, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is not valid")
	}

	mgr := &ProjectManager{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             strings.ToLower(email),
		Phone:             phone,
		Specialization:    specialization,
		Available:         true,
	}

	mgr.AddDomainEvent(NewPMRegisteredEvent(mgr))

	return mgr, nil
}

// UpdateProfile updates the manager's contact details
func (m *ProjectManager) UpdateProfile(name, phone, specialization string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	m.Name = name
	m.Phone = phone
	m.Specialization = specialization
	m.UpdatedAt = time.Now()
	return nil
}

// SetAvailability sets the derived availability flag
// Used by the availability recomputation after assignment-affecting events
func (m *ProjectManager) SetAvailability(available bool) {
	if m.Available == available {
		return
	}
	m.Available = available
	m.UpdatedAt = time.Now()
	m.AddDomainEvent(NewPMAvailabilityChangedEvent(m))
}

// MarkAvailable manually overrides the availability flag to true
// The override holds until the next assignment-affecting event recomputes it
func (m *ProjectManager) MarkAvailable() {
	m.SetAvailability(true)
}

// MarkBusy manually overrides the availability flag to false
func (m *ProjectManager) MarkBusy() {
	m.SetAvailability(false)
}
