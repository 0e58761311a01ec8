package request

import (
	"context"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/shared"
)

// ServiceRequestRepository defines the persistence interface for service requests
type ServiceRequestRepository interface {
	// FindByID finds a service request by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)

	// FindAll finds all service requests matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]ServiceRequest, error)

	// FindByOwner finds service requests submitted by the given owner
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]ServiceRequest, error)

	// FindByAssignedPM finds service requests assigned to the given project manager
	FindByAssignedPM(ctx context.Context, pmID uuid.UUID, filter shared.Filter) ([]ServiceRequest, error)

	// FindAssignable finds non-terminal requests without an assigned project manager
	FindAssignable(ctx context.Context, filter shared.Filter) ([]ServiceRequest, error)

	// CountActiveByPM counts non-terminal requests assigned to the given project manager
	CountActiveByPM(ctx context.Context, pmID uuid.UUID) (int64, error)

	// Save persists a service request (create or update)
	Save(ctx context.Context, req *ServiceRequest) error

	// SaveWithLock persists a service request with optimistic concurrency control
	// Returns a concurrency conflict error when the stored version differs
	SaveWithLock(ctx context.Context, req *ServiceRequest) error

	// Delete removes a service request by its ID
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts service requests matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
