package pm

import (
	"context"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/shared"
)

// ProjectManagerRepository defines the persistence interface for project managers
type ProjectManagerRepository interface {
	// FindByID finds a project manager by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProjectManager, error)

	// FindByEmail finds a project manager by email
	FindByEmail(ctx context.Context, email string) (*ProjectManager, error)

	// FindAll finds all project managers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]ProjectManager, error)

	// FindAvailable finds project managers whose availability flag is true
	FindAvailable(ctx context.Context) ([]ProjectManager, error)

	// Save persists a project manager (create or update)
	Save(ctx context.Context, mgr *ProjectManager) error

	// SaveWithLock persists a project manager with optimistic concurrency control
	SaveWithLock(ctx context.Context, mgr *ProjectManager) error

	// Delete removes a project manager by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts project managers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
