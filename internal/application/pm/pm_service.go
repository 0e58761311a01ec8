package pm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/pm"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
)

// PMService handles project manager registry operations
type PMService struct {
	pmRepo         pm.ProjectManagerRepository
	requestRepo    request.ServiceRequestRepository
	eventPublisher shared.EventPublisher
}

// NewPMService creates a new PMService
func NewPMService(pmRepo pm.ProjectManagerRepository, requestRepo request.ServiceRequestRepository) *PMService {
	return &PMService{
		pmRepo:      pmRepo,
		requestRepo: requestRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PMService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register adds a new project manager to the registry
func (s *PMService) Register(ctx context.Context, input RegisterPMInput) (*PMResponse, error) {
	existing, err := s.pmRepo.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A project manager with this email already exists")
	}

	mgr, err := pm.NewProjectManager(input.Name, input.Email, input.Phone, input.Specialization)
	if err != nil {
		return nil, err
	}

	if err := s.pmRepo.Save(ctx, mgr); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, mgr)

	response := ToPMResponse(mgr)
	return &response, nil
}

// GetByID retrieves a project manager by ID
func (s *PMService) GetByID(ctx context.Context, id uuid.UUID) (*PMResponse, error) {
	mgr, err := s.pmRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPMResponse(mgr)
	return &response, nil
}

// List retrieves project managers with filtering and pagination
func (s *PMService) List(ctx context.Context, filter PMListFilter) ([]PMResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Available != nil {
		domainFilter.Filters["available"] = *filter.Available
	}

	mgrs, err := s.pmRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.pmRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPMResponses(mgrs), total, nil
}

// ListAvailable retrieves the managers currently flagged available
// This is the suggestion list for operators; it follows the availability
// flag including any manual override still in effect
func (s *PMService) ListAvailable(ctx context.Context) ([]PMResponse, error) {
	mgrs, err := s.pmRepo.FindAvailable(ctx)
	if err != nil {
		return nil, err
	}
	return ToPMResponses(mgrs), nil
}

// Update updates a project manager profile
func (s *PMService) Update(ctx context.Context, id uuid.UUID, input UpdatePMInput) (*PMResponse, error) {
	mgr, err := s.pmRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mgr.UpdateProfile(input.Name, input.Phone, input.Specialization); err != nil {
		return nil, err
	}
	if err := s.pmRepo.SaveWithLock(ctx, mgr); err != nil {
		return nil, err
	}

	response := ToPMResponse(mgr)
	return &response, nil
}

// Delete removes a project manager. Managers carrying active assignments
// cannot be removed
func (s *PMService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pmRepo.FindByID(ctx, id); err != nil {
		return err
	}

	active, err := s.requestRepo.CountActiveByPM(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove a project manager with active assignments")
	}

	return s.pmRepo.Delete(ctx, id)
}

// MarkAvailable manually overrides the availability flag to true
// The override holds until the next assignment-affecting event
func (s *PMService) MarkAvailable(ctx context.Context, id uuid.UUID) (*PMResponse, error) {
	return s.setAvailability(ctx, id, true)
}

// MarkBusy manually overrides the availability flag to false
func (s *PMService) MarkBusy(ctx context.Context, id uuid.UUID) (*PMResponse, error) {
	return s.setAvailability(ctx, id, false)
}

func (s *PMService) setAvailability(ctx context.Context, id uuid.UUID, available bool) (*PMResponse, error) {
	mgr, err := s.pmRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if mgr.Available != available {
		mgr.SetAvailability(available)
		if err := s.pmRepo.SaveWithLock(ctx, mgr); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, mgr)
	}

	response := ToPMResponse(mgr)
	return &response, nil
}

// GetWorkload retrieves a manager with their active assignments
func (s *PMService) GetWorkload(ctx context.Context, id uuid.UUID) (*WorkloadResponse, error) {
	mgr, err := s.pmRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := s.requestRepo.CountActiveByPM(ctx, id)
	if err != nil {
		return nil, err
	}

	filter := shared.DefaultFilter()
	filter.Filters["statuses"] = []string{
		request.StatusPending.String(),
		request.StatusInProgress.String(),
	}
	reqs, err := s.requestRepo.FindByAssignedPM(ctx, id, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]AssignedRequestSummary, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		summaries[i] = AssignedRequestSummary{
			ID:           r.ID,
			Title:        r.Title,
			ClientName:   r.ClientName,
			Status:       r.Status.String(),
			Priority:     r.Priority.String(),
			PMAssignedAt: r.PMAssignedAt,
		}
	}

	return &WorkloadResponse{
		PM:             ToPMResponse(mgr),
		ActiveCount:    active,
		ActiveRequests: summaries,
	}, nil
}

func (s *PMService) publishEvents(ctx context.Context, mgr *pm.ProjectManager) {
	if s.eventPublisher == nil {
		return
	}
	events := mgr.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	mgr.ClearDomainEvents()
}
