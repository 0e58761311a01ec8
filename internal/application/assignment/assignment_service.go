package assignment

import (
	"context"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/pm"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
)

// AssignmentService links service requests to project managers and keeps
// the PM availability flag consistent with the set of active assignments
type AssignmentService struct {
	requestRepo    request.ServiceRequestRepository
	pmRepo         pm.ProjectManagerRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	requestRepo request.ServiceRequestRepository,
	pmRepo pm.ProjectManagerRepository,
	txManager shared.TransactionManager,
) *AssignmentService {
	return &AssignmentService{
		requestRepo: requestRepo,
		pmRepo:      pmRepo,
		txManager:   txManager,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *AssignmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Assign links a project manager to a request and marks the PM unavailable.
// Request and PM rows are updated in the same transaction; the assignment
// notification event is published only after the transaction succeeds
func (s *AssignmentService) Assign(ctx context.Context, requestID, pmID uuid.UUID) error {
	var (
		req *request.ServiceRequest
		mgr *pm.ProjectManager
	)

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.FindByID(txCtx, requestID)
		if err != nil {
			return err
		}
		mgr, err = s.pmRepo.FindByID(txCtx, pmID)
		if err != nil {
			return err
		}

		if err := req.Assign(mgr.ID, mgr.Name, mgr.Email); err != nil {
			return err
		}
		if err := s.requestRepo.SaveWithLock(txCtx, req); err != nil {
			return err
		}

		mgr.SetAvailability(false)
		return s.pmRepo.SaveWithLock(txCtx, mgr)
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, req.GetDomainEvents(), mgr.GetDomainEvents())
	req.ClearDomainEvents()
	mgr.ClearDomainEvents()

	return nil
}

// Unassign removes the PM link from a request and recomputes that PM's
// availability within the same transaction
func (s *AssignmentService) Unassign(ctx context.Context, requestID uuid.UUID) error {
	var (
		req *request.ServiceRequest
		mgr *pm.ProjectManager
	)

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.FindByID(txCtx, requestID)
		if err != nil {
			return err
		}

		pmID := req.AssignedPMID
		if err := req.Unassign(); err != nil {
			return err
		}
		if err := s.requestRepo.SaveWithLock(txCtx, req); err != nil {
			return err
		}

		mgr, err = s.recomputeLocked(txCtx, *pmID)
		return err
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, req.GetDomainEvents(), mgr.GetDomainEvents())
	req.ClearDomainEvents()
	mgr.ClearDomainEvents()

	return nil
}

// RecomputeAvailability derives the availability flag from the set of
// non-terminal requests assigned to the PM. The operation is idempotent
func (s *AssignmentService) RecomputeAvailability(ctx context.Context, pmID uuid.UUID) error {
	var mgr *pm.ProjectManager

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		mgr, err = s.recomputeLocked(txCtx, pmID)
		return err
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, mgr.GetDomainEvents())
	mgr.ClearDomainEvents()

	return nil
}

// recomputeLocked applies the availability derivation inside an open transaction
func (s *AssignmentService) recomputeLocked(txCtx context.Context, pmID uuid.UUID) (*pm.ProjectManager, error) {
	mgr, err := s.pmRepo.FindByID(txCtx, pmID)
	if err != nil {
		return nil, err
	}

	active, err := s.requestRepo.CountActiveByPM(txCtx, pmID)
	if err != nil {
		return nil, err
	}

	available := active == 0
	if mgr.Available == available {
		return mgr, nil
	}

	mgr.SetAvailability(available)
	if err := s.pmRepo.SaveWithLock(txCtx, mgr); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (s *AssignmentService) publishEvents(ctx context.Context, eventSets ...[]shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	var all []shared.DomainEvent
	for _, events := range eventSets {
		all = append(all, events...)
	}
	if len(all) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, all...)
}
