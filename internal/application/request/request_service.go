package request

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/billing"
	"github.com/thrylos/backend/internal/domain/pm"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
)

// AvailabilityRecomputer restores the PM availability invariant after
// assignment-affecting events. The single implementation lives in the
// assignment service so the derivation rule exists in exactly one place
type AvailabilityRecomputer interface {
	RecomputeAvailability(ctx context.Context, pmID uuid.UUID) error
}

// RequestService handles service request lifecycle operations
type RequestService struct {
	requestRepo    request.ServiceRequestRepository
	pmRepo         pm.ProjectManagerRepository
	paymentRepo    billing.PaymentRequestRepository
	txManager      shared.TransactionManager
	availability   AvailabilityRecomputer
	eventPublisher shared.EventPublisher
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo request.ServiceRequestRepository,
	pmRepo pm.ProjectManagerRepository,
	paymentRepo billing.PaymentRequestRepository,
	txManager shared.TransactionManager,
	availability AvailabilityRecomputer,
) *RequestService {
	return &RequestService{
		requestRepo:  requestRepo,
		pmRepo:       pmRepo,
		paymentRepo:  paymentRepo,
		txManager:    txManager,
		availability: availability,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *RequestService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create submits a new service request on behalf of the owner
func (s *RequestService) Create(ctx context.Context, ownerID uuid.UUID, input CreateRequestInput) (*RequestResponse, error) {
	req, err := request.NewServiceRequest(ownerID, input.Title, input.Description, input.ClientName)
	if err != nil {
		return nil, err
	}

	if input.Priority != "" {
		if err := req.SetPriority(request.Priority(input.Priority)); err != nil {
			return nil, err
		}
	}
	req.SetContactDetails(input.CompanyName, input.ContactEmail, input.ContactPhone)
	req.SetIntakeDetails(input.ServiceType, input.BudgetRange, input.Timeline)

	if err := s.requestRepo.Save(ctx, req); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, req)

	response := ToRequestResponse(req)
	return &response, nil
}

// GetByID retrieves a service request by ID
func (s *RequestService) GetByID(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToRequestResponse(req)
	return &response, nil
}

// GetEnriched retrieves a request joined with its assigned PM and payments
func (s *RequestService) GetEnriched(ctx context.Context, id uuid.UUID) (*EnrichedRequestResponse, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	enriched := &EnrichedRequestResponse{
		RequestResponse: ToRequestResponse(req),
		Payments:        make([]PaymentInfo, 0),
	}

	if req.AssignedPMID != nil {
		mgr, err := s.pmRepo.FindByID(ctx, *req.AssignedPMID)
		switch {
		case err == nil:
			enriched.AssignedPM = &AssignedPMInfo{
				ID:             mgr.ID,
				Name:           mgr.Name,
				Email:          mgr.Email,
				Phone:          mgr.Phone,
				Specialization: mgr.Specialization,
				Available:      mgr.Available,
			}
		case errors.Is(err, shared.ErrNotFound):
			// The PM record may have been deleted after this request went
			// terminal. Project the request as unassigned; the stored id
			// stays untouched.
		default:
			return nil, err
		}
	}

	payments, err := s.paymentRepo.FindByServiceRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		p := &payments[i]
		enriched.Payments = append(enriched.Payments, PaymentInfo{
			ID:            p.ID,
			Amount:        p.Amount.String(),
			Currency:      p.Currency,
			Status:        p.Status.String(),
			TransactionID: p.TransactionID,
			PaidAt:        p.PaidAt,
		})
	}

	return enriched, nil
}

// List retrieves service requests with filtering and pagination
func (s *RequestService) List(ctx context.Context, filter RequestListFilter) ([]RequestResponse, int64, error) {
	domainFilter := buildFilter(filter)

	reqs, err := s.requestRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.requestRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToRequestResponses(reqs), total, nil
}

// ListMine retrieves the requests submitted by the given owner
func (s *RequestService) ListMine(ctx context.Context, ownerID uuid.UUID, filter RequestListFilter) ([]RequestResponse, error) {
	reqs, err := s.requestRepo.FindByOwner(ctx, ownerID, buildFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToRequestResponses(reqs), nil
}

// ListByAssignedPM retrieves the requests assigned to the given project manager
func (s *RequestService) ListByAssignedPM(ctx context.Context, pmID uuid.UUID, filter RequestListFilter) ([]RequestResponse, error) {
	reqs, err := s.requestRepo.FindByAssignedPM(ctx, pmID, buildFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToRequestResponses(reqs), nil
}

// ListAssignable retrieves non-terminal requests without an assigned PM
func (s *RequestService) ListAssignable(ctx context.Context, filter RequestListFilter) ([]RequestResponse, error) {
	reqs, err := s.requestRepo.FindAssignable(ctx, buildFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToRequestResponses(reqs), nil
}

// ChangeStatus transitions a request to the target status
// A terminal transition frees the assigned PM within the same unit of work
func (s *RequestService) ChangeStatus(ctx context.Context, id uuid.UUID, target request.RequestStatus) (*RequestResponse, error) {
	var req *request.ServiceRequest

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		before := req.Status
		if err := req.ChangeStatus(target); err != nil {
			return err
		}
		if req.Status == before {
			// Same-state transition, nothing to persist
			return nil
		}

		if err := s.requestRepo.SaveWithLock(txCtx, req); err != nil {
			return err
		}

		if req.Status.IsTerminal() && req.AssignedPMID != nil {
			return s.availability.RecomputeAvailability(txCtx, *req.AssignedPMID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, req)

	response := ToRequestResponse(req)
	return &response, nil
}

// Respond records the operator response to a request
func (s *RequestService) Respond(ctx context.Context, id uuid.UUID, response string) (*RequestResponse, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.SetAdminResponse(response); err != nil {
		return nil, err
	}
	if err := s.requestRepo.SaveWithLock(ctx, req); err != nil {
		return nil, err
	}

	resp := ToRequestResponse(req)
	return &resp, nil
}

// AddNote appends a timestamped note to a request
func (s *RequestService) AddNote(ctx context.Context, id uuid.UUID, note string) (*RequestResponse, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.AddNote(note); err != nil {
		return nil, err
	}
	if err := s.requestRepo.SaveWithLock(ctx, req); err != nil {
		return nil, err
	}

	resp := ToRequestResponse(req)
	return &resp, nil
}

// Delete removes a request. Requests with unsettled payments cannot be
// deleted; a deleted active request frees its assigned PM
func (s *RequestService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		unsettled, err := s.paymentRepo.CountUnsettledByServiceRequest(txCtx, id)
		if err != nil {
			return err
		}
		if unsettled > 0 {
			return shared.NewDomainError("INVALID_STATE", "Cannot delete a request with unsettled payments")
		}

		var freedPM *uuid.UUID
		if req.AssignedPMID != nil && req.IsActive() {
			freedPM = req.AssignedPMID
		}

		if err := s.requestRepo.Delete(txCtx, id); err != nil {
			return err
		}

		if freedPM != nil {
			return s.availability.RecomputeAvailability(txCtx, *freedPM)
		}
		return nil
	})
}

func (s *RequestService) publishEvents(ctx context.Context, req *request.ServiceRequest) {
	if s.eventPublisher == nil || req == nil {
		return
	}
	events := req.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	req.ClearDomainEvents()
}

func buildFilter(filter RequestListFilter) shared.Filter {
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
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Priority != "" {
		domainFilter.Filters["priority"] = filter.Priority
	}
	if filter.PMID != nil {
		domainFilter.Filters["assigned_pm_id"] = *filter.PMID
	}
	return domainFilter
}
