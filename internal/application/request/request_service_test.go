package request

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thrylos/backend/internal/domain/billing"
	"github.com/thrylos/backend/internal/domain/pm"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
)

// MockServiceRequestRepository is a mock implementation of ServiceRequestRepository
type MockServiceRequestRepository struct {
	mock.Mock
}

func (m *MockServiceRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*request.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*request.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]request.ServiceRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]request.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]request.ServiceRequest, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]request.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) FindByAssignedPM(ctx context.Context, pmID uuid.UUID, filter shared.Filter) ([]request.ServiceRequest, error) {
	args := m.Called(ctx, pmID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]request.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) FindAssignable(ctx context.Context, filter shared.Filter) ([]request.ServiceRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]request.ServiceRequest), args.Error(1)
}

func (m *MockServiceRequestRepository) CountActiveByPM(ctx context.Context, pmID uuid.UUID) (int64, error) {
	args := m.Called(ctx, pmID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockServiceRequestRepository) Save(ctx context.Context, req *request.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) SaveWithLock(ctx context.Context, req *request.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockProjectManagerRepository is a mock implementation of ProjectManagerRepository
type MockProjectManagerRepository struct {
	mock.Mock
}

func (m *MockProjectManagerRepository) FindByID(ctx context.Context, id uuid.UUID) (*pm.ProjectManager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pm.ProjectManager), args.Error(1)
}

func (m *MockProjectManagerRepository) FindByEmail(ctx context.Context, email string) (*pm.ProjectManager, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pm.ProjectManager), args.Error(1)
}

func (m *MockProjectManagerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pm.ProjectManager, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pm.ProjectManager), args.Error(1)
}

func (m *MockProjectManagerRepository) FindAvailable(ctx context.Context) ([]pm.ProjectManager, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pm.ProjectManager), args.Error(1)
}

func (m *MockProjectManagerRepository) Save(ctx context.Context, mgr *pm.ProjectManager) error {
	args := m.Called(ctx, mgr)
	return args.Error(0)
}

func (m *MockProjectManagerRepository) SaveWithLock(ctx context.Context, mgr *pm.ProjectManager) error {
	args := m.Called(ctx, mgr)
	return args.Error(0)
}

func (m *MockProjectManagerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectManagerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRequestRepository is a mock implementation of PaymentRequestRepository
type MockPaymentRequestRepository struct {
	mock.Mock
}

func (m *MockPaymentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) FindByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) ([]billing.PaymentRequest, error) {
	args := m.Called(ctx, serviceRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) CountUnsettledByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) (int64, error) {
	args := m.Called(ctx, serviceRequestID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.PaymentRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) Save(ctx context.Context, p *billing.PaymentRequest) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRequestRepository) SaveWithLock(ctx context.Context, p *billing.PaymentRequest) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockAvailabilityRecomputer is a mock implementation of AvailabilityRecomputer
type MockAvailabilityRecomputer struct {
	mock.Mock
}

func (m *MockAvailabilityRecomputer) RecomputeAvailability(ctx context.Context, pmID uuid.UUID) error {
	args := m.Called(ctx, pmID)
	return args.Error(0)
}

// passthroughTxManager runs the unit of work on the caller's context
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type serviceFixture struct {
	svc         *RequestService
	requestRepo *MockServiceRequestRepository
	pmRepo      *MockProjectManagerRepository
	paymentRepo *MockPaymentRequestRepository
	recomputer  *MockAvailabilityRecomputer
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		requestRepo: new(MockServiceRequestRepository),
		pmRepo:      new(MockProjectManagerRepository),
		paymentRepo: new(MockPaymentRequestRepository),
		recomputer:  new(MockAvailabilityRecomputer),
	}
	f.svc = NewRequestService(f.requestRepo, f.pmRepo, f.paymentRepo, passthroughTxManager{}, f.recomputer)
	return f
}

func newTestRequest(t *testing.T) *request.ServiceRequest {
	req, err := request.NewServiceRequest(uuid.New(), "Website redesign", "Rebuild the marketing site", "Acme Corp")
	require.NoError(t, err)
	req.ClearDomainEvents()
	return req
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestRequestService_Create(t *testing.T) {
	f := newFixture()
	ownerID := uuid.New()

	f.requestRepo.On("Save", mock.Anything, mock.AnythingOfType("*request.ServiceRequest")).Return(nil)

	resp, err := f.svc.Create(context.Background(), ownerID, CreateRequestInput{
		Title:        "Website redesign",
		Description:  "Rebuild the marketing site",
		ClientName:   "Acme Corp",
		ContactPhone: "+1-555-0100",
		Priority:     "high",
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "high", resp.Priority)
	assert.Equal(t, ownerID, resp.OwnerID)
	assert.Nil(t, resp.AssignedPMID)
	f.requestRepo.AssertExpectations(t)
}

func TestRequestService_ChangeStatus(t *testing.T) {
	t.Run("pending to in_progress persists with lock", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requestRepo.On("SaveWithLock", mock.Anything, req).Return(nil)

		resp, err := f.svc.ChangeStatus(context.Background(), req.ID, request.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, "in_progress", resp.Status)
		f.recomputer.AssertNotCalled(t, "RecomputeAvailability", mock.Anything, mock.Anything)
	})

	t.Run("same-state transition persists nothing", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)

		resp, err := f.svc.ChangeStatus(context.Background(), req.ID, request.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
		f.requestRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("terminal transition frees the assigned PM", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)
		pmID := uuid.New()
		require.NoError(t, req.Assign(pmID, "Jordan Rivera", "jordan@example.com"))
		require.NoError(t, req.ChangeStatus(request.StatusInProgress))
		req.ClearDomainEvents()

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requestRepo.On("SaveWithLock", mock.Anything, req).Return(nil)
		f.recomputer.On("RecomputeAvailability", mock.Anything, pmID).Return(nil)

		resp, err := f.svc.ChangeStatus(context.Background(), req.ID, request.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, "completed", resp.Status)

		// Assignment link survives the terminal transition
		require.NotNil(t, resp.AssignedPMID)
		assert.Equal(t, pmID, *resp.AssignedPMID)
		f.recomputer.AssertExpectations(t)
	})

	t.Run("leaving a terminal state is rejected", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)
		require.NoError(t, req.ChangeStatus(request.StatusCompleted))
		req.ClearDomainEvents()

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)

		_, err := f.svc.ChangeStatus(context.Background(), req.ID, request.StatusInProgress)
		assertDomainCode(t, err, "INVALID_TRANSITION")
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)

		_, err := f.svc.ChangeStatus(context.Background(), req.ID, request.RequestStatus("archived"))
		assertDomainCode(t, err, "INVALID_INPUT")
	})
}

func TestRequestService_Delete(t *testing.T) {
	t.Run("rejects deletion with unsettled payments", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.paymentRepo.On("CountUnsettledByServiceRequest", mock.Anything, req.ID).Return(int64(1), nil)

		err := f.svc.Delete(context.Background(), req.ID)
		assertDomainCode(t, err, "INVALID_STATE")
		f.requestRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deleting an active assigned request frees the PM", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)
		pmID := uuid.New()
		require.NoError(t, req.Assign(pmID, "Jordan Rivera", "jordan@example.com"))
		req.ClearDomainEvents()

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.paymentRepo.On("CountUnsettledByServiceRequest", mock.Anything, req.ID).Return(int64(0), nil)
		f.requestRepo.On("Delete", mock.Anything, req.ID).Return(nil)
		f.recomputer.On("RecomputeAvailability", mock.Anything, pmID).Return(nil)

		require.NoError(t, f.svc.Delete(context.Background(), req.ID))
		f.recomputer.AssertExpectations(t)
	})
}

func TestRequestService_GetEnriched(t *testing.T) {
	t.Run("joins the assigned PM and payments", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)
		mgr, err := pm.NewProjectManager("Jordan Rivera", "jordan@example.com", "+1-555-0100", "web")
		require.NoError(t, err)
		require.NoError(t, req.Assign(mgr.ID, mgr.Name, mgr.Email))
		req.ClearDomainEvents()

		payment, err := billing.NewPaymentRequest(req.ID, decimal.NewFromInt(25000), "")
		require.NoError(t, err)

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.pmRepo.On("FindByID", mock.Anything, mgr.ID).Return(mgr, nil)
		f.paymentRepo.On("FindByServiceRequest", mock.Anything, req.ID).Return([]billing.PaymentRequest{*payment}, nil)

		enriched, err := f.svc.GetEnriched(context.Background(), req.ID)
		require.NoError(t, err)

		require.NotNil(t, enriched.AssignedPM)
		assert.Equal(t, mgr.ID, enriched.AssignedPM.ID)
		require.Len(t, enriched.Payments, 1)
		assert.Equal(t, "pending", enriched.Payments[0].Status)
	})

	t.Run("projects a deleted PM as unassigned", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)
		pmID := uuid.New()
		require.NoError(t, req.Assign(pmID, "Jordan Rivera", "jordan@example.com"))
		require.NoError(t, req.ChangeStatus(request.StatusCancelled))
		req.ClearDomainEvents()

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.pmRepo.On("FindByID", mock.Anything, pmID).Return(nil, shared.ErrNotFound)
		f.paymentRepo.On("FindByServiceRequest", mock.Anything, req.ID).Return([]billing.PaymentRequest{}, nil)

		enriched, err := f.svc.GetEnriched(context.Background(), req.ID)
		require.NoError(t, err)

		assert.Nil(t, enriched.AssignedPM)
		// The stored link is projection-only state; it must survive.
		require.NotNil(t, req.AssignedPMID)
		assert.Equal(t, pmID, *req.AssignedPMID)
		f.requestRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.requestRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("propagates unexpected PM lookup failures", func(t *testing.T) {
		f := newFixture()
		req := newTestRequest(t)
		pmID := uuid.New()
		require.NoError(t, req.Assign(pmID, "Jordan Rivera", "jordan@example.com"))
		req.ClearDomainEvents()

		f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.pmRepo.On("FindByID", mock.Anything, pmID).Return(nil, assert.AnError)

		_, err := f.svc.GetEnriched(context.Background(), req.ID)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestRequestService_Respond(t *testing.T) {
	f := newFixture()
	req := newTestRequest(t)

	f.requestRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
	f.requestRepo.On("SaveWithLock", mock.Anything, req).Return(nil)

	resp, err := f.svc.Respond(context.Background(), req.ID, "We will start next week")
	require.NoError(t, err)
	assert.Equal(t, "We will start next week", resp.AdminResponse)
}
