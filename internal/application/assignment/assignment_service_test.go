package assignment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

// passthroughTxManager runs the unit of work on the caller's context
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newTestService(reqRepo *MockServiceRequestRepository, pmRepo *MockProjectManagerRepository) (*AssignmentService, *capturingPublisher) {
	svc := NewAssignmentService(reqRepo, pmRepo, passthroughTxManager{})
	publisher := &capturingPublisher{}
	svc.SetEventPublisher(publisher)
	return svc, publisher
}

func newPendingRequest(t *testing.T) *request.ServiceRequest {
	req, err := request.NewServiceRequest(uuid.New(), "Website redesign", "Rebuild the marketing site", "Acme Corp")
	require.NoError(t, err)
	req.ClearDomainEvents()
	return req
}

func newAvailablePM(t *testing.T) *pm.ProjectManager {
	mgr, err := pm.NewProjectManager("Jordan Rivera", "jordan@example.com", "+1-555-0100", "web")
	require.NoError(t, err)
	mgr.ClearDomainEvents()
	return mgr
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestAssignmentService_Assign(t *testing.T) {
	t.Run("links request and marks PM unavailable", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, publisher := newTestService(reqRepo, pmRepo)

		req := newPendingRequest(t)
		mgr := newAvailablePM(t)

		reqRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		pmRepo.On("FindByID", mock.Anything, mgr.ID).Return(mgr, nil)
		reqRepo.On("SaveWithLock", mock.Anything, req).Return(nil)
		pmRepo.On("SaveWithLock", mock.Anything, mgr).Return(nil)

		err := svc.Assign(context.Background(), req.ID, mgr.ID)
		require.NoError(t, err)

		require.NotNil(t, req.AssignedPMID)
		assert.Equal(t, mgr.ID, *req.AssignedPMID)
		assert.NotNil(t, req.PMAssignedAt)
		assert.False(t, mgr.Available)

		// RequestAssigned plus the availability flip
		require.Len(t, publisher.events, 2)
		assert.Equal(t, request.EventTypeRequestAssigned, publisher.events[0].EventType())
		reqRepo.AssertExpectations(t)
		pmRepo.AssertExpectations(t)
	})

	t.Run("rejects assignment when already assigned", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, _ := newTestService(reqRepo, pmRepo)

		req := newPendingRequest(t)
		current := newAvailablePM(t)
		require.NoError(t, req.Assign(current.ID, current.Name, current.Email))
		req.ClearDomainEvents()

		other := newAvailablePM(t)
		reqRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		pmRepo.On("FindByID", mock.Anything, other.ID).Return(other, nil)

		err := svc.Assign(context.Background(), req.ID, other.ID)
		assertDomainCode(t, err, "ALREADY_ASSIGNED")

		assert.Equal(t, current.ID, *req.AssignedPMID)
		reqRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		pmRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("rejects assignment on terminal request", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, _ := newTestService(reqRepo, pmRepo)

		req := newPendingRequest(t)
		require.NoError(t, req.ChangeStatus(request.StatusCancelled))
		req.ClearDomainEvents()
		mgr := newAvailablePM(t)

		reqRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		pmRepo.On("FindByID", mock.Anything, mgr.ID).Return(mgr, nil)

		err := svc.Assign(context.Background(), req.ID, mgr.ID)
		assertDomainCode(t, err, "INVALID_STATE")
	})

	t.Run("propagates request not found", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, _ := newTestService(reqRepo, pmRepo)

		id := uuid.New()
		reqRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		err := svc.Assign(context.Background(), id, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestAssignmentService_Unassign(t *testing.T) {
	t.Run("clears link and frees PM without other assignments", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, _ := newTestService(reqRepo, pmRepo)

		req := newPendingRequest(t)
		mgr := newAvailablePM(t)
		require.NoError(t, req.Assign(mgr.ID, mgr.Name, mgr.Email))
		mgr.SetAvailability(false)
		req.ClearDomainEvents()
		mgr.ClearDomainEvents()

		reqRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		reqRepo.On("SaveWithLock", mock.Anything, req).Return(nil)
		pmRepo.On("FindByID", mock.Anything, mgr.ID).Return(mgr, nil)
		reqRepo.On("CountActiveByPM", mock.Anything, mgr.ID).Return(int64(0), nil)
		pmRepo.On("SaveWithLock", mock.Anything, mgr).Return(nil)

		err := svc.Unassign(context.Background(), req.ID)
		require.NoError(t, err)

		assert.Nil(t, req.AssignedPMID)
		assert.Nil(t, req.PMAssignedAt)
		assert.True(t, mgr.Available)
	})

	t.Run("keeps PM busy while another active assignment remains", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, _ := newTestService(reqRepo, pmRepo)

		req := newPendingRequest(t)
		mgr := newAvailablePM(t)
		require.NoError(t, req.Assign(mgr.ID, mgr.Name, mgr.Email))
		mgr.SetAvailability(false)
		req.ClearDomainEvents()
		mgr.ClearDomainEvents()

		reqRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		reqRepo.On("SaveWithLock", mock.Anything, req).Return(nil)
		pmRepo.On("FindByID", mock.Anything, mgr.ID).Return(mgr, nil)
		reqRepo.On("CountActiveByPM", mock.Anything, mgr.ID).Return(int64(1), nil)

		err := svc.Unassign(context.Background(), req.ID)
		require.NoError(t, err)

		assert.False(t, mgr.Available)
		pmRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("rejects unassign when not assigned", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, _ := newTestService(reqRepo, pmRepo)

		req := newPendingRequest(t)
		reqRepo.On("FindByID", mock.Anything, req.ID).Return(req, nil)

		err := svc.Unassign(context.Background(), req.ID)
		assertDomainCode(t, err, "NOT_ASSIGNED")
	})
}

func TestAssignmentService_RecomputeAvailability(t *testing.T) {
	t.Run("flips unavailable PM with no active assignments", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, publisher := newTestService(reqRepo, pmRepo)

		mgr := newAvailablePM(t)
		mgr.SetAvailability(false)
		mgr.ClearDomainEvents()

		pmRepo.On("FindByID", mock.Anything, mgr.ID).Return(mgr, nil)
		reqRepo.On("CountActiveByPM", mock.Anything, mgr.ID).Return(int64(0), nil)
		pmRepo.On("SaveWithLock", mock.Anything, mgr).Return(nil)

		require.NoError(t, svc.RecomputeAvailability(context.Background(), mgr.ID))
		assert.True(t, mgr.Available)
		require.Len(t, publisher.events, 1)
	})

	t.Run("is idempotent when flag already matches", func(t *testing.T) {
		reqRepo := new(MockServiceRequestRepository)
		pmRepo := new(MockProjectManagerRepository)
		svc, publisher := newTestService(reqRepo, pmRepo)

		mgr := newAvailablePM(t)
		mgr.ClearDomainEvents()

		pmRepo.On("FindByID", mock.Anything, mgr.ID).Return(mgr, nil)
		reqRepo.On("CountActiveByPM", mock.Anything, mgr.ID).Return(int64(0), nil)

		require.NoError(t, svc.RecomputeAvailability(context.Background(), mgr.ID))
		require.NoError(t, svc.RecomputeAvailability(context.Background(), mgr.ID))

		assert.True(t, mgr.Available)
		assert.Empty(t, publisher.events)
		pmRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}
