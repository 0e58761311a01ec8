package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRequestTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&request.ServiceRequest{})
	require.NoError(t, err)

	return db
}

func newSavedRequest(t *testing.T, repo *GormServiceRequestRepository, title string) *request.ServiceRequest {
	t.Helper()

	req, err := request.NewServiceRequest(uuid.New(), title, "Redesign and migration", "Acme Traders")
	require.NoError(t, err)
	req.ClearDomainEvents()

	require.NoError(t, repo.Save(context.Background(), req))
	return req
}

func TestGormServiceRequestRepository_FindByID(t *testing.T) {
	db := setupRequestTestDB(t)
	repo := NewGormServiceRequestRepository(db)
	ctx := context.Background()

	t.Run("finds saved request", func(t *testing.T) {
		req := newSavedRequest(t, repo, "Storefront revamp")

		found, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, found.ID)
		assert.Equal(t, "Storefront revamp", found.Title)
		assert.Equal(t, request.StatusPending, found.Status)
		assert.Nil(t, found.AssignedPMID)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormServiceRequestRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("persists changes and bumps version", func(t *testing.T) {
		repo := NewGormServiceRequestRepository(setupRequestTestDB(t))
		req := newSavedRequest(t, repo, "ERP rollout")

		require.NoError(t, req.ChangeStatus(request.StatusInProgress))
		err := repo.SaveWithLock(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 2, req.Version)

		found, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusInProgress, found.Status)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("second writer on a stale copy gets a conflict", func(t *testing.T) {
		repo := NewGormServiceRequestRepository(setupRequestTestDB(t))
		req := newSavedRequest(t, repo, "Warehouse audit")

		first, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)

		require.NoError(t, first.ChangeStatus(request.StatusInProgress))
		require.NoError(t, repo.SaveWithLock(ctx, first))

		require.NoError(t, second.ChangeStatus(request.StatusCancelled))
		err = repo.SaveWithLock(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		found, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusInProgress, found.Status)
	})

	t.Run("returns not found for deleted aggregate", func(t *testing.T) {
		repo := NewGormServiceRequestRepository(setupRequestTestDB(t))
		req := newSavedRequest(t, repo, "Ghost project")
		require.NoError(t, repo.Delete(ctx, req.ID))

		err := repo.SaveWithLock(ctx, req)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormServiceRequestRepository_FindAssignable(t *testing.T) {
	db := setupRequestTestDB(t)
	repo := NewGormServiceRequestRepository(db)
	ctx := context.Background()

	open := newSavedRequest(t, repo, "Open request")

	assigned := newSavedRequest(t, repo, "Assigned request")
	require.NoError(t, assigned.Assign(uuid.New(), "Priya Nair", "priya@thrylos.io"))
	assigned.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, assigned))

	done := newSavedRequest(t, repo, "Done request")
	require.NoError(t, done.ChangeStatus(request.StatusCompleted))
	require.NoError(t, repo.Save(ctx, done))

	found, err := repo.FindAssignable(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, open.ID, found[0].ID)
}

func TestGormServiceRequestRepository_CountActiveByPM(t *testing.T) {
	db := setupRequestTestDB(t)
	repo := NewGormServiceRequestRepository(db)
	ctx := context.Background()
	pmID := uuid.New()

	active := newSavedRequest(t, repo, "Active engagement")
	require.NoError(t, active.Assign(pmID, "Priya Nair", "priya@thrylos.io"))
	active.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, active))

	finished := newSavedRequest(t, repo, "Finished engagement")
	require.NoError(t, finished.Assign(pmID, "Priya Nair", "priya@thrylos.io"))
	require.NoError(t, finished.ChangeStatus(request.StatusCompleted))
	finished.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, finished))

	count, err := repo.CountActiveByPM(ctx, pmID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountActiveByPM(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGormServiceRequestRepository_Filters(t *testing.T) {
	db := setupRequestTestDB(t)
	repo := NewGormServiceRequestRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	mine, err := request.NewServiceRequest(owner, "Owned request", "Inventory migration", "Acme Traders")
	require.NoError(t, err)
	mine.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, mine))

	other := newSavedRequest(t, repo, "Someone else's request")
	require.NoError(t, other.ChangeStatus(request.StatusInProgress))
	require.NoError(t, repo.Save(ctx, other))

	t.Run("by owner", func(t *testing.T) {
		found, err := repo.FindByOwner(ctx, owner, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, mine.ID, found[0].ID)
	})

	t.Run("by status filter", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["status"] = request.StatusInProgress

		found, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, other.ID, found[0].ID)
	})

	t.Run("count with statuses filter", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["statuses"] = []request.RequestStatus{
			request.StatusPending,
			request.StatusInProgress,
		}

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormServiceRequestRepository_Delete(t *testing.T) {
	db := setupRequestTestDB(t)
	repo := NewGormServiceRequestRepository(db)
	ctx := context.Background()

	req := newSavedRequest(t, repo, "Short-lived request")

	require.NoError(t, repo.Delete(ctx, req.ID))
	assert.ErrorIs(t, repo.Delete(ctx, req.ID), shared.ErrNotFound)
}
