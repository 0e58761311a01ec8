package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos/backend/internal/domain/pm"
	"github.com/thrylos/backend/internal/domain/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPMTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&pm.ProjectManager{})
	require.NoError(t, err)

	return db
}

func newSavedManager(t *testing.T, repo *GormProjectManagerRepository, name, email string) *pm.ProjectManager {
	t.Helper()

	manager, err := pm.NewProjectManager(name, email, "+91-9000000001", "erp rollouts")
	require.NoError(t, err)
	manager.ClearDomainEvents()

	require.NoError(t, repo.Save(context.Background(), manager))
	return manager
}

func TestGormProjectManagerRepository_FindByEmail(t *testing.T) {
	db := setupPMTestDB(t)
	repo := NewGormProjectManagerRepository(db)
	ctx := context.Background()

	manager := newSavedManager(t, repo, "Priya Nair", "priya@thrylos.io")

	t.Run("finds by normalized email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "  Priya@Thrylos.io ")
		require.NoError(t, err)
		assert.Equal(t, manager.ID, found.ID)
	})

	t.Run("returns not found for unknown email", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nobody@thrylos.io")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProjectManagerRepository_FindAvailable(t *testing.T) {
	db := setupPMTestDB(t)
	repo := NewGormProjectManagerRepository(db)
	ctx := context.Background()

	free := newSavedManager(t, repo, "Priya Nair", "priya@thrylos.io")

	busy := newSavedManager(t, repo, "Arjun Rao", "arjun@thrylos.io")
	busy.SetAvailability(false)
	busy.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, busy))

	found, err := repo.FindAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, free.ID, found[0].ID)
}

func TestGormProjectManagerRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("persists availability flip and bumps version", func(t *testing.T) {
		repo := NewGormProjectManagerRepository(setupPMTestDB(t))
		manager := newSavedManager(t, repo, "Priya Nair", "priya@thrylos.io")

		manager.SetAvailability(false)
		require.NoError(t, repo.SaveWithLock(ctx, manager))
		assert.Equal(t, 2, manager.Version)

		found, err := repo.FindByID(ctx, manager.ID)
		require.NoError(t, err)
		assert.False(t, found.Available)
	})

	t.Run("stale copy gets a conflict", func(t *testing.T) {
		repo := NewGormProjectManagerRepository(setupPMTestDB(t))
		manager := newSavedManager(t, repo, "Priya Nair", "priya@thrylos.io")

		first, err := repo.FindByID(ctx, manager.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, manager.ID)
		require.NoError(t, err)

		first.SetAvailability(false)
		require.NoError(t, repo.SaveWithLock(ctx, first))

		require.NoError(t, second.UpdateProfile("Priya N", second.Phone, second.Specialization))
		err = repo.SaveWithLock(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormProjectManagerRepository_Delete(t *testing.T) {
	db := setupPMTestDB(t)
	repo := NewGormProjectManagerRepository(db)
	ctx := context.Background()

	manager := newSavedManager(t, repo, "Priya Nair", "priya@thrylos.io")

	require.NoError(t, repo.Delete(ctx, manager.ID))
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), shared.ErrNotFound)
}
