package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/pm"
	"github.com/thrylos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProjectManagerRepository implements pm.ProjectManagerRepository using GORM
type GormProjectManagerRepository struct {
	db *gorm.DB
}

var _ pm.ProjectManagerRepository = (*GormProjectManagerRepository)(nil)

func NewGormProjectManagerRepository(db *gorm.DB) *GormProjectManagerRepository {
	return &GormProjectManagerRepository{db: db}
}

func (r *GormProjectManagerRepository) FindByID(ctx context.Context, id uuid.UUID) (*pm.ProjectManager, error) {
	var manager pm.ProjectManager
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		First(&manager).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find project manager: %w", err)
	}
	return &manager, nil
}

func (r *GormProjectManagerRepository) FindByEmail(ctx context.Context, email string) (*pm.ProjectManager, error) {
	var manager pm.ProjectManager
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&manager).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find project manager by email: %w", err)
	}
	return &manager, nil
}

func (r *GormProjectManagerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pm.ProjectManager, error) {
	var managers []pm.ProjectManager
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx), filter)
	if err := query.Find(&managers).Error; err != nil {
		return nil, fmt.Errorf("failed to find project managers: %w", err)
	}
	return managers, nil
}

func (r *GormProjectManagerRepository) FindAvailable(ctx context.Context) ([]pm.ProjectManager, error) {
	var managers []pm.ProjectManager
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("available = ?", true).
		Order("name ASC").
		Find(&managers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find available project managers: %w", err)
	}
	return managers, nil
}

func (r *GormProjectManagerRepository) Save(ctx context.Context, manager *pm.ProjectManager) error {
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(manager).Error; err != nil {
		return fmt.Errorf("failed to save project manager: %w", err)
	}
	return nil
}

// SaveWithLock persists the aggregate using optimistic locking.
func (r *GormProjectManagerRepository) SaveWithLock(ctx context.Context, manager *pm.ProjectManager) error {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var current struct{ Version int }
	err := db.Model(&pm.ProjectManager{}).
		Select("version").
		Where("id = ?", manager.ID).
		First(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("failed to read project manager version: %w", err)
	}
	if current.Version != manager.Version {
		return shared.ErrConcurrencyConflict
	}

	newVersion := manager.Version + 1
	result := db.Model(&pm.ProjectManager{}).
		Where("id = ? AND version = ?", manager.ID, manager.Version).
		Updates(map[string]interface{}{
			"name":           manager.Name,
			"email":          manager.Email,
			"phone":          manager.Phone,
			"specialization": manager.Specialization,
			"available":      manager.Available,
			"version":        newVersion,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save project manager: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	manager.Version = newVersion
	return nil
}

func (r *GormProjectManagerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		Delete(&pm.ProjectManager{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete project manager: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProjectManagerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(dbFromContext(ctx, r.db).WithContext(ctx), filter).
		Model(&pm.ProjectManager{})
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count project managers: %w", err)
	}
	return count, nil
}

func (r *GormProjectManagerRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	orderBy := "created_at"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if filter.OrderDir == "asc" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

func (r *GormProjectManagerRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "available":
			query = query.Where("available = ?", value)
		case "specialization":
			query = query.Where("specialization = ?", value)
		}
	}

	return query
}
