package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

var activeRequestStatuses = []request.RequestStatus{
	request.StatusPending,
	request.StatusInProgress,
}

// GormServiceRequestRepository implements request.ServiceRequestRepository using GORM
type GormServiceRequestRepository struct {
	db *gorm.DB
}

var _ request.ServiceRequestRepository = (*GormServiceRequestRepository)(nil)

func NewGormServiceRequestRepository(db *gorm.DB) *GormServiceRequestRepository {
	return &GormServiceRequestRepository{db: db}
}

func (r *GormServiceRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*request.ServiceRequest, error) {
	var req request.ServiceRequest
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find service request: %w", err)
	}
	return &req, nil
}

func (r *GormServiceRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]request.ServiceRequest, error) {
	var requests []request.ServiceRequest
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx), filter)
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to find service requests: %w", err)
	}
	return requests, nil
}

func (r *GormServiceRequestRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]request.ServiceRequest, error) {
	var requests []request.ServiceRequest
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx), filter).
		Where("owner_id = ?", ownerID)
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to find service requests by owner: %w", err)
	}
	return requests, nil
}

func (r *GormServiceRequestRepository) FindByAssignedPM(ctx context.Context, pmID uuid.UUID, filter shared.Filter) ([]request.ServiceRequest, error) {
	var requests []request.ServiceRequest
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx), filter).
		Where("assigned_pm_id = ?", pmID)
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to find service requests by assigned manager: %w", err)
	}
	return requests, nil
}

func (r *GormServiceRequestRepository) FindAssignable(ctx context.Context, filter shared.Filter) ([]request.ServiceRequest, error) {
	var requests []request.ServiceRequest
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx), filter).
		Where("assigned_pm_id IS NULL").
		Where("status IN ?", activeRequestStatuses)
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to find assignable service requests: %w", err)
	}
	return requests, nil
}

func (r *GormServiceRequestRepository) CountActiveByPM(ctx context.Context, pmID uuid.UUID) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&request.ServiceRequest{}).
		Where("assigned_pm_id = ?", pmID).
		Where("status IN ?", activeRequestStatuses).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active service requests: %w", err)
	}
	return count, nil
}

func (r *GormServiceRequestRepository) Save(ctx context.Context, req *request.ServiceRequest) error {
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to save service request: %w", err)
	}
	return nil
}

// SaveWithLock persists the aggregate using optimistic locking. The update
// only applies when the stored version still matches the version the caller
// loaded; otherwise shared.ErrConcurrencyConflict is returned.
func (r *GormServiceRequestRepository) SaveWithLock(ctx context.Context, req *request.ServiceRequest) error {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var current struct{ Version int }
	err := db.Model(&request.ServiceRequest{}).
		Select("version").
		Where("id = ?", req.ID).
		First(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("failed to read service request version: %w", err)
	}
	if current.Version != req.Version {
		return shared.ErrConcurrencyConflict
	}

	newVersion := req.Version + 1
	result := db.Model(&request.ServiceRequest{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Updates(map[string]interface{}{
			"title":          req.Title,
			"description":    req.Description,
			"client_name":    req.ClientName,
			"company_name":   req.CompanyName,
			"contact_email":  req.ContactEmail,
			"contact_phone":  req.ContactPhone,
			"service_type":   req.ServiceType,
			"budget_range":   req.BudgetRange,
			"timeline":       req.Timeline,
			"priority":       req.Priority,
			"status":         req.Status,
			"admin_response": req.AdminResponse,
			"notes":          req.Notes,
			"assigned_pm_id": req.AssignedPMID,
			"pm_assigned_at": req.PMAssignedAt,
			"completed_at":   req.CompletedAt,
			"cancelled_at":   req.CancelledAt,
			"version":        newVersion,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save service request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	req.Version = newVersion
	return nil
}

func (r *GormServiceRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		Delete(&request.ServiceRequest{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete service request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormServiceRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(dbFromContext(ctx, r.db).WithContext(ctx), filter).
		Model(&request.ServiceRequest{})
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count service requests: %w", err)
	}
	return count, nil
}

func (r *GormServiceRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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

func (r *GormServiceRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR client_name ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			query = query.Where("status IN ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "service_type":
			query = query.Where("service_type = ?", value)
		case "assigned_pm_id":
			query = query.Where("assigned_pm_id = ?", value)
		case "unassigned":
			if v, ok := value.(bool); ok && v {
				query = query.Where("assigned_pm_id IS NULL")
			}
		}
	}

	return query
}
