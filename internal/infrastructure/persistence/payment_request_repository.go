package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/billing"
	"github.com/thrylos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPaymentRequestRepository implements billing.PaymentRequestRepository using GORM
type GormPaymentRequestRepository struct {
	db *gorm.DB
}

var _ billing.PaymentRequestRepository = (*GormPaymentRequestRepository)(nil)

func NewGormPaymentRequestRepository(db *gorm.DB) *GormPaymentRequestRepository {
	return &GormPaymentRequestRepository{db: db}
}

func (r *GormPaymentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentRequest, error) {
	var payment billing.PaymentRequest
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment request: %w", err)
	}
	return &payment, nil
}

// FindByServiceRequest returns the request's payments newest first.
func (r *GormPaymentRequestRepository) FindByServiceRequest(ctx context.Context, requestID uuid.UUID) ([]billing.PaymentRequest, error) {
	var payments []billing.PaymentRequest
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("service_request_id = ?", requestID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find payment requests by service request: %w", err)
	}
	return payments, nil
}

func (r *GormPaymentRequestRepository) CountUnsettledByServiceRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.PaymentRequest{}).
		Where("service_request_id = ?", requestID).
		Where("status = ?", billing.PaymentStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unsettled payment requests: %w", err)
	}
	return count, nil
}

func (r *GormPaymentRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.PaymentRequest, error) {
	var payments []billing.PaymentRequest
	query := r.applyFilter(dbFromContext(ctx, r.db).WithContext(ctx), filter)
	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to find payment requests: %w", err)
	}
	return payments, nil
}

func (r *GormPaymentRequestRepository) Save(ctx context.Context, payment *billing.PaymentRequest) error {
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(payment).Error; err != nil {
		return fmt.Errorf("failed to save payment request: %w", err)
	}
	return nil
}

// SaveWithLock persists the aggregate using optimistic locking.
func (r *GormPaymentRequestRepository) SaveWithLock(ctx context.Context, payment *billing.PaymentRequest) error {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var current struct{ Version int }
	err := db.Model(&billing.PaymentRequest{}).
		Select("version").
		Where("id = ?", payment.ID).
		First(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("failed to read payment request version: %w", err)
	}
	if current.Version != payment.Version {
		return shared.ErrConcurrencyConflict
	}

	newVersion := payment.Version + 1
	result := db.Model(&billing.PaymentRequest{}).
		Where("id = ? AND version = ?", payment.ID, payment.Version).
		Updates(map[string]interface{}{
			"amount":         payment.Amount,
			"currency":       payment.Currency,
			"status":         payment.Status,
			"transaction_id": payment.TransactionID,
			"paid_at":        payment.PaidAt,
			"payment_note":   payment.PaymentNote,
			"upi_id":         payment.UPIID,
			"qr_code_url":    payment.QRCodeURL,
			"version":        newVersion,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save payment request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	payment.Version = newVersion
	return nil
}

func (r *GormPaymentRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		Delete(&billing.PaymentRequest{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete payment request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPaymentRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(dbFromContext(ctx, r.db).WithContext(ctx), filter).
		Model(&billing.PaymentRequest{})
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count payment requests: %w", err)
	}
	return count, nil
}

func (r *GormPaymentRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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

func (r *GormPaymentRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "service_request_id":
			query = query.Where("service_request_id = ?", value)
		case "currency":
			query = query.Where("currency = ?", value)
		}
	}

	return query
}
