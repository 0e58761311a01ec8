package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/shared"
)

// PaymentRequestRepository defines the persistence interface for payment requests
type PaymentRequestRepository interface {
	// FindByID finds a payment request by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentRequest, error)

	// FindByServiceRequest finds all payment requests attached to a service request
	FindByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) ([]PaymentRequest, error)

	// CountUnsettledByServiceRequest counts pending payment requests for a service request
	CountUnsettledByServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) (int64, error)

	// FindAll finds all payment requests matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]PaymentRequest, error)

	// Save persists a payment request (create or update)
	Save(ctx context.Context, p *PaymentRequest) error

	// SaveWithLock persists a payment request with optimistic concurrency control
	SaveWithLock(ctx context.Context, p *PaymentRequest) error

	// Delete removes a payment request by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts payment requests matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
