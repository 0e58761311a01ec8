package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/thrylos/backend/internal/domain/billing"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
)

// PaymentService handles the payment sub-ledger of service requests
type PaymentService struct {
	paymentRepo    billing.PaymentRequestRepository
	requestRepo    request.ServiceRequestRepository
	eventPublisher shared.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(paymentRepo billing.PaymentRequestRepository, requestRepo request.ServiceRequestRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		requestRepo: requestRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreatePaymentRequest raises a payment demand against a service request
func (s *PaymentService) CreatePaymentRequest(ctx context.Context, serviceRequestID uuid.UUID, input CreatePaymentInput) (*PaymentResponse, error) {
	if _, err := s.requestRepo.FindByID(ctx, serviceRequestID); err != nil {
		return nil, err
	}

	payment, err := billing.NewPaymentRequest(serviceRequestID, input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}
	payment.SetPayoutDetails(input.PaymentNote, input.UPIID, input.QRCodeURL)

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, payment)

	response := ToPaymentResponse(payment)
	return &response, nil
}

// SubmitTransaction settles a pending payment with the payer's transaction
// reference. The settlement happens exactly once; later submissions fail
func (s *PaymentService) SubmitTransaction(ctx context.Context, paymentID uuid.UUID, input SubmitTransactionInput) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := payment.Settle(input.TransactionID); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, payment)

	response := ToPaymentResponse(payment)
	return &response, nil
}

// GetByID retrieves a payment request by ID
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(payment)
	return &response, nil
}

// ListByRequest retrieves the payment sub-ledger of a service request
func (s *PaymentService) ListByRequest(ctx context.Context, serviceRequestID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.requestRepo.FindByID(ctx, serviceRequestID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByServiceRequest(ctx, serviceRequestID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// List retrieves payment requests with filtering and pagination
func (s *PaymentService) List(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
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
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	payments, err := s.paymentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPaymentResponses(payments), total, nil
}

func (s *PaymentService) publishEvents(ctx context.Context, payment *billing.PaymentRequest) {
	if s.eventPublisher == nil {
		return
	}
	events := payment.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	payment.ClearDomainEvents()
}
