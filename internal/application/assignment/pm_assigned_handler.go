package assignment

import (
	"context"
	"fmt"

	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PMAssignedHandler handles RequestAssignedEvent and notifies the newly
// assigned project manager. Notification failures are logged and swallowed
// so that mail outages never surface as assignment errors
type PMAssignedHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewPMAssignedHandler creates a new handler for request assigned events
func NewPMAssignedHandler(notifier Notifier, logger *zap.Logger) *PMAssignedHandler {
	return &PMAssignedHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PMAssignedHandler) EventTypes() []string {
	return []string{request.EventTypeRequestAssigned}
}

// Handle processes a RequestAssignedEvent by sending the assignment mail
func (h *PMAssignedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	assignedEvent, ok := event.(*request.RequestAssignedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", request.EventTypeRequestAssigned),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			request.EventTypeRequestAssigned, event.EventType())
	}

	notification := AssignmentNotification{
		ManagerName:  assignedEvent.PMName,
		ManagerEmail: assignedEvent.PMEmail,
		ClientName:   assignedEvent.ClientName,
		ProjectName:  assignedEvent.RequestTitle,
		ClientPhone:  assignedEvent.ClientPhone,
	}

	if err := h.notifier.NotifyAssignment(ctx, notification); err != nil {
		h.logger.Error("failed to send assignment notification",
			zap.String("request_id", assignedEvent.RequestID.String()),
			zap.String("pm_id", assignedEvent.PMID.String()),
			zap.String("pm_email", assignedEvent.PMEmail),
			zap.Error(err),
		)
		// The assignment already happened; do not propagate mail failures
		return nil
	}

	h.logger.Info("assignment notification sent",
		zap.String("request_id", assignedEvent.RequestID.String()),
		zap.String("pm_id", assignedEvent.PMID.String()),
		zap.String("pm_email", assignedEvent.PMEmail),
	)

	return nil
}

// Ensure PMAssignedHandler implements shared.EventHandler
var _ shared.EventHandler = (*PMAssignedHandler)(nil)
