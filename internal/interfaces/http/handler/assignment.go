package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	assignmentapp "github.com/thrylos/backend/internal/application/assignment"
	requestapp "github.com/thrylos/backend/internal/application/request"
	"github.com/thrylos/backend/internal/interfaces/http/dto"
	"github.com/thrylos/backend/internal/interfaces/http/middleware"
)

// AssignmentHandler handles PM assignment API endpoints
type AssignmentHandler struct {
	BaseHandler
	assignmentService *assignmentapp.AssignmentService
	requestService    *requestapp.RequestService
}

// NewAssignmentHandler creates a new AssignmentHandler
func NewAssignmentHandler(
	assignmentService *assignmentapp.AssignmentService,
	requestService *requestapp.RequestService,
) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		requestService:    requestService,
	}
}

// AssignPMRequest represents a request to assign a project manager
type AssignPMRequest struct {
	PMID uuid.UUID `json:"pm_id" binding:"required"`
}

// Assign links a project manager to a service request
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}
	requestID := uuid.MustParse(uri.ID)

	var input AssignPMRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.assignmentService.Assign(c.Request.Context(), requestID, input.PMID); err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.requestService.GetByID(c.Request.Context(), requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Unassign removes the PM link from a service request
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}
	requestID := uuid.MustParse(uri.ID)

	if err := h.assignmentService.Unassign(c.Request.Context(), requestID); err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.requestService.GetByID(c.Request.Context(), requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
