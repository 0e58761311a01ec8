package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	requestapp "github.com/thrylos/backend/internal/application/request"
	"github.com/thrylos/backend/internal/domain/request"
	"github.com/thrylos/backend/internal/infrastructure/auth"
	"github.com/thrylos/backend/internal/interfaces/http/dto"
	"github.com/thrylos/backend/internal/interfaces/http/middleware"
)

// ServiceRequestHandler handles service request API endpoints
type ServiceRequestHandler struct {
	BaseHandler
	requestService *requestapp.RequestService
}

// NewServiceRequestHandler creates a new ServiceRequestHandler
func NewServiceRequestHandler(requestService *requestapp.RequestService) *ServiceRequestHandler {
	return &ServiceRequestHandler{
		requestService: requestService,
	}
}

// Create submits a new service request owned by the authenticated actor
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	ownerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var input requestapp.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.requestService.Create(c.Request.Context(), ownerID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID returns the enriched projection of a single request
func (h *ServiceRequestHandler) GetByID(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}
	id := uuid.MustParse(uri.ID)

	resp, err := h.requestService.GetEnriched(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if !h.canRead(c, &resp.RequestResponse) {
		h.Forbidden(c, "You do not have access to this request")
		return
	}

	h.Success(c, resp)
}

// List returns all requests with filters and pagination (operator view)
func (h *ServiceRequestHandler) List(c *gin.Context) {
	var filter requestapp.RequestListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	responses, total, err := h.requestService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, responses, total, page, pageSize)
}

// ListMine returns the actor's own requests: owned requests for customers,
// assigned requests for project managers
func (h *ServiceRequestHandler) ListMine(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter requestapp.RequestListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var responses []requestapp.RequestResponse
	if auth.Role(middleware.GetJWTRole(c)) == auth.RolePM {
		responses, err = h.requestService.ListByAssignedPM(c.Request.Context(), actorID, filter)
	} else {
		responses, err = h.requestService.ListMine(c.Request.Context(), actorID, filter)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, responses)
}

// ListAssignable returns unassigned requests still open for assignment
func (h *ServiceRequestHandler) ListAssignable(c *gin.Context) {
	var filter requestapp.RequestListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	responses, err := h.requestService.ListAssignable(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, responses)
}

// ChangeStatus moves a request through its lifecycle. Operators may perform
// any valid transition; the assigned PM may advance their own requests but
// may not cancel.
func (h *ServiceRequestHandler) ChangeStatus(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}
	id := uuid.MustParse(uri.ID)

	var input requestapp.ChangeStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	target := request.RequestStatus(input.Status)
	if !target.IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "Unknown request status: "+input.Status)
		return
	}

	if auth.Role(middleware.GetJWTRole(c)) == auth.RolePM {
		if target == request.StatusCancelled {
			h.Forbidden(c, "Project managers cannot cancel requests")
			return
		}
		if !h.isAssignedPM(c, id) {
			h.Forbidden(c, "Only the assigned project manager may update this request")
			return
		}
	}

	resp, err := h.requestService.ChangeStatus(c.Request.Context(), id, target)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Respond records the operator response shown to the request owner
func (h *ServiceRequestHandler) Respond(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}
	id := uuid.MustParse(uri.ID)

	var input requestapp.RespondInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.requestService.Respond(c.Request.Context(), id, input.Response)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AddNote appends a note. Allowed for operators and the assigned PM.
func (h *ServiceRequestHandler) AddNote(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}
	id := uuid.MustParse(uri.ID)

	var input requestapp.AddNoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if auth.Role(middleware.GetJWTRole(c)) == auth.RolePM && !h.isAssignedPM(c, id) {
		h.Forbidden(c, "Only the assigned project manager may add notes")
		return
	}

	resp, err := h.requestService.AddNote(c.Request.Context(), id, input.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a request; requests with unsettled payments are refused
func (h *ServiceRequestHandler) Delete(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}
	id := uuid.MustParse(uri.ID)

	if err := h.requestService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// canRead reports whether the actor may read the given request
func (h *ServiceRequestHandler) canRead(c *gin.Context, resp *requestapp.RequestResponse) bool {
	role := auth.Role(middleware.GetJWTRole(c))
	if role == auth.RoleOperator {
		return true
	}

	actorID, err := getUserID(c)
	if err != nil {
		return false
	}

	switch role {
	case auth.RolePM:
		return resp.AssignedPMID != nil && *resp.AssignedPMID == actorID
	default:
		return resp.OwnerID == actorID
	}
}

// isAssignedPM reports whether the actor is the PM assigned to the request
func (h *ServiceRequestHandler) isAssignedPM(c *gin.Context, requestID uuid.UUID) bool {
	actorID, err := getUserID(c)
	if err != nil {
		return false
	}
	resp, err := h.requestService.GetByID(c.Request.Context(), requestID)
	if err != nil {
		return false
	}
	return resp.AssignedPMID != nil && *resp.AssignedPMID == actorID
}

// normalizePage applies the list defaults used across handlers
func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
