package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	pmapp "github.com/thrylos/backend/internal/application/pm"
	"github.com/thrylos/backend/internal/interfaces/http/dto"
	"github.com/thrylos/backend/internal/interfaces/http/middleware"
)

// ProjectManagerHandler handles project manager API endpoints
type ProjectManagerHandler struct {
	BaseHandler
	pmService *pmapp.PMService
}

// NewProjectManagerHandler creates a new ProjectManagerHandler
func NewProjectManagerHandler(pmService *pmapp.PMService) *ProjectManagerHandler {
	return &ProjectManagerHandler{
		pmService: pmService,
	}
}

// Register creates a new project manager record
func (h *ProjectManagerHandler) Register(c *gin.Context) {
	var input pmapp.RegisterPMInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.pmService.Register(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID returns a single project manager
func (h *ProjectManagerHandler) GetByID(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid project manager ID")
		return
	}

	resp, err := h.pmService.GetByID(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns project managers with filters and pagination
func (h *ProjectManagerHandler) List(c *gin.Context) {
	var filter pmapp.PMListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	responses, total, err := h.pmService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, responses, total, page, pageSize)
}

// ListAvailable returns project managers currently free for assignment
func (h *ProjectManagerHandler) ListAvailable(c *gin.Context) {
	responses, err := h.pmService.ListAvailable(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, responses)
}

// Update changes a project manager's profile
func (h *ProjectManagerHandler) Update(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid project manager ID")
		return
	}

	var input pmapp.UpdatePMInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.pmService.Update(c.Request.Context(), uuid.MustParse(uri.ID), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a project manager with no active assignments
func (h *ProjectManagerHandler) Delete(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid project manager ID")
		return
	}

	if err := h.pmService.Delete(c.Request.Context(), uuid.MustParse(uri.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkAvailable flips the manual availability flag on
func (h *ProjectManagerHandler) MarkAvailable(c *gin.Context) {
	h.setAvailability(c, true)
}

// MarkBusy flips the manual availability flag off
func (h *ProjectManagerHandler) MarkBusy(c *gin.Context) {
	h.setAvailability(c, false)
}

func (h *ProjectManagerHandler) setAvailability(c *gin.Context, available bool) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid project manager ID")
		return
	}
	id := uuid.MustParse(uri.ID)

	var (
		resp *pmapp.PMResponse
		err  error
	)
	if available {
		resp, err = h.pmService.MarkAvailable(c.Request.Context(), id)
	} else {
		resp, err = h.pmService.MarkBusy(c.Request.Context(), id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetWorkload returns a project manager together with their active requests
func (h *ProjectManagerHandler) GetWorkload(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid project manager ID")
		return
	}

	resp, err := h.pmService.GetWorkload(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
