package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/service"
)

type TemplateHandler struct {
	templates *service.TemplateService
	logger    *zap.Logger
}

func NewTemplateHandler(templates *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, logger: logger}
}

// Create handles POST /templates. The creating HR defaults to the caller.
func (h *TemplateHandler) Create(c *gin.Context) {
	var in service.TemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if in.HRID == uuid.Nil {
		in.HRID, _ = currentUser(c)
	}

	tmpl, err := h.templates.CreateTemplate(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "CreateTemplate", err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// Update handles PUT /templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var in service.TemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	tmpl, err := h.templates.UpdateTemplate(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, h.logger, "UpdateTemplate", err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// Delete handles DELETE /templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.templates.DeleteTemplate(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "DeleteTemplate", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get handles GET /templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	tmpl, err := h.templates.GetTemplate(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "GetTemplate", err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// List handles GET /templates with an optional hr_id, department_id or
// company_id filter.
func (h *TemplateHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		templates []model.Template
		err       error
	)
	switch {
	case c.Query("hr_id") != "":
		hrID, perr := uuid.Parse(c.Query("hr_id"))
		if perr != nil {
			badRequest(c, "invalid hr_id")
			return
		}
		templates, err = h.templates.ListByHR(ctx, hrID)
	case c.Query("department_id") != "":
		deptID, perr := strconv.Atoi(c.Query("department_id"))
		if perr != nil {
			badRequest(c, "invalid department_id")
			return
		}
		templates, err = h.templates.ListByDepartment(ctx, deptID)
	case c.Query("company_id") != "":
		companyID, perr := strconv.Atoi(c.Query("company_id"))
		if perr != nil {
			badRequest(c, "invalid company_id")
			return
		}
		templates, err = h.templates.ListByCompany(ctx, companyID)
	default:
		templates, err = h.templates.ListTemplates(ctx)
	}
	if err != nil {
		writeError(c, h.logger, "ListTemplates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

type assignRequest struct {
	HireID uuid.UUID `json:"hire_id"`
}

// Assign handles POST /templates/:id/assign
func (h *TemplateHandler) Assign(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HireID == uuid.Nil {
		badRequest(c, "hire_id required")
		return
	}

	res, err := h.templates.AssignToHire(c.Request.Context(), id, req.HireID)
	if err != nil {
		writeError(c, h.logger, "AssignToHire", err)
		return
	}
	status := http.StatusCreated
	if !res.Assigned {
		status = http.StatusOK
	}
	c.JSON(status, res)
}
