package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding/internal/service"
)

type ProgressHandler struct {
	progress *service.ProgressService
	logger   *zap.Logger
}

func NewProgressHandler(progress *service.ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

// ByHire handles GET /hires/:id/progress
func (h *ProgressHandler) ByHire(c *gin.Context) {
	hireID, ok := uuidParam(c, "id")
	if !ok || !canSeeHire(c, hireID) {
		return
	}
	rows, err := h.progress.ListByHire(c.Request.Context(), hireID)
	if err != nil {
		writeError(c, h.logger, "ProgressByHire", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": rows})
}

// Overall handles GET /hires/:id/progress/overall
func (h *ProgressHandler) Overall(c *gin.Context) {
	hireID, ok := uuidParam(c, "id")
	if !ok || !canSeeHire(c, hireID) {
		return
	}
	overall, err := h.progress.OverallCompletion(c.Request.Context(), hireID)
	if err != nil {
		writeError(c, h.logger, "OverallCompletion", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hire_id": hireID, "completion_percentage": overall})
}

// Recalculate handles POST /hires/:id/progress/:template_id/recalculate
func (h *ProgressHandler) Recalculate(c *gin.Context) {
	hireID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	templateID, ok := intParam(c, "template_id")
	if !ok {
		return
	}
	p, err := h.progress.Recalculate(c.Request.Context(), hireID, templateID)
	if err != nil {
		writeError(c, h.logger, "RecalculateProgress", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// hrFromQuery reads hr_id, defaulting to the caller.
func hrFromQuery(c *gin.Context) (uuid.UUID, bool) {
	uid, _ := currentUser(c)
	raw := c.Query("hr_id")
	if raw == "" {
		return uid, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid hr_id")
		return uuid.Nil, false
	}
	return id, true
}

// ByHR handles GET /hr/progress
func (h *ProgressHandler) ByHR(c *gin.Context) {
	hrID, ok := hrFromQuery(c)
	if !ok {
		return
	}
	rows, err := h.progress.ListByHR(c.Request.Context(), hrID)
	if err != nil {
		writeError(c, h.logger, "ProgressByHR", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": rows})
}

// Summary handles GET /hr/progress/summary
func (h *ProgressHandler) Summary(c *gin.Context) {
	hrID, ok := hrFromQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	avg, err := h.progress.AverageCompletionForHR(ctx, hrID)
	if err != nil {
		writeError(c, h.logger, "AverageCompletion", err)
		return
	}
	completed, err := h.progress.CountCompletedForHR(ctx, hrID)
	if err != nil {
		writeError(c, h.logger, "CountCompleted", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hr_id":              hrID,
		"average_completion": avg,
		"completed_count":    completed,
	})
}

// AtRisk handles GET /hr/progress/at-risk
func (h *ProgressHandler) AtRisk(c *gin.Context) {
	hrID, ok := hrFromQuery(c)
	if !ok {
		return
	}
	rows, err := h.progress.AtRisk(c.Request.Context(), hrID)
	if err != nil {
		writeError(c, h.logger, "AtRisk", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": rows, "count": len(rows)})
}

// ByCompany handles GET /companies/:id/progress
func (h *ProgressHandler) ByCompany(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.progress.ListByCompany(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "ProgressByCompany", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": rows})
}

// ByDepartment handles GET /departments/:id/progress
func (h *ProgressHandler) ByDepartment(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.progress.ListByDepartment(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "ProgressByDepartment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": rows})
}

