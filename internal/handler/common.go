package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding/internal/service"
	"onboarding/pkg/logger"
	"onboarding/pkg/rbac"
)

// Context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// writeError 把服务层错误映射到 HTTP 状态码
func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	log = logger.WithTrace(c.Request.Context(), log)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPrecondition):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		log.Error(op+": failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	log.Warn(op+": rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

// currentUser returns the caller set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, string) {
	id, _ := c.Get(CtxUserID)
	role, _ := c.Get(CtxRole)
	uid, _ := id.(uuid.UUID)
	r, _ := role.(string)
	return uid, r
}

// canSeeHire lets HR through and limits new hires to themselves.
func canSeeHire(c *gin.Context, hireID uuid.UUID) bool {
	uid, role := currentUser(c)
	if role == rbac.RoleHR || uid == hireID {
		return true
	}
	forbidden(c)
	return false
}
