package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"onboarding/internal/handler"
	"onboarding/pkg/otel"
	"onboarding/pkg/rbac"
)

type Handlers struct {
	Templates     *handler.TemplateHandler
	Tasks         *handler.TaskHandler
	Todos         *handler.TodoHandler
	Progress      *handler.ProgressHandler
	Notifications *handler.NotificationHandler
}

// ReadinessCheck reports whether a dependency (db, mq) can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Router struct {
	Engine *gin.Engine
}

// NewHealthRouter serves only /healthz, /readyz and /metrics; used by background processes.
func NewHealthRouter(logger *zap.Logger, checks ...ReadinessCheck) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))
	registerHealth(r, checks)
	return &Router{Engine: r}
}

func NewRouter(h Handlers, jwtSecret string, logger *zap.Logger, checks ...ReadinessCheck) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), otel.GinMiddleware(), TraceMiddleware(), RequestLogger(logger))

	registerHealth(r, checks)

	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(jwtSecret))

	manage := RequirePermission(rbac.PermissionManageTemplate)
	readTemplate := RequirePermission(rbac.PermissionReadTemplate)
	assign := RequirePermission(rbac.PermissionAssignTemplate)
	manageTodo := RequirePermission(rbac.PermissionManageTodo)
	ownTodo := RequirePermission(rbac.PermissionManageTodo, rbac.PermissionCompleteOwnTodo)
	readTodo := RequirePermission(rbac.PermissionManageTodo, rbac.PermissionReadOwnTodo)
	team := RequirePermission(rbac.PermissionReadTeamProgress)
	ownProgress := RequirePermission(rbac.PermissionReadTeamProgress, rbac.PermissionReadOwnProgress)
	notifications := RequirePermission(rbac.PermissionReadNotification)

	// templates & tasks
	api.GET("/templates", readTemplate, h.Templates.List)
	api.POST("/templates", manage, h.Templates.Create)
	api.GET("/templates/:id", readTemplate, h.Templates.Get)
	api.PUT("/templates/:id", manage, h.Templates.Update)
	api.DELETE("/templates/:id", manage, h.Templates.Delete)
	api.POST("/templates/:id/assign", assign, h.Templates.Assign)
	api.POST("/templates/:id/todos", assign, h.Todos.CreateFromTemplate)
	api.GET("/templates/:id/tasks", readTemplate, h.Tasks.List)
	api.POST("/templates/:id/tasks", manage, h.Tasks.Add)
	api.PUT("/templates/:id/tasks/order", manage, h.Tasks.Reorder)
	api.GET("/tasks/:id", readTemplate, h.Tasks.Get)
	api.PUT("/tasks/:id", manage, h.Tasks.Update)
	api.DELETE("/tasks/:id", manage, h.Tasks.Delete)
	api.POST("/tasks/:id/move-up", manage, h.Tasks.MoveUp)
	api.POST("/tasks/:id/move-down", manage, h.Tasks.MoveDown)

	// todos
	api.GET("/todos", manageTodo, h.Todos.List)
	api.GET("/todos/overdue", manageTodo, h.Todos.Overdue)
	api.POST("/todos/complete", ownTodo, h.Todos.CompleteMany)
	api.GET("/todos/:id", readTodo, h.Todos.Get)
	api.POST("/todos/:id/complete", ownTodo, h.Todos.Complete)
	api.POST("/todos/:id/start", ownTodo, h.Todos.Start)
	api.POST("/todos/:id/remind", manageTodo, h.Todos.Remind)
	api.POST("/todos/:id/request-signature", manageTodo, h.Todos.RequestSignature)
	api.POST("/todos/:id/overdue", manageTodo, h.Todos.MarkOverdue)

	// per-hire views; handlers limit new hires to themselves
	api.GET("/hires/:id/todos", readTodo, h.Todos.ListByHire)
	api.GET("/hires/:id/todos/percentage", ownProgress, h.Todos.Percentage)
	api.GET("/hires/:id/progress", ownProgress, h.Progress.ByHire)
	api.GET("/hires/:id/progress/overall", ownProgress, h.Progress.Overall)
	api.POST("/hires/:id/progress/:template_id/recalculate", team, h.Progress.Recalculate)

	// HR dashboards
	api.GET("/hr/progress", team, h.Progress.ByHR)
	api.GET("/hr/progress/summary", team, h.Progress.Summary)
	api.GET("/hr/progress/at-risk", team, h.Progress.AtRisk)
	api.GET("/companies/:id/progress", team, h.Progress.ByCompany)
	api.GET("/departments/:id/progress", team, h.Progress.ByDepartment)

	// notifications of the caller
	api.GET("/notifications", notifications, h.Notifications.List)
	api.GET("/notifications/unread-count", notifications, h.Notifications.UnreadCount)
	api.POST("/notifications/read-all", notifications, h.Notifications.MarkAllRead)
	api.POST("/notifications/:id/read", notifications, h.Notifications.MarkRead)

	return &Router{Engine: r}
}

// registerHealth 注册健康检查与 metrics 端点
func registerHealth(r *gin.Engine, checks []ReadinessCheck) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": check.Name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
