package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/service"
	"onboarding/pkg/rbac"
)

type TodoHandler struct {
	todos  *service.TodoService
	logger *zap.Logger
}

func NewTodoHandler(todos *service.TodoService, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, logger: logger}
}

// ownTodo loads the todo and hides other hires' todos from new hires.
func (h *TodoHandler) ownTodo(c *gin.Context, id int) (*model.Todo, bool) {
	todo, err := h.todos.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "GetTodo", err)
		return nil, false
	}
	uid, role := currentUser(c)
	if role != rbac.RoleHR && todo.HireID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return nil, false
	}
	return todo, true
}

// Get handles GET /todos/:id
func (h *TodoHandler) Get(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if todo, ok := h.ownTodo(c, id); ok {
		c.JSON(http.StatusOK, todo)
	}
}

// Complete handles POST /todos/:id/complete
func (h *TodoHandler) Complete(c *gin.Context) {
	h.transition(c, "CompleteTodo", true, h.todos.Complete)
}

// Start handles POST /todos/:id/start
func (h *TodoHandler) Start(c *gin.Context) {
	h.transition(c, "MarkInProgress", true, h.todos.MarkInProgress)
}

// Remind handles POST /todos/:id/remind
func (h *TodoHandler) Remind(c *gin.Context) {
	h.transition(c, "SendReminder", false, h.todos.SendReminder)
}

// RequestSignature handles POST /todos/:id/request-signature
func (h *TodoHandler) RequestSignature(c *gin.Context) {
	h.transition(c, "RequestSignature", false, h.todos.RequestSignature)
}

// MarkOverdue handles POST /todos/:id/overdue
func (h *TodoHandler) MarkOverdue(c *gin.Context) {
	h.transition(c, "MarkOverdue", false, h.todos.MarkOverdue)
}

func (h *TodoHandler) transition(c *gin.Context, op string, checkOwner bool, fn func(context.Context, int) (*model.Todo, error)) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if checkOwner {
		if _, ok := h.ownTodo(c, id); !ok {
			return
		}
	}
	todo, err := fn(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, op, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

type completeManyRequest struct {
	TodoIDs []int `json:"todo_ids"`
}

// CompleteMany handles POST /todos/complete
func (h *TodoHandler) CompleteMany(c *gin.Context) {
	var req completeManyRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.TodoIDs) == 0 {
		badRequest(c, "todo_ids required")
		return
	}
	for _, id := range req.TodoIDs {
		if _, ok := h.ownTodo(c, id); !ok {
			return
		}
	}

	todos, err := h.todos.CompleteMany(c.Request.Context(), req.TodoIDs)
	if err != nil {
		writeError(c, h.logger, "CompleteTodos", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos, "completed": len(todos)})
}

type createTodosRequest struct {
	HireID uuid.UUID `json:"hire_id"`
}

// CreateFromTemplate handles POST /templates/:id/todos
func (h *TodoHandler) CreateFromTemplate(c *gin.Context) {
	templateID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req createTodosRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HireID == uuid.Nil {
		badRequest(c, "hire_id required")
		return
	}

	todos, err := h.todos.CreateTodosFromTemplate(c.Request.Context(), templateID, req.HireID)
	if err != nil {
		writeError(c, h.logger, "CreateTodosFromTemplate", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"todos": todos})
}

// ListByHire handles GET /hires/:id/todos with an optional status filter.
func (h *TodoHandler) ListByHire(c *gin.Context) {
	hireID, ok := uuidParam(c, "id")
	if !ok || !canSeeHire(c, hireID) {
		return
	}

	var (
		todos []model.Todo
		err   error
	)
	if raw := c.Query("status"); raw != "" {
		status, perr := model.ParseTodoStatus(raw)
		if perr != nil {
			badRequest(c, perr.Error())
			return
		}
		todos, err = h.todos.ListByHireAndStatus(c.Request.Context(), hireID, status)
	} else {
		todos, err = h.todos.ListByHire(c.Request.Context(), hireID)
	}
	if err != nil {
		writeError(c, h.logger, "ListTodosByHire", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

// Percentage handles GET /hires/:id/todos/percentage
func (h *TodoHandler) Percentage(c *gin.Context) {
	hireID, ok := uuidParam(c, "id")
	if !ok || !canSeeHire(c, hireID) {
		return
	}
	pct, err := h.todos.ProgressPercentage(c.Request.Context(), hireID)
	if err != nil {
		writeError(c, h.logger, "TodoPercentage", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hire_id": hireID, "percentage": pct})
}

// List handles GET /todos with one of status, hr_id or template_id.
func (h *TodoHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		todos []model.Todo
		err   error
	)
	switch {
	case c.Query("status") != "":
		status, perr := model.ParseTodoStatus(c.Query("status"))
		if perr != nil {
			badRequest(c, perr.Error())
			return
		}
		todos, err = h.todos.ListByStatus(ctx, status)
	case c.Query("template_id") != "":
		templateID, perr := strconv.Atoi(c.Query("template_id"))
		if perr != nil {
			badRequest(c, "invalid template_id")
			return
		}
		todos, err = h.todos.ListByTemplate(ctx, templateID)
	default:
		hrID, _ := currentUser(c)
		if raw := c.Query("hr_id"); raw != "" {
			parsed, perr := uuid.Parse(raw)
			if perr != nil {
				badRequest(c, "invalid hr_id")
				return
			}
			hrID = parsed
		}
		todos, err = h.todos.ListByHR(ctx, hrID)
	}
	if err != nil {
		writeError(c, h.logger, "ListTodos", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

// Overdue handles GET /todos/overdue
func (h *TodoHandler) Overdue(c *gin.Context) {
	todos, err := h.todos.FindOverdue(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "FindOverdue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos, "count": len(todos)})
}
