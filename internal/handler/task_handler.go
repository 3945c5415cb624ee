package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onboarding/internal/model"
	"onboarding/internal/service"
)

type TaskHandler struct {
	tasks  *service.TaskService
	logger *zap.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// Add handles POST /templates/:id/tasks
func (h *TaskHandler) Add(c *gin.Context) {
	templateID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := h.tasks.AddTask(c.Request.Context(), templateID, in)
	if err != nil {
		writeError(c, h.logger, "AddTask", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// List handles GET /templates/:id/tasks
func (h *TaskHandler) List(c *gin.Context) {
	templateID, ok := intParam(c, "id")
	if !ok {
		return
	}
	tasks, err := h.tasks.ListTasks(c.Request.Context(), templateID)
	if err != nil {
		writeError(c, h.logger, "ListTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

type reorderRequest struct {
	TaskIDs []int `json:"task_ids"`
}

// Reorder handles PUT /templates/:id/tasks/order
func (h *TaskHandler) Reorder(c *gin.Context) {
	templateID, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	tasks, err := h.tasks.ReorderTasks(c.Request.Context(), templateID, req.TaskIDs)
	if err != nil {
		writeError(c, h.logger, "ReorderTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// Get handles GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "GetTask", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update handles PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, h.logger, "UpdateTask", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "DeleteTask", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveUp handles POST /tasks/:id/move-up
func (h *TaskHandler) MoveUp(c *gin.Context) {
	h.move(c, "MoveTaskUp", h.tasks.MoveTaskUp)
}

// MoveDown handles POST /tasks/:id/move-down
func (h *TaskHandler) MoveDown(c *gin.Context) {
	h.move(c, "MoveTaskDown", h.tasks.MoveTaskDown)
}

func (h *TaskHandler) move(c *gin.Context, op string, fn func(context.Context, int) (*model.Task, error)) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	task, err := fn(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, op, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
