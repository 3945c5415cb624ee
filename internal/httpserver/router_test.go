package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onboarding/internal/handler"
	"onboarding/internal/model"
	"onboarding/internal/repository/memory"
	"onboarding/internal/service"
	"onboarding/pkg/rbac"
)

const testSecret = "test-secret"

type env struct {
	router *Router
	hr     uuid.UUID
	hire   uuid.UUID
	other  uuid.UUID
}

func newEnv(t *testing.T, checks ...ReadinessCheck) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	st := memory.New()

	e := &env{hr: uuid.New(), hire: uuid.New(), other: uuid.New()}
	st.AddUser(&model.HrUser{Identity: model.Identity{ID: e.hr, Email: "hr@example.com", FirstName: "Hanna", LastName: "Reyes"}})
	st.AddUser(&model.Hire{Identity: model.Identity{ID: e.hire, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}, RegisteredByHR: e.hr})
	st.AddUser(&model.Hire{Identity: model.Identity{ID: e.other, Email: "bob@example.com", FirstName: "Bob", LastName: "Stone"}, RegisteredByHR: e.hr})

	notifier := service.NewStoreNotifier(log)
	materializer := service.NewMaterializer(nil, log)
	progress := service.NewProgressService(st, nil, log)
	templates := service.NewTemplateService(service.TemplateServiceDeps{
		Store: st, Materializer: materializer, Progress: progress, Notifier: notifier, Logger: log,
	})
	todos := service.NewTodoService(service.TodoServiceDeps{
		Store: st, Progress: progress, Materializer: materializer, Notifier: notifier, Logger: log,
	})

	e.router = NewRouter(Handlers{
		Templates:     handler.NewTemplateHandler(templates, log),
		Tasks:         handler.NewTaskHandler(service.NewTaskService(st, log), log),
		Todos:         handler.NewTodoHandler(todos, log),
		Progress:      handler.NewProgressHandler(progress, log),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(st, log), log),
	}, testSecret, log, checks...)
	return e
}

func (e *env) do(t *testing.T, method, path string, user uuid.UUID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := GenerateToken(user, role, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.Engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedTemplate creates a template with n tasks as HR and returns its id.
func (e *env) seedTemplate(t *testing.T, n int) int {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/templates", e.hr, rbac.RoleHR, map[string]any{"title": "Engineering"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tmpl := decode[model.Template](t, w)
	for i := range n {
		w := e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/%d/tasks", tmpl.ID), e.hr, rbac.RoleHR,
			map[string]any{"title": fmt.Sprintf("task %d", i+1), "type": "RESOURCE"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	return tmpl.ID
}

func TestHealthAndReadiness(t *testing.T) {
	e := newEnv(t, ReadinessCheck{Name: "db", Check: func(context.Context) error { return errors.New("down") }})

	w := e.do(t, http.MethodGet, "/healthz", uuid.Nil, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/readyz", uuid.Nil, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db_not_ready")

	w = e.do(t, http.MethodGet, "/metrics", uuid.Nil, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthAndPermissions(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/templates", uuid.Nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/templates", e.hire, rbac.RoleNewHire, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/templates", e.hire, rbac.RoleNewHire, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestParseTokenRejectsForgedAndUnknownRole(t *testing.T) {
	token, err := GenerateToken(uuid.New(), rbac.RoleHR, "other-secret", time.Hour)
	require.NoError(t, err)
	_, _, err = ParseToken(token, testSecret)
	require.Error(t, err)

	token, err = GenerateToken(uuid.New(), "ADMIN", testSecret, time.Hour)
	require.NoError(t, err)
	_, _, err = ParseToken(token, testSecret)
	require.Error(t, err)

	token, err = GenerateToken(uuid.New(), rbac.RoleHR, testSecret, -time.Minute)
	require.NoError(t, err)
	_, _, err = ParseToken(token, testSecret)
	require.Error(t, err)
}

func TestAssignmentStatusCodes(t *testing.T) {
	e := newEnv(t)
	tmplID := e.seedTemplate(t, 2)
	empty := e.seedTemplate(t, 0)
	path := fmt.Sprintf("/api/v1/templates/%d/assign", tmplID)

	w := e.do(t, http.MethodPost, path, e.hr, rbac.RoleHR, map[string]any{"hire_id": e.hire})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[service.Assignment](t, w)
	assert.True(t, res.Assigned)
	assert.Len(t, res.Todos, 2)

	w = e.do(t, http.MethodPost, path, e.hr, rbac.RoleHR, map[string]any{"hire_id": e.hire})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[service.Assignment](t, w).Assigned)

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/%d/assign", empty), e.hr, rbac.RoleHR, map[string]any{"hire_id": e.hire})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/templates/9999/assign", e.hr, rbac.RoleHR, map[string]any{"hire_id": e.hire})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, path, e.hr, rbac.RoleHR, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/templates/%d", tmplID), e.hr, rbac.RoleHR, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHireCompletesOnlyOwnTodos(t *testing.T) {
	e := newEnv(t)
	tmplID := e.seedTemplate(t, 2)
	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/%d/assign", tmplID), e.hr, rbac.RoleHR, map[string]any{"hire_id": e.hire})
	require.Equal(t, http.StatusCreated, w.Code)
	todos := decode[service.Assignment](t, w).Todos

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/todos/%d/complete", todos[0].ID), e.other, rbac.RoleNewHire, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/todos/%d/complete", todos[0].ID), e.hire, rbac.RoleNewHire, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.TodoCompleted, decode[model.Todo](t, w).Status)

	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/hires/%s/progress/overall", e.hire), e.hire, rbac.RoleNewHire, nil)
	require.Equal(t, http.StatusOK, w.Code)
	overall := decode[map[string]any](t, w)
	assert.InDelta(t, 50.0, overall["completion_percentage"], 1e-9)

	w = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/hires/%s/progress", e.hire), e.other, rbac.RoleNewHire, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/todos/%d/remind", todos[1].ID), e.hire, rbac.RoleNewHire, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskOrderingEndpoints(t *testing.T) {
	e := newEnv(t)
	tmplID := e.seedTemplate(t, 3)

	w := e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/templates/%d/tasks", tmplID), e.hr, rbac.RoleHR, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[struct {
		Tasks []model.Task `json:"tasks"`
	}](t, w).Tasks
	require.Len(t, tasks, 3)

	w = e.do(t, http.MethodPut, fmt.Sprintf("/api/v1/templates/%d/tasks/order", tmplID), e.hr, rbac.RoleHR,
		map[string]any{"task_ids": []int{tasks[2].ID, tasks[0].ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/move-up", tasks[2].ID), e.hr, rbac.RoleHR, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[model.Task](t, w).OrderIndex)

	w = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", tasks[0].ID), e.hr, rbac.RoleHR, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/%d/tasks", tmplID), e.hr, rbac.RoleHR, map[string]any{"type": "EVENT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	e := newEnv(t)
	tmplID := e.seedTemplate(t, 1)
	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/templates/%d/assign", tmplID), e.hr, rbac.RoleHR, map[string]any{"hire_id": e.hire})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/notifications/unread-count", e.hr, rbac.RoleHR, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["unread"])

	w = e.do(t, http.MethodPost, "/api/v1/notifications/read-all", e.hr, rbac.RoleHR, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["updated"])
}
