// Package app wires the onboarding services on top of a record store.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"onboarding/internal/config"
	"onboarding/internal/handler"
	"onboarding/internal/httpserver"
	"onboarding/internal/store"
	"onboarding/internal/service"
)

type Services struct {
	Templates     *service.TemplateService
	Tasks         *service.TaskService
	Todos         *service.TodoService
	Progress      *service.ProgressService
	Notifications *service.NotificationService
}

// NewServices builds every service over st with the configured policies.
func NewServices(st store.Store, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	scope, err := service.ParseBroadcastScope(cfg.Onboarding.BroadcastScope)
	if err != nil {
		return nil, fmt.Errorf("onboarding.broadcast_scope: %w", err)
	}

	notifier := service.NewStoreNotifier(logger)
	materializer := service.NewMaterializer(nil, logger)
	progress := service.NewProgressService(st, nil, logger)

	return &Services{
		Templates: service.NewTemplateService(service.TemplateServiceDeps{
			Store:        st,
			Materializer: materializer,
			Progress:     progress,
			Notifier:     notifier,
			Logger:       logger,
		}),
		Tasks: service.NewTaskService(st, logger),
		Todos: service.NewTodoService(service.TodoServiceDeps{
			Store:        st,
			Progress:     progress,
			Materializer: materializer,
			Notifier:     notifier,
			Broadcast:    service.BroadcastPolicy{Enabled: cfg.Onboarding.BroadcastTaskCompleted, Scope: scope},
			Logger:       logger,
		}),
		Progress:      progress,
		Notifications: service.NewNotificationService(st, logger),
	}, nil
}

// Handlers returns the HTTP handlers backed by s.
func (s *Services) Handlers(logger *zap.Logger) httpserver.Handlers {
	return httpserver.Handlers{
		Templates:     handler.NewTemplateHandler(s.Templates, logger),
		Tasks:         handler.NewTaskHandler(s.Tasks, logger),
		Todos:         handler.NewTodoHandler(s.Todos, logger),
		Progress:      handler.NewProgressHandler(s.Progress, logger),
		Notifications: handler.NewNotificationHandler(s.Notifications, logger),
	}
}
