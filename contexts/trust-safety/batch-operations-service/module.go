package batchoperationsservice

import (
	"log/slog"
	"time"

	httpadapter "warden/contexts/trust-safety/batch-operations-service/adapters/http"
	"warden/contexts/trust-safety/batch-operations-service/adapters/memory"
	"warden/contexts/trust-safety/batch-operations-service/application"
	"warden/contexts/trust-safety/batch-operations-service/domain/entities"
	"warden/contexts/trust-safety/batch-operations-service/ports"
)

type Module struct {
	Engine  *application.Engine
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	History          ports.HistoryRepository
	Audit            ports.AuditRepository
	Publisher        ports.EventPublisher
	Actions          ports.ActionProvider
	Clock            ports.Clock
	IDGenerator      ports.IDGenerator
	DefaultRateLimit entities.RateLimitPolicy
	DefaultRetry     entities.RetryConfig
	ServiceName      string
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	engine := application.NewEngine(application.EngineDeps{
		History:     deps.History,
		Publisher:   deps.Publisher,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		ServiceName: deps.ServiceName,
		Logger:      deps.Logger,
	})
	return Module{
		Engine: engine,
		Handler: httpadapter.Handler{
			Engine:           engine,
			Actions:          deps.Actions,
			History:          deps.History,
			Audit:            deps.Audit,
			Clock:            deps.Clock,
			IDGen:            deps.IDGenerator,
			DefaultRateLimit: deps.DefaultRateLimit,
			DefaultRetry:     deps.DefaultRetry,
			Logger:           deps.Logger,
		},
	}
}

func NewInMemoryModule(actions ports.ActionProvider, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		History:     store,
		Audit:       store,
		Actions:     actions,
		Clock:       store,
		IDGenerator: store,
		DefaultRateLimit: entities.RateLimitPolicy{
			MaxRequests: 5,
			TimeWindow:  time.Second,
			Enabled:     true,
		},
		DefaultRetry: entities.RetryConfig{
			MaxRetries: 2,
			RetryDelay: 2 * time.Second,
		},
		Logger: logger,
	})
	module.Store = store
	return module
}
