package moderationservice

import (
	"log/slog"

	httpadapter "warden/contexts/trust-safety/moderation-service/adapters/http"
	"warden/contexts/trust-safety/moderation-service/adapters/memory"
	"warden/contexts/trust-safety/moderation-service/application"
	"warden/contexts/trust-safety/moderation-service/ports"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Templates  ports.TemplateRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:      deps.Repository,
		Templates: deps.Templates,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{Service: service},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Templates:  store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
