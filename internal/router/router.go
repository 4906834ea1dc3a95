package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goalvault/savings-engine/internal/handlers"
	"github.com/goalvault/savings-engine/internal/middleware"
)

func NewRouter(deps *handlers.Deps, registry *prometheus.Registry) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)

	lm := middleware.NewLoggerMiddleware(deps.Log)
	r.Use(lm.LoggerMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	am := middleware.NewMiddleware(deps.Firebase)
	ah := handlers.NewAutomationHandlers(deps)
	r.Route("/automation", func(r chi.Router) {
		r.Use(am.FirebaseAuth)
		r.Mount("/", ah.AutomationRoutes())
	})

	return r
}
