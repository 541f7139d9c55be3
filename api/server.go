/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Session gate on /api (auth.go)

ROUTE GROUPS:
  /health                 Liveness, unauthenticated
  /api/scenarios/*        Stored scenarios with KPIs and cost data
  /api/kpis/*, /api/cost-data/*
  /api/configurations/*   Saved plan blobs
  /api/plan/*             Live plan editing
  /api/metrics, /api/report/*
  /api/demo/*, /api/reset Demo datasets (dev only)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins []string
	Auth        AuthOptions
	Logger      *zap.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderOrgKey, HeaderUser},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(opts.Auth, opts.Logger))

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/", h.CreateScenario)
			r.Get("/{id}", h.GetScenario)
			r.Put("/{id}", h.UpdateScenario)
			r.Delete("/{id}", h.DeleteScenario)
			r.Get("/{id}/kpis", h.ListKPIs)
			r.Get("/{id}/cost-data", h.ListCostData)
		})

		// KPI routes
		r.Route("/kpis", func(r chi.Router) {
			r.Post("/", h.CreateKPI)
			r.Put("/{id}", h.UpdateKPI)
			r.Delete("/{id}", h.DeleteKPI)
		})

		// Cost data routes
		r.Route("/cost-data", func(r chi.Router) {
			r.Post("/", h.CreateCostData)
			r.Put("/{id}", h.UpdateCostData)
			r.Delete("/{id}", h.DeleteCostData)
		})

		// Configuration routes
		r.Route("/configurations", func(r chi.Router) {
			r.Get("/{name}", h.GetConfiguration)
			r.Put("/{name}", h.SaveConfiguration)
		})

		// Live plan routes
		r.Route("/plan", func(r chi.Router) {
			r.Get("/", h.GetPlan)
			r.Put("/selection", h.SelectScenario)
			r.Put("/parameters/{key}", h.SetParameters)
			r.Get("/tables/{table}", h.GetTable)
			r.Put("/tables/{table}/cells", h.SetCell)
			r.Post("/tables/{table}/rows", h.AddRow)
			r.Delete("/tables/{table}/rows/{index}", h.DeleteRow)
			r.Post("/save", h.SavePlan)
			r.Get("/sync", h.GetSync)
		})

		// Derived data
		r.Get("/metrics", h.GetMetrics)
		r.Route("/report", func(r chi.Router) {
			r.Get("/", h.GetReport)
			r.Get("/markdown", h.GetReportMarkdown)
			r.Get("/pages", h.GetReportPages)
			r.Get("/pages/{n}.png", h.GetReportPage)
		})

		// Demo routes
		r.Route("/demo", func(r chi.Router) {
			r.Get("/", h.ListDatasets)
			r.Get("/current", h.GetCurrentDataset)
			r.Post("/load", h.LoadDataset)
		})
		r.Post("/reset", h.Reset)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Scale-Up Planner</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Scale-Up Planner API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/plan">/api/plan</a> - Live plan</li>
<li><a href="/api/metrics">/api/metrics</a> - Derived metrics</li>
<li><a href="/api/report">/api/report</a> - Board report</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Stored scenarios</li>
<li><a href="/api/demo">/api/demo</a> - Demo datasets</li>
</ul>
</body>
</html>`))
	})

	return r
}
