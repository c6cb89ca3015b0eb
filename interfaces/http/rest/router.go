// Package rest wires the HTTP endpoints of the diary service.
package rest

import (
	"context"
	"net/http"
	"time"

	_ "cognitivediary/docs"
	"cognitivediary/infrastructure/observability"
	"cognitivediary/interfaces/http/rest/handlers"
	"cognitivediary/interfaces/http/rest/middleware"
	"cognitivediary/pkg/api"
	"cognitivediary/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// DefaultAllowedOrigins are the editor origins used in development
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Dependencies of the router. A nil handler leaves its routes unmounted, so
// the same router serves the backend, the editor host or both.
type Dependencies struct {
	Backend    *handlers.BackendHandler
	Sessions   *handlers.SessionHandler
	Operations *handlers.OperationHandler
	Metrics    *observability.Collector
	Auth       *auth.JWTService
	// CORSOrigins enables CORS for the listed origins when non-empty
	CORSOrigins []string
	// Ready reports whether the storage backend can serve requests
	Ready func(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies, logger *zap.Logger) *Router {
	return &Router{deps: deps, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.deps.Metrics != nil {
		router.Use(rt.deps.Metrics.Middleware)
	}
	// CORS configuration
	if len(rt.deps.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.deps.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check, docs and metrics
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Get("/swagger/doc.json", rt.swaggerDoc)
	if rt.deps.Metrics != nil {
		router.Handle("/metrics", rt.deps.Metrics.Handler())
	}

	authenticate := middleware.Authenticate(rt.deps.Auth, rt.logger)

	// Collaborator endpoints used by the editor
	if b := rt.deps.Backend; b != nil {
		router.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/save-data", b.SaveData)
			r.With(middleware.RequireOwner("username")).Get("/load-data/{username}", b.LoadData)
			r.Post("/chat", b.Chat)
			r.Post("/chain_chat", b.ChainChat)
		})
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		// Apply authentication middleware for API routes
		r.Use(authenticate)

		// Editing session endpoints
		if s := rt.deps.Sessions; s != nil {
			r.Route("/sessions/{username}", func(r chi.Router) {
				r.Use(middleware.RequireOwner("username"))
				r.Get("/", s.GetSession)
				r.Delete("/", s.CloseSession)
				r.Post("/commands", s.DispatchCommand)
				r.Post("/pointer", s.Pointer)
				r.Get("/ws", s.Connect)
			})
		}

		// Operation status endpoint
		if o := rt.deps.Operations; o != nil {
			r.Route("/operations", func(r chi.Router) {
				r.Get("/{operationID}", o.GetOperationStatus)
			})
		}
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.deps.Ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			api.Error(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (rt *Router) swaggerDoc(w http.ResponseWriter, req *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		api.Error(w, http.StatusNotFound, "API documentation is not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
