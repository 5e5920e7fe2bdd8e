package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// DefaultRateLimit is the number of API requests per minute allowed from
// one client address.
const DefaultRateLimit = 600

type routerOptions struct {
	rateLimit int
}

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

// WithRateLimit sets the per-address request limit per minute. Zero or a
// negative value disables limiting.
func WithRateLimit(perMinute int) RouterOption {
	return func(o *routerOptions) {
		o.rateLimit = perMinute
	}
}

// NewRouter wires the API routes and middleware around h.
func NewRouter(h *Handler, log *slog.Logger, opts ...RouterOption) http.Handler {
	o := routerOptions{rateLimit: DefaultRateLimit}
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		if o.rateLimit > 0 {
			r.Use(httprate.Limit(o.rateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "too many requests")
				}),
			))
		}

		r.Get("/products", h.ListProducts)
		r.Post("/products", h.CreateProduct)
		r.Get("/products/{id}", h.GetProduct)
		r.Patch("/products/{id}", h.PatchProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Get("/categories", h.ListCategories)

		r.Get("/transactions", h.ListTransactions)
		r.Post("/transactions", h.CreateTransaction)
		r.Get("/transactions/{id}", h.GetTransaction)

		r.Get("/settings", h.GetSettings)
		r.Patch("/settings", h.PatchSettings)

		r.Post("/save", h.Save)
		r.Get("/backups", h.ListBackups)
		r.Post("/backups", h.CreateBackup)
		r.Post("/backups/restore", h.RestoreBackup)

		r.Get("/stats", h.Stats)
		r.Get("/report", h.Report)
	})

	return r
}
