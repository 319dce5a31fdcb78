// Package router sets up all HTTP routes and middleware chains for the
// label server. Pages and the JSON API share the CSRF protection; the PDF
// endpoints are rate limited because every request starts a browser tab.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"labelpress/internal/handlers"
	"labelpress/internal/middleware"
	"labelpress/web"
)

// Options configures the cross-cutting parts of the router.
type Options struct {
	// CORSOrigins lists the origins allowed to call /api.
	CORSOrigins []string
	// SecureCookies marks the CSRF cookie Secure (HTTPS only).
	SecureCookies bool
	// PDFLimiter throttles /preview and /download. Nil disables limiting.
	PDFLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(pages *handlers.Pages, api *handlers.API, print *handlers.Print, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.NotFound(pages.NotFound)

	// Health check: no CSRF.
	r.Get("/health", handlers.Health)

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		r.Get("/", pages.Index)
		r.Get("/settings", pages.Settings)

		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   opts.CORSOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeaderName},
				AllowCredentials: true,
				MaxAge:           300,
			}))

			r.Get("/config", api.GetConfig)
			r.Post("/config", api.PutConfig)

			r.Get("/labels", api.ListLabels)
			r.Post("/labels", api.CreateLabel)
			r.Put("/labels/{id}", api.UpdateLabel)
			r.Delete("/labels/{id}", api.DeleteLabel)

			r.Post("/categories", api.PutCategory)
			r.Delete("/categories/{name}", api.DeleteCategory)
		})

		r.Get("/sheet", print.Sheet)

		r.Group(func(r chi.Router) {
			if opts.PDFLimiter != nil {
				r.Use(opts.PDFLimiter.Middleware)
			}
			r.Get("/preview", print.Preview)
			r.Get("/download", print.Download)
		})
	})

	return r
}
