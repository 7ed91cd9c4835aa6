// Package router sets up all HTTP routes and middleware chains for the
// Home Pros API. Routes are organized into public, signed-in and admin
// groups with the matching middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"homepros/internal/cache"
	"homepros/internal/handlers"
	"homepros/internal/middleware"
	"homepros/internal/session"
)

// Handlers carries every handler group the router mounts.
type Handlers struct {
	Auth            *handlers.Auth
	Catalog         *handlers.Catalog
	Claims          *handlers.Claims
	Reviews         *handlers.Reviews
	AdminProviders  *handlers.AdminProviders
	AdminCategories *handlers.AdminCategories
	Payments        *handlers.Payments
	Platform        *handlers.Platform
}

// Options tunes the middleware stack.
type Options struct {
	SecureCookies bool
	WriteLimiter  *middleware.RateLimiter // per-client write limit; nil disables it
	Cache         *cache.ResponseCache    // cleared after successful writes; nil disables it
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request. The logger sits outside
	// the recoverer so recovered panics are logged as 500s.
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders(opts.SecureCookies))
	r.Use(middleware.LoadSession(sessionStore))
	if opts.Cache != nil {
		r.Use(middleware.InvalidateOnWrite(opts.Cache))
	}

	csrf := middleware.NewCSRF(opts.SecureCookies)
	limit := func(next http.Handler) http.Handler { return next }
	if opts.WriteLimiter != nil {
		limit = opts.WriteLimiter.Middleware
	}

	r.Get("/health", h.Platform.Health)
	r.Get("/stats", h.Platform.Stats)

	r.Route("/auth", func(r chi.Router) {
		r.With(limit).Post("/register", h.Auth.Register)
		r.With(limit).Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		// Signed in, 2FA not required yet.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.With(csrf).Get("/me", h.Auth.Me)
			r.Get("/2fa/setup", h.Auth.TwoFASetup)
			r.With(limit).Post("/2fa/verify", h.Auth.TwoFAVerify)
		})
	})

	r.Get("/categories", h.Catalog.Categories)
	r.Get("/categories/{slug}", h.Catalog.Category)

	r.Route("/providers", func(r chi.Router) {
		r.Get("/", h.Catalog.Providers)
		r.With(limit).Post("/", h.Catalog.Register)
		r.Get("/{id}", h.Catalog.Provider)
		r.Get("/{id}/claim", h.Claims.Check)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Patch("/{id}", h.Catalog.OwnerUpdate)
			r.With(limit).Post("/{id}/claim", h.Claims.Claim)
			r.With(limit).Post("/{id}/reviews", h.Reviews.Create)
		})
	})

	r.With(middleware.RequireAuth).Post("/reviews/{id}/reply", h.Reviews.Reply)

	r.Route("/payments", func(r chi.Router) {
		r.With(middleware.RequireAuth).Post("/checkout", h.Payments.Checkout)
		r.Post("/webhook", h.Payments.Webhook)
	})

	// Admin API: verified admin session plus CSRF on writes.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Use(csrf)

		r.Route("/providers", func(r chi.Router) {
			r.Get("/", h.AdminProviders.List)
			r.Post("/", h.AdminProviders.Create)
			r.Patch("/{id}", h.AdminProviders.Update)
			r.Delete("/{id}", h.AdminProviders.Delete)
			r.Post("/{id}/move-up", h.AdminProviders.MoveUp)
			r.Post("/{id}/move-down", h.AdminProviders.MoveDown)
			r.Post("/{id}/claim-link", h.Claims.IssueLink)
			r.Post("/{id}/images", h.AdminProviders.UploadImage)
			r.Delete("/{id}/images/{imageId}", h.AdminProviders.DeleteImage)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.AdminCategories.List)
			r.Post("/", h.AdminCategories.Create)
			r.Patch("/{id}", h.AdminCategories.Update)
			r.Delete("/{id}", h.AdminCategories.Delete)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.Reviews.AdminList)
			r.Patch("/{id}/status", h.Reviews.SetStatus)
			r.Delete("/{id}", h.Reviews.Delete)
		})

		r.Get("/notifications", h.Platform.Notifications)
		r.Post("/notifications/{id}/read", h.Platform.MarkNotificationRead)
		r.Get("/places", h.Platform.SearchPlaces)
		r.Post("/users/{id}/reset-2fa", h.Auth.ResetTwoFA)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not found"}` + "\n"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":"Method not allowed"}` + "\n"))
	})

	return r
}
