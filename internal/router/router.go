// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// folio server. It organizes routes into public, live and admin groups
// with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"folio/internal/handlers"
	"folio/internal/middleware"
	"folio/internal/session"
)

// Deps are the handler groups and shared services the router wires.
type Deps struct {
	Sessions      *session.Store
	SecureCookies bool
	// AILimiter throttles the generation endpoints. Optional.
	AILimiter *middleware.RateLimiter
	// Metrics instruments every request and serves /metrics. Optional.
	Metrics Instrumentation

	Auth   *handlers.Auth
	Admin  *handlers.Admin
	AI     *handlers.AI
	Public *handlers.Public
	Live   *handlers.Live
}

// Instrumentation is the HTTP side of *metrics.Metrics.
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/health", handlers.Health)

	// Public read surface.
	r.Get("/api/portfolio", d.Public.Portfolio)
	r.Get("/api/theme", d.Public.Theme)
	r.Get("/theme.css", d.Public.Stylesheet)

	// Live frames over websocket.
	r.Get("/live/theme", d.Live.Theme)
	r.Get("/live/sections", d.Live.Sections)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.LoadSession(d.Sessions))
		r.Use(middleware.CSRF(d.SecureCookies))

		// Accessible without a session.
		r.Get("/session", d.Auth.Session)
		r.Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)

		// 2FA requires a session but not completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", d.Auth.TwoFASetup)
			r.Post("/2fa/verify", d.Auth.TwoFAVerify)
		})

		// Authenticated and 2FA-verified console API.
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireEditor)

			r.Get("/profile", d.Admin.GetProfile)
			r.Put("/profile", d.Admin.PutProfile)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", d.Admin.ListProjects)
				r.Post("/", d.Admin.CreateProject)
				r.Put("/{id}", d.Admin.UpdateProject)
				r.Delete("/{id}", d.Admin.DeleteProject)
			})

			r.Route("/sections", func(r chi.Router) {
				r.Get("/", d.Admin.ListSections)
				r.Patch("/{id}", d.Admin.SetSectionVisibility)
				r.Delete("/{id}", d.Admin.DeleteSection)
			})

			r.Post("/media", d.Admin.UploadMedia)

			// Generation endpoints share a per-user budget.
			r.Group(func(r chi.Router) {
				if d.AILimiter != nil {
					r.Use(d.AILimiter.Middleware)
				}
				r.Post("/ai/command", d.AI.Command)
				r.Post("/theme/generate", d.AI.Theme)
			})

			r.Get("/ai/providers", d.AI.Providers)
			r.With(middleware.RequireAdmin).Post("/ai/provider", d.AI.SetProvider)
		})
	})

	return r
}
