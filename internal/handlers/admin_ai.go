// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"folio/internal/generator"
	"folio/internal/middleware"
)

// Generator runs the command and theme pipelines. *generator.Service
// satisfies it.
type Generator interface {
	ApplyCommand(ctx context.Context, req generator.CommandRequest) (*generator.CommandResult, error)
	GenerateTheme(ctx context.Context, req generator.ThemeRequest) (*generator.ThemeResult, error)
}

// ProviderSwitcher lists and switches generation providers. *ai.Registry
// satisfies it.
type ProviderSwitcher interface {
	Available() []string
	ActiveName() string
	SetActive(name string) error
}

// Invalidator drops cached public snapshots.
type Invalidator interface {
	Invalidate(ctx context.Context, id string)
}

// AI groups the generation endpoints.
type AI struct {
	gen         Generator
	providers   ProviderSwitcher
	cache       Invalidator
	portfolioID string
}

// NewAI creates the AI handler group. cache may be nil.
func NewAI(gen Generator, providers ProviderSwitcher, cache Invalidator, portfolioID string) *AI {
	return &AI{gen: gen, providers: providers, cache: cache, portfolioID: portfolioID}
}

type commandRequest struct {
	Command   string `json:"command"`
	RequestID string `json:"requestId"`
}

// Command applies a natural-language section command.
func (a *AI) Command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.gen.ApplyCommand(r.Context(), generator.CommandRequest{
		Command:   req.Command,
		RequestID: req.RequestID,
	})
	if err != nil {
		a.fail(w, r, "ai command failed", err)
		return
	}

	a.invalidate(r.Context())
	writeJSON(w, http.StatusOK, res)
}

type themeRequest struct {
	Prompt    string `json:"prompt"`
	RequestID string `json:"requestId"`
}

type themeResponse struct {
	Success   bool   `json:"success"`
	ThemeName string `json:"themeName"`
}

// Theme generates a new active theme from a description.
func (a *AI) Theme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.gen.GenerateTheme(r.Context(), generator.ThemeRequest{
		Prompt:    req.Prompt,
		RequestID: req.RequestID,
	})
	if err != nil {
		a.fail(w, r, "theme generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, themeResponse{Success: true, ThemeName: res.Theme.ThemeName})
}

type providersResponse struct {
	Active    string   `json:"active"`
	Available []string `json:"available"`
}

// Providers lists the configured providers and the active one.
func (a *AI) Providers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, providersResponse{
		Active:    a.providers.ActiveName(),
		Available: a.providers.Available(),
	})
}

type setProviderRequest struct {
	Provider string `json:"provider"`
}

// SetProvider switches the active provider at runtime. Admin only.
func (a *AI) SetProvider(w http.ResponseWriter, r *http.Request) {
	var req setProviderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.providers.SetActive(req.Provider); err != nil {
		writeError(w, http.StatusBadRequest, "Provider is not available.")
		return
	}

	user := ""
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		user = sess.Email
	}
	slog.Info("ai provider switched", "provider", req.Provider, "user", user)

	a.Providers(w, r)
}

// fail maps a pipeline error to a status code and the user-facing message.
func (a *AI) fail(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	kind := generator.KindOf(err)
	status := statusForKind(kind)

	msg := "An unexpected error occurred."
	var ge *generator.Error
	if errors.As(err, &ge) && ge.Message != "" {
		msg = ge.Message
	}

	if status >= http.StatusInternalServerError {
		slog.Error(logMsg, "error", err, "kind", kind.String(), "path", r.URL.Path)
	} else {
		slog.Warn(logMsg, "error", err, "kind", kind.String(), "path", r.URL.Path)
	}
	writeError(w, status, msg)
}

func statusForKind(k generator.Kind) int {
	switch k {
	case generator.KindValidation:
		return http.StatusBadRequest
	case generator.KindProvider:
		return http.StatusBadGateway
	case generator.KindMalformed, generator.KindSchema:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (a *AI) invalidate(ctx context.Context) {
	if a.cache != nil {
		a.cache.Invalidate(ctx, a.portfolioID)
	}
}
