// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the folio server.
// Handlers are grouped by concern (admin, ai, auth, live, public) and
// receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"folio/internal/models"
	"folio/internal/portfolio"
)

// PortfolioStore is the document access the admin endpoints need.
// *portfolio.Repository satisfies it.
type PortfolioStore interface {
	Profile(ctx context.Context) (*models.Profile, error)
	PutProfile(ctx context.Context, p *models.Profile) error
	Projects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, p models.Project) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	Sections(ctx context.Context, visibleOnly bool) ([]models.Section, error)
	SetSectionVisible(ctx context.Context, id string, visible bool) error
	DeleteSection(ctx context.Context, id string) error
}

// Admin groups the console's document endpoints.
type Admin struct {
	portfolio   PortfolioStore
	media       MediaStorage
	cache       Invalidator
	portfolioID string
}

// NewAdmin creates the Admin handler group. media and cache may be nil.
func NewAdmin(store PortfolioStore, media MediaStorage, cache Invalidator, portfolioID string) *Admin {
	return &Admin{portfolio: store, media: media, cache: cache, portfolioID: portfolioID}
}

// GetProfile returns the stored profile, or 404 before one is saved.
func (a *Admin) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := a.portfolio.Profile(r.Context())
	if err != nil {
		slog.Error("get profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load profile.")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Profile not found.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PutProfile overwrites the profile document.
func (a *Admin) PutProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateProfile(&p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := a.portfolio.PutProfile(r.Context(), &p); err != nil {
		a.storeFailed(w, "put profile failed", err)
		return
	}

	a.invalidate(r.Context())
	writeJSON(w, http.StatusOK, p)
}

// ListProjects returns every project ordered by order.
func (a *Admin) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.portfolio.Projects(r.Context())
	if err != nil {
		slog.Error("list projects failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load projects.")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// projectRequest accepts tags as a JSON array or a comma-separated string.
type projectRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Link        string          `json:"link"`
	Tags        json.RawMessage `json:"tags"`
}

func (pr *projectRequest) project() (models.Project, error) {
	p := models.Project{
		Title:       pr.Title,
		Description: pr.Description,
		Image:       pr.Image,
		Link:        pr.Link,
		Tags:        []string{},
	}
	if len(pr.Tags) == 0 || string(pr.Tags) == "null" {
		return p, nil
	}

	var list []string
	if err := json.Unmarshal(pr.Tags, &list); err == nil {
		p.Tags = list
		return p, nil
	}
	var joined string
	if err := json.Unmarshal(pr.Tags, &joined); err != nil {
		return p, errors.New("tags must be a list or a comma-separated string")
	}
	p.Tags = models.ParseTags(joined)
	return p, nil
}

func (a *Admin) decodeProject(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.Project{}, false
	}
	p, err := req.project()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.Project{}, false
	}
	if msg := validateProject(&p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return models.Project{}, false
	}
	return p, true
}

// CreateProject appends a project after the existing ones.
func (a *Admin) CreateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := a.decodeProject(w, r)
	if !ok {
		return
	}

	created, err := a.portfolio.CreateProject(r.Context(), p)
	if err != nil {
		a.storeFailed(w, "create project failed", err)
		return
	}

	slog.Info("project created", "id", created.ID, "title", created.Title)
	a.invalidate(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

// UpdateProject overwrites a project, keeping its position.
func (a *Admin) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := a.decodeProject(w, r)
	if !ok {
		return
	}

	updated, err := a.portfolio.UpdateProject(r.Context(), id, p)
	if err != nil {
		a.storeFailed(w, "update project failed", err)
		return
	}

	a.invalidate(r.Context())
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProject removes a project.
func (a *Admin) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.portfolio.DeleteProject(r.Context(), id); err != nil {
		a.storeFailed(w, "delete project failed", err)
		return
	}

	slog.Info("project deleted", "id", id)
	a.invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ListSections returns every section, hidden ones included.
func (a *Admin) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := a.portfolio.Sections(r.Context(), false)
	if err != nil {
		slog.Error("list sections failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load sections.")
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

// SetSectionVisibility shows or hides a section.
func (a *Admin) SetSectionVisibility(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req visibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, "visible is required.")
		return
	}

	if err := a.portfolio.SetSectionVisible(r.Context(), id, *req.Visible); err != nil {
		a.storeFailed(w, "set section visibility failed", err)
		return
	}

	a.invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "visible": *req.Visible})
}

// DeleteSection removes a section.
func (a *Admin) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.portfolio.DeleteSection(r.Context(), id); err != nil {
		a.storeFailed(w, "delete section failed", err)
		return
	}

	slog.Info("section deleted", "id", id)
	a.invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// storeFailed maps repository errors to responses.
func (a *Admin) storeFailed(w http.ResponseWriter, logMsg string, err error) {
	switch {
	case errors.Is(err, portfolio.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, portfolio.ErrInvalid):
		slog.Warn(logMsg, "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request.")
	default:
		slog.Error(logMsg, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

func (a *Admin) invalidate(ctx context.Context) {
	if a.cache != nil {
		a.cache.Invalidate(ctx, a.portfolioID)
	}
}
