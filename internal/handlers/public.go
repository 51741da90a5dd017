// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"folio/internal/models"
	"folio/internal/portfolio"
)

// SnapshotSource builds the public read model. *portfolio.Repository
// satisfies it.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*portfolio.Snapshot, error)
}

// SnapshotCache stores rendered snapshots. *cache.PortfolioCache satisfies it.
type SnapshotCache interface {
	Get(ctx context.Context, id string) ([]byte, bool)
	Set(ctx context.Context, id string, body []byte)
	Invalidate(ctx context.Context, id string)
}

// ThemeSource returns the tokens currently in effect.
// *live.ThemePropagator satisfies it.
type ThemeSource interface {
	Tokens() models.DesignTokens
}

// StylesheetSource returns the current :root stylesheet.
// *tokens.Stylesheet satisfies it.
type StylesheetSource interface {
	CSS() string
}

// Public groups the unauthenticated read endpoints. It checks the Valkey
// snapshot cache before assembling the portfolio and stores the encoded
// result on a miss.
type Public struct {
	snapshots   SnapshotSource
	cache       SnapshotCache
	theme       ThemeSource
	stylesheet  StylesheetSource
	portfolioID string
}

// NewPublic creates the Public handler group. cache may be nil.
func NewPublic(snapshots SnapshotSource, cache SnapshotCache, theme ThemeSource, stylesheet StylesheetSource, portfolioID string) *Public {
	return &Public{
		snapshots:   snapshots,
		cache:       cache,
		theme:       theme,
		stylesheet:  stylesheet,
		portfolioID: portfolioID,
	}
}

// Portfolio serves the profile, the ordered projects and the visible
// sections.
func (p *Public) Portfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if p.cache != nil {
		if body, ok := p.cache.Get(ctx, p.portfolioID); ok {
			writeRawJSON(w, body)
			return
		}
	}

	snap, err := p.snapshots.Snapshot(ctx)
	if err != nil {
		slog.Error("build portfolio snapshot failed", "error", err, "portfolio", p.portfolioID)
		writeError(w, http.StatusInternalServerError, "Could not load portfolio.")
		return
	}

	body, err := json.Marshal(snap)
	if err != nil {
		slog.Error("encode portfolio snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load portfolio.")
		return
	}

	if p.cache != nil {
		p.cache.Set(ctx, p.portfolioID, body)
	}
	writeRawJSON(w, body)
}

// Theme serves the active design tokens, or the defaults when none are
// stored.
func (p *Public) Theme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.theme.Tokens())
}

// Stylesheet serves the active tokens as CSS custom properties.
func (p *Public) Stylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(p.stylesheet.CSS()))
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
