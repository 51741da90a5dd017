// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package portfolio

import (
	"context"
	"log/slog"

	"folio/internal/models"
)

// Snapshot is the public read model of a portfolio.
type Snapshot struct {
	Profile  *models.Profile  `json:"profile"`
	Projects []models.Project `json:"projects"`
	Sections []models.Section `json:"sections"`
}

// Snapshot assembles the public view: the profile, every project with its
// description rendered to HTML, and the visible sections in order.
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	profile, err := r.Profile(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := r.Projects(ctx)
	if err != nil {
		return nil, err
	}
	sections, err := r.Sections(ctx, true)
	if err != nil {
		return nil, err
	}

	if r.render != nil {
		for i := range projects {
			html, err := r.render(projects[i].Description)
			if err != nil {
				slog.Warn("render project description failed", "project", projects[i].ID, "error", err)
				continue
			}
			projects[i].DescriptionHTML = html
		}
	}

	return &Snapshot{Profile: profile, Projects: projects, Sections: sections}, nil
}
