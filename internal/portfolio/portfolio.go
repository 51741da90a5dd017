// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package portfolio manages the documents behind a public portfolio:
// the owner's profile, project entries and generated sections.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"folio/internal/docstore"
	"folio/internal/models"
)

// ErrNotFound is returned when an update or toggle targets a missing document.
var ErrNotFound = errors.New("document not found")

// ErrInvalid is returned for records that fail validation.
var ErrInvalid = errors.New("invalid record")

// Paths locates a portfolio's documents.
type Paths struct {
	Profile  docstore.Path
	Projects docstore.Path
	Sections docstore.Path
}

// PathsFor returns the layout for portfolio id:
// portfolios/<id>/profile/main, portfolios/<id>/projects, portfolios/<id>/sections.
func PathsFor(id string) (Paths, error) {
	root := []string{"portfolios", id}
	profile, err := docstore.New(append(root, "profile", "main")...)
	if err != nil {
		return Paths{}, fmt.Errorf("profile path: %w", err)
	}
	projects, err := docstore.New(append(root, "projects")...)
	if err != nil {
		return Paths{}, fmt.Errorf("projects path: %w", err)
	}
	sections, err := docstore.New(append(root, "sections")...)
	if err != nil {
		return Paths{}, fmt.Errorf("sections path: %w", err)
	}
	return Paths{Profile: profile, Projects: projects, Sections: sections}, nil
}

// Renderer converts a project description to HTML.
type Renderer func(source string) (string, error)

// Repository reads and writes one portfolio's documents.
type Repository struct {
	store  docstore.Store
	paths  Paths
	render Renderer
	now    func() time.Time
}

// NewRepository creates a repository. render may be nil, in which case
// descriptions are served without HTML.
func NewRepository(store docstore.Store, paths Paths, render Renderer) *Repository {
	return &Repository{store: store, paths: paths, render: render, now: time.Now}
}

// Paths returns the document layout the repository uses.
func (r *Repository) Paths() Paths { return r.paths }

// Profile returns the stored profile, or nil if none exists.
func (r *Repository) Profile(ctx context.Context) (*models.Profile, error) {
	doc, err := r.store.Get(ctx, r.paths.Profile)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	return models.ProfileFromFields(doc.Data)
}

// PutProfile overwrites the profile document.
func (r *Repository) PutProfile(ctx context.Context, p *models.Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	fields, err := p.Fields()
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.paths.Profile, fields); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// Projects returns all projects ordered by their order field.
func (r *Repository) Projects(ctx context.Context) ([]models.Project, error) {
	docs, err := r.store.List(ctx, r.paths.Projects, docstore.Query{}.Order("order"))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]models.Project, 0, len(docs))
	for _, d := range docs {
		p, err := models.ProjectFromFields(d.ID(), d.Data)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

// CreateProject stores a new project with a generated id. Its order is
// the number of projects that existed before it.
func (r *Repository) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	if err := validateProject(&p); err != nil {
		return nil, err
	}
	existing, err := r.store.List(ctx, r.paths.Projects, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	p.ID = uuid.NewString()
	p.Order = len(existing)
	if err := r.putProject(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject overwrites project id, keeping its order.
func (r *Repository) UpdateProject(ctx context.Context, id string, p models.Project) (*models.Project, error) {
	if err := validateProject(&p); err != nil {
		return nil, err
	}
	path, err := r.paths.Projects.Child(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	doc, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	current, err := models.ProjectFromFields(id, doc.Data)
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.Order = current.Order
	if err := r.putProject(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Project returns project id, or nil if it does not exist.
func (r *Repository) Project(ctx context.Context, id string) (*models.Project, error) {
	path, err := r.paths.Projects.Child(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	doc, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	return models.ProjectFromFields(id, doc.Data)
}

// DeleteProject removes project id. Missing projects are not an error.
func (r *Repository) DeleteProject(ctx context.Context, id string) error {
	path, err := r.paths.Projects.Child(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := r.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

func (r *Repository) putProject(ctx context.Context, p *models.Project) error {
	path, err := r.paths.Projects.Child(p.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	fields, err := p.Fields()
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, path, fields); err != nil {
		return fmt.Errorf("put project %s: %w", p.ID, err)
	}
	return nil
}

func validateProject(p *models.Project) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
	return nil
}

// Sections returns the portfolio's sections ordered by order. When
// visibleOnly is set hidden sections are skipped.
func (r *Repository) Sections(ctx context.Context, visibleOnly bool) ([]models.Section, error) {
	q := docstore.Query{}
	if visibleOnly {
		q = docstore.Where("visible", true)
	}
	docs, err := r.store.List(ctx, r.paths.Sections, q.Order("order"))
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	sections := make([]models.Section, 0, len(docs))
	for _, d := range docs {
		s, err := models.SectionFromFields(d.ID(), d.Data)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *s)
	}
	return sections, nil
}

// SetSectionVisible toggles a section's visibility.
func (r *Repository) SetSectionVisible(ctx context.Context, id string, visible bool) error {
	path, err := r.paths.Sections.Child(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	doc, err := r.store.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("get section %s: %w", id, err)
	}
	if doc == nil {
		return ErrNotFound
	}
	err = r.store.Merge(ctx, path, map[string]any{
		"visible":   visible,
		"updatedAt": r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("update section %s: %w", id, err)
	}
	return nil
}

// DeleteSection removes section id. Missing sections are not an error.
func (r *Repository) DeleteSection(ctx context.Context, id string) error {
	path, err := r.paths.Sections.Child(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := r.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete section %s: %w", id, err)
	}
	return nil
}
