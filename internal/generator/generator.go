// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package generator turns natural-language requests into persisted
// portfolio changes. A command becomes one section add, update or delete;
// a theme description becomes the active theme document.
//
// Each request runs: prompt -> model -> extract -> validate -> write. The
// write is the last step, so nothing is persisted unless every earlier step
// succeeded.
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"folio/internal/ai"
	"folio/internal/docstore"
	"folio/internal/extract"
	"folio/internal/models"
	"folio/internal/prompt"
)

// MaxInputLength caps commands and theme descriptions, in characters.
const MaxInputLength = 2000

// Oracle is the language model. *ai.Registry satisfies it.
type Oracle interface {
	Generate(ctx context.Context, sections []string) (string, error)
}

// ResultCache replays results for repeated request tokens.
// *cache.Idempotency satisfies it.
type ResultCache interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Recorder observes finished requests. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveGeneration(kind, outcome string, elapsed time.Duration)
}

// Paths locates the documents the generator writes.
type Paths struct {
	Sections    docstore.Path
	ActiveTheme docstore.Path
}

// DefaultPaths returns the layout used for a portfolio id:
// portfolios/<id>/sections and themes/active_theme.
func DefaultPaths(portfolioID string) (Paths, error) {
	sections, err := docstore.New("portfolios", portfolioID, "sections")
	if err != nil {
		return Paths{}, fmt.Errorf("sections path: %w", err)
	}
	return Paths{
		Sections:    sections,
		ActiveTheme: docstore.MustNew("themes", "active_theme"),
	}, nil
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for section order and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithResultCache enables request-token idempotency.
func WithResultCache(c ResultCache) Option {
	return func(s *Service) { s.results = c }
}

// WithRecorder reports every finished request to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service runs generation requests.
type Service struct {
	oracle   Oracle
	store    docstore.Store
	paths    Paths
	now      func() time.Time
	results  ResultCache
	recorder Recorder
}

// New creates a Service writing to store at paths.
func New(oracle Oracle, store docstore.Store, paths Paths, opts ...Option) *Service {
	s := &Service{oracle: oracle, store: store, paths: paths, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CommandRequest asks for one section change. RequestID, when set, makes
// the request idempotent.
type CommandRequest struct {
	Command   string
	RequestID string
}

// CommandResult describes the applied change.
type CommandResult struct {
	Success     bool                 `json:"success"`
	Action      models.SectionAction `json:"action"`
	SectionType models.SectionType   `json:"sectionType"`
	SectionID   string               `json:"sectionId"`
	Explanation string               `json:"explanation"`
	Data        map[string]any       `json:"data"`
}

// ThemeRequest asks for a new active theme.
type ThemeRequest struct {
	Prompt    string
	RequestID string
}

// ThemeResult is the theme that became active.
type ThemeResult struct {
	Success bool                `json:"success"`
	Theme   models.DesignTokens `json:"theme"`
}

// ApplyCommand interprets a portfolio command and applies it to the
// sections collection.
func (s *Service) ApplyCommand(ctx context.Context, req CommandRequest) (res *CommandResult, err error) {
	start := time.Now()
	defer func() { s.observe("command", start, err) }()

	command := strings.TrimSpace(req.Command)
	if err := validateInput(command, "Command"); err != nil {
		return nil, err
	}

	key := resultKey("command", req.RequestID, command)
	if req.RequestID != "" {
		var cached CommandResult
		if s.replay(ctx, key, &cached) {
			return &cached, nil
		}
	}

	reply, err := s.oracle.Generate(ctx, prompt.Section(command))
	if err != nil {
		return nil, providerError(err)
	}

	payload, err := extract.Section(reply)
	if err != nil {
		return nil, extractError(err)
	}

	if err := s.applySection(ctx, payload); err != nil {
		return nil, err
	}

	res = &CommandResult{
		Success:     true,
		Action:      payload.Action,
		SectionType: payload.SectionType,
		SectionID:   payload.SectionID,
		Explanation: payload.Explanation,
		Data:        payload.Data,
	}
	slog.Info("section command applied",
		"action", payload.Action, "section_type", payload.SectionType, "section_id", payload.SectionID)

	if req.RequestID != "" {
		s.remember(ctx, key, res)
	}
	return res, nil
}

// applySection performs the single write for payload. Update merges into
// the existing content and keeps order, visibility and creation time; an
// update of a missing section creates it.
func (s *Service) applySection(ctx context.Context, payload *models.SectionPayload) error {
	path, err := s.paths.Sections.Child(payload.SectionID)
	if err != nil {
		return &Error{Kind: KindSchema, Message: "AI response has an unusable sectionId", Err: err}
	}

	now := s.now()

	switch payload.Action {
	case models.ActionDelete:
		if err := s.store.Delete(ctx, path); err != nil {
			return storeError(err)
		}
		return nil

	case models.ActionUpdate:
		doc, err := s.store.Get(ctx, path)
		if err != nil {
			return storeError(err)
		}
		if doc != nil {
			section, err := models.SectionFromFields(payload.SectionID, doc.Data)
			if err != nil {
				return storeError(err)
			}
			if section.Content == nil {
				section.Content = map[string]any{}
			}
			maps.Copy(section.Content, payload.Data)
			section.Type = payload.SectionType
			section.UpdatedAt = now.UTC().Format(time.RFC3339Nano)
			if err := s.store.Set(ctx, path, section.Fields()); err != nil {
				return storeError(err)
			}
			return nil
		}
	}

	section := &models.Section{
		Type:      payload.SectionType,
		Content:   payload.Data,
		Visible:   true,
		Order:     now.UnixMilli(),
		CreatedAt: now.UTC().Format(time.RFC3339Nano),
	}
	if err := s.store.Set(ctx, path, section.Fields()); err != nil {
		return storeError(err)
	}
	return nil
}

// GenerateTheme designs a theme from a description and makes it the active
// theme, replacing the previous one entirely.
func (s *Service) GenerateTheme(ctx context.Context, req ThemeRequest) (res *ThemeResult, err error) {
	start := time.Now()
	defer func() { s.observe("theme", start, err) }()

	description := strings.TrimSpace(req.Prompt)
	if err := validateInput(description, "Prompt"); err != nil {
		return nil, err
	}

	key := resultKey("theme", req.RequestID, description)
	if req.RequestID != "" {
		var cached ThemeResult
		if s.replay(ctx, key, &cached) {
			return &cached, nil
		}
	}

	reply, err := s.oracle.Generate(ctx, prompt.Theme(description))
	if err != nil {
		return nil, providerError(err)
	}

	theme, err := extract.Theme(reply)
	if err != nil {
		return nil, extractError(err)
	}

	fields, err := theme.Fields()
	if err != nil {
		return nil, storeError(err)
	}
	if err := s.store.Set(ctx, s.paths.ActiveTheme, fields); err != nil {
		return nil, storeError(err)
	}
	slog.Info("active theme replaced", "theme", theme.ThemeName)

	res = &ThemeResult{Success: true, Theme: *theme}
	if req.RequestID != "" {
		s.remember(ctx, key, res)
	}
	return res, nil
}

// resultKey scopes a request token to the input it was issued for, so a
// reused token with a different input is treated as a new request.
func resultKey(kind, requestID, input string) string {
	sum := sha256.Sum256([]byte(input))
	return kind + ":" + requestID + ":" + hex.EncodeToString(sum[:8])
}

func (s *Service) replay(ctx context.Context, key string, v any) bool {
	if s.results == nil {
		return false
	}
	ok, err := s.results.Load(ctx, key, v)
	if err != nil {
		slog.Warn("idempotency lookup failed", "key", key, "error", err)
		return false
	}
	if ok {
		slog.Info("replaying generation result", "key", key)
	}
	return ok
}

func (s *Service) remember(ctx context.Context, key string, v any) {
	if s.results == nil {
		return
	}
	if err := s.results.Save(ctx, key, v); err != nil {
		slog.Warn("idempotency save failed", "key", key, "error", err)
	}
}

func (s *Service) observe(kind string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	s.recorder.ObserveGeneration(kind, outcome, time.Since(start))
}

func validateInput(text, field string) error {
	if text == "" {
		return &Error{Kind: KindValidation, Message: field + " is required"}
	}
	if utf8.RuneCountInString(text) > MaxInputLength {
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("%s must be at most %d characters", field, MaxInputLength)}
	}
	return nil
}

func providerError(err error) error {
	if errors.Is(err, ai.ErrNoProvider) {
		return &Error{Kind: KindUnconfigured, Message: "AI provider is not configured", Err: err}
	}
	return &Error{Kind: KindProvider, Message: "AI request failed", Err: err}
}

func extractError(err error) error {
	if errors.Is(err, extract.ErrMalformedPayload) {
		return &Error{Kind: KindMalformed, Message: "AI response was not valid JSON", Err: err}
	}
	var e *extract.Error
	if errors.As(err, &e) && e.Field != "" {
		return &Error{Kind: KindSchema, Message: "AI response has an invalid " + e.Field, Err: err}
	}
	return &Error{Kind: KindSchema, Message: "AI response is missing required fields", Err: err}
}

func storeError(err error) error {
	return &Error{Kind: KindStore, Message: "Failed to save changes", Err: err}
}
