// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package live keeps presentation state in step with the document store.
//
// A ThemePropagator watches the active theme document and presents the CSS
// variables of every snapshot; a SectionsPropagator watches the sections
// collection and presents the visible sections in order. Both fall back to a
// safe state (default tokens, no sections) when the store cannot be read,
// and both stop delivering exactly once when closed.
package live

import (
	"context"

	"folio/internal/docstore"
	"folio/internal/models"
)

// Kind names what a frame carries.
type Kind string

const (
	KindTheme    Kind = "theme"
	KindSections Kind = "sections"
)

// Source says where a theme frame's tokens came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFetched Source = "fetched"
)

// State is the lifecycle of a propagator.
type State int

const (
	StateLoading State = iota
	StateApplied
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateApplied:
		return "applied"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Frame is one complete presentation update. Each frame replaces the
// previous one entirely.
type Frame struct {
	Kind      Kind              `json:"kind"`
	Source    Source            `json:"source,omitempty"`
	ThemeName string            `json:"themeName,omitempty"`
	Vars      map[string]string `json:"vars,omitempty"`
	Sections  []models.Section  `json:"sections,omitempty"`
	Degraded  bool              `json:"degraded"`
	Error     string            `json:"error,omitempty"`
}

// Presenter applies frames. Present is called serially and must not call
// Close on the propagator that invoked it.
type Presenter interface {
	Present(Frame)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Frame)

func (f PresenterFunc) Present(fr Frame) { f(fr) }

// Observer is notified of subscription lifecycle and delivered frames.
// *metrics.Metrics satisfies it.
type Observer interface {
	Subscribed(kind string)
	Unsubscribed(kind string)
	Framed(kind, source string)
}

// DocumentWatcher is the part of *docstore.Watcher a ThemePropagator uses.
type DocumentWatcher interface {
	Document(ctx context.Context, p docstore.Path, fn func(docstore.DocumentSnapshot)) (stop func())
}

// CollectionWatcher is the part of *docstore.Watcher a SectionsPropagator uses.
type CollectionWatcher interface {
	Collection(ctx context.Context, p docstore.Path, q docstore.Query, fn func(docstore.CollectionSnapshot)) (stop func())
}

// Option configures a propagator.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver reports lifecycle events to o.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
