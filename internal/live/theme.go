// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"folio/internal/docstore"
	"folio/internal/models"
	"folio/internal/tokens"
)

var (
	errThemeMissing = errors.New("theme document does not exist")
	errEmptyTheme   = errors.New("theme document has no colors")
)

// ThemePropagator presents the active theme as CSS variables.
type ThemePropagator struct {
	watcher   DocumentWatcher
	path      docstore.Path
	presenter Presenter
	opts      options

	mu      sync.Mutex
	state   State
	source  Source
	tokens  models.DesignTokens
	stop    func()
	started bool
	once    sync.Once
}

// NewThemePropagator creates a propagator for the theme document at path.
// It presents nothing until Start.
func NewThemePropagator(w DocumentWatcher, path docstore.Path, p Presenter, opts ...Option) *ThemePropagator {
	return &ThemePropagator{
		watcher:   w,
		path:      path,
		presenter: p,
		opts:      buildOptions(opts),
		state:     StateLoading,
		source:    SourceDefault,
		tokens:    tokens.Default(),
	}
}

// Start subscribes to the theme document. The first snapshot, and every
// later one, is presented as a full replacement of the CSS variables.
func (tp *ThemePropagator) Start(ctx context.Context) {
	tp.mu.Lock()
	if tp.state == StateClosed || tp.started {
		tp.mu.Unlock()
		return
	}
	tp.started = true
	if tp.opts.observer != nil {
		tp.opts.observer.Subscribed(string(KindTheme))
	}
	tp.mu.Unlock()

	stop := tp.watcher.Document(ctx, tp.path, tp.handle)

	tp.mu.Lock()
	if tp.state == StateClosed {
		tp.mu.Unlock()
		stop()
		return
	}
	tp.stop = stop
	tp.mu.Unlock()
}

func (tp *ThemePropagator) handle(snap docstore.DocumentSnapshot) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.state == StateClosed {
		return
	}

	frame := Frame{Kind: KindTheme}
	theme, source, err := resolveTheme(snap)
	if err != nil {
		slog.Warn("theme snapshot unusable, using defaults", "path", tp.path.String(), "error", err)
		frame.Degraded = true
		frame.Error = err.Error()
	}

	tp.tokens = theme
	tp.source = source
	tp.state = StateApplied

	frame.Source = source
	frame.ThemeName = theme.ThemeName
	frame.Vars = tokens.Flatten(theme)
	tp.presenter.Present(frame)

	if tp.opts.observer != nil {
		tp.opts.observer.Framed(string(KindTheme), string(source))
	}
}

// resolveTheme returns the tokens to present for snap. A missing or
// unreadable document yields the defaults with the reason.
func resolveTheme(snap docstore.DocumentSnapshot) (models.DesignTokens, Source, error) {
	if snap.Err != nil {
		return tokens.Default(), SourceDefault, snap.Err
	}
	if !snap.Exists() {
		return tokens.Default(), SourceDefault, errThemeMissing
	}
	theme, err := models.DesignTokensFromFields(snap.Doc.Data)
	if err != nil {
		return tokens.Default(), SourceDefault, err
	}
	if len(theme.Colors) == 0 {
		return tokens.Default(), SourceDefault, errEmptyTheme
	}
	return tokens.Complete(*theme), SourceFetched, nil
}

// Close stops the subscription. It is safe to call more than once and from
// multiple goroutines; no frame is presented after it returns.
func (tp *ThemePropagator) Close() {
	tp.once.Do(func() {
		tp.mu.Lock()
		tp.state = StateClosed
		stop, started := tp.stop, tp.started
		tp.mu.Unlock()

		if stop != nil {
			stop()
		}
		if started && tp.opts.observer != nil {
			tp.opts.observer.Unsubscribed(string(KindTheme))
		}
	})
}

// State returns the propagator's lifecycle state.
func (tp *ThemePropagator) State() State {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.state
}

// Source returns where the current tokens came from.
func (tp *ThemePropagator) Source() Source {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.source
}

// Tokens returns the tokens last presented, or the defaults before the
// first snapshot.
func (tp *ThemePropagator) Tokens() models.DesignTokens {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.tokens
}

// WithTheme runs fn with a started ThemePropagator and closes it when fn
// returns or panics.
func WithTheme(ctx context.Context, w DocumentWatcher, path docstore.Path, p Presenter, fn func(*ThemePropagator) error, opts ...Option) error {
	tp := NewThemePropagator(w, path, p, opts...)
	tp.Start(ctx)
	defer tp.Close()
	return fn(tp)
}
