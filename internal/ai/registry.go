// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds how the Registry retries transient provider errors.
type RetryConfig struct {
	Attempts      int
	BaseDelay     time.Duration
	JitterPercent uint64
}

// DefaultRetryConfig returns three attempts with exponential backoff from
// 250ms and 25% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, BaseDelay: 250 * time.Millisecond, JitterPercent: 25}
}

// Option configures a Registry.
type Option func(*Registry)

// WithRetry overrides the retry policy.
func WithRetry(rc RetryConfig) Option {
	return func(r *Registry) { r.retry = rc }
}

// WithRetryHook registers fn to be called before every retry attempt.
func WithRetryHook(fn func(provider string)) Option {
	return func(r *Registry) { r.onRetry = fn }
}

// Registry manages available providers and selects the active one.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
	retry     RetryConfig
	onRetry   func(provider string)
}

// NewRegistry creates a registry with a provider for every config that has
// a non-empty API key. Providers without keys are skipped.
func NewRegistry(active string, configs map[string]ProviderConfig, opts ...Option) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		active:    active,
		retry:     DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "gemini":
			p, err := newGemini(cfg)
			if err != nil {
				slog.Error("gemini provider init failed", "error", err)
				continue
			}
			r.providers[name] = p
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		case "claude":
			r.providers[name] = newClaude(cfg)
		case "mistral":
			r.providers[name] = newMistral(cfg)
		}
	}

	return r
}

// Generate calls the active provider, retrying transient failures with
// jittered exponential backoff. Every error it returns is a *ProviderError.
func (r *Registry) Generate(ctx context.Context, sections []string) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", &ProviderError{Provider: r.ActiveName(), Err: err}
	}

	rc := r.retryConfig()
	attempts := rc.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.NewExponential(rc.BaseDelay)
	backoff = retry.WithJitterPercent(rc.JitterPercent, backoff)
	backoff = retry.WithMaxRetries(uint64(attempts-1), backoff)

	var (
		reply   string
		attempt int
	)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			slog.Warn("retrying ai provider", "provider", p.Name(), "attempt", attempt)
			if r.onRetry != nil {
				r.onRetry(p.Name())
			}
		}

		text, err := p.Generate(ctx, sections)
		if err != nil {
			var perr *ProviderError
			if !errors.As(err, &perr) {
				perr = &ProviderError{Provider: p.Name(), Err: err, Transient: transientErr(err)}
			}
			if perr.Transient {
				return retry.RetryableError(perr)
			}
			return perr
		}
		reply = text
		return nil
	})
	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) {
			perr = &ProviderError{Provider: p.Name(), Err: err, Transient: true}
		}
		return "", perr
	}
	return reply, nil
}

func (r *Registry) retryConfig() RetryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.retry
}

// Active returns the currently active provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrNoProvider, r.active)
	}
	return p, nil
}

// SetActive switches the active provider at runtime. Returns an error if
// the named provider has no API key configured.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("ai: provider %q is not available (no API key?)", name)
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Available returns the sorted names of all configured providers.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a provider in the registry.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider checks whether a named provider is configured.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}
