// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface over the hosted language models
// (Gemini, OpenAI, Claude, Mistral). Each provider implements Provider; the
// Registry selects the active one by name and retries transient failures.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Provider is a single hosted model. Generate sends the ordered prompt
// sections and returns the reply text. The first section is the instruction;
// providers that support a system role send it there.
type Provider interface {
	Generate(ctx context.Context, sections []string) (string, error)

	// Name returns the provider identifier (e.g. "openai", "gemini").
	Name() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ErrNoProvider is returned when the active provider has no credential.
var ErrNoProvider = errors.New("ai: no provider configured")

// ProviderError wraps a failed provider call. Transient errors (timeouts,
// rate limits, 5xx responses) are retried by the Registry.
type ProviderError struct {
	Provider  string
	Err       error
	Transient bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// transientStatus reports whether an HTTP status is worth retrying.
func transientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// transientErr classifies errors that carry no HTTP status.
func transientErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "timeout", "unavailable", "eof"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// joinUser concatenates every section after the instruction.
func joinUser(sections []string) string {
	if len(sections) <= 1 {
		return ""
	}
	return strings.Join(sections[1:], "\n\n")
}

// instruction returns the first section, or "" when there is none.
func instruction(sections []string) string {
	if len(sections) == 0 {
		return ""
	}
	return sections[0]
}
