// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

// claudeProvider implements Provider using the Anthropic Messages API.
type claudeProvider struct {
	config ProviderConfig
	client anthropic.Client
}

func newClaude(cfg ProviderConfig) *claudeProvider {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	opts := []aoption.RequestOption{
		aoption.WithAPIKey(cfg.APIKey),
		aoption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, aoption.WithBaseURL(cfg.BaseURL))
	}
	return &claudeProvider{config: cfg, client: anthropic.NewClient(opts...)}
}

func (p *claudeProvider) Name() string { return "claude" }

func (p *claudeProvider) Generate(ctx context.Context, sections []string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(joinUser(sections))),
		},
	}
	if sys := instruction(sections); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: p.Name(), Err: err, Transient: transientStatus(apiErr.StatusCode)}
		}
		return "", &ProviderError{Provider: p.Name(), Err: err, Transient: transientErr(err)}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &ProviderError{Provider: p.Name(), Err: errors.New("no text content in response")}
	}
	return b.String(), nil
}
