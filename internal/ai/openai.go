// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const mistralBaseURL = "https://api.mistral.ai/v1/"

// chatProvider implements Provider for any OpenAI-compatible chat
// completions API. OpenAI and Mistral differ only in base URL.
type chatProvider struct {
	name   string
	config ProviderConfig
	client openai.Client
}

func newOpenAI(cfg ProviderConfig) *chatProvider {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return newChat("openai", cfg)
}

func newMistral(cfg ProviderConfig) *chatProvider {
	if cfg.Model == "" {
		cfg.Model = "mistral-large-latest"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = mistralBaseURL
	}
	return newChat("mistral", cfg)
}

func newChat(name string, cfg ProviderConfig) *chatProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are owned by the Registry.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &chatProvider{name: name, config: cfg, client: openai.NewClient(opts...)}
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Generate(ctx context.Context, sections []string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if sys := instruction(sections); sys != "" {
		messages = append(messages, openai.SystemMessage(sys))
	}
	messages = append(messages, openai.UserMessage(joinUser(sections)))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.config.Model),
		Messages: messages,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: p.name, Err: err, Transient: transientStatus(apiErr.StatusCode)}
		}
		return "", &ProviderError{Provider: p.name, Err: err, Transient: transientErr(err)}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.name, Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}
