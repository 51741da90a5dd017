// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiProvider implements Provider using the Gemini API through the
// google.golang.org/genai SDK. It is the default provider.
type geminiProvider struct {
	config ProviderConfig
	client *genai.Client
}

func newGemini(cfg ProviderConfig) (*geminiProvider, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.BaseURL, "/") + "/"}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiProvider{config: cfg, client: client}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Generate(ctx context.Context, sections []string) (string, error) {
	var config *genai.GenerateContentConfig
	if sys := instruction(sections); sys != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: sys}}},
		}
	}
	contents := []*genai.Content{genai.NewContentFromText(joinUser(sections), genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, contents, config)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err, Transient: geminiTransient(err)}
	}

	text := resp.Text()
	if text == "" {
		return "", &ProviderError{Provider: p.Name(), Err: errors.New("no text in response")}
	}
	return text, nil
}

// geminiTransient classifies a genai failure by the HTTP status of its
// APIError, falling back to connection-level errors.
func geminiTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return transientStatus(apiErrPtr.Code)
	}
	return transientErr(err)
}
