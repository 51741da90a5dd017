package models

import "fmt"

// Spacing holds the spacing tokens of a theme.
type Spacing struct {
	Base  string  `json:"base,omitempty"`
	Scale float64 `json:"scale,omitempty"`
}

// DesignTokens is a complete theme definition. It is both the payload the
// model returns for a theme request and the body of the active theme
// document.
type DesignTokens struct {
	ThemeName   string            `json:"themeName"`
	Colors      map[string]string `json:"colors"`
	Spacing     Spacing           `json:"spacing"`
	Typography  map[string]string `json:"typography,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
}

// Fields returns the document body for t.
func (t *DesignTokens) Fields() (map[string]any, error) {
	fields, err := encodeFields(t)
	if err != nil {
		return nil, fmt.Errorf("encode theme: %w", err)
	}
	return fields, nil
}

// DesignTokensFromFields decodes a stored theme document body.
func DesignTokensFromFields(fields map[string]any) (*DesignTokens, error) {
	var t DesignTokens
	if err := decodeFields(fields, &t); err != nil {
		return nil, fmt.Errorf("decode theme: %w", err)
	}
	return &t, nil
}
