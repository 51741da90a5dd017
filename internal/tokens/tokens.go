// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package tokens turns design tokens into CSS custom properties.
package tokens

import (
	_ "embed"
	"encoding/json"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"folio/internal/models"
)

//go:embed default_tokens.json
var defaultJSON []byte

var defaults models.DesignTokens

func init() {
	if err := json.Unmarshal(defaultJSON, &defaults); err != nil {
		panic("tokens: invalid default_tokens.json: " + err.Error())
	}
}

// Default returns a copy of the built-in theme used until the active theme
// document exists or whenever it cannot be read.
func Default() models.DesignTokens {
	return clone(defaults)
}

// Complete fills spacing and typography entries missing from t with the
// default theme's values. Colors are taken from t as is.
func Complete(t models.DesignTokens) models.DesignTokens {
	out := clone(t)
	if out.Spacing.Base == "" {
		out.Spacing.Base = defaults.Spacing.Base
	}
	if out.Spacing.Scale == 0 {
		out.Spacing.Scale = defaults.Spacing.Scale
	}
	if out.Typography == nil {
		out.Typography = map[string]string{}
	}
	for k, v := range defaults.Typography {
		if out.Typography[k] == "" {
			out.Typography[k] = v
		}
	}
	return out
}

// Flatten maps t to CSS custom properties: one "--<key>" per color and
// typography entry plus --spacing-base and --spacing-scale.
func Flatten(t models.DesignTokens) map[string]string {
	vars := make(map[string]string, len(t.Colors)+len(t.Typography)+2)
	for k, v := range t.Colors {
		vars["--"+k] = v
	}
	for k, v := range t.Typography {
		vars["--"+k] = v
	}
	if t.Spacing.Base != "" {
		vars["--spacing-base"] = t.Spacing.Base
	}
	if t.Spacing.Scale != 0 {
		vars["--spacing-scale"] = strconv.FormatFloat(t.Spacing.Scale, 'f', -1, 64)
	}
	return vars
}

// CSS renders vars as a single :root rule with keys in sorted order.
func CSS(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(sanitizeValue(vars[k]))
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// sanitizeValue drops characters that would let a token value escape its
// declaration.
func sanitizeValue(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>':
			return -1
		}
		return r
	}, v)
}

// Stylesheet holds the latest rendered :root rule. It is safe for
// concurrent use; Set replaces the whole rule.
type Stylesheet struct {
	css atomic.Value
}

// NewStylesheet returns a stylesheet rendered from the default theme.
func NewStylesheet() *Stylesheet {
	s := &Stylesheet{}
	s.Set(Flatten(Default()))
	return s
}

// Set replaces the stylesheet contents with vars.
func (s *Stylesheet) Set(vars map[string]string) {
	s.css.Store(CSS(vars))
}

// CSS returns the current stylesheet.
func (s *Stylesheet) CSS() string {
	v, _ := s.css.Load().(string)
	return v
}

func clone(t models.DesignTokens) models.DesignTokens {
	out := t
	out.Colors = maps.Clone(t.Colors)
	out.Typography = maps.Clone(t.Typography)
	return out
}
