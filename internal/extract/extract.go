// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package extract pulls structured payloads out of free-form model replies.
//
// A reply is either bare JSON or JSON wrapped in a Markdown code fence
// (optionally tagged "json"). Unwrap isolates the object; Section and Theme
// parse and validate it against the payload shapes the generator accepts.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"folio/internal/models"
	"folio/internal/slug"
)

var (
	// ErrMalformedPayload means the reply did not contain parseable JSON.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrSchemaViolation means the JSON parsed but lacks a required field or
	// has a field of the wrong shape.
	ErrSchemaViolation = errors.New("schema violation")
)

// Error describes why a reply was rejected. Kind is one of the sentinel
// errors above and is matched by errors.Is.
type Error struct {
	Kind   error
	Field  string
	Reason string
	Raw    string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

var fenced = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// Unwrap returns the JSON text inside the first fenced block of reply, or
// the trimmed reply when it has no fence.
func Unwrap(reply string) string {
	if m := fenced.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	return strings.TrimSpace(reply)
}

// Section parses reply into a section instruction. The returned payload
// always carries a normalised, non-empty SectionID: for add actions without
// one it is derived as "<sectionType>-main".
func Section(reply string) (*models.SectionPayload, error) {
	text := Unwrap(reply)
	root, err := parseObject(text)
	if err != nil {
		return nil, err
	}

	for _, field := range []string{"action", "sectionType", "data"} {
		if v := root.Get(field); !v.Exists() || v.Type == gjson.Null {
			return nil, schemaError(field, "is required", text)
		}
	}

	p := &models.SectionPayload{}

	action := root.Get("action")
	if action.Type != gjson.String || !models.SectionAction(action.Str).Valid() {
		return nil, schemaError("action", fmt.Sprintf("unknown action %s", action.Raw), text)
	}
	p.Action = models.SectionAction(action.Str)

	sectionType := root.Get("sectionType")
	if sectionType.Type != gjson.String || !models.SectionType(sectionType.Str).Valid() {
		return nil, schemaError("sectionType", fmt.Sprintf("unknown section type %s", sectionType.Raw), text)
	}
	p.SectionType = models.SectionType(sectionType.Str)

	data := root.Get("data")
	if !data.IsObject() {
		return nil, schemaError("data", "must be an object", text)
	}
	if err := json.Unmarshal([]byte(data.Raw), &p.Data); err != nil {
		return nil, schemaError("data", err.Error(), text)
	}

	if id := root.Get("sectionId"); id.Exists() && id.Type != gjson.Null {
		if id.Type != gjson.String {
			return nil, schemaError("sectionId", "must be a string", text)
		}
		p.SectionID = slug.ID(id.Str)
	}
	if p.SectionID == "" {
		if p.Action != models.ActionAdd {
			return nil, schemaError("sectionId", "is required for "+string(p.Action), text)
		}
		p.SectionID = slug.ID(string(p.SectionType) + "-main")
	}

	if e := root.Get("explanation"); e.Type == gjson.String {
		p.Explanation = e.Str
	}
	return p, nil
}

// Theme parses reply into a theme definition. themeName and a non-empty
// colors object are required; spacing and typography are optional.
func Theme(reply string) (*models.DesignTokens, error) {
	text := Unwrap(reply)
	root, err := parseObject(text)
	if err != nil {
		return nil, err
	}

	name := root.Get("themeName")
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return nil, schemaError("themeName", "is required", text)
	}

	colors := root.Get("colors")
	if !colors.IsObject() {
		return nil, schemaError("colors", "is required", text)
	}
	t := &models.DesignTokens{
		ThemeName: name.Str,
		Colors:    map[string]string{},
	}
	var bad string
	colors.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			bad = key.String()
			return false
		}
		t.Colors[key.String()] = value.Str
		return true
	})
	if bad != "" {
		return nil, schemaError("colors."+bad, "must be a string", text)
	}
	if len(t.Colors) == 0 {
		return nil, schemaError("colors", "must not be empty", text)
	}

	t.Spacing.Base = root.Get("spacing.base").String()
	t.Spacing.Scale = root.Get("spacing.scale").Float()

	if typography := root.Get("typography"); typography.IsObject() {
		t.Typography = map[string]string{}
		typography.ForEach(func(key, value gjson.Result) bool {
			if value.Type == gjson.String {
				t.Typography[key.String()] = value.Str
			}
			return true
		})
	}

	if e := root.Get("explanation"); e.Type == gjson.String {
		t.Explanation = e.Str
	}
	return t, nil
}

func parseObject(text string) (gjson.Result, error) {
	if text == "" {
		return gjson.Result{}, &Error{Kind: ErrMalformedPayload, Reason: "empty reply"}
	}
	if !gjson.Valid(text) {
		return gjson.Result{}, &Error{Kind: ErrMalformedPayload, Reason: "reply is not valid JSON", Raw: text}
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return gjson.Result{}, &Error{Kind: ErrMalformedPayload, Reason: "reply is not a JSON object", Raw: text}
	}
	return root, nil
}

func schemaError(field, reason, raw string) *Error {
	return &Error{Kind: ErrSchemaViolation, Field: field, Reason: reason, Raw: raw}
}
