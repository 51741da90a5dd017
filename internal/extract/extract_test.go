// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package extract

import (
	"errors"
	"testing"

	"folio/internal/models"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "bare object", reply: `{"a":1}`, want: `{"a":1}`},
		{name: "bare with whitespace", reply: "\n  {\"a\":1}  \n", want: `{"a":1}`},
		{name: "json fence", reply: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", reply: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fence with prose", reply: "Sure! Here you go:\n```json\n{\"a\":{\"b\":2}}\n```\nEnjoy.", want: `{"a":{"b":2}}`},
		{name: "no object", reply: "I cannot help with that.", want: "I cannot help with that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unwrap(tt.reply); got != tt.want {
				t.Errorf("Unwrap = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSection_AddFenced(t *testing.T) {
	reply := "```json\n" + `{"action":"add","sectionType":"skills","sectionId":"skills-main","data":{"items":["Go","SQL"]},"explanation":"Added skills"}` + "\n```"

	p, err := Section(reply)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if p.Action != models.ActionAdd || p.SectionType != models.SectionSkills || p.SectionID != "skills-main" {
		t.Errorf("payload = %+v", p)
	}
	items, ok := p.Data["items"].([]any)
	if !ok || len(items) != 2 || items[0] != "Go" {
		t.Errorf("data.items = %#v", p.Data["items"])
	}
	if p.Explanation != "Added skills" {
		t.Errorf("explanation = %q", p.Explanation)
	}
}

func TestSection_DerivesIDForAdd(t *testing.T) {
	p, err := Section(`{"action":"add","sectionType":"testimonials","data":{}}`)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if p.SectionID != "testimonials-main" {
		t.Errorf("SectionID = %q, want testimonials-main", p.SectionID)
	}
}

func TestSection_NormalisesID(t *testing.T) {
	p, err := Section(`{"action":"update","sectionType":"hero","sectionId":"../Hero Main","data":{"title":"Hi"}}`)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if p.SectionID != "hero-main" {
		t.Errorf("SectionID = %q, want hero-main", p.SectionID)
	}
}

func TestSection_Errors(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantKind  error
		wantField string
	}{
		{name: "empty", reply: "   ", wantKind: ErrMalformedPayload},
		{name: "prose", reply: "Sorry, I can't do that", wantKind: ErrMalformedPayload},
		{name: "truncated", reply: `{"action":"add"`, wantKind: ErrMalformedPayload},
		{name: "array", reply: `[1,2]`, wantKind: ErrMalformedPayload},
		{name: "missing action", reply: `{"sectionType":"hero","data":{}}`, wantKind: ErrSchemaViolation, wantField: "action"},
		{name: "missing sectionType", reply: `{"action":"add","data":{}}`, wantKind: ErrSchemaViolation, wantField: "sectionType"},
		{name: "missing data", reply: `{"action":"add","sectionType":"hero"}`, wantKind: ErrSchemaViolation, wantField: "data"},
		{name: "null data", reply: `{"action":"add","sectionType":"hero","data":null}`, wantKind: ErrSchemaViolation, wantField: "data"},
		{name: "data not object", reply: `{"action":"add","sectionType":"hero","data":"x"}`, wantKind: ErrSchemaViolation, wantField: "data"},
		{name: "unknown action", reply: `{"action":"create","sectionType":"hero","data":{}}`, wantKind: ErrSchemaViolation, wantField: "action"},
		{name: "unknown type", reply: `{"action":"add","sectionType":"footer","data":{}}`, wantKind: ErrSchemaViolation, wantField: "sectionType"},
		{name: "numeric id", reply: `{"action":"add","sectionType":"hero","sectionId":7,"data":{}}`, wantKind: ErrSchemaViolation, wantField: "sectionId"},
		{name: "delete without id", reply: `{"action":"delete","sectionType":"hero","data":{}}`, wantKind: ErrSchemaViolation, wantField: "sectionId"},
		{name: "update with unusable id", reply: `{"action":"update","sectionType":"hero","sectionId":"///","data":{}}`, wantKind: ErrSchemaViolation, wantField: "sectionId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Section(tt.reply)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("err = %v, want kind %v", err, tt.wantKind)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("err is %T, want *Error", err)
			}
			if e.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", e.Field, tt.wantField)
			}
		})
	}
}

func TestTheme(t *testing.T) {
	reply := "```json\n" + `{
  "themeName": "Sunset",
  "colors": {"primary": "#ff6600", "background": "#1a1a1a"},
  "spacing": {"base": "1rem", "scale": 1.5},
  "typography": {"font-sans": "Inter", "font-heading": "Lora"},
  "explanation": "Warm tones"
}` + "\n```"

	theme, err := Theme(reply)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if theme.ThemeName != "Sunset" || theme.Colors["primary"] != "#ff6600" {
		t.Errorf("theme = %+v", theme)
	}
	if theme.Spacing.Base != "1rem" || theme.Spacing.Scale != 1.5 {
		t.Errorf("spacing = %+v", theme.Spacing)
	}
	if theme.Typography["font-heading"] != "Lora" {
		t.Errorf("typography = %v", theme.Typography)
	}
}

func TestTheme_OptionalFieldsMissing(t *testing.T) {
	theme, err := Theme(`{"themeName":"Mono","colors":{"primary":"#000"}}`)
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if theme.Spacing.Base != "" || theme.Typography != nil {
		t.Errorf("unexpected optional fields: %+v", theme)
	}
}

func TestTheme_Errors(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantKind  error
		wantField string
	}{
		{name: "not json", reply: "a nice blue theme", wantKind: ErrMalformedPayload},
		{name: "missing name", reply: `{"colors":{"primary":"#000"}}`, wantKind: ErrSchemaViolation, wantField: "themeName"},
		{name: "blank name", reply: `{"themeName":"  ","colors":{"primary":"#000"}}`, wantKind: ErrSchemaViolation, wantField: "themeName"},
		{name: "missing colors", reply: `{"themeName":"X"}`, wantKind: ErrSchemaViolation, wantField: "colors"},
		{name: "empty colors", reply: `{"themeName":"X","colors":{}}`, wantKind: ErrSchemaViolation, wantField: "colors"},
		{name: "non string color", reply: `{"themeName":"X","colors":{"primary":5}}`, wantKind: ErrSchemaViolation, wantField: "colors.primary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Theme(tt.reply)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("err = %v, want kind %v", err, tt.wantKind)
			}
			var e *Error
			if errors.As(err, &e) && e.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", e.Field, tt.wantField)
			}
		})
	}
}
