// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
)

// SectionAction is the mutation an instruction payload asks for.
type SectionAction string

const (
	ActionAdd    SectionAction = "add"
	ActionUpdate SectionAction = "update"
	ActionDelete SectionAction = "delete"
)

// Valid reports whether a is one of the known actions.
func (a SectionAction) Valid() bool {
	switch a {
	case ActionAdd, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// SectionType classifies a portfolio section.
type SectionType string

const (
	SectionHero         SectionType = "hero"
	SectionProjects     SectionType = "projects"
	SectionSkills       SectionType = "skills"
	SectionAbout        SectionType = "about"
	SectionContact      SectionType = "contact"
	SectionTestimonials SectionType = "testimonials"
	SectionCustom       SectionType = "custom"
)

// SectionTypes lists every section type in prompt order.
var SectionTypes = []SectionType{
	SectionHero, SectionProjects, SectionSkills, SectionAbout,
	SectionContact, SectionTestimonials, SectionCustom,
}

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	for _, known := range SectionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SectionPayload is the structured instruction extracted from a model reply.
type SectionPayload struct {
	Action      SectionAction  `json:"action"`
	SectionType SectionType    `json:"sectionType"`
	SectionID   string         `json:"sectionId,omitempty"`
	Data        map[string]any `json:"data"`
	Explanation string         `json:"explanation,omitempty"`
}

// Section is a persisted portfolio section document. ID is the document id
// and is not stored inside the document body.
type Section struct {
	ID        string         `json:"id"`
	Type      SectionType    `json:"type"`
	Content   map[string]any `json:"content"`
	Visible   bool           `json:"visible"`
	Order     int64          `json:"order"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

// Fields returns the document body for s, excluding the id.
func (s *Section) Fields() map[string]any {
	fields := map[string]any{
		"type":      string(s.Type),
		"content":   s.Content,
		"visible":   s.Visible,
		"order":     s.Order,
		"createdAt": s.CreatedAt,
	}
	if s.Content == nil {
		fields["content"] = map[string]any{}
	}
	if s.UpdatedAt != "" {
		fields["updatedAt"] = s.UpdatedAt
	}
	return fields
}

// SectionFromFields decodes a stored document body into a Section.
func SectionFromFields(id string, fields map[string]any) (*Section, error) {
	var s Section
	if err := decodeFields(fields, &s); err != nil {
		return nil, fmt.Errorf("decode section %q: %w", id, err)
	}
	s.ID = id
	return &s, nil
}

// decodeFields converts a generic document body into a typed record.
func decodeFields(fields map[string]any, v any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// encodeFields converts a typed record into a generic document body.
func encodeFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
