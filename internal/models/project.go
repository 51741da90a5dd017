package models

import (
	"fmt"
	"strings"
)

// Project is a portfolio project entry.
type Project struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DescriptionHTML string   `json:"descriptionHtml,omitempty"`
	Image           string   `json:"image"`
	Tags            []string `json:"tags"`
	Link            string   `json:"link"`
	Order           int      `json:"order"`
}

// Fields returns the document body for p. The id and the rendered
// description are derived and never stored.
func (p *Project) Fields() (map[string]any, error) {
	stored := *p
	stored.ID = ""
	stored.DescriptionHTML = ""
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	fields, err := encodeFields(stored)
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

// ProjectFromFields decodes a stored project document body.
func ProjectFromFields(id string, fields map[string]any) (*Project, error) {
	var p Project
	if err := decodeFields(fields, &p); err != nil {
		return nil, fmt.Errorf("decode project %q: %w", id, err)
	}
	p.ID = id
	return &p, nil
}

// ParseTags splits a comma-separated tag list, trimming whitespace and
// dropping empty entries.
func ParseTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
