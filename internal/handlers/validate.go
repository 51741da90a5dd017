// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"folio/internal/models"
)

// Validation limits for profile and project fields.
const (
	maxNameLen        = 200
	maxHeadlineLen    = 200
	maxBioLen         = 5_000
	maxURLLen         = 2_000
	maxProjectTitle   = 300
	maxDescriptionLen = 20_000
	maxTags           = 30
	maxTagLen         = 50
)

// validateProfile checks a profile and returns the first error found.
func validateProfile(p *models.Profile) string {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(p.Name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(p.Title) > maxHeadlineLen {
		return "Title is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(p.Bio) > maxBioLen {
		return "Bio is too long (max 5,000 characters)."
	}
	if msg := validateURL("Avatar", p.Avatar); msg != "" {
		return msg
	}
	if msg := validateURL("GitHub", p.Social.GitHub); msg != "" {
		return msg
	}
	return validateURL("LinkedIn", p.Social.LinkedIn)
}

// validateProject checks a project and returns the first error found.
func validateProject(p *models.Project) string {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxProjectTitle {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(p.Description) > maxDescriptionLen {
		return "Description is too long (max 20,000 characters)."
	}
	if len(p.Tags) > maxTags {
		return "Too many tags (max 30)."
	}
	for _, t := range p.Tags {
		if utf8.RuneCountInString(t) > maxTagLen {
			return "Tag is too long (max 50 characters)."
		}
	}
	if msg := validateURL("Image", p.Image); msg != "" {
		return msg
	}
	return validateURL("Link", p.Link)
}

// validateURL accepts an empty value or an absolute http(s) URL.
func validateURL(field, v string) string {
	if v == "" {
		return ""
	}
	if len(v) > maxURLLen {
		return fmt.Sprintf("%s URL is too long (max 2,000 characters).", field)
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Sprintf("%s must be an http or https URL.", field)
	}
	return ""
}
