package models

import "fmt"

// Social holds the owner's contact links.
type Social struct {
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Email    string `json:"email"`
}

// Profile is the portfolio owner's public profile.
type Profile struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
	Social Social `json:"social"`
}

// Fields returns the document body for p.
func (p *Profile) Fields() (map[string]any, error) {
	fields, err := encodeFields(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return fields, nil
}

// ProfileFromFields decodes a stored profile document body.
func ProfileFromFields(fields map[string]any) (*Profile, error) {
	var p Profile
	if err := decodeFields(fields, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}
