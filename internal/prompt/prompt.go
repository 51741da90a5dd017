// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package prompt builds the instruction sections sent to the language model
// for portfolio commands and theme requests.
package prompt

import (
	"strings"

	"folio/internal/models"
)

const sectionInstruction = `You edit the sections of a personal portfolio website.
Turn the user's command into exactly one JSON object and reply with that object only.

The object has these fields:
  "action":      one of "add", "update" or "delete"
  "sectionType": one of %TYPES%
  "sectionId":   the id of the section, for example "skills-main" or "testimonials-main"
  "data":        an object with the section content
  "explanation": a short sentence describing the change

Rules:
- Reuse the id "<sectionType>-main" unless the command names a different section.
- For update actions include only the fields that need to change in "data".
- For delete actions "data" may be an empty object.
- Do not add commentary before or after the JSON.`

const themeInstruction = `You design color themes for a personal portfolio website.
Turn the description into exactly one JSON object and reply with that object only.

The object has this shape:
{
  "themeName": "a short name for the theme",
  "colors": {
    "background": "#hex", "foreground": "#hex",
    "primary": "#hex", "primary-foreground": "#hex",
    "secondary": "#hex", "secondary-foreground": "#hex",
    "accent": "#hex", "accent-foreground": "#hex",
    "muted": "#hex", "border": "#hex"
  },
  "spacing": { "base": "a CSS length such as 1rem", "scale": 1.25 },
  "typography": { "font-sans": "a CSS font stack", "font-heading": "a CSS font stack" },
  "explanation": "a short sentence describing the theme"
}

Rules:
- Keep text readable: foreground colors must contrast with their backgrounds.
- Use hex colors only.
- Do not add commentary before or after the JSON.`

// Section returns the ordered prompt sections for a portfolio command: the
// fixed instruction followed by the user's command.
func Section(command string) []string {
	return []string{
		strings.Replace(sectionInstruction, "%TYPES%", typeList(), 1),
		"User command: " + command,
	}
}

// Theme returns the ordered prompt sections for a theme request.
func Theme(description string) []string {
	return []string{
		themeInstruction,
		"Description: " + description,
	}
}

func typeList() string {
	quoted := make([]string, len(models.SectionTypes))
	for i, t := range models.SectionTypes {
		quoted[i] = `"` + string(t) + `"`
	}
	return strings.Join(quoted, ", ")
}
