package prompt

import (
	"strings"
	"testing"

	"folio/internal/models"
)

func TestSection(t *testing.T) {
	sections := Section("add a skills section with Go and SQL")
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}

	instruction := sections[0]
	for _, st := range models.SectionTypes {
		if !strings.Contains(instruction, `"`+string(st)+`"`) {
			t.Errorf("instruction does not list section type %q", st)
		}
	}
	for _, want := range []string{`"add"`, `"update"`, `"delete"`, "skills-main", "only the fields that need to change"} {
		if !strings.Contains(instruction, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
	if strings.Contains(instruction, "%TYPES%") {
		t.Error("type placeholder was not replaced")
	}

	if sections[1] != "User command: add a skills section with Go and SQL" {
		t.Errorf("sections[1] = %q", sections[1])
	}
}

func TestTheme(t *testing.T) {
	sections := Theme("warm sunset")
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}
	for _, want := range []string{"themeName", "primary-foreground", "border", "font-heading", "scale"} {
		if !strings.Contains(sections[0], want) {
			t.Errorf("theme instruction missing %q", want)
		}
	}
	if sections[1] != "Description: warm sunset" {
		t.Errorf("sections[1] = %q", sections[1])
	}
}
