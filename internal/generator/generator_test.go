// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"folio/internal/ai"
	"folio/internal/docstore"
	"folio/internal/models"
)

// fakeOracle returns canned replies in order and records every prompt.
type fakeOracle struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts [][]string
}

func (f *fakeOracle) Generate(ctx context.Context, sections []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, sections)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, nil
}

func (f *fakeOracle) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// stepClock advances one second per call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// mapResults is an in-memory ResultCache.
type mapResults struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (r *mapResults) Load(ctx context.Context, key string, v any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (r *mapResults) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[key]; !ok {
		r.m[key] = raw
	}
	return nil
}

type recordedObservation struct {
	kind, outcome string
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []recordedObservation
}

func (r *fakeRecorder) ObserveGeneration(kind, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, recordedObservation{kind, outcome})
}

type fixture struct {
	svc    *Service
	oracle *fakeOracle
	store  *docstore.Memory
	paths  Paths
	clock  *stepClock
}

func newFixture(t *testing.T, replies ...string) *fixture {
	t.Helper()
	paths, err := DefaultPaths("default")
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		oracle: &fakeOracle{replies: replies},
		store:  docstore.NewMemory(),
		paths:  paths,
		clock:  &stepClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = New(f.oracle, f.store, paths, WithClock(f.clock.Now))
	return f
}

func (f *fixture) section(t *testing.T, id string) *models.Section {
	t.Helper()
	p, _ := f.paths.Sections.Child(id)
	doc, err := f.store.Get(context.Background(), p)
	if err != nil {
		t.Fatalf("Get %s: %v", id, err)
	}
	if doc == nil {
		return nil
	}
	s, err := models.SectionFromFields(id, doc.Data)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (f *fixture) sectionCount(t *testing.T) int {
	t.Helper()
	docs, err := f.store.List(context.Background(), f.paths.Sections, docstore.Query{})
	if err != nil {
		t.Fatal(err)
	}
	return len(docs)
}

const addSkills = "```json\n" + `{"action":"add","sectionType":"skills","sectionId":"skills-main","data":{"items":["Go","SQL"]},"explanation":"Added a skills section"}` + "\n```"

func TestApplyCommand_Add(t *testing.T) {
	f := newFixture(t, addSkills)

	res, err := f.svc.ApplyCommand(context.Background(), CommandRequest{Command: "add a skills section with Go and SQL"})
	if err != nil {
		t.Fatalf("ApplyCommand: %v", err)
	}
	if !res.Success || res.Action != models.ActionAdd || res.SectionType != models.SectionSkills || res.SectionID != "skills-main" {
		t.Errorf("result = %+v", res)
	}
	if res.Explanation != "Added a skills section" {
		t.Errorf("explanation = %q", res.Explanation)
	}

	s := f.section(t, "skills-main")
	if s == nil {
		t.Fatal("section not written")
	}
	if s.Type != models.SectionSkills || !s.Visible {
		t.Errorf("section = %+v", s)
	}
	if items, _ := s.Content["items"].([]any); len(items) != 2 || items[0] != "Go" || items[1] != "SQL" {
		t.Errorf("content.items = %#v", s.Content["items"])
	}
	wantOrder := time.Date(2026, 10, 18, 12, 0, 1, 0, time.UTC).UnixMilli()
	if s.Order != wantOrder {
		t.Errorf("order = %d, want %d", s.Order, wantOrder)
	}
	if s.CreatedAt != "2026-10-18T12:00:01Z" {
		t.Errorf("createdAt = %q", s.CreatedAt)
	}

	prompts := f.oracle.prompts[0]
	if len(prompts) != 2 || prompts[1] != "User command: add a skills section with Go and SQL" {
		t.Errorf("prompt sections = %q", prompts)
	}
}

func TestApplyCommand_RepeatedAddOverwrites(t *testing.T) {
	f := newFixture(t, addSkills)
	ctx := context.Background()

	if _, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "add skills"}); err != nil {
		t.Fatal(err)
	}
	first := f.section(t, "skills-main")
	if _, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "add skills"}); err != nil {
		t.Fatal(err)
	}
	second := f.section(t, "skills-main")

	if f.sectionCount(t) != 1 {
		t.Errorf("section count = %d, want 1", f.sectionCount(t))
	}
	if second.Order <= first.Order {
		t.Errorf("order not refreshed: %d then %d", first.Order, second.Order)
	}
}

func TestApplyCommand_UpdateMerges(t *testing.T) {
	f := newFixture(t,
		`{"action":"add","sectionType":"hero","sectionId":"hero-main","data":{"title":"Hi","subtitle":"Old"}}`,
	)
	ctx := context.Background()
	if _, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "add a hero"}); err != nil {
		t.Fatal(err)
	}
	before := f.section(t, "hero-main")

	f.oracle.replies = []string{`{"action":"update","sectionType":"hero","sectionId":"hero-main","data":{"subtitle":"New"}}`}
	res, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "change the subtitle"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Action != models.ActionUpdate {
		t.Errorf("action = %q", res.Action)
	}

	after := f.section(t, "hero-main")
	if after.Content["title"] != "Hi" || after.Content["subtitle"] != "New" {
		t.Errorf("content = %v", after.Content)
	}
	if after.Order != before.Order || after.CreatedAt != before.CreatedAt || !after.Visible {
		t.Errorf("update changed order/createdAt/visible: before %+v after %+v", before, after)
	}
	if after.UpdatedAt == "" {
		t.Error("updatedAt not set")
	}
}

func TestApplyCommand_UpdateMissingCreates(t *testing.T) {
	f := newFixture(t, `{"action":"update","sectionType":"about","sectionId":"about-main","data":{"text":"Hello"}}`)

	if _, err := f.svc.ApplyCommand(context.Background(), CommandRequest{Command: "update about"}); err != nil {
		t.Fatal(err)
	}
	s := f.section(t, "about-main")
	if s == nil || s.Content["text"] != "Hello" || !s.Visible {
		t.Errorf("section = %+v", s)
	}
}

func TestApplyCommand_Delete(t *testing.T) {
	f := newFixture(t, addSkills)
	ctx := context.Background()
	f.svc.ApplyCommand(ctx, CommandRequest{Command: "add skills"})

	f.oracle.replies = []string{`{"action":"delete","sectionType":"skills","sectionId":"skills-main","data":{}}`}
	if _, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "remove skills"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.section(t, "skills-main") != nil {
		t.Error("section still present")
	}

	// Deleting again is not an error.
	if _, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "remove skills"}); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestApplyCommand_Failures(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		reply    string
		oracleEr error
		wantKind Kind
	}{
		{name: "empty command", command: "   ", wantKind: KindValidation},
		{name: "too long", command: strings.Repeat("a", MaxInputLength+1), wantKind: KindValidation},
		{name: "no provider", command: "add hero", oracleEr: &ai.ProviderError{Provider: "gemini", Err: fmt.Errorf("%w for %q", ai.ErrNoProvider, "gemini")}, wantKind: KindUnconfigured},
		{name: "provider failure", command: "add hero", oracleEr: &ai.ProviderError{Provider: "gemini", Err: errors.New("503"), Transient: true}, wantKind: KindProvider},
		{name: "prose reply", command: "add hero", reply: "I'd love to help!", wantKind: KindMalformed},
		{name: "missing data", command: "add hero", reply: `{"action":"add","sectionType":"hero"}`, wantKind: KindSchema},
		{name: "bad type", command: "add hero", reply: `{"action":"add","sectionType":"footer","data":{}}`, wantKind: KindSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.reply)
			f.oracle.err = tt.oracleEr
			rec := &fakeRecorder{}
			f.svc.recorder = rec

			res, err := f.svc.ApplyCommand(context.Background(), CommandRequest{Command: tt.command})
			if res != nil {
				t.Errorf("result = %+v, want nil", res)
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Fatalf("kind = %v (%v), want %v", got, err, tt.wantKind)
			}
			if f.sectionCount(t) != 0 {
				t.Error("failed command wrote a section")
			}
			if tt.wantKind == KindValidation && f.oracle.calls() != 0 {
				t.Error("invalid command reached the model")
			}
			if len(rec.obs) != 1 || rec.obs[0].kind != "command" || rec.obs[0].outcome != tt.wantKind.String() {
				t.Errorf("observations = %+v", rec.obs)
			}
		})
	}
}

// failingWrites rejects every write.
type failingWrites struct{ *docstore.Memory }

func (failingWrites) Set(context.Context, docstore.Path, map[string]any) error {
	return errors.New("disk full")
}

func TestApplyCommand_StoreFailure(t *testing.T) {
	f := newFixture(t, addSkills)
	f.svc.store = failingWrites{f.store}

	_, err := f.svc.ApplyCommand(context.Background(), CommandRequest{Command: "add skills"})
	if KindOf(err) != KindStore {
		t.Fatalf("kind = %v (%v), want store", KindOf(err), err)
	}
}

func TestApplyCommand_RequestIDReplays(t *testing.T) {
	f := newFixture(t, addSkills)
	f.svc.results = &mapResults{m: map[string][]byte{}}
	ctx := context.Background()

	first, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "add skills", RequestID: "req-1"})
	if err != nil {
		t.Fatal(err)
	}
	order := f.section(t, "skills-main").Order

	second, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "add skills", RequestID: "req-1"})
	if err != nil {
		t.Fatal(err)
	}

	if f.oracle.calls() != 1 {
		t.Errorf("model called %d times, want 1", f.oracle.calls())
	}
	if second.SectionID != first.SectionID || second.Action != first.Action {
		t.Errorf("replayed %+v, want %+v", second, first)
	}
	if got := f.section(t, "skills-main").Order; got != order {
		t.Errorf("replay rewrote the section: order %d -> %d", order, got)
	}
}

func TestApplyCommand_RequestIDScopedToCommand(t *testing.T) {
	addAbout := "```json\n" + `{"action":"add","sectionType":"about","sectionId":"about-main","data":{"text":"Hi"}}` + "\n```"
	f := newFixture(t, addSkills, addAbout)
	f.svc.results = &mapResults{m: map[string][]byte{}}
	ctx := context.Background()

	if _, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "add skills", RequestID: "req-1"}); err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.ApplyCommand(ctx, CommandRequest{Command: "add an about section", RequestID: "req-1"})
	if err != nil {
		t.Fatal(err)
	}

	if f.oracle.calls() != 2 {
		t.Errorf("model called %d times, want 2", f.oracle.calls())
	}
	if second.SectionID != "about-main" {
		t.Errorf("second result = %+v, want the about section", second)
	}
	if f.section(t, "about-main") == nil {
		t.Error("about section not written")
	}
}

func TestResultKey(t *testing.T) {
	a := resultKey("theme", "req-1", "warm sunset")
	if a != resultKey("theme", "req-1", "warm sunset") {
		t.Error("key is not deterministic")
	}
	if a == resultKey("theme", "req-1", "cold night") {
		t.Error("different inputs share a key")
	}
	if a == resultKey("command", "req-1", "warm sunset") {
		t.Error("different kinds share a key")
	}
}

const sunsetTheme = "```json\n" + `{"themeName":"Sunset","colors":{"primary":"#ff6600","background":"#1a1a1a"},"spacing":{"base":"1rem","scale":1.25},"typography":{"font-sans":"Inter"}}` + "\n```"

func TestGenerateTheme(t *testing.T) {
	f := newFixture(t, sunsetTheme)
	rec := &fakeRecorder{}
	f.svc.recorder = rec

	res, err := f.svc.GenerateTheme(context.Background(), ThemeRequest{Prompt: "warm sunset"})
	if err != nil {
		t.Fatalf("GenerateTheme: %v", err)
	}
	if !res.Success || res.Theme.ThemeName != "Sunset" {
		t.Errorf("result = %+v", res)
	}

	doc, _ := f.store.Get(context.Background(), f.paths.ActiveTheme)
	if doc == nil {
		t.Fatal("theme not written")
	}
	theme, err := models.DesignTokensFromFields(doc.Data)
	if err != nil {
		t.Fatal(err)
	}
	if theme.Colors["primary"] != "#ff6600" || theme.Spacing.Scale != 1.25 {
		t.Errorf("stored theme = %+v", theme)
	}
	if f.oracle.prompts[0][1] != "Description: warm sunset" {
		t.Errorf("prompt = %q", f.oracle.prompts[0])
	}
	if len(rec.obs) != 1 || rec.obs[0] != (recordedObservation{"theme", "success"}) {
		t.Errorf("observations = %+v", rec.obs)
	}
}

func TestGenerateTheme_ReplacesEntirely(t *testing.T) {
	f := newFixture(t, sunsetTheme)
	ctx := context.Background()
	f.svc.GenerateTheme(ctx, ThemeRequest{Prompt: "sunset"})

	f.oracle.replies = []string{`{"themeName":"Mono","colors":{"foreground":"#000"}}`}
	if _, err := f.svc.GenerateTheme(ctx, ThemeRequest{Prompt: "mono"}); err != nil {
		t.Fatal(err)
	}

	doc, _ := f.store.Get(ctx, f.paths.ActiveTheme)
	theme, _ := models.DesignTokensFromFields(doc.Data)
	if _, ok := theme.Colors["primary"]; ok {
		t.Errorf("previous theme's colors leaked into the new one: %v", theme.Colors)
	}
	if theme.Typography != nil {
		t.Errorf("previous typography leaked: %v", theme.Typography)
	}
}

func TestGenerateTheme_Failures(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		reply    string
		wantKind Kind
	}{
		{name: "empty prompt", prompt: "", wantKind: KindValidation},
		{name: "not json", prompt: "blue", reply: "A calm blue theme.", wantKind: KindMalformed},
		{name: "no colors", prompt: "blue", reply: `{"themeName":"Blue"}`, wantKind: KindSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.reply)
			_, err := f.svc.GenerateTheme(context.Background(), ThemeRequest{Prompt: tt.prompt})
			if got := KindOf(err); got != tt.wantKind {
				t.Fatalf("kind = %v (%v), want %v", got, err, tt.wantKind)
			}
			if doc, _ := f.store.Get(context.Background(), f.paths.ActiveTheme); doc != nil {
				t.Error("failed request wrote the theme")
			}
		})
	}
}

func TestDefaultPathsRejectsBadID(t *testing.T) {
	if _, err := DefaultPaths("a/b"); err == nil {
		t.Error("expected error for id containing a slash")
	}
	p, err := DefaultPaths("default")
	if err != nil {
		t.Fatal(err)
	}
	if p.Sections.String() != "portfolios/default/sections" || p.ActiveTheme.String() != "themes/active_theme" {
		t.Errorf("paths = %s, %s", p.Sections, p.ActiveTheme)
	}
}
