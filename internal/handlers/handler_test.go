// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: an in-memory document store, a miniredis-backed session store and
// small fakes for the generator, the provider registry and object storage.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"folio/internal/docstore"
	"folio/internal/markdown"
	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/portfolio"
	"folio/internal/session"
)

const testPortfolioID = "default"

// fakeCache records invalidations and serves stored bodies.
type fakeCache struct {
	mu          sync.Mutex
	bodies      map[string][]byte
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{bodies: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bodies[id]
	return b, ok
}

func (c *fakeCache) Set(_ context.Context, id string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies[id] = body
}

func (c *fakeCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bodies, id)
	c.invalidated++
}

func (c *fakeCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

// testRepo returns a portfolio repository over an in-memory store, and
// the store for seeding documents directly.
func testRepo(t *testing.T) (*portfolio.Repository, docstore.Store) {
	t.Helper()
	paths, err := portfolio.PathsFor(testPortfolioID)
	if err != nil {
		t.Fatalf("PathsFor: %v", err)
	}
	store := docstore.NewMemory()
	return portfolio.NewRepository(store, paths, markdown.ToHTML), store
}

// seedSection writes a section document for tests.
func seedSection(t *testing.T, store docstore.Store, repo *portfolio.Repository, s models.Section) {
	t.Helper()
	p, err := repo.Paths().Sections.Child(s.ID)
	if err != nil {
		t.Fatalf("section path: %v", err)
	}
	if err := store.Set(context.Background(), p, s.Fields()); err != nil {
		t.Fatalf("seed section: %v", err)
	}
}

// testSessions returns a session store backed by miniredis.
func testSessions(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewStore(client, false), mr
}

// withSession attaches sess to the request context the way LoadSession does.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

func adminSession() *session.Data {
	return &session.Data{
		UserID:    uuid.New(),
		Email:     "admin@folio.local",
		Role:      "admin",
		TwoFADone: true,
	}
}

// withURLParam sets a chi route parameter on r.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int) errorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Success || resp.Error == "" {
		t.Errorf("error envelope = %+v", resp)
	}
	return resp
}
