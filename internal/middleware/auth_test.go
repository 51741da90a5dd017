package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"folio/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestSession(role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@folio.local",
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// ctxWithSession simulates the state after LoadSession has run.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Success {
		t.Error("expected success=false")
	}
	return body.Error
}

func TestSessionFromCtx(t *testing.T) {
	t.Run("returns session when present", func(t *testing.T) {
		sess := newTestSession("admin", true)
		got := SessionFromCtx(ctxWithSession(context.Background(), sess))
		if got == nil || got.Email != sess.Email || got.Role != sess.Role {
			t.Fatalf("got %+v, want %+v", got, sess)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		if got := SessionFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil session, got %+v", got)
		}
	})

	t.Run("returns nil for wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), SessionKey, "not-a-session")
		if got := SessionFromCtx(ctx); got != nil {
			t.Errorf("expected nil for wrong type, got %+v", got)
		}
	})
}

func TestLoadSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := session.NewStore(client, false)

	created := httptest.NewRecorder()
	want := newTestSession("editor", true)
	if _, err := store.Create(context.Background(), created, want); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cookie := created.Result().Cookies()[0]

	var got *session.Data
	handler := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromCtx(r.Context())
	}))

	t.Run("no cookie leaves context empty", func(t *testing.T) {
		got = nil
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/api/profile", nil))
		if got != nil {
			t.Errorf("expected nil session, got %+v", got)
		}
	})

	t.Run("valid cookie loads session", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest(http.MethodGet, "/admin/api/profile", nil)
		req.AddCookie(cookie)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got == nil {
			t.Fatal("expected session in context")
		}
		if got.UserID != want.UserID {
			t.Errorf("UserID: got %s, want %s", got.UserID, want.UserID)
		}
	})

	t.Run("store failure proceeds unauthenticated", func(t *testing.T) {
		got = nil
		mr.SetError("LOADING")
		defer mr.SetError("")

		req := httptest.NewRequest(http.MethodGet, "/admin/api/profile", nil)
		req.AddCookie(cookie)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got != nil {
			t.Errorf("expected nil session on store error, got %+v", got)
		}
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("rejects with 401 when no session", func(t *testing.T) {
		inner, called := okHandler()
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/api/profile", nil))

		if *called {
			t.Error("next handler should not have been called")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if msg := decodeError(t, rr); msg == "" {
			t.Error("expected error message")
		}
	})

	t.Run("passes through when session exists", func(t *testing.T) {
		inner, called := okHandler()
		req := httptest.NewRequest(http.MethodGet, "/admin/api/profile", nil)
		req = req.WithContext(ctxWithSession(req.Context(), newTestSession("editor", true)))
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if !*called || rr.Code != http.StatusOK {
			t.Errorf("called=%v status=%d", *called, rr.Code)
		}
	})
}

func TestRequire2FA(t *testing.T) {
	tests := []struct {
		name           string
		session        *session.Data
		wantCode       int
		wantNextCalled bool
	}{
		{"rejects when TwoFADone is false", newTestSession("admin", false), http.StatusForbidden, false},
		{"passes through when TwoFADone is true", newTestSession("admin", true), http.StatusOK, true},
		{"passes through when session is nil", nil, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/admin/api/profile", nil)
			if tt.session != nil {
				req = req.WithContext(ctxWithSession(req.Context(), tt.session))
			}
			rr := httptest.NewRecorder()
			Require2FA(inner).ServeHTTP(rr, req)

			if *called != tt.wantNextCalled {
				t.Errorf("next handler called: got %v, want %v", *called, tt.wantNextCalled)
			}
			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		name     string
		gate     func(http.Handler) http.Handler
		session  *session.Data
		wantCode int
	}{
		{"admin gate without session", RequireAdmin, nil, http.StatusForbidden},
		{"admin gate rejects editor", RequireAdmin, newTestSession("editor", true), http.StatusForbidden},
		{"admin gate rejects empty role", RequireAdmin, newTestSession("", true), http.StatusForbidden},
		{"admin gate allows admin", RequireAdmin, newTestSession("admin", true), http.StatusOK},
		{"editor gate allows editor", RequireEditor, newTestSession("editor", true), http.StatusOK},
		{"editor gate allows admin", RequireEditor, newTestSession("admin", true), http.StatusOK},
		{"editor gate rejects unknown role", RequireEditor, newTestSession("viewer", true), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/admin/api/ai/providers", nil)
			if tt.session != nil {
				req = req.WithContext(ctxWithSession(req.Context(), tt.session))
			}
			rr := httptest.NewRecorder()
			tt.gate(inner).ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			if *called != (tt.wantCode == http.StatusOK) {
				t.Errorf("next handler called: %v", *called)
			}
		})
	}
}
