// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/session"
)

// totpIssuer labels the account in authenticator apps.
const totpIssuer = "Folio"

// Users is the operator lookup the auth endpoints need.
// *store.UserStore satisfies it.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// Auth groups the console's authentication endpoints.
type Auth struct {
	sessions *session.Store
	users    Users
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, users Users) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type nextStep struct {
	Next string `json:"next"`
}

// Login checks credentials and starts a session that still needs 2FA.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	slog.Info("login password accepted", "user", user.Email)
	if user.Needs2FASetup() {
		writeJSON(w, http.StatusOK, nextStep{Next: "2fa_setup"})
		return
	}
	writeJSON(w, http.StatusOK, nextStep{Next: "2fa_verify"})
}

type setupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qrCode"`
}

// TwoFASetup issues a new TOTP secret and its QR code as a base64 PNG.
// It refuses once 2FA is enabled so a password alone cannot replace the
// second factor.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "error", err, "user_id", sess.UserID)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user.TOTPEnabled {
		writeError(w, http.StatusConflict, "Two-factor authentication is already set up.")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, setupResponse{
		Secret: key.Secret(),
		QRCode: base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates a TOTP code and completes authentication. The
// first successful code after setup enables 2FA for the user.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err, "user_id", sess.UserID)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user.TOTPSecret == nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"error":   "Two-factor authentication is not set up.",
			"next":    "2fa_setup",
		})
		return
	}

	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		slog.Warn("invalid 2fa code", "user", user.Email)
		writeError(w, http.StatusUnauthorized, "Invalid code. Please try again.")
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	slog.Info("login completed", "user", user.Email)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	TwoFADone     bool   `json:"twoFADone"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	Role          string `json:"role,omitempty"`
	CSRFToken     string `json:"csrfToken"`
}

// Session reports the caller's login state and the CSRF token to echo on
// state-changing requests.
func (a *Auth) Session(w http.ResponseWriter, r *http.Request) {
	status := sessionStatus{CSRFToken: middleware.GetCSRFToken(r)}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		status.Authenticated = true
		status.TwoFADone = sess.TwoFADone
		status.Email = sess.Email
		status.DisplayName = sess.DisplayName
		status.Role = sess.Role
	}
	writeJSON(w, http.StatusOK, status)
}
