// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"folio/internal/docstore"
	"folio/internal/models"
)

const (
	seedAdminEmail    = "admin@folio.local"
	seedAdminPassword = "admin"
)

// DefaultProfile is written when a portfolio has no profile document yet.
var DefaultProfile = models.Profile{
	Name:  "Your Name",
	Title: "Developer",
	Bio:   "Tell visitors about yourself.",
}

// Seed creates the default admin user when the users table is empty and
// the default profile document when the portfolio has none. The admin
// must enrol in 2FA on first login.
func Seed(ctx context.Context, db *sql.DB, docs docstore.Store, portfolioID string) error {
	if err := seedAdmin(ctx, db); err != nil {
		return err
	}
	return seedProfile(ctx, docs, portfolioID)
}

func seedAdmin(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, seedAdminEmail, string(hash), "Admin", models.RoleAdmin, false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", seedAdminEmail,
		"password", seedAdminPassword,
	)
	return nil
}

func seedProfile(ctx context.Context, docs docstore.Store, portfolioID string) error {
	p, err := docstore.New("portfolios", portfolioID, "profile", "main")
	if err != nil {
		return fmt.Errorf("seed profile path: %w", err)
	}

	existing, err := docs.Get(ctx, p)
	if err != nil {
		return fmt.Errorf("seed check profile: %w", err)
	}
	if existing != nil {
		return nil
	}

	fields, err := DefaultProfile.Fields()
	if err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}
	if err := docs.Set(ctx, p, fields); err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}

	slog.Info("seeded default profile", "path", p.String())
	return nil
}
