// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Postgres stores documents in the documents table as JSONB.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const (
	getDocumentSQL = `SELECT data, created_at, updated_at FROM documents WHERE path = $1`

	setDocumentSQL = `
		INSERT INTO documents (path, collection, doc_id, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	mergeDocumentSQL = `
		INSERT INTO documents (path, collection, doc_id, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (path) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`

	deleteDocumentSQL = `DELETE FROM documents WHERE path = $1`

	listDocumentsSQL = `
		SELECT doc_id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND data @> $2::jsonb
		ORDER BY created_at, path`
)

func (s *Postgres) Get(ctx context.Context, p Path) (*Document, error) {
	if err := checkDocument(p); err != nil {
		return nil, err
	}

	var (
		raw []byte
		doc = &Document{Path: p}
	)
	err := s.db.QueryRowContext(ctx, getDocumentSQL, p.String()).Scan(&raw, &doc.CreateTime, &doc.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", p, err)
	}
	if doc.Data, err = decode(raw); err != nil {
		return nil, fmt.Errorf("get document %s: %w", p, err)
	}
	return doc, nil
}

func (s *Postgres) Set(ctx context.Context, p Path, data map[string]any) error {
	return s.write(ctx, setDocumentSQL, "set", p, data)
}

func (s *Postgres) Merge(ctx context.Context, p Path, data map[string]any) error {
	return s.write(ctx, mergeDocumentSQL, "merge", p, data)
}

func (s *Postgres) write(ctx context.Context, query, verb string, p Path, data map[string]any) error {
	if err := checkDocument(p); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, p.String(), p.Parent().String(), p.ID(), string(raw)); err != nil {
		return fmt.Errorf("%s document %s: %w", verb, p, err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, p Path) error {
	if err := checkDocument(p); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, deleteDocumentSQL, p.String()); err != nil {
		return fmt.Errorf("delete document %s: %w", p, err)
	}
	return nil
}

// List pushes equality filters down as a JSONB containment check and
// orders in Go so numeric and string fields compare the same way as in
// the memory store.
func (s *Postgres) List(ctx context.Context, collection Path, q Query) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	contains := map[string]any{}
	for _, f := range q.Where {
		contains[f.Field] = f.Value
	}
	filter, err := json.Marshal(contains)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, listDocumentsSQL, collection.String(), string(filter))
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
			doc Document
		)
		if err := rows.Scan(&id, &raw, &doc.CreateTime, &doc.UpdateTime); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if doc.Data, err = decode(raw); err != nil {
			return nil, err
		}
		if doc.Path, err = collection.Child(id); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	return q.apply(docs), nil
}
