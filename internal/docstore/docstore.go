// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package docstore is a hierarchical JSON document store with change
// notification. Documents live at paths such as
// "portfolios/default/sections/hero-main" and are grouped into collections
// ("portfolios/default/sections").
//
// A Store persists documents; a Feed carries change notifications. Notify
// joins the two so every successful write publishes a change, and Watcher
// turns those changes into snapshot callbacks.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotDocument is returned when a collection path is used where a document
// path is required, or the reverse.
var ErrNotDocument = errors.New("docstore: wrong path kind")

// Document is a stored document snapshot.
type Document struct {
	Path       Path
	Data       map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// ID returns the document id.
func (d *Document) ID() string { return d.Path.ID() }

// DataTo decodes the document body into v.
func (d *Document) DataTo(v any) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.Path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.Path, err)
	}
	return nil
}

// Store persists documents.
type Store interface {
	// Get returns the document at p, or (nil, nil) if it does not exist.
	Get(ctx context.Context, p Path) (*Document, error)
	// Set replaces the document at p with data, creating it if needed.
	Set(ctx context.Context, p Path, data map[string]any) error
	// Merge shallow-merges data into the document at p, creating it if needed.
	Merge(ctx context.Context, p Path, data map[string]any) error
	// Delete removes the document at p. Deleting a missing document is not
	// an error.
	Delete(ctx context.Context, p Path) error
	// List returns the documents directly inside collection, filtered and
	// ordered by q.
	List(ctx context.Context, collection Path, q Query) ([]Document, error)
}

func checkDocument(p Path) error {
	if !p.IsDocument() {
		return fmt.Errorf("%w: %q is not a document path", ErrNotDocument, p)
	}
	return nil
}

func checkCollection(p Path) error {
	if !p.IsCollection() {
		return fmt.Errorf("%w: %q is not a collection path", ErrNotDocument, p)
	}
	return nil
}

// encode serialises a document body. A nil body is stored as {}.
func encode(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}
