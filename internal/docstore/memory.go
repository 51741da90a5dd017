// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	path    Path
	raw     []byte
	seq     uint64
	created time.Time
	updated time.Time
}

// Memory is an in-process Store. Bodies are kept serialised so callers can
// never alias stored data.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*memoryEntry
	seq  uint64
	now  func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*memoryEntry), now: time.Now}
}

func (m *Memory) Get(ctx context.Context, p Path) (*Document, error) {
	if err := checkDocument(p); err != nil {
		return nil, err
	}
	m.mu.RLock()
	e, ok := m.docs[p.String()]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return e.document()
}

func (m *Memory) Set(ctx context.Context, p Path, data map[string]any) error {
	if err := checkDocument(p); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(p, raw)
	return nil
}

func (m *Memory) Merge(ctx context.Context, p Path, data map[string]any) error {
	if err := checkDocument(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	merged := map[string]any{}
	if e, ok := m.docs[p.String()]; ok {
		current, err := decode(e.raw)
		if err != nil {
			return err
		}
		merged = current
	}
	maps.Copy(merged, data)

	raw, err := encode(merged)
	if err != nil {
		return err
	}
	m.put(p, raw)
	return nil
}

func (m *Memory) Delete(ctx context.Context, p Path) error {
	if err := checkDocument(p); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.docs, p.String())
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context, collection Path, q Query) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	prefix := collection.String()

	m.mu.RLock()
	entries := make([]*memoryEntry, 0)
	for _, e := range m.docs {
		if e.path.Parent().String() == prefix {
			entries = append(entries, e)
		}
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		d, err := e.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return q.apply(docs), nil
}

// put must be called with m.mu held. Entries are replaced, never mutated,
// so readers may use an entry after releasing the lock.
func (m *Memory) put(p Path, raw []byte) {
	now := m.now()
	if e, ok := m.docs[p.String()]; ok {
		next := *e
		next.raw = raw
		next.updated = now
		m.docs[p.String()] = &next
		return
	}
	m.seq++
	m.docs[p.String()] = &memoryEntry{path: p, raw: raw, seq: m.seq, created: now, updated: now}
}

func (e *memoryEntry) document() (*Document, error) {
	data, err := decode(e.raw)
	if err != nil {
		return nil, err
	}
	return &Document{Path: e.path, Data: data, CreateTime: e.created, UpdateTime: e.updated}, nil
}
