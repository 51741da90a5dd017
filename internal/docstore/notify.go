// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"log/slog"
)

// Notify wraps s so that every successful write publishes a change on the
// written document's path and on its collection's path. A failed publish is
// logged and does not fail the write, which is already durable.
func Notify(s Store, feed Feed) Store {
	return &notifyingStore{Store: s, feed: feed}
}

type notifyingStore struct {
	Store
	feed Feed
}

func (n *notifyingStore) Set(ctx context.Context, p Path, data map[string]any) error {
	if err := n.Store.Set(ctx, p, data); err != nil {
		return err
	}
	n.publish(ctx, p)
	return nil
}

func (n *notifyingStore) Merge(ctx context.Context, p Path, data map[string]any) error {
	if err := n.Store.Merge(ctx, p, data); err != nil {
		return err
	}
	n.publish(ctx, p)
	return nil
}

func (n *notifyingStore) Delete(ctx context.Context, p Path) error {
	if err := n.Store.Delete(ctx, p); err != nil {
		return err
	}
	n.publish(ctx, p)
	return nil
}

func (n *notifyingStore) publish(ctx context.Context, p Path) {
	for _, target := range []Path{p, p.Parent()} {
		if target.IsZero() {
			continue
		}
		if err := n.feed.Publish(ctx, target); err != nil {
			slog.Warn("docstore: change publish failed", "path", target.String(), "error", err)
		}
	}
}
