// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrFeedClosed is reported to watchers when their change feed ends
// unexpectedly. The watcher resubscribes after a backoff.
var ErrFeedClosed = errors.New("docstore: change feed closed")

const (
	resubscribeDelay    = 500 * time.Millisecond
	maxResubscribeDelay = 30 * time.Second
)

// DocumentSnapshot is the state of one document at a point in time. Doc is
// nil when the document does not exist. Err is set when the state could
// not be read; Doc is then nil.
type DocumentSnapshot struct {
	Path Path
	Doc  *Document
	Err  error
}

// Exists reports whether the document exists.
func (s DocumentSnapshot) Exists() bool { return s.Doc != nil }

// CollectionSnapshot is the filtered, ordered contents of a collection.
type CollectionSnapshot struct {
	Path Path
	Docs []Document
	Err  error
}

// Watcher delivers snapshots of documents and collections as they change.
type Watcher struct {
	store Store
	feed  Feed
}

// NewWatcher creates a watcher reading from store and listening on feed.
// Writes must go through Notify(store, feed) to be observed.
func NewWatcher(store Store, feed Feed) *Watcher {
	return &Watcher{store: store, feed: feed}
}

// Document calls fn with the current state of p, then again after every
// change, until stop is called or ctx ends. Calls to fn are serial. stop
// waits for any in-flight fn call and is idempotent; it must not be called
// from inside fn.
func (w *Watcher) Document(ctx context.Context, p Path, fn func(DocumentSnapshot)) (stop func()) {
	return w.run(ctx, p, func(ctx context.Context) {
		doc, err := w.store.Get(ctx, p)
		if ctx.Err() != nil {
			return
		}
		fn(DocumentSnapshot{Path: p, Doc: doc, Err: err})
	}, func(err error) {
		fn(DocumentSnapshot{Path: p, Err: err})
	})
}

// Collection is like Document for the documents of collection matching q.
func (w *Watcher) Collection(ctx context.Context, collection Path, q Query, fn func(CollectionSnapshot)) (stop func()) {
	return w.run(ctx, collection, func(ctx context.Context) {
		docs, err := w.store.List(ctx, collection, q)
		if ctx.Err() != nil {
			return
		}
		fn(CollectionSnapshot{Path: collection, Docs: docs, Err: err})
	}, func(err error) {
		fn(CollectionSnapshot{Path: collection, Err: err})
	})
}

func (w *Watcher) run(parent context.Context, p Path, emit func(context.Context), fail func(error)) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		delay := resubscribeDelay
		for {
			changes, unsubscribe, err := w.feed.Subscribe(ctx, p)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("docstore: subscribe failed", "path", p.String(), "error", err)
				fail(err)
			} else {
				delay = resubscribeDelay
				// Subscribed before the first read, so no write between
				// the two can be missed.
				emit(ctx)
				for range changes {
					if ctx.Err() != nil {
						break
					}
					emit(ctx)
				}
				unsubscribe()
				if ctx.Err() != nil {
					return
				}
				fail(ErrFeedClosed)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, maxResubscribeDelay)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
