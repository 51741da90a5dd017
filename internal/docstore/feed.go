// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Change announces that something at Path was written. Subscribers re-read
// the store to learn the new state.
type Change struct {
	Path Path
	At   time.Time
}

// Feed carries change notifications for paths.
type Feed interface {
	Publish(ctx context.Context, p Path) error
	// Subscribe delivers changes published for exactly p until cancel is
	// called or ctx ends; the channel is then closed. cancel is idempotent.
	Subscribe(ctx context.Context, p Path) (changes <-chan Change, cancel func(), err error)
}

// changeBuffer bounds how many notifications a slow subscriber may lag
// behind. Dropped notifications are harmless: any pending one already
// triggers a re-read of the latest state.
const changeBuffer = 16

// MemoryFeed is an in-process Feed.
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[string]map[int]chan Change
	next int
}

// NewMemoryFeed returns an in-process feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[int]chan Change)}
}

func (f *MemoryFeed) Publish(ctx context.Context, p Path) error {
	c := Change{Path: p, At: time.Now()}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[p.String()] {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context, p Path) (<-chan Change, func(), error) {
	key := p.String()
	ch := make(chan Change, changeBuffer)

	f.mu.Lock()
	id := f.next
	f.next++
	if f.subs[key] == nil {
		f.subs[key] = make(map[int]chan Change)
	}
	f.subs[key][id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[key], id)
			if len(f.subs[key]) == 0 {
				delete(f.subs, key)
			}
			f.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// subscribers returns the number of live subscriptions for p.
func (f *MemoryFeed) subscribers(p Path) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[p.String()])
}

// channelPrefix namespaces change channels in Valkey.
const channelPrefix = "docstore:"

// ValkeyFeed carries changes over Valkey pub/sub so every server process
// sees writes made by any other.
type ValkeyFeed struct {
	client *redis.Client
}

// NewValkeyFeed creates a feed on the given Valkey client.
func NewValkeyFeed(client *redis.Client) *ValkeyFeed {
	return &ValkeyFeed{client: client}
}

type changeMessage struct {
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

func (f *ValkeyFeed) Publish(ctx context.Context, p Path) error {
	payload, err := json.Marshal(changeMessage{Path: p.String(), At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := f.client.Publish(ctx, channelPrefix+p.String(), payload).Err(); err != nil {
		return fmt.Errorf("publish change %s: %w", p, err)
	}
	return nil
}

func (f *ValkeyFeed) Subscribe(ctx context.Context, p Path) (<-chan Change, func(), error) {
	pubsub := f.client.Subscribe(ctx, channelPrefix+p.String())
	// Wait for the subscription to be confirmed so no change published
	// after Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", p, err)
	}

	out := make(chan Change, changeBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				cancel()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var cm changeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &cm); err != nil {
					slog.Warn("docstore: bad change message", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- Change{Path: p, At: cm.At}:
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}
