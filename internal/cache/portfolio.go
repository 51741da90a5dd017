// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	portfolioKeyPrefix = "portfolio:"

	// DefaultPortfolioTTL is how long a rendered portfolio snapshot stays cached.
	DefaultPortfolioTTL = 5 * time.Minute
)

// PortfolioCache caches the serialised public portfolio per portfolio id so
// anonymous reads skip the document store. Every content write invalidates it.
type PortfolioCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPortfolioCache creates a portfolio cache backed by the given client.
func NewPortfolioCache(client *redis.Client, ttl time.Duration) *PortfolioCache {
	if ttl == 0 {
		ttl = DefaultPortfolioTTL
	}
	return &PortfolioCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot for id. Errors count as a miss.
func (pc *PortfolioCache) Get(ctx context.Context, id string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, portfolioKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("portfolio cache get error", "portfolio", id, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores a snapshot for id with the configured TTL.
func (pc *PortfolioCache) Set(ctx context.Context, id string, body []byte) {
	if err := pc.client.Set(ctx, portfolioKeyPrefix+id, body, pc.ttl).Err(); err != nil {
		slog.Warn("portfolio cache set error", "portfolio", id, "error", err)
	}
}

// Invalidate drops the snapshot for id.
func (pc *PortfolioCache) Invalidate(ctx context.Context, id string) {
	if err := pc.client.Del(ctx, portfolioKeyPrefix+id).Err(); err != nil {
		slog.Warn("portfolio cache invalidate error", "portfolio", id, "error", err)
		return
	}
	slog.Debug("portfolio cache invalidated", "portfolio", id)
}
