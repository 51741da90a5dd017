// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idem:"

	// DefaultIdempotencyTTL is how long a completed request's result is
	// replayed for a repeated request token.
	DefaultIdempotencyTTL = 24 * time.Hour
)

// Idempotency stores the result of a completed request under the caller's
// request token so a retried request returns the original result instead
// of mutating again.
type Idempotency struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotency creates an idempotency store backed by the given client.
func NewIdempotency(client *redis.Client, ttl time.Duration) *Idempotency {
	if ttl == 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &Idempotency{client: client, ttl: ttl}
}

// Load decodes the stored result for key into v. It reports false when
// nothing is stored.
func (c *Idempotency) Load(ctx context.Context, key string, v any) (bool, error) {
	raw, err := c.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load idempotency record: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return true, nil
}

// Save stores v under key unless a record already exists.
func (c *Idempotency) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := c.client.SetNX(ctx, idempotencyKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency record: %w", err)
	}
	return nil
}
