// Package autosave persists wizard snapshots to Redis so an interrupted
// assessment can be resumed from any device that presents the same session.
//
// Snapshots are written on every answer mutation and every stage transition,
// keyed by session ID with a sliding TTL. Redis is the only store for
// in-progress answers — Postgres only ever sees the finalized submission — so
// an expired key simply means the visitor starts over.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/launchscore/readiness-backend/internal/assessment"
)

// keyPrefix namespaces wizard state in a Redis instance shared with other
// concerns (rate limiting, caching).
const keyPrefix = "wizard:state:"

// ErrNotFound is returned by Load when no snapshot exists for the session,
// either because none was ever written or because the TTL expired.
var ErrNotFound = errors.New("autosave: no snapshot for session")

// Snapshots is the Redis-backed implementation of assessment.Saver.
type Snapshots struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a snapshot store. ttl is the idle lifetime of a snapshot; it is
// refreshed on every save, so only abandoned sessions expire.
func New(rdb *redis.Client, ttl time.Duration) *Snapshots {
	return &Snapshots{rdb: rdb, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// SaveSnapshot serialises the snapshot and writes it under the session's key,
// resetting the TTL. Implements assessment.Saver.
func (s *Snapshots) SaveSnapshot(ctx context.Context, sessionID string, snap assessment.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("autosave: marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("autosave: save snapshot for %s: %w", sessionID, err)
	}
	return nil
}

// Load reads the snapshot for a session. Returns ErrNotFound when the key is
// missing or expired.
func (s *Snapshots) Load(ctx context.Context, sessionID string) (assessment.Snapshot, error) {
	raw, err := s.rdb.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return assessment.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return assessment.Snapshot{}, fmt.Errorf("autosave: load snapshot for %s: %w", sessionID, err)
	}

	var snap assessment.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return assessment.Snapshot{}, fmt.Errorf("autosave: decode snapshot for %s: %w", sessionID, err)
	}
	return snap, nil
}

// Delete removes the snapshot immediately instead of waiting for the TTL.
// Submit does not call this — a finalized snapshot stays readable until it
// expires so a post-submit reload can still show the result.
func (s *Snapshots) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("autosave: delete snapshot for %s: %w", sessionID, err)
	}
	return nil
}

var _ assessment.Saver = (*Snapshots)(nil)
