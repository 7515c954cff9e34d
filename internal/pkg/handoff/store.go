// Package handoff carries the sent-message counter across a page
// reload through a short-lived keyed record: stashed before the
// reload, consumed exactly once after it.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const recordKey = "matchrelay:reload_handoff"

const defaultTTL = 2 * time.Minute

// Record is the one-shot hand-off payload.
type Record struct {
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
	SentCount int64     `json:"sent_count"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(addr, password string, db int, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{client: client, ttl: ttl}, nil
}

// Stash stores the record. TTL-bounded so an aborted reload never
// leaks a stale counter into a later session.
func (s *Store) Stash(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal handoff record: %w", err)
	}
	if err := s.client.Set(ctx, recordKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to stash handoff record: %w", err)
	}
	return nil
}

// Consume returns the stashed record and clears it in the same call.
// (nil, nil) when no record is present.
func (s *Store) Consume(ctx context.Context) (*Record, error) {
	data, err := s.client.GetDel(ctx, recordKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume handoff record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal handoff record: %w", err)
	}
	return &rec, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
