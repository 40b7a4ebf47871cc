package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mcstatus/internal/models"

	"github.com/redis/go-redis/v9"
)

// Redis keys
const (
	redisPlayersKey = "mcstatus:players"
	redisMessageKey = "mcstatus:status_message_id"
)

// RedisPresenceStore keeps presence records in a sorted set scored by lastSeen (unix ms)
type RedisPresenceStore struct {
	client *redis.Client
	key    string
}

// NewRedisPresenceStore creates a presence store over the players sorted set
func NewRedisPresenceStore(redisService *RedisService) *RedisPresenceStore {
	return &RedisPresenceStore{client: redisService.Client(), key: redisPlayersKey}
}

// UpsertSeen runs one ZADD GT so scores only move forward
func (s *RedisPresenceStore) UpsertSeen(ctx context.Context, names []string, now time.Time) error {
	names = dedupeNames(names)
	if len(names) == 0 {
		return nil
	}

	score := float64(now.UnixMilli())
	members := make([]redis.Z, 0, len(names))
	for _, name := range names {
		members = append(members, redis.Z{Score: score, Member: name})
	}

	if err := s.client.ZAddArgs(ctx, s.key, redis.ZAddArgs{GT: true, Members: members}).Err(); err != nil {
		return fmt.Errorf("failed to upsert players: %w", err)
	}
	return nil
}

// QueryRecentlySeen reads scores in [now-window, +inf] newest first
func (s *RedisPresenceStore) QueryRecentlySeen(ctx context.Context, excluding []string, window time.Duration, now time.Time) ([]models.PresenceRecord, error) {
	cutoff := now.Add(-window).UnixMilli()

	// With Rev the client sends Stop before Start, as ZRANGE ... BYSCORE REV expects
	results, err := s.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
		Key:     s.key,
		Start:   strconv.FormatInt(cutoff, 10),
		Stop:    "+inf",
		ByScore: true,
		Rev:     true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}

	skip := nameSet(excluding)
	records := make([]models.PresenceRecord, 0, len(results))
	for _, z := range results {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		if _, excluded := skip[name]; excluded {
			continue
		}
		records = append(records, models.PresenceRecord{
			Name:       name,
			LastSeenAt: time.UnixMilli(int64(z.Score)).UTC(),
		})
	}

	// Redis breaks score ties in reverse lexical order under REV
	sortRecentlySeen(records)
	return records, nil
}

// RedisArtifactRefStore keeps the status message id under a single key
type RedisArtifactRefStore struct {
	client *redis.Client
	key    string
}

// NewRedisArtifactRefStore creates an artifact ref store
func NewRedisArtifactRefStore(redisService *RedisService) *RedisArtifactRefStore {
	return &RedisArtifactRefStore{client: redisService.Client(), key: redisMessageKey}
}

// LastKnownID returns the stored message id, or "" when none exists
func (s *RedisArtifactRefStore) LastKnownID(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load status message id: %w", err)
	}
	return id, nil
}

// SaveID stores the message id without expiry
func (s *RedisArtifactRefStore) SaveID(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, s.key, id, 0).Err(); err != nil {
		return fmt.Errorf("failed to save status message id: %w", err)
	}
	return nil
}
