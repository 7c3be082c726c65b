package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wagerpool-backend/internal/config"
)

// Store is the durable key-value layer shared by the three components.
// Records are JSON documents with per-key TTLs; invariant-bearing
// multi-key mutations run as Lua scripts so each call is one atomic
// step against the store.
type Store struct {
	client *redis.Client
}

func New(cfg *config.Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// GetJSON loads a document into dest. The second return is false when
// the key does not exist.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %v", key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %v", key, err)
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", key, err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// SetJSONNX writes only if the key is absent; returns false if it
// already existed.
func (s *Store) SetJSONNX(ctx context.Context, key string, v interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to marshal %s: %v", key, err)
	}
	return s.client.SetNX(ctx, key, data, ttl).Result()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// ExtendLifetime bumps a record's TTL. Long-lived records must be
// re-bumped periodically; the API process does this for live games.
func (s *Store) ExtendLifetime(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

// RunScript executes a Lua script, the unit of atomicity for mutations
// that touch more than one key.
func (s *Store) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	return script.Run(ctx, s.client, keys, args...).Result()
}

func (s *Store) SetAdd(ctx context.Context, key string, members ...interface{}) error {
	return s.client.SAdd(ctx, key, members...).Err()
}

func (s *Store) SetRemove(ctx context.Context, key string, members ...interface{}) error {
	return s.client.SRem(ctx, key, members...).Err()
}

func (s *Store) SetContains(ctx context.Context, key, member string) (bool, error) {
	return s.client.SIsMember(ctx, key, member).Result()
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

// AppendToIndex records a member in a time-ordered index, keeping the
// most recent 100 entries.
func (s *Store) AppendToIndex(ctx context.Context, key, member string) error {
	if err := s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index %s: %v", member, err)
	}
	s.client.ZRemRangeByRank(ctx, key, 0, -101)
	return nil
}

func (s *Store) IndexMembers(ctx context.Context, key string, limit int64) ([]string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.client.ZRevRange(ctx, key, 0, limit-1).Result()
}

func (s *Store) CheckRateLimit(ctx context.Context, principal, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, principal, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}
