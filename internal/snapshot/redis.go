package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"argus/pkg/errors"
)

const redisKeyPrefix = "argus:snapshot:"

// RedisStore keeps snapshots in Redis with a TTL, for deployments where runs
// are inspected from other hosts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects using a redis URL (redis://...).
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	if url == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "snapshot redis url is empty")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse snapshot redis url")
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Save persists the record under its run ID.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	if err := s.client.Set(ctx, redisKeyPrefix+rec.RunID, data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "store snapshot")
	}
	return nil
}

// Load reads a record by run ID.
func (s *RedisStore) Load(ctx context.Context, runID string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Wrapf(errors.ErrNotFound, "snapshot %s", runID)
		}
		return nil, errors.Wrap(err, "load snapshot")
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return &rec, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
