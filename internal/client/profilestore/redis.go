package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "profile:"

// Redis stores each profile as a hash. Field values are JSON encoded, so a
// partial update is a plain HSET of the changed fields.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis connects to redisURL and checks the connection.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client), nil
}

// NewRedisWithClient creates a store from an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, now: utcNow}
}

func (r *Redis) key(id string) string {
	return redisKeyPrefix + id
}

func (r *Redis) Get(ctx context.Context, id string) (*models.Profile, error) {
	h, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(h) == 0 {
		return nil, nil
	}

	p := &models.Profile{ID: id, Fields: models.Fields{}}
	for k, raw := range h {
		switch k {
		case models.FieldCreatedAt:
			p.CreatedAt, err = time.Parse(time.RFC3339Nano, raw)
		case models.FieldUpdatedAt:
			p.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw)
		default:
			var v any
			err = json.Unmarshal([]byte(raw), &v)
			p.Fields[k] = v
		}
		if err != nil {
			return nil, fmt.Errorf("decode profile field %s: %w", k, err)
		}
	}
	return p, nil
}

func encodeHash(fields models.Fields) (map[string]any, error) {
	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode profile field %s: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}

// Create writes the hash for id. Fields already in an existing hash are
// kept unless overwritten, and createdAt is only set when missing.
func (r *Redis) Create(ctx context.Context, id string, fields models.Fields) error {
	f, err := prepareCreate(id, fields)
	if err != nil {
		return err
	}
	h, err := encodeHash(f)
	if err != nil {
		return err
	}
	now := r.now().Format(time.RFC3339Nano)
	h[models.FieldUpdatedAt] = now

	key := r.key(id)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, models.FieldCreatedAt, now)
		pipe.HSet(ctx, key, h)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create: %w", err)
	}
	return nil
}

func (r *Redis) Update(ctx context.Context, id string, fields models.Fields) error {
	f, err := prepareUpdate(id, fields)
	if err != nil {
		return err
	}
	h, err := encodeHash(f)
	if err != nil {
		return err
	}
	h[models.FieldUpdatedAt] = r.now().Format(time.RFC3339Nano)

	key := r.key(id)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, h)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis update: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
