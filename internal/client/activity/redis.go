package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/redis/go-redis/v9"
)

// viewMarkTTL keeps a daily view marker past the end of its day.
const viewMarkTTL = 48 * time.Hour

// Redis stores each record as a JSON string and indexes it in sorted sets
// scored by creation time in milliseconds.
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

func notificationKey(id string) string       { return common.NotificationsCollection + ":" + id }
func userNotificationsKey(uid string) string { return common.NotificationsCollection + ":user:" + uid }
func viewKey(id string) string               { return common.ProfileViewsCollection + ":" + id }
func userViewsKey(uid string) string         { return common.ProfileViewsCollection + ":user:" + uid }
func postKey(id string) string               { return common.PostsCollection + ":" + id }
func userPostsKey(uid string) string         { return common.PostsCollection + ":user:" + uid }
func publicPostsKey() string                 { return common.PostsCollection + ":public" }

func viewMarkKey(viewed, viewer string, day time.Time) string {
	return fmt.Sprintf("%s:mark:%s:%s:%s", common.ProfileViewsCollection, viewed, viewer, day.Format(time.DateOnly))
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func (r *Redis) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	n, err := prepareNotification(n, r.now())
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encode notification: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, notificationKey(n.ID), raw, 0)
		pipe.ZAdd(ctx, userNotificationsKey(n.UserID), redis.Z{Score: score(n.CreatedAt), Member: n.ID})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis create notification: %w", err)
	}
	return n.ID, nil
}

func (r *Redis) Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	err := r.newest(ctx, userNotificationsKey(userID), limitOr(limit, DefaultNotificationLimit), notificationKey, func(raw []byte) error {
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		out = append(out, n)
		return nil
	})
	return out, err
}

func (r *Redis) MarkNotificationRead(ctx context.Context, id string) error {
	key := notificationKey(id)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		n.Read = true
		if raw, err = json.Marshal(n); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis mark read: %w", err)
	}
	return nil
}

func (r *Redis) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	var unread []models.Notification
	err := r.newest(ctx, userNotificationsKey(userID), 0, notificationKey, func(raw []byte) error {
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		if !n.Read {
			n.Read = true
			unread = append(unread, n)
		}
		return nil
	})
	if err != nil || len(unread) == 0 {
		return err
	}

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, n := range unread {
			raw, err := json.Marshal(n)
			if err != nil {
				return err
			}
			pipe.Set(ctx, notificationKey(n.ID), raw, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis mark all read: %w", err)
	}
	return nil
}

// TrackProfileView claims a per-day marker with SET NX, so concurrent views
// of one pair record a single entry.
func (r *Redis) TrackProfileView(ctx context.Context, viewedUserID, viewerUserID string, viewer models.Fields) (bool, error) {
	v, ok, err := prepareView(viewedUserID, viewerUserID, viewer, r.now())
	if err != nil || !ok {
		return false, err
	}

	claimed, err := r.client.SetNX(ctx, viewMarkKey(viewedUserID, viewerUserID, dayStart(v.CreatedAt)), v.ID, viewMarkTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis track view: %w", err)
	}
	if !claimed {
		return false, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode profile view: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, viewKey(v.ID), raw, 0)
		pipe.ZAdd(ctx, userViewsKey(viewedUserID), redis.Z{Score: score(v.CreatedAt), Member: v.ID})
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis track view: %w", err)
	}
	return true, nil
}

func (r *Redis) ProfileViews(ctx context.Context, userID string, limit int) ([]models.ProfileView, error) {
	var out []models.ProfileView
	err := r.newest(ctx, userViewsKey(userID), limitOr(limit, DefaultProfileViewLimit), viewKey, func(raw []byte) error {
		var v models.ProfileView
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func (r *Redis) CreatePost(ctx context.Context, p models.Post) (string, error) {
	p, err := preparePost(p, r.now())
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	z := redis.Z{Score: score(p.CreatedAt), Member: p.ID}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, postKey(p.ID), raw, 0)
		pipe.ZAdd(ctx, userPostsKey(p.UserID), z)
		if p.Visibility == models.VisibilityPublic {
			pipe.ZAdd(ctx, publicPostsKey(), z)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis create post: %w", err)
	}
	return p.ID, nil
}

func (r *Redis) UserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return r.posts(ctx, userPostsKey(userID), 0)
}

func (r *Redis) PublicPosts(ctx context.Context, limit int) ([]models.Post, error) {
	return r.posts(ctx, publicPostsKey(), limitOr(limit, DefaultPublicPostLimit))
}

func (r *Redis) posts(ctx context.Context, index string, limit int) ([]models.Post, error) {
	var out []models.Post
	err := r.newest(ctx, index, limit, postKey, func(raw []byte) error {
		var p models.Post
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// newest loads up to limit records indexed in the sorted set index, highest
// score first, and passes each to decode. A zero limit loads all of them.
// Index entries whose record is gone are skipped.
func (r *Redis) newest(ctx context.Context, index string, limit int, key func(string) string, decode func([]byte) error) error {
	stop := int64(limit) - 1
	ids, err := r.client.ZRevRange(ctx, index, 0, stop).Result()
	if err != nil {
		return fmt.Errorf("redis zrevrange: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if err := decode([]byte(s)); err != nil {
			return fmt.Errorf("decode %s: %w", keys[i], err)
		}
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
