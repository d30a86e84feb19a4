package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

// Memory keeps activity records in process memory.
type Memory struct {
	mu            sync.RWMutex
	notifications map[string]models.Notification
	views         []models.ProfileView
	posts         []models.Post
	now           func() time.Time
}

func NewMemory() *Memory {
	return &Memory{notifications: make(map[string]models.Notification), now: utcNow}
}

func (m *Memory) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := prepareNotification(n, m.now())
	if err != nil {
		return "", err
	}
	m.notifications[n.ID] = n
	return n.ID, nil
}

func (m *Memory) Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return head(out, limitOr(limit, DefaultNotificationLimit)), nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	m.notifications[id] = n
	return nil
}

func (m *Memory) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			m.notifications[id] = n
		}
	}
	return nil
}

func (m *Memory) TrackProfileView(ctx context.Context, viewedUserID, viewerUserID string, viewer models.Fields) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok, err := prepareView(viewedUserID, viewerUserID, viewer, m.now())
	if err != nil || !ok {
		return false, err
	}
	since := dayStart(v.CreatedAt)
	for _, old := range m.views {
		if old.ViewedUserID == viewedUserID && old.ViewerUserID == viewerUserID && !old.CreatedAt.Before(since) {
			return false, nil
		}
	}
	m.views = append(m.views, v)
	return true, nil
}

func (m *Memory) ProfileViews(ctx context.Context, userID string, limit int) ([]models.ProfileView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.ProfileView
	for i := len(m.views) - 1; i >= 0; i-- {
		if v := m.views[i]; v.ViewedUserID == userID {
			v.ViewerProfile = v.ViewerProfile.Clone()
			out = append(out, v)
		}
	}
	return head(out, limitOr(limit, DefaultProfileViewLimit)), nil
}

func (m *Memory) CreatePost(ctx context.Context, p models.Post) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := preparePost(p, m.now())
	if err != nil {
		return "", err
	}
	m.posts = append(m.posts, p)
	return p.ID, nil
}

func (m *Memory) UserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return m.listPosts(ctx, 0, func(p models.Post) bool { return p.UserID == userID })
}

func (m *Memory) PublicPosts(ctx context.Context, limit int) ([]models.Post, error) {
	return m.listPosts(ctx, limitOr(limit, DefaultPublicPostLimit), func(p models.Post) bool {
		return p.Visibility == models.VisibilityPublic
	})
}

// listPosts walks posts newest first. A zero limit lists all matches.
func (m *Memory) listPosts(ctx context.Context, limit int, keep func(models.Post) bool) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Post
	for i := len(m.posts) - 1; i >= 0; i-- {
		if p := m.posts[i]; keep(p) {
			p.Likes = append([]string(nil), p.Likes...)
			out = append(out, p)
		}
	}
	if limit > 0 {
		out = head(out, limit)
	}
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
