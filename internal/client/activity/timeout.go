package activity

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

type timeoutStore struct {
	next Store
	d    time.Duration
}

// WithTimeout bounds every call on s to d. A non-positive d returns s as is.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{next: s, d: d}
}

func (t *timeoutStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.d)
}

func (t *timeoutStore) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.CreateNotification(ctx, n)
}

func (t *timeoutStore) Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.Notifications(ctx, userID, limit)
}

func (t *timeoutStore) MarkNotificationRead(ctx context.Context, id string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.MarkNotificationRead(ctx, id)
}

func (t *timeoutStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.MarkAllNotificationsRead(ctx, userID)
}

func (t *timeoutStore) TrackProfileView(ctx context.Context, viewedUserID, viewerUserID string, viewer models.Fields) (bool, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.TrackProfileView(ctx, viewedUserID, viewerUserID, viewer)
}

func (t *timeoutStore) ProfileViews(ctx context.Context, userID string, limit int) ([]models.ProfileView, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.ProfileViews(ctx, userID, limit)
}

func (t *timeoutStore) CreatePost(ctx context.Context, p models.Post) (string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.CreatePost(ctx, p)
}

func (t *timeoutStore) UserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.UserPosts(ctx, userID)
}

func (t *timeoutStore) PublicPosts(ctx context.Context, limit int) ([]models.Post, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return t.next.PublicPosts(ctx, limit)
}

func (t *timeoutStore) Close() error {
	return t.next.Close()
}
