// Package activity persists the social records around a profile:
// notifications, profile views and posts.
//
// Adapters mirror the profile store ones and share its cleaning rules.
// Lists are ordered newest first. A profile view is recorded at most once
// per viewer and viewed user per UTC day, and never for one's own profile.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/google/uuid"
)

// Default list sizes.
const (
	DefaultNotificationLimit = 50
	DefaultProfileViewLimit  = 100
	DefaultPublicPostLimit   = 20
)

// ErrNotFound is returned by MarkNotificationRead for an unknown id.
var ErrNotFound = common.ErrorNotFound

// Store is the activity record storage.
type Store interface {
	// CreateNotification stores n unread and returns its id.
	CreateNotification(ctx context.Context, n models.Notification) (string, error)
	Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error

	// TrackProfileView reports whether a new view was recorded.
	TrackProfileView(ctx context.Context, viewedUserID, viewerUserID string, viewer models.Fields) (bool, error)
	ProfileViews(ctx context.Context, userID string, limit int) ([]models.ProfileView, error)

	CreatePost(ctx context.Context, p models.Post) (string, error)
	UserPosts(ctx context.Context, userID string) ([]models.Post, error)
	PublicPosts(ctx context.Context, limit int) ([]models.Post, error)

	Close() error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

func newID() string {
	return uuid.NewString()
}

func prepareNotification(n models.Notification, now time.Time) (models.Notification, error) {
	if n.UserID == "" {
		return n, invalid("notification recipient is empty")
	}
	if !n.Type.Valid() {
		return n, invalid("unknown notification type %q", n.Type)
	}
	n.ID = newID()
	n.Read = false
	n.CreatedAt = now
	return n, nil
}

func preparePost(p models.Post, now time.Time) (models.Post, error) {
	if p.UserID == "" {
		return p, invalid("post author is empty")
	}
	p.Content = strings.TrimSpace(p.Content)
	if p.Content == "" {
		return p, invalid("post content is empty")
	}
	if !p.Visibility.Valid() {
		return p, invalid("unknown post visibility %q", p.Visibility)
	}
	p.ID = newID()
	p.Likes = append([]string(nil), p.Likes...)
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// prepareView validates the pair. ok is false for a self view, which is
// never recorded.
func prepareView(viewedUserID, viewerUserID string, viewer models.Fields, now time.Time) (v models.ProfileView, ok bool, err error) {
	if viewedUserID == "" || viewerUserID == "" {
		return v, false, invalid("profile view needs both user ids")
	}
	if viewedUserID == viewerUserID {
		return v, false, nil
	}
	v = models.ProfileView{
		ID:           newID(),
		ViewedUserID: viewedUserID,
		ViewerUserID: viewerUserID,
		CreatedAt:    now,
	}
	if snap := profilestore.Clean(viewer); len(snap) > 0 {
		v.ViewerProfile = snap
	}
	return v, true, nil
}

// dayStart is the UTC midnight that opens the day of t.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func utcNow() time.Time {
	return time.Now().UTC()
}
