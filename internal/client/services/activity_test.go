package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophmeet/internal/client/activity"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityHarness struct {
	src      *fakeSource
	profiles *profilestore.Memory
	store    *activity.Memory
	svc      ActivityService
}

func newActivityHarness(t *testing.T) *activityHarness {
	t.Helper()
	ctx := context.Background()
	profiles := profilestore.NewMemory()
	require.NoError(t, profiles.Create(ctx, "u1", models.Fields{"firstName": "Ann", "username": "ann", "language": "English"}))
	require.NoError(t, profiles.Create(ctx, "u2", models.Fields{"firstName": "Bob", "username": "bob", "profileViewNotifications": true}))
	require.NoError(t, profiles.Create(ctx, "u3", models.Fields{"firstName": "Cid", "username": "cid"}))

	src := &fakeSource{id: &models.Identity{UID: "u1"}, store: profiles}
	require.NoError(t, src.RefreshProfile(ctx))

	store := activity.NewMemory()
	return &activityHarness{
		src:      src,
		profiles: profiles,
		store:    store,
		svc:      NewActivityService(src, profiles, store, nil),
	}
}

func TestActivity_ViewProfileNotifiesWhenEnabled(t *testing.T) {
	ctx := context.Background()
	h := newActivityHarness(t)

	p, err := h.svc.ViewProfile(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.Fields.String("firstName"))

	// a second visit the same day is neither recorded nor notified
	_, err = h.svc.ViewProfile(ctx, "u2")
	require.NoError(t, err)

	views, err := h.store.ProfileViews(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "u1", views[0].ViewerUserID)
	assert.Equal(t, "Ann", views[0].ViewerProfile.String("firstName"))

	notes, err := h.store.Notifications(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationProfileView, notes[0].Type)
	assert.Equal(t, "Ann viewed your profile", notes[0].Message)
	assert.Equal(t, "u1", notes[0].RelatedUserID)
}

func TestActivity_ViewProfileWithoutNotification(t *testing.T) {
	ctx := context.Background()
	h := newActivityHarness(t)

	_, err := h.svc.ViewProfile(ctx, "u3")
	require.NoError(t, err)
	notes, err := h.store.Notifications(ctx, "u3", 0)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = h.svc.ViewProfile(ctx, "u1")
	require.NoError(t, err)
	views, err := h.store.ProfileViews(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, views, "own profile is not tracked")

	_, err = h.svc.ViewProfile(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestActivity_Notifications(t *testing.T) {
	ctx := context.Background()
	h := newActivityHarness(t)
	id, err := h.store.CreateNotification(ctx, models.Notification{UserID: "u1", Type: models.NotificationFollow})
	require.NoError(t, err)
	_, err = h.store.CreateNotification(ctx, models.Notification{UserID: "u1", Type: models.NotificationMention})
	require.NoError(t, err)

	require.NoError(t, h.svc.MarkRead(ctx, id))
	assert.ErrorIs(t, h.svc.MarkRead(ctx, "ghost"), activity.ErrNotFound)

	list, err := h.svc.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, h.svc.MarkAllRead(ctx))
	list, err = h.svc.Notifications(ctx)
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Read)
	}
}

func TestActivity_Posts(t *testing.T) {
	ctx := context.Background()
	h := newActivityHarness(t)

	_, err := h.svc.Post(ctx, "hello", "everyone")
	var fe FormErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, FormVisibility)

	_, err = h.svc.Post(ctx, "   ", "public")
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, FormContent)

	_, err = h.svc.Post(ctx, "hello", "PUBLIC")
	require.NoError(t, err)
	_, err = h.svc.Post(ctx, "diary", "private")
	require.NoError(t, err)

	mine, err := h.svc.Posts(ctx, "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "English", mine[0].Language)

	// another user sees only the public post
	h.src.id = &models.Identity{UID: "u2"}
	theirs, err := h.svc.Posts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "hello", theirs[0].Content)

	feed, err := h.svc.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, models.VisibilityPublic, feed[0].Visibility)
}

func TestActivity_RequiresSignIn(t *testing.T) {
	ctx := context.Background()
	h := newActivityHarness(t)
	h.src.id = nil

	_, err := h.svc.Notifications(ctx)
	assert.ErrorIs(t, err, session.ErrNotSignedIn)
	_, err = h.svc.ViewProfile(ctx, "u2")
	assert.ErrorIs(t, err, session.ErrNotSignedIn)
	_, err = h.svc.Post(ctx, "x", "public")
	assert.ErrorIs(t, err, session.ErrNotSignedIn)
}

func TestParseVisibility(t *testing.T) {
	v, ok := ParseVisibility("Friends")
	assert.True(t, ok)
	assert.Equal(t, models.VisibilityFriends, v)

	_, ok = ParseVisibility("")
	assert.False(t, ok)
}
