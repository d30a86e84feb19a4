package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/activity"
	"github.com/dmitrijs2005/gophmeet/internal/client/draft"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
)

const (
	fieldProfileViewNotifications = "profileViewNotifications"
	fieldLanguage                 = "language"
)

// ProfileReader loads any profile by id.
type ProfileReader interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// ActivityService backs the notification, profile view and post commands of
// the signed-in user.
type ActivityService interface {
	// ViewProfile loads the profile of uid and records the visit. A recorded
	// visit notifies the owner when their profileViewNotifications is on.
	ViewProfile(ctx context.Context, uid string) (*models.Profile, error)
	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	ProfileViews(ctx context.Context) ([]models.ProfileView, error)
	// Post publishes content with the named visibility (public, friends or
	// private, any case) and returns the post id.
	Post(ctx context.Context, content, visibility string) (string, error)
	// Posts lists the posts of uid, or of the signed-in user when uid is
	// empty. Only public posts of other users are listed.
	Posts(ctx context.Context, uid string) ([]models.Post, error)
	Feed(ctx context.Context) ([]models.Post, error)
}

type activityService struct {
	src      draft.ProfileSource
	profiles ProfileReader
	store    activity.Store
	log      logging.Logger
}

func NewActivityService(src draft.ProfileSource, profiles ProfileReader, store activity.Store, log logging.Logger) ActivityService {
	if log == nil {
		log = logging.Nop()
	}
	return &activityService{src: src, profiles: profiles, store: store, log: log}
}

func (s *activityService) uid() (string, error) {
	id := s.src.Identity()
	if id == nil {
		return "", session.ErrNotSignedIn
	}
	return id.UID, nil
}

func (s *activityService) ViewProfile(ctx context.Context, uid string) (*models.Profile, error) {
	me, err := s.uid()
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s: %w", uid, common.ErrorNotFound)
	}

	var viewer models.Fields
	if own := s.src.Profile(); own != nil {
		viewer = own.Fields
	}
	recorded, err := s.store.TrackProfileView(ctx, uid, me, viewer)
	if err != nil {
		s.log.Warn(ctx, "profile view not tracked", "viewed", uid, "error", err)
		return p, nil
	}
	if recorded {
		s.notifyView(ctx, p, me, viewer)
	}
	return p, nil
}

func (s *activityService) notifyView(ctx context.Context, viewed *models.Profile, viewerUID string, viewer models.Fields) {
	if on, _ := viewed.Fields[fieldProfileViewNotifications].(bool); !on {
		return
	}
	name := firstNonEmpty(viewer.String(models.FieldFirstName), viewer.String(models.FieldUsername), "Someone")
	_, err := s.store.CreateNotification(ctx, models.Notification{
		UserID:        viewed.ID,
		Type:          models.NotificationProfileView,
		Title:         "New profile view",
		Message:       name + " viewed your profile",
		RelatedUserID: viewerUID,
	})
	if err != nil {
		s.log.Warn(ctx, "profile view notification failed", "viewed", viewed.ID, "error", err)
	}
}

func (s *activityService) Notifications(ctx context.Context) ([]models.Notification, error) {
	me, err := s.uid()
	if err != nil {
		return nil, err
	}
	return s.store.Notifications(ctx, me, activity.DefaultNotificationLimit)
}

func (s *activityService) MarkRead(ctx context.Context, id string) error {
	if _, err := s.uid(); err != nil {
		return err
	}
	return s.store.MarkNotificationRead(ctx, id)
}

func (s *activityService) MarkAllRead(ctx context.Context) error {
	me, err := s.uid()
	if err != nil {
		return err
	}
	return s.store.MarkAllNotificationsRead(ctx, me)
}

func (s *activityService) ProfileViews(ctx context.Context) ([]models.ProfileView, error) {
	me, err := s.uid()
	if err != nil {
		return nil, err
	}
	return s.store.ProfileViews(ctx, me, activity.DefaultProfileViewLimit)
}

// ParseVisibility maps a visibility name in any case to its value.
func ParseVisibility(name string) (models.Visibility, bool) {
	for _, v := range []models.Visibility{models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate} {
		if strings.EqualFold(name, string(v)) {
			return v, true
		}
	}
	return "", false
}

func (s *activityService) Post(ctx context.Context, content, visibility string) (string, error) {
	me, err := s.uid()
	if err != nil {
		return "", err
	}
	v, ok := ParseVisibility(visibility)
	if !ok {
		return "", FormErrors{FormVisibility: "Visibility must be public, friends or private"}
	}
	if strings.TrimSpace(content) == "" {
		return "", FormErrors{FormContent: "Post content is required"}
	}

	var lang string
	if p := s.src.Profile(); p != nil {
		lang = p.Fields.String(fieldLanguage)
	}
	return s.store.CreatePost(ctx, models.Post{
		UserID:     me,
		Content:    content,
		Visibility: v,
		Language:   lang,
	})
}

func (s *activityService) Posts(ctx context.Context, uid string) ([]models.Post, error) {
	me, err := s.uid()
	if err != nil {
		return nil, err
	}
	if uid == "" {
		uid = me
	}
	posts, err := s.store.UserPosts(ctx, uid)
	if err != nil || uid == me {
		return posts, err
	}

	public := posts[:0]
	for _, p := range posts {
		if p.Visibility == models.VisibilityPublic {
			public = append(public, p)
		}
	}
	return public, nil
}

func (s *activityService) Feed(ctx context.Context) ([]models.Post, error) {
	if _, err := s.uid(); err != nil {
		return nil, err
	}
	return s.store.PublicPosts(ctx, activity.DefaultPublicPostLimit)
}
