package models

import "time"

type NotificationType string

const (
	NotificationMessage       NotificationType = "message"
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationFriendAccept  NotificationType = "friend_accept"
	NotificationPostLike      NotificationType = "post_like"
	NotificationPostComment   NotificationType = "post_comment"
	NotificationPostShare     NotificationType = "post_share"
	NotificationMention       NotificationType = "mention"
	NotificationProfileView   NotificationType = "profile_view"
	NotificationFollow        NotificationType = "follow"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMessage, NotificationFriendRequest, NotificationFriendAccept,
		NotificationPostLike, NotificationPostComment, NotificationPostShare,
		NotificationMention, NotificationProfileView, NotificationFollow:
		return true
	}
	return false
}

// Notification is addressed to UserID. RelatedUserID and RelatedPostID are
// optional.
type Notification struct {
	ID            string           `json:"id" bson:"_id"`
	UserID        string           `json:"userId" bson:"userId"`
	Type          NotificationType `json:"type" bson:"type"`
	Title         string           `json:"title" bson:"title"`
	Message       string           `json:"message" bson:"message"`
	RelatedUserID string           `json:"relatedUserId,omitempty" bson:"relatedUserId,omitempty"`
	RelatedPostID string           `json:"relatedPostId,omitempty" bson:"relatedPostId,omitempty"`
	Read          bool             `json:"read" bson:"read"`
	CreatedAt     time.Time        `json:"createdAt" bson:"createdAt"`
}

// ProfileView records that ViewerUserID opened the profile of ViewedUserID.
// ViewerProfile is a snapshot of the viewer's fields at that time.
type ProfileView struct {
	ID            string    `json:"id" bson:"_id"`
	ViewedUserID  string    `json:"viewedUserId" bson:"viewedUserId"`
	ViewerUserID  string    `json:"viewerUserId" bson:"viewerUserId"`
	ViewerProfile Fields    `json:"viewerProfile,omitempty" bson:"viewerProfile,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityFriends Visibility = "Friends"
	VisibilityPrivate Visibility = "Private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityFriends || v == VisibilityPrivate
}

type Post struct {
	ID         string     `json:"id" bson:"_id"`
	UserID     string     `json:"userId" bson:"userId"`
	Content    string     `json:"content" bson:"content"`
	Visibility Visibility `json:"visibility" bson:"visibility"`
	Language   string     `json:"language" bson:"language"`
	ImageURL   string     `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Likes      []string   `json:"likes,omitempty" bson:"likes,omitempty"`
	Comments   int        `json:"comments" bson:"comments"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}
