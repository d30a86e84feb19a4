package common

// ProfilesCollection is the document collection (table, key prefix) that holds
// one profile record per user id.
const ProfilesCollection = "users"

// SignupDataKey is the local metadata key holding the not-yet-submitted
// signup record.
const SignupDataKey = "signup_data"

// LastEmailKey is the local metadata key holding the email of the last
// successful sign-in or sign-up.
const LastEmailKey = "last_email"

// Activity collections (tables, key prefixes).
const (
	NotificationsCollection = "notifications"
	ProfileViewsCollection  = "profileViews"
	PostsCollection         = "posts"
)
