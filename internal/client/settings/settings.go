// Package settings declares the field sets of the editable screens. Each one
// is handed to a draft.Synchronizer; screens write disjoint fields.
package settings

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/gophmeet/internal/client/draft"
	"github.com/dmitrijs2005/gophmeet/internal/common"
)

var Privacy = draft.Schema{
	Name: "privacy",
	Fields: []draft.Field{
		{Name: "profileVisibility", Default: "public"},
		{Name: "whoCanContact", Default: "everyone"},
		{Name: "showEmail", Default: false},
		{Name: "showPhone", Default: false},
		{Name: "allowSearchEngines", Default: false},
		{Name: "contentFilter", Default: "strict"},
		{Name: "blockInappropriate", Default: true},
		{Name: "reportContent", Default: true},
		{Name: "dataSharing", Default: true},
		{Name: "analyticsTracking", Default: true},
		{Name: "marketingEmails", Default: false},
	},
}

var Notifications = draft.Schema{
	Name: "notifications",
	Fields: []draft.Field{
		{Name: "pushNotifications", Default: true},
		{Name: "emailNotifications", Default: true},
		{Name: "smsNotifications", Default: false},
		{Name: "newMessageNotifications", Default: true},
		{Name: "messageSound", Default: true},
		{Name: "messagePreview", Default: true},
		{Name: "friendRequestNotifications", Default: true},
		{Name: "friendAcceptNotifications", Default: true},
		{Name: "postLikeNotifications", Default: true},
		{Name: "postCommentNotifications", Default: true},
		{Name: "postShareNotifications", Default: false},
		{Name: "mentionNotifications", Default: true},
		{Name: "profileViewNotifications", Default: false},
		{Name: "followNotifications", Default: true},
		{Name: "activityReminders", Default: false},
		{Name: "weeklyDigest", Default: true},
		{Name: "newsletter", Default: false},
		{Name: "quietHoursEnabled", Default: false},
		{Name: "quietHoursStart", Default: "22:00"},
		{Name: "quietHoursEnd", Default: "08:00"},
	},
}

var App = draft.Schema{
	Name: "app",
	Fields: []draft.Field{
		{Name: "language", Default: "English"},
		{Name: "theme", Default: "auto"},
		{Name: "autoPlayVideos", Default: true},
		{Name: "dataSaver", Default: false},
	},
}

// Profile is the edit-profile screen. Free-text fields have no default.
var Profile = draft.Schema{
	Name: "profile",
	Fields: []draft.Field{
		{Name: "firstName"},
		{Name: "username"},
		{Name: "currentCity"},
		{Name: "homeCity"},
		{Name: "sex"},
		{Name: "education"},
		{Name: "occupation"},
		{Name: "relationship"},
		{Name: "about"},
		{Name: "requests"},
		{Name: "music"},
		{Name: "books"},
		{Name: "movies"},
		{Name: "quotes"},
		{Name: "phoneNumber"},
		{Name: "profileImageUrl"},
		{Name: "spokenLanguages", Default: []string{}},
		{Name: "learningLanguages", Default: []string{}},
		{Name: "interests", Default: []string{}},
	},
}

var Meet = draft.Schema{
	Name: "meet",
	Fields: []draft.Field{
		{Name: "meetSex"},
		{Name: "ageMin", Default: 18},
		{Name: "ageMax", Default: 99},
		{Name: "meetCountry"},
		{Name: "meetLanguage"},
		{Name: "meetGoals", Default: []string{}},
		{Name: "onlyMatchingCanContact", Default: false},
	},
}

var screens = map[string]draft.Schema{
	Privacy.Name:       Privacy,
	Notifications.Name: Notifications,
	App.Name:           App,
	Profile.Name:       Profile,
	Meet.Name:          Meet,
}

// Lookup returns the schema of screen name.
func Lookup(name string) (draft.Schema, error) {
	s, ok := screens[name]
	if !ok {
		return draft.Schema{}, fmt.Errorf("%w: unknown screen %q", common.ErrorNotFound, name)
	}
	return s, nil
}

// Screens lists screen names alphabetically.
func Screens() []string {
	out := make([]string, 0, len(screens))
	for name := range screens {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
