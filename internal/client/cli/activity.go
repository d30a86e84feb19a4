package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
)

var errNoActivity = errors.New("activity store is not configured")

const timeLayout = "2006-01-02 15:04"

func (a *App) requireActivity() error {
	if err := a.requireView(session.Main); err != nil {
		return err
	}
	if a.activity == nil {
		return errNoActivity
	}
	return nil
}

// Visit shows another user's profile and records the visit.
func (a *App) Visit(ctx context.Context, args []string) error {
	if err := a.requireActivity(); err != nil {
		return err
	}
	if len(args) != 1 {
		return usage("visit <uid>")
	}

	p, err := a.activity.ViewProfile(ctx, args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	fmt.Fprintf(a.out, "== %s ==\n", p.ID)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-28s %s\n", name, formatValue(p.Fields[name]))
	}
	return nil
}

// Notifications lists the newest notifications, unread ones marked with *.
func (a *App) Notifications(ctx context.Context) error {
	if err := a.requireActivity(); err != nil {
		return err
	}
	list, err := a.activity.Notifications(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No notifications")
		return nil
	}
	for _, n := range list {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %s  %s: %s\n", mark, n.ID, n.CreatedAt.Local().Format(timeLayout), n.Title, n.Message)
	}
	return nil
}

// Read marks one notification, or all of them, as read.
func (a *App) Read(ctx context.Context, args []string) error {
	if err := a.requireActivity(); err != nil {
		return err
	}
	if len(args) != 1 {
		return usage("read <id|all>")
	}
	if args[0] == "all" {
		return a.activity.MarkAllRead(ctx)
	}
	return a.activity.MarkRead(ctx, args[0])
}

// Views lists who looked at the signed-in user's profile.
func (a *App) Views(ctx context.Context) error {
	if err := a.requireActivity(); err != nil {
		return err
	}
	views, err := a.activity.ProfileViews(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(a.out, "No profile views")
		return nil
	}
	for _, v := range views {
		name := v.ViewerProfile.String(models.FieldFirstName)
		if name == "" {
			name = v.ViewerUserID
		}
		fmt.Fprintf(a.out, "  %s  %s (%s)\n", v.CreatedAt.Local().Format(timeLayout), name, v.ViewerUserID)
	}
	return nil
}

// Post publishes the rest of the line with the given visibility.
func (a *App) Post(ctx context.Context, args []string) error {
	if err := a.requireActivity(); err != nil {
		return err
	}
	if len(args) < 2 {
		return usage("post <public|friends|private> <text>")
	}
	id, err := a.activity.Post(ctx, strings.Join(args[1:], " "), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Posted:", id)
	return nil
}

// Posts lists the posts of a user, the signed-in one by default.
func (a *App) Posts(ctx context.Context, args []string) error {
	if err := a.requireActivity(); err != nil {
		return err
	}
	if len(args) > 1 {
		return usage("posts [uid]")
	}
	var uid string
	if len(args) == 1 {
		uid = args[0]
	}
	posts, err := a.activity.Posts(ctx, uid)
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

// Feed lists the newest public posts.
func (a *App) Feed(ctx context.Context) error {
	if err := a.requireActivity(); err != nil {
		return err
	}
	posts, err := a.activity.Feed(ctx)
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

func (a *App) printPosts(posts []models.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No posts")
		return
	}
	for _, p := range posts {
		fmt.Fprintf(a.out, "  %s  %s [%s] %s\n", p.CreatedAt.Local().Format(timeLayout), p.UserID, p.Visibility, p.Content)
	}
}
