package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/draft"
	"github.com/dmitrijs2005/gophmeet/internal/client/media"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/client/settings"
)

var (
	errNoScreen = errors.New("no screen is open, use 'open <screen>'")
	errNoAvatar = errors.New("there is no avatar to remove")
)

func (a *App) currentScreen() *draft.Synchronizer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

func (a *App) draftOptions() draft.Options {
	return draft.Options{
		Delay:       a.config.AutoSaveDelay,
		SavedWindow: a.config.SavedStatusWindow,
		ErrorWindow: a.config.ErrorStatusWindow,
		Logger:      a.log,
	}
}

// openScreen replaces the open screen with a synchronizer for schema. At
// most one synchronizer exists at a time.
func (a *App) openScreen(ctx context.Context, schema draft.Schema) *draft.Synchronizer {
	a.closeScreen(ctx)

	s := draft.New(ctx, schema, a.ctrl, a.store, a.draftOptions())
	stop := s.OnStatus(func(st draft.SaveStatus) {
		if st == draft.Error {
			printlnFn(fmt.Sprintf("[%s] %s: %s", schema.Name, st, s.Err()))
			return
		}
		a.log.Debug(ctx, "save status", "screen", schema.Name, "status", st.String())
	})

	a.mu.Lock()
	a.screen = s
	a.screenStop = stop
	a.mu.Unlock()
	return s
}

// closeScreen flushes the pending draft of the open screen, if any, and
// closes it.
func (a *App) closeScreen(ctx context.Context) {
	a.mu.Lock()
	s, stop := a.screen, a.screenStop
	a.screen, a.screenStop = nil, nil
	a.mu.Unlock()

	if s == nil {
		return
	}
	if err := s.Flush(ctx); err != nil {
		a.log.Warn(ctx, "flush on close failed", "screen", s.Schema().Name, "error", err)
	}
	stop()
	s.Close()
}

// Open shows a settings screen: privacy, notifications, app, profile or meet.
func (a *App) Open(ctx context.Context, args []string) error {
	if err := a.requireView(session.Main); err != nil {
		return err
	}
	if len(args) != 1 {
		return usage("open <" + strings.Join(settings.Screens(), "|") + ">")
	}
	schema, err := settings.Lookup(args[0])
	if err != nil {
		return err
	}

	a.openScreen(ctx, schema)
	return a.Show(ctx)
}

// Set edits one field of the open screen. Saving happens after the idle
// delay.
func (a *App) Set(ctx context.Context, args []string) error {
	s := a.currentScreen()
	if s == nil {
		return errNoScreen
	}
	if len(args) < 1 {
		return usage("set <field> <value>")
	}

	v, err := s.Schema().Coerce(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	return s.UpdateField(args[0], v)
}

// Show prints the draft of the open screen.
func (a *App) Show(ctx context.Context) error {
	s := a.currentScreen()
	if s == nil {
		return errNoScreen
	}

	d := s.Draft()
	names := s.Schema().Names()
	sort.Strings(names)

	fmt.Fprintf(a.out, "== %s (%s) ==\n", s.Schema().Name, s.Status())
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-28s %s\n", name, formatValue(d[name]))
	}
	return nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case []string:
		return "[" + strings.Join(t, ", ") + "]"
	default:
		return fmt.Sprint(t)
	}
}

// Save commits the open screen now.
func (a *App) Save(ctx context.Context) error {
	s := a.currentScreen()
	if s == nil {
		return errNoScreen
	}
	if err := s.Flush(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved")
	return nil
}

func (a *App) CloseScreen(ctx context.Context) error {
	if a.currentScreen() == nil {
		return errNoScreen
	}
	a.closeScreen(ctx)
	return nil
}

// Avatar uploads an image and writes its URL through the profile screen.
// "avatar rm" deletes the current image and clears the URL.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if err := a.requireView(session.Main); err != nil {
		return err
	}
	if a.avatars == nil {
		return media.ErrNoObjectStorage
	}
	if len(args) != 1 {
		return usage("avatar <path|rm>")
	}
	id := a.ctrl.Identity()
	if id == nil {
		return session.ErrNotSignedIn
	}
	if args[0] == "rm" {
		return a.removeAvatar(ctx, id.UID)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(args[0]))
	url, err := a.avatars.Upload(ctx, id.UID, f, contentType)
	if err != nil {
		return err
	}
	if err := a.setAvatarURL(ctx, url); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Avatar uploaded:", url)
	return nil
}

func (a *App) removeAvatar(ctx context.Context, uid string) error {
	var url string
	if p := a.ctrl.Profile(); p != nil {
		url = p.Fields.String(models.FieldProfileImageURL)
	}
	if url == "" {
		return errNoAvatar
	}
	if err := a.avatars.Delete(ctx, uid, url); err != nil {
		return err
	}
	if err := a.setAvatarURL(ctx, ""); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Avatar removed")
	return nil
}

// setAvatarURL writes url through the profile screen and waits for the save.
func (a *App) setAvatarURL(ctx context.Context, url string) error {
	s := a.currentScreen()
	if s == nil || s.Schema().Name != settings.Profile.Name {
		s = a.openScreen(ctx, settings.Profile)
	}
	if err := s.UpdateField(models.FieldProfileImageURL, url); err != nil {
		return err
	}
	return s.Flush(ctx)
}

// Status prints the session state.
func (a *App) Status(ctx context.Context) error {
	sess := a.ctrl.Session()
	fmt.Fprintln(a.out, "view:    ", a.ctrl.View())
	if sess.SignedIn() {
		fmt.Fprintln(a.out, "user:    ", sess.Identity.Email)
		fmt.Fprintln(a.out, "verified:", sess.EmailVerified)
		fmt.Fprintln(a.out, "profile: ", profileState(a.ctrl.Profile()))
	}
	if m := a.mode(); m != "" {
		fmt.Fprintln(a.out, "backend: ", m)
	}
	if s := a.currentScreen(); s != nil {
		fmt.Fprintf(a.out, "screen:   %s (%s)\n", s.Schema().Name, s.Status())
	}
	return nil
}

func profileState(p *models.Profile) string {
	switch {
	case p == nil:
		return "none"
	case p.Complete():
		return "complete"
	default:
		return "incomplete"
	}
}
