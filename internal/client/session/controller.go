package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophmeet/internal/client/identity"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
	"golang.org/x/sync/singleflight"
)

var (
	ErrProfileIncomplete = errors.New("please complete your profile before continuing")
	ErrEmailNotVerified  = errors.New("email is not verified yet")
	ErrAlreadyStarted    = errors.New("session controller already started")
	ErrNotPreAuthView    = errors.New("view is not reachable without signing in")
	ErrNotSignedIn       = errors.New("not signed in")
)

// ProfileReader is the part of the profile store the controller needs.
type ProfileReader interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// Controller turns identity notifications and profile completeness into a
// single ViewState and exposes the transition actions of the UI.
//
// Listeners registered with OnView and the profile cache are called in state
// change order. They must not call Controller actions synchronously.
type Controller struct {
	gw    identity.Gateway
	store ProfileReader
	log   logging.Logger
	cache *ProfileCache

	mu      sync.Mutex
	session Session
	profile *models.Profile
	view    ViewState
	loading bool
	started bool
	closed  bool

	notifyMu sync.Mutex
	viewSubs map[int]func(ViewState)
	nextSub  int

	fetches     singleflight.Group
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewController returns a controller showing Splash. Call Start to begin
// following the gateway.
func NewController(gw identity.Gateway, store ProfileReader, log logging.Logger) *Controller {
	if log == nil {
		log = logging.Nop()
	}
	return &Controller{
		gw:       gw,
		store:    store,
		log:      log.With("module", "session"),
		cache:    newProfileCache(),
		view:     Splash,
		loading:  true,
		viewSubs: make(map[int]func(ViewState)),
	}
}

// Start subscribes to the gateway. Fetches started from notifications run
// under ctx.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	unsub := c.gw.Subscribe(c.onIdentity)

	c.mu.Lock()
	c.unsubscribe = unsub
	c.mu.Unlock()
	return nil
}

// Close unsubscribes from the gateway and waits for running fetches.
// Notifications delivered after Close start no fetch.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	unsub, cancel := c.unsubscribe, c.cancel
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// View returns the current view.
func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Loading reports whether a notification is still being resolved.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Identity returns the signed-in identity, or nil.
func (c *Controller) Identity() *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Identity.Clone()
}

// Profile returns a copy of the cached profile, or nil.
func (c *Controller) Profile() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.Clone()
}

// Cache exposes the observable profile cache.
func (c *Controller) Cache() *ProfileCache {
	return c.cache
}

// OnView registers fn for view changes.
func (c *Controller) OnView(fn func(ViewState)) func() {
	c.notifyMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.viewSubs[id] = fn
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.viewSubs, id)
		c.notifyMu.Unlock()
	}
}

// change describes what a state update needs to publish.
type change struct {
	view           ViewState
	viewChanged    bool
	profile        *models.Profile
	profileChanged bool
}

// setView records v. c.mu must be held.
func (c *Controller) setView(ch *change, v ViewState) {
	if v == c.view {
		return
	}
	c.log.Debug(context.Background(), "view changed", "from", c.view, "to", v)
	c.view = v
	ch.view = v
	ch.viewChanged = true
}

// setProfile records p. c.mu must be held.
func (c *Controller) setProfile(ch *change, p *models.Profile) {
	c.profile = p.Clone()
	ch.profile = p
	ch.profileChanged = true
}

// unlockAndPublish releases c.mu and delivers ch. Holding notifyMu across the
// handoff keeps deliveries in state change order.
func (c *Controller) unlockAndPublish(ch change) {
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	if ch.profileChanged {
		c.cache.set(ch.profile)
	}
	if ch.viewChanged {
		for _, fn := range c.viewSubs {
			fn(ch.view)
		}
	}
}

// onIdentity follows the gateway. A signed-out notification routes to Splash
// only when a session was signed in; otherwise the pre-auth view is kept.
func (c *Controller) onIdentity(id *models.Identity) {
	if id == nil {
		c.mu.Lock()
		wasSignedIn := c.session.SignedIn()
		c.session = Session{}
		c.loading = false
		var ch change
		c.setProfile(&ch, nil)
		if wasSignedIn {
			c.setView(&ch, Next(c.view, c.session, nil, Event{Kind: EventSignedOut}))
		}
		c.unlockAndPublish(ch)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.session = Session{Identity: id.Clone(), EmailVerified: id.EmailVerified}
	c.loading = true
	ctx := c.ctx
	// Add under mu so Close cannot be past Wait before it.
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		p := c.fetchProfile(ctx, id.UID)
		c.applyFetch(id.UID, p, Event{Kind: EventSignedIn})
	}()
}

// fetchProfile loads the profile for uid. Failures are logged and read as
// "no profile". Concurrent fetches for one uid share a single store call.
func (c *Controller) fetchProfile(ctx context.Context, uid string) *models.Profile {
	v, err, _ := c.fetches.Do(uid, func() (any, error) {
		return c.store.Get(ctx, uid)
	})
	if err != nil {
		c.log.Warn(ctx, "profile fetch failed", "uid", uid, "error", err)
		return nil
	}
	p, _ := v.(*models.Profile)
	return p.Clone()
}

// applyFetch stores a fetched profile and routes with ev, unless the session
// has moved on to another identity since the fetch was issued.
func (c *Controller) applyFetch(uid string, p *models.Profile, ev Event) bool {
	c.mu.Lock()
	if c.session.UID() != uid {
		c.mu.Unlock()
		c.log.Debug(context.Background(), "discarding stale profile fetch", "uid", uid)
		return false
	}
	var ch change
	c.setProfile(&ch, p)
	c.setView(&ch, Next(c.view, c.session, p, ev))
	c.loading = false
	c.unlockAndPublish(ch)
	return true
}

// Login signs in and shows Main straight away.
func (c *Controller) Login(ctx context.Context, creds models.Credentials) error {
	if _, err := c.gw.SignIn(ctx, creds); err != nil {
		return err
	}

	c.mu.Lock()
	var ch change
	c.setView(&ch, Next(c.view, c.session, c.profile, Event{Kind: EventLogin}))
	c.unlockAndPublish(ch)
	return nil
}

// SignUp creates the account and shows EmailVerification.
func (c *Controller) SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	id, err := c.gw.SignUp(ctx, creds)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var ch change
	c.setView(&ch, Next(c.view, c.session, c.profile, Navigate(EmailVerification)))
	c.unlockAndPublish(ch)
	return id, nil
}

// VerifyEmail reloads the verification flag from the gateway. When verified
// it fetches the profile and routes to Main or AccountSetup; otherwise the
// view stays on EmailVerification and ErrEmailNotVerified is returned.
func (c *Controller) VerifyEmail(ctx context.Context) error {
	cur := c.Identity()
	if cur == nil {
		return ErrNotSignedIn
	}

	if err := c.gw.Reload(ctx); err != nil {
		return fmt.Errorf("reload identity: %w", err)
	}
	verified := c.gw.IsEmailVerified()

	c.mu.Lock()
	if c.session.UID() != cur.UID {
		c.mu.Unlock()
		return ErrNotSignedIn
	}
	c.session = Session{Identity: c.session.Identity, EmailVerified: verified}
	if c.session.Identity != nil {
		c.session.Identity.EmailVerified = verified
	}
	c.mu.Unlock()

	if !verified {
		return ErrEmailNotVerified
	}

	p := c.fetchProfile(ctx, cur.UID)
	if !c.applyFetch(cur.UID, p, Event{Kind: EventVerified}) {
		return ErrNotSignedIn
	}
	return nil
}

// CompleteAccountSetup moves from AccountSetup to Main. It is rejected with
// ErrProfileIncomplete while the cached profile is incomplete.
func (c *Controller) CompleteAccountSetup() error {
	c.mu.Lock()
	if !c.profile.Complete() {
		c.mu.Unlock()
		return ErrProfileIncomplete
	}
	var ch change
	c.setView(&ch, Next(c.view, c.session, c.profile, Event{Kind: EventSetupCompleted}))
	c.unlockAndPublish(ch)
	return nil
}

// Logout signs out and shows Login. On a sign-out failure nothing changes.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.gw.SignOut(ctx); err != nil {
		c.log.Error(ctx, "sign out failed", "error", err)
		return err
	}

	c.mu.Lock()
	c.session = Session{}
	c.loading = false
	var ch change
	c.setProfile(&ch, nil)
	c.setView(&ch, Next(c.view, c.session, nil, Event{Kind: EventLogout}))
	c.unlockAndPublish(ch)
	return nil
}

// SetAuthView navigates between pre-auth views.
func (c *Controller) SetAuthView(v ViewState) error {
	c.mu.Lock()
	if !v.PreAuth() || !c.view.PreAuth() {
		c.mu.Unlock()
		return ErrNotPreAuthView
	}
	var ch change
	c.setView(&ch, Next(c.view, c.session, c.profile, Navigate(v)))
	c.unlockAndPublish(ch)
	return nil
}

// SendPasswordReset asks the gateway to mail a reset link.
func (c *Controller) SendPasswordReset(ctx context.Context, email string) error {
	return c.gw.SendPasswordReset(ctx, email)
}

// ResendVerification asks the gateway to mail a new verification link.
func (c *Controller) ResendVerification(ctx context.Context) error {
	return c.gw.SendVerificationEmail(ctx)
}

// RefreshProfile re-reads the profile of the signed-in user into the cache.
// The view does not change. A result for a user who is no longer signed in
// is dropped.
func (c *Controller) RefreshProfile(ctx context.Context) error {
	uid := c.Session().UID()
	if uid == "" {
		return nil
	}

	p, err := c.store.Get(ctx, uid)
	if err != nil {
		c.log.Warn(ctx, "profile refresh failed", "uid", uid, "error", err)
		return fmt.Errorf("refresh profile: %w", err)
	}

	c.mu.Lock()
	if c.session.UID() != uid {
		c.mu.Unlock()
		return nil
	}
	var ch change
	c.setProfile(&ch, p)
	c.unlockAndPublish(ch)
	return nil
}
