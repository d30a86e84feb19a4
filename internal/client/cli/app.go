package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/config"
	"github.com/dmitrijs2005/gophmeet/internal/client/draft"
	"github.com/dmitrijs2005/gophmeet/internal/client/services"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// Pinger checks backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Uploader stores avatar images and returns their public URL. Delete takes
// such a URL back.
type Uploader interface {
	Upload(ctx context.Context, uid string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, uid, ref string) error
}

// Confirmer marks an email as verified. Only the local identity gateway
// offers it.
type Confirmer interface {
	ConfirmEmail(email string) error
}

// Deps are the collaborators of App. Activity, Prober, Avatars and
// Confirmer are optional.
type Deps struct {
	Controller *session.Controller
	Auth       services.AuthService
	Setup      services.AccountSetupService
	Activity   services.ActivityService
	Store      draft.Store
	Prober     Pinger
	Avatars    Uploader
	Confirmer  Confirmer
	Logger     logging.Logger
}

type App struct {
	config    *config.Config
	ctrl      *session.Controller
	auth      services.AuthService
	setup     services.AccountSetupService
	activity  services.ActivityService
	store     draft.Store
	prober    Pinger
	avatars   Uploader
	confirmer Confirmer
	log       logging.Logger

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	Mode Mode

	screen     *draft.Synchronizer
	screenStop func()
}

func NewApp(c *config.Config, d Deps) *App {
	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		config:    c,
		ctrl:      d.Controller,
		auth:      d.Auth,
		setup:     d.Setup,
		activity:  d.Activity,
		store:     d.Store,
		prober:    d.Prober,
		avatars:   d.Avatars,
		confirmer: d.Confirmer,
		log:       log.With("module", "cli"),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run starts the session controller, the online watcher and the REPL. It
// returns when the user exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.ctrl.Start(ctx); err != nil {
		return err
	}
	defer a.ctrl.Close()
	defer a.closeScreen(context.Background())

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	if a.prober != nil {
		g.Go(func() error {
			a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		a.Root(ctx)
		return nil
	})

	return g.Wait()
}

// StartOnlineStatusWatcher probes the backend every interval until ctx is
// done and records the result as the app mode.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.prober.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
