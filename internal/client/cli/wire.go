package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/client/activity"
	"github.com/dmitrijs2005/gophmeet/internal/client/backend"
	"github.com/dmitrijs2005/gophmeet/internal/client/config"
	"github.com/dmitrijs2005/gophmeet/internal/client/identity"
	"github.com/dmitrijs2005/gophmeet/internal/client/media"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
	"github.com/dmitrijs2005/gophmeet/internal/client/repositories"
	"github.com/dmitrijs2005/gophmeet/internal/client/services"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
)

// Bootstrap opens local state and the profile and activity stores, builds
// the identity gateway and session controller, and returns the wired App
// together with a cleanup func that releases everything it opened.
func Bootstrap(ctx context.Context, c *config.Config, log logging.Logger) (*App, func(), error) {
	local, err := repositories.OpenLocal(ctx, c.LocalDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("local db init error: %w", err)
	}

	store, err := profilestore.Open(ctx, c)
	if err != nil {
		_ = local.Close()
		return nil, nil, fmt.Errorf("profile store init error: %w", err)
	}

	acts, err := activity.Open(ctx, c)
	if err != nil {
		_ = store.Close()
		_ = local.Close()
		return nil, nil, fmt.Errorf("activity store init error: %w", err)
	}

	gw := identity.NewLocalGateway([]byte(c.IdentitySecret), log)
	ctrl := session.NewController(gw, store, log)
	stash := services.NewSignupStash(local.Metadata, log)

	deps := Deps{
		Controller: ctrl,
		Auth:       services.NewAuthService(ctrl, local.DB, log),
		Setup:      services.NewAccountSetupService(ctrl, store, stash, log),
		Activity:   services.NewActivityService(ctrl, store, acts, log),
		Store:      store,
		Avatars:    media.NewAvatarUploader(c),
		Confirmer:  gw,
		Logger:     log,
	}

	var prober *backend.Prober
	if c.ServerEndpointAddr != "" {
		prober, err = backend.NewProber(c.ServerEndpointAddr)
		if err != nil {
			log.Warn(ctx, "backend prober disabled", "addr", c.ServerEndpointAddr, "error", err)
		} else {
			deps.Prober = prober
		}
	}

	cleanup := func() {
		if prober != nil {
			_ = prober.Close()
		}
		gw.Close()
		if err := acts.Close(); err != nil {
			log.Warn(context.Background(), "activity store close failed", "error", err)
		}
		if err := store.Close(); err != nil {
			log.Warn(context.Background(), "profile store close failed", "error", err)
		}
		if err := local.Close(); err != nil {
			log.Warn(context.Background(), "local db close failed", "error", err)
		}
	}

	return NewApp(c, deps), cleanup, nil
}
