package activity

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/client/config"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
)

// Open builds the adapter matching cfg.ProfileStoreDriver, so activity lives
// next to the profiles, and wraps it with cfg.StoreTimeout.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.ProfileStoreDriver {
	case profilestore.DriverMemory, "":
		s = NewMemory()
	case profilestore.DriverPostgres:
		s, err = OpenPostgres(ctx, cfg.DatabaseDSN)
	case profilestore.DriverMongo:
		s, err = NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case profilestore.DriverRedis:
		s, err = NewRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown activity store driver %q", cfg.ProfileStoreDriver)
	}
	if err != nil {
		return nil, err
	}

	return WithTimeout(s, cfg.StoreTimeout), nil
}
