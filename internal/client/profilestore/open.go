package profilestore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/client/config"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
)

// Open builds the store selected by cfg.ProfileStoreDriver and wraps it with
// cfg.StoreTimeout.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.ProfileStoreDriver {
	case DriverMemory, "":
		s = NewMemory()
	case DriverPostgres:
		s, err = OpenPostgres(ctx, cfg.DatabaseDSN)
	case DriverMongo:
		s, err = NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case DriverRedis:
		s, err = NewRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown profile store driver %q", cfg.ProfileStoreDriver)
	}
	if err != nil {
		return nil, err
	}

	return WithTimeout(s, cfg.StoreTimeout), nil
}
