package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-db", "-l", "-s", "-d"}

// parseFlags populates Config fields from command-line flags. Arguments are
// filtered with flagx.FilterArgs so flags owned by other loaders (-c) do not
// break parsing. Invalid values panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the backend endpoint")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LocalDBPath, "db", cfg.LocalDBPath, "local database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.ProfileStoreDriver, "s", cfg.ProfileStoreDriver, "profile store driver (memory, postgres, mongo, redis)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "postgres DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
