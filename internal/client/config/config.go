package config

import "time"

// Config holds runtime settings for the GophMeet client.
type Config struct {
	// ServerEndpointAddr is the host:port of the backend gRPC endpoint that
	// the online watcher probes.
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration

	// LocalDBPath is the SQLite file holding client-side state.
	LocalDBPath string

	LogLevel  string
	LogFormat string

	// ProfileStoreDriver selects the profile store adapter:
	// memory, postgres, mongo or redis.
	ProfileStoreDriver string
	DatabaseDSN        string
	MongoURI           string
	MongoDatabase      string
	RedisURL           string

	S3Region       string
	S3Bucket       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	// IdentitySecret signs id tokens issued by the local identity gateway.
	IdentitySecret string

	// Auto-save timings shared by every settings screen.
	AutoSaveDelay     time.Duration
	SavedStatusWindow time.Duration
	ErrorStatusWindow time.Duration

	// StoreTimeout bounds every profile store call.
	StoreTimeout time.Duration
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.LocalDBPath = "gophmeet.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.ProfileStoreDriver = "memory"
	c.MongoDatabase = "gophmeet"
	c.S3Region = "us-east-1"
	c.S3Bucket = "gophmeet"
	c.IdentitySecret = "gophmeet-dev-secret"
	c.AutoSaveDelay = 1500 * time.Millisecond
	c.SavedStatusWindow = 2 * time.Second
	c.ErrorStatusWindow = 3 * time.Second
	c.StoreTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
