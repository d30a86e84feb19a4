package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/flagx"
	"github.com/dmitrijs2005/gophmeet/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Values are
// copied into Config only when set.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	LocalDBPath         string         `json:"local_db_path"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`

	ProfileStoreDriver string `json:"profile_store_driver"`
	DatabaseDSN        string `json:"database_dsn"`
	MongoURI           string `json:"mongo_uri"`
	MongoDatabase      string `json:"mongo_database"`
	RedisURL           string `json:"redis_url"`

	S3Region       string `json:"s3_region"`
	S3Bucket       string `json:"s3_bucket"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	IdentitySecret string `json:"identity_secret"`

	AutoSaveDelay     timex.Duration `json:"autosave_delay"`
	SavedStatusWindow timex.Duration `json:"saved_status_window"`
	ErrorStatusWindow timex.Duration `json:"error_status_window"`
	StoreTimeout      timex.Duration `json:"store_timeout"`
}

// parseJson overlays cfg with the JSON file named by -c/-config. Without the
// flag it does nothing. Read or unmarshal errors panic, like flag errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.ProfileStoreDriver, jc.ProfileStoreDriver)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.MongoURI, jc.MongoURI)
	setString(&cfg.MongoDatabase, jc.MongoDatabase)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.IdentitySecret, jc.IdentitySecret)

	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.AutoSaveDelay, jc.AutoSaveDelay)
	setDuration(&cfg.SavedStatusWindow, jc.SavedStatusWindow)
	setDuration(&cfg.ErrorStatusWindow, jc.ErrorStatusWindow)
	setDuration(&cfg.StoreTimeout, jc.StoreTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
