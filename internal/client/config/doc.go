// Package config loads runtime configuration for the GophMeet client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-i int      online status check interval (seconds)
//	-db string  local SQLite database path
//	-l string   log level (debug, info, warn, error)
//	-s string   profile store driver (memory, postgres, mongo, redis)
//	-d string   Postgres DSN for the postgres driver
//
// # JSON schema
//
// Durations accept Go duration strings or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "profile_store_driver": "mongo",
//	  "mongo_uri": "mongodb://127.0.0.1:27017",
//	  "autosave_delay": "1.5s",
//	  "store_timeout": "10s"
//	}
//
// Only keys present in the file override the defaults.
package config
