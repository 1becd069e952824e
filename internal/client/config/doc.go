// Package config loads runtime configuration for the cardkeeper terminal
// client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Supported flags
//
//	-a string   address:port of the remote gRPC store
//	-i int      online check interval (seconds)
//	-d string   path to the local SQLite database
//	-t int      remote request timeout (seconds)
//	-l string   log level (debug, info, warn, error)
//	-persist    keep the session key on disk between runs (default true)
//
// # JSON schema
//
// Durations accept Go duration strings or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "db_path": "cardkeeper.db",
//	  "allow_persisted_key": true,
//	  "short_session_ttl": "20m",
//	  "long_session_ttl": "168h",
//	  "request_timeout": "10s",
//	  "log_level": "info"
//	}
//
// Keys missing from the file leave the earlier value untouched.
package config
