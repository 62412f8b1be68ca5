// Package config loads runtime configuration for the gnotes client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config.
//  3. Command-line flags bound on the root command (see BindFlags).
//
// # JSON schema
//
// Durations may be strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "health_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "retry_base_delay": "1s",
//	  "owner_id": "alice@example.com",
//	  "s3_bucket": "notes-backup"
//	}
package config
