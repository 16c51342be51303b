// Package config loads runtime configuration for the GophDrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the GophDrive HTTP API
//	-g string   address:port of the gRPC health endpoint
//	-i int      online status check interval (seconds)
//	-w int      chunks in flight per upload/download
//	-t int      HTTP request timeout (seconds)
//	-d string   path of the local metadata database
//	-z string   drop folder watched for new files (empty disables it)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Fields left out keep their
// previous value:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "health_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "parallelism": 4,
//	  "http_timeout": "60s",
//	  "db_path": "gophdrive.db",
//	  "drop_dir": "/home/me/Drop",
//	  "drop_ignore": [".*", "*.tmp"]
//	}
package config
