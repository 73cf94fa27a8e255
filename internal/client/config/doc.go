// Package config loads runtime configuration for the todokeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API server
//	-r int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s"
//	}
package config
