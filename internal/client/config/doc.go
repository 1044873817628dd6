// Package config loads runtime configuration for the attendctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Global command-line flags, which override earlier values.
//
// Global flags come before the command name:
//
//	attendctl -a 127.0.0.1:50051 -timeout 5s validate
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "timeout": "5s"
//	}
package config
