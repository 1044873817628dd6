package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/attendpass/internal/flagx"
)

// parseFlags reads the global flags that precede the command:
//
//	-a string          address:port of the server
//	-timeout duration  per-call timeout (e.g. "5s")
//	-c, -config path   JSON config file
//
// The JSON file is applied before explicitly set flags so flags win.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("attendctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	addr := fs.String("a", cfg.ServerEndpointAddr, "address and port to access server")
	timeout := fs.Duration("timeout", cfg.Timeout, "per-call timeout")
	fs.String("c", "", "path to JSON config")
	fs.String("config", "", "path to JSON config")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	rest := fs.Args()

	global := args[:len(args)-len(rest)]
	if path := flagx.ConfigFileFlag(global); path != "" {
		if err := parseJson(cfg, path); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.ServerEndpointAddr = *addr
		case "timeout":
			cfg.Timeout = *timeout
		}
	})

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}
	return rest, nil
}

