package config

import "time"

// Config holds runtime settings for the attendctl CLI.
type Config struct {
	ServerEndpointAddr string
	// Timeout bounds each call to the server.
	Timeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Timeout = 10 * time.Second
}

// LoadConfig applies defaults, the JSON file and global flags from args.
// It returns the arguments left after the global flags: the command and
// its own arguments.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
