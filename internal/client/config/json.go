package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/attendpass/internal/timex"
)

// JsonConfig is the JSON file shape; absent fields keep their defaults.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	Timeout            *timex.Duration `json:"timeout"`
}

func parseJson(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.Timeout != nil {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
