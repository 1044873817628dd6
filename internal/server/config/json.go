package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/attendpass/internal/flagx"
	"github.com/dmitrijs2005/attendpass/internal/timex"
)

// JsonConfig is the JSON file shape. Pointer fields distinguish "absent"
// from zero values so a file only overrides what it mentions.
type JsonConfig struct {
	EndpointAddrGRPC     *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN          *string         `json:"database_dsn"`
	SecretKey            *string         `json:"secret_key"`
	PreviousSecretKeys   []string        `json:"previous_secret_keys"`
	DefaultExpiryMinutes *int            `json:"default_expiry_minutes"`
	MaxExpiryMinutes     *int            `json:"max_expiry_minutes"`
	MaxBatchSize         *int            `json:"max_batch_size"`
	BulkWorkers          *int            `json:"bulk_workers"`
	EnforceLatest        *bool           `json:"enforce_latest"`
	RedisAddr            *string         `json:"redis_addr"`
	RedisPassword        *string         `json:"redis_password"`
	RedisDB              *int            `json:"redis_db"`
	ExportEnabled        *bool           `json:"export_enabled"`
	S3RootUser           *string         `json:"s3_root_user"`
	S3RootPassword       *string         `json:"s3_root_password"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3Region             *string         `json:"s3_region"`
	S3BaseEndpoint       *string         `json:"s3_base_endpoint"`
	LogLevel             *string         `json:"log_level"`
	LogFormat            *string         `json:"log_format"`
	StartupTimeout       *timex.Duration `json:"startup_timeout"`
}

// parseJson overlays values from the file named by -c / -config, if any.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	if c.PreviousSecretKeys != nil {
		config.PreviousSecretKeys = c.PreviousSecretKeys
	}
	set(&config.DefaultExpiryMinutes, c.DefaultExpiryMinutes)
	set(&config.MaxExpiryMinutes, c.MaxExpiryMinutes)
	set(&config.MaxBatchSize, c.MaxBatchSize)
	set(&config.BulkWorkers, c.BulkWorkers)
	set(&config.EnforceLatest, c.EnforceLatest)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPassword, c.RedisPassword)
	set(&config.RedisDB, c.RedisDB)
	set(&config.ExportEnabled, c.ExportEnabled)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.LogLevel, c.LogLevel)
	set(&config.LogFormat, c.LogFormat)
	if c.StartupTimeout != nil {
		config.StartupTimeout = c.StartupTimeout.Duration
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
