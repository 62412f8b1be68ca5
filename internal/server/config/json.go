package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
	"github.com/dmitrijs2005/gophnotes/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Interval fields accept both strings such as "5s" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	StorageDriver       string         `json:"storage_driver"`
	DatabaseDSN         string         `json:"database_dsn"`
	MongoURI            string         `json:"mongo_uri"`
	MongoDatabase       string         `json:"mongo_database"`
	HealthCheckInterval timex.Duration `json:"health_check_interval"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout"`
	LogLevel            string         `json:"log_level"`
}

// parseJson loads the JSON file named by -c/-config in args, if any, over
// cfg. Keys absent from the file keep their current values.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	overlay(&cfg.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&cfg.StorageDriver, c.StorageDriver)
	overlay(&cfg.DatabaseDSN, c.DatabaseDSN)
	overlay(&cfg.MongoURI, c.MongoURI)
	overlay(&cfg.MongoDatabase, c.MongoDatabase)
	cfg.HealthCheckInterval = c.HealthCheckInterval.OrDefault(cfg.HealthCheckInterval)
	cfg.ShutdownTimeout = c.ShutdownTimeout.OrDefault(cfg.ShutdownTimeout)
	overlay(&cfg.LogLevel, c.LogLevel)
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
