package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
	"github.com/dmitrijs2005/gophnotes/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept "3s" style strings or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	HealthEndpointAddr  string         `json:"health_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	StatusPollInterval  timex.Duration `json:"status_poll_interval"`
	ReconnectDebounce   timex.Duration `json:"reconnect_debounce"`
	RetryBaseDelay      timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay       timex.Duration `json:"retry_max_delay"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	MaxRetries          int            `json:"max_retries"`
	DatabasePath        string         `json:"database_path"`
	OwnerID             string         `json:"owner_id"`
	LogLevel            string         `json:"log_level"`
	S3Region            string         `json:"s3_region"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3Bucket            string         `json:"s3_bucket"`
}

// parseJson overlays cfg with the values present in the JSON file selected
// by -c/-config/--config. Keys missing from the file keep their current value.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.HealthEndpointAddr, jc.HealthEndpointAddr)
	cfg.OnlineCheckInterval = jc.OnlineCheckInterval.OrDefault(cfg.OnlineCheckInterval)
	cfg.StatusPollInterval = jc.StatusPollInterval.OrDefault(cfg.StatusPollInterval)
	cfg.ReconnectDebounce = jc.ReconnectDebounce.OrDefault(cfg.ReconnectDebounce)
	cfg.RetryBaseDelay = jc.RetryBaseDelay.OrDefault(cfg.RetryBaseDelay)
	cfg.RetryMaxDelay = jc.RetryMaxDelay.OrDefault(cfg.RetryMaxDelay)
	cfg.RequestTimeout = jc.RequestTimeout.OrDefault(cfg.RequestTimeout)
	if jc.MaxRetries > 0 {
		cfg.MaxRetries = jc.MaxRetries
	}
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.OwnerID, jc.OwnerID)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
