package config

import "time"

// Config holds runtime settings of the gnotes client.
type Config struct {
	// ServerEndpointAddr is the base URL of the notes REST API.
	ServerEndpointAddr string
	// HealthEndpointAddr is the host:port of the server's gRPC health service.
	HealthEndpointAddr string

	OnlineCheckInterval time.Duration
	StatusPollInterval  time.Duration
	ReconnectDebounce   time.Duration
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	RequestTimeout      time.Duration
	MaxRetries          int

	DatabasePath string
	OwnerID      string
	LogLevel     string

	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
	S3Bucket       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.HealthEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.StatusPollInterval = 30 * time.Second
	c.ReconnectDebounce = time.Second
	c.RetryBaseDelay = time.Second
	c.RetryMaxDelay = 5 * time.Minute
	c.RequestTimeout = 10 * time.Second
	c.MaxRetries = 3
	c.DatabasePath = "notes.db"
	c.OwnerID = "local"
	c.LogLevel = "warn"
	c.S3Region = "us-east-1"
}

// LoadConfig applies defaults and then the JSON file named by -c/--config in
// args, if any. Command-line flags are applied later, when the command tree
// parses them (see BindFlags).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
