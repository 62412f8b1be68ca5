package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the client's persistent flags on fs. Current values of
// cfg (defaults overlaid with the JSON file) become the flag defaults, so a
// flag given on the command line always wins.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	// Consumed before flag parsing by LoadConfig; registered so the parser
	// accepts it.
	fs.StringP("config", "c", "", "path to JSON config file")

	fs.StringVarP(&cfg.ServerEndpointAddr, "server", "a", cfg.ServerEndpointAddr, "base URL of the notes API")
	fs.StringVar(&cfg.HealthEndpointAddr, "health", cfg.HealthEndpointAddr, "address and port of the gRPC health endpoint")
	fs.DurationVarP(&cfg.OnlineCheckInterval, "online-check-interval", "i", cfg.OnlineCheckInterval, "server reachability probe interval")
	fs.DurationVar(&cfg.StatusPollInterval, "status-poll-interval", cfg.StatusPollInterval, "sync status recomputation interval")
	fs.DurationVar(&cfg.ReconnectDebounce, "reconnect-debounce", cfg.ReconnectDebounce, "delay between reconnect and queue drain")
	fs.DurationVar(&cfg.RetryBaseDelay, "retry-base-delay", cfg.RetryBaseDelay, "first retry delay of a failed operation")
	fs.DurationVar(&cfg.RetryMaxDelay, "retry-max-delay", cfg.RetryMaxDelay, "upper bound of the retry delay")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "timeout of a single API request")
	fs.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "attempts before an operation is marked failed")
	fs.StringVarP(&cfg.DatabasePath, "db", "d", cfg.DatabasePath, "path to the local SQLite database")
	fs.StringVarP(&cfg.OwnerID, "user", "u", cfg.OwnerID, "owner id of the notes")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "backup bucket region")
	fs.StringVar(&cfg.S3AccessKey, "s3-access-key", cfg.S3AccessKey, "backup bucket access key")
	fs.StringVar(&cfg.S3SecretKey, "s3-secret-key", cfg.S3SecretKey, "backup bucket secret key")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3-compatible endpoint URL")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "backup bucket name")
}
