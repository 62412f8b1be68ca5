package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     REST bind address (e.g., ":8080")
//	-g string     gRPC health bind address (e.g., ":50051")
//	-s string     storage driver: postgres or mongo
//	-d string     PostgreSQL DSN
//	-m string     MongoDB URI
//	-n string     MongoDB database name
//	-i duration   storage health check interval
//	-t duration   shutdown timeout
//	-l string     log level
//
// Args are first filtered with flagx.FilterArgs so that -c and unknown
// flags do not break parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-s", "-d", "-m", "-n", "-i", "-t", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrHTTP, "a", cfg.EndpointAddrHTTP, "address and port of the REST API")
	fs.StringVar(&cfg.EndpointAddrGRPC, "g", cfg.EndpointAddrGRPC, "address and port of the gRPC health endpoint")
	fs.StringVar(&cfg.StorageDriver, "s", cfg.StorageDriver, "storage driver (postgres, mongo)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.MongoURI, "m", cfg.MongoURI, "MongoDB URI")
	fs.StringVar(&cfg.MongoDatabase, "n", cfg.MongoDatabase, "MongoDB database")
	fs.DurationVar(&cfg.HealthCheckInterval, "i", cfg.HealthCheckInterval, "storage health check interval")
	fs.DurationVar(&cfg.ShutdownTimeout, "t", cfg.ShutdownTimeout, "shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	switch cfg.StorageDriver {
	case DriverPostgres, DriverMongo:
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
