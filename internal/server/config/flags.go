package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/attendpass/internal/flagx"
)

var serverFlags = map[string]bool{
	"-a": true, "-d": true, "-s": true, "-k": true,
	"-t": true, "-x": true, "-n": true, "-w": true,
	"-l": false, "-r": true,
	"-export": false, "-u": true, "-p": true, "-b": true, "-g": true, "-e": true,
	"-log-level": true, "-log-format": true,
}

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   credential signing secret
//	-k string   comma separated previous secrets, still accepted for validation
//	-t int      default credential expiry, minutes
//	-x int      maximum credential expiry, minutes
//	-n int      maximum bulk batch size
//	-w int      bulk issuance workers
//	-l          reject credentials superseded by a renewal
//	-r string   Redis address for the latest-credential registry
//	-export     enable print manifest export
//	-u, -p, -b, -g, -e   S3 user, password, bucket, region, base endpoint
//	-log-level, -log-format
//
// Arguments that are not server flags (e.g. -c) are ignored here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	previous := fs.String("k", strings.Join(config.PreviousSecretKeys, ","), "previous secret keys, comma separated")

	fs.IntVar(&config.DefaultExpiryMinutes, "t", config.DefaultExpiryMinutes, "default credential expiry (in minutes)")
	fs.IntVar(&config.MaxExpiryMinutes, "x", config.MaxExpiryMinutes, "maximum credential expiry (in minutes)")
	fs.IntVar(&config.MaxBatchSize, "n", config.MaxBatchSize, "maximum batch size")
	fs.IntVar(&config.BulkWorkers, "w", config.BulkWorkers, "bulk issuance workers")

	fs.BoolVar(&config.EnforceLatest, "l", config.EnforceLatest, "accept only the latest credential per session")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")

	fs.BoolVar(&config.ExportEnabled, "export", config.ExportEnabled, "enable print manifest export")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (json|text)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.PreviousSecretKeys = splitList(*previous)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
