// Package config provides functionality for managing configuration options
// for the application using a JSON file, environment variables and
// command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"addr" envconfig:"SERVER_ADDRESS"`

	// DatabaseDSN holds the database connection string. Empty selects the in-memory store.
	DatabaseDSN string `json:"database_dsn" envconfig:"DATABASE_DSN"`

	// DatabaseDriver is either "postgres" (lib/pq) or "pgx".
	DatabaseDriver string `json:"database_driver" envconfig:"DATABASE_DRIVER"`

	// LogLevel is passed to the zap logger.
	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" envconfig:"TLS_CERT"`
	TLSKey  string `json:"tls_key" envconfig:"TLS_KEY"`

	// AdminEmail names an existing account that is marked elevated at startup.
	AdminEmail string `json:"admin_email" envconfig:"ADMIN_EMAIL"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"-" envconfig:"SHUTDOWN_TIMEOUT"`

	// Config is the path to the JSON config file.
	Config string `json:"-" ignored:"true"`
}

// Defaults returns the options used when nothing else is configured.
func Defaults() *Options {
	return &Options{
		Addr:            "localhost:8080",
		DatabaseDriver:  DriverPostgres,
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Parse builds Options from defaults, then the JSON file named by -c/-config
// or CONFIG, then .env and the process environment, and finally explicit
// command-line flags. args excludes the program name.
func Parse(args []string) (*Options, error) {
	options := Defaults()

	fs := flag.NewFlagSet("microfeed", flag.ContinueOnError)
	flagged := &Options{}
	fs.StringVar(&flagged.Addr, "a", options.Addr, "run on ip:port server")
	fs.StringVar(&flagged.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&flagged.DatabaseDriver, "driver", options.DatabaseDriver, "db driver (postgres|pgx)")
	fs.StringVar(&flagged.LogLevel, "l", options.LogLevel, "log level")
	fs.StringVar(&flagged.AdminEmail, "admin", "", "email of the account to elevate")
	fs.StringVar(&flagged.Config, "config", "", "path to config file")
	fs.StringVar(&flagged.Config, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	options.Config = flagged.Config
	if options.Config == "" {
		options.Config = os.Getenv("CONFIG")
	}

	if options.Config != "" {
		if err := loadJSON(options.Config, options); err != nil {
			return nil, err
		}
	}

	// a missing .env file is not an error
	_ = godotenv.Load()

	if err := envconfig.Process("", options); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if set["a"] {
		options.Addr = flagged.Addr
	}
	if set["d"] {
		options.DatabaseDSN = flagged.DatabaseDSN
	}
	if set["driver"] {
		options.DatabaseDriver = flagged.DatabaseDriver
	}
	if set["l"] {
		options.LogLevel = flagged.LogLevel
	}
	if set["admin"] {
		options.AdminEmail = flagged.AdminEmail
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

// Validate checks option combinations that cannot work at runtime.
func (o *Options) Validate() error {
	switch o.DatabaseDriver {
	case DriverPostgres, DriverPgx:
	default:
		return fmt.Errorf("unsupported database driver %q", o.DatabaseDriver)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return errors.New("tls_cert and tls_key must be set together")
	}
	return nil
}

func loadJSON(path string, options *Options) error {
	if _, err := os.Stat(path); err != nil {
		// nothing to load
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, options); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}
