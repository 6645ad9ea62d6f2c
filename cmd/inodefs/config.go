package main

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/jmgilman/go/inodefs/internal/errs"
	"github.com/jmgilman/go/inodefs/internal/logging"
)

const envVarPrefix = "INODEFS"

// Output formats for reports.
const (
	outputText = "text"
	outputYAML = "yaml"
)

// Config is read from INODEFS_* environment variables. Global flags
// override it.
type Config struct {
	Snapshot  string `envconfig:"SNAPSHOT"   default:"root"`
	Dir       string `envconfig:"DIR"        default:"."`
	Capacity  int    `envconfig:"CAPACITY"   default:"1024"`
	BlockSize int    `envconfig:"BLOCK_SIZE" default:"1024"`
	LogLevel  string `envconfig:"LOG_LEVEL"  default:"warn"`
	Output    string `envconfig:"OUTPUT"     default:"text"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return Config{}, errs.Wrap(err, errs.CodeInvalidInput, "loading configuration from environment")
	}
	return c, c.Validate()
}

// Validate checks the values that flags and the environment cannot type-check.
func (c Config) Validate() error {
	if c.Output != outputText && c.Output != outputYAML {
		return errs.Newf(errs.CodeInvalidInput, "output must be %q or %q, got %q", outputText, outputYAML, c.Output)
	}
	if c.Capacity < 1 {
		return errs.Newf(errs.CodeInvalidInput, "capacity must be positive, got %d", c.Capacity)
	}
	if c.BlockSize < 1 {
		return errs.Newf(errs.CodeInvalidInput, "block size must be positive, got %d", c.BlockSize)
	}
	if _, err := logging.ParseLogLevel(c.LogLevel); err != nil {
		return errs.Wrap(err, errs.CodeInvalidInput, "invalid log level")
	}
	return nil
}
