// Package env builds the feeder controller components from flags,
// environment variables and an optional .env file.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/robotalks/pnpfeeder/pkg/link"
)

// EnvPrefix prefixes all environment variables.
const EnvPrefix = "PNPFEEDER_"

// Config provides the options of the feeder controller.
type Config struct {
	// Feeders is the number of feeders.
	Feeders int
	// LinkURL selects the host transport, e.g.
	// stdio:, tcp://:7600, serial:///dev/ttyACM0?baud=115200,
	// ws://:8080/gcode, mqtt://host:1883/topic-prefix/
	LinkURL string
	// StoreURL selects the config store, e.g.
	// memory:, file://pnpfeeder.pb, sqlite://pnpfeeder.db
	StoreURL string
	// MetricsAddr serves Prometheus metrics when not empty.
	MetricsAddr string
	Echo        bool
	LineBuffer  int
	ID          string
}

var defaultConfig = Config{
	Feeders:    1,
	LinkURL:    "stdio:",
	StoreURL:   "file://pnpfeeder.pb",
	LineBuffer: link.DefaultLineCapacity,
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadDotEnv loads variables from .env files into the process
// environment. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, fn := range filenames {
		if err := godotenv.Load(fn); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", fn, err)
		}
	}
	return nil
}

// LoadEnv overrides the config from PNPFEEDER_* variables.
func (c *Config) LoadEnv() error {
	return c.loadEnv(os.LookupEnv)
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LINK":    &c.LinkURL,
		"STORE":   &c.StoreURL,
		"METRICS": &c.MetricsAddr,
		"ID":      &c.ID,
	}
	for name, ptr := range strs {
		if val, ok := lookup(EnvPrefix + name); ok {
			*ptr = val
		}
	}
	ints := map[string]*int{
		"FEEDERS":     &c.Feeders,
		"LINE_BUFFER": &c.LineBuffer,
	}
	for name, ptr := range ints {
		if val, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
			}
			*ptr = n
		}
	}
	if val, ok := lookup(EnvPrefix + "ECHO"); ok {
		echo, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %sECHO: %w", EnvPrefix, err)
		}
		c.Echo = echo
	}
	if c.ID == "" {
		c.ID = MachineID()
	}
	return nil
}

// SetupFlags sets up command line flags.
func (c *Config) SetupFlags(flags *pflag.FlagSet) {
	flags.IntVarP(&c.Feeders, "feeders", "n", c.Feeders, "Number of feeders")
	flags.StringVarP(&c.LinkURL, "link", "l", c.LinkURL, "Host link URL (stdio:, tcp://, serial://, ws://, mqtt://)")
	flags.StringVar(&c.StoreURL, "store", c.StoreURL, "Config store URL (memory:, file://, sqlite://)")
	flags.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Address serving Prometheus metrics")
	flags.BoolVar(&c.Echo, "echo", c.Echo, "Echo received characters")
	flags.IntVar(&c.LineBuffer, "line-buffer", c.LineBuffer, "Max line length in bytes")
	flags.StringVar(&c.ID, "id", c.ID, "Controller ID")
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Feeders <= 0 {
		return fmt.Errorf("at least one feeder is required, got %d", c.Feeders)
	}
	if c.LineBuffer <= 0 {
		return fmt.Errorf("invalid line buffer size %d", c.LineBuffer)
	}
	return nil
}

// Banner is the first line reported to a connected host.
func (c *Config) Banner() string {
	if c.ID == "" {
		return "pnpfeeder"
	}
	return "pnpfeeder " + c.ID
}
