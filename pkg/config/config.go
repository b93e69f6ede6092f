// Package config loads the settings shared by the domus binaries.
//
// A configuration file is YAML; every field is optional and falls back to
// the value in Default:
//
//	log_level: debug
//	store: ~/.domus/store.cbor
//	topology: apartment.yaml
//	discovery:
//	  timeout: 5s
//	  poll_interval: 100ms
//	  ipv4_only: true
//	pairing:
//	  request_timeout: 10s
//	  method: pair-setup-with-auth
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/pairing"
	"github.com/redoz/domus/pkg/store"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when Validate fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrInvalidLogLevel is returned for an unknown log_level value.
	ErrInvalidLogLevel = errors.New("config: invalid log level")
)

// Config holds all settings of a domus process.
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Pairing   PairingConfig   `yaml:"pairing"`

	// StorePath is the CBOR pairing store. Empty keeps pairings in memory.
	StorePath string `yaml:"store"`

	// LogLevel is one of trace, debug, info, warn, error or disabled.
	LogLevel string `yaml:"log_level"`

	// Topology is the path of the home topology file used by domus.
	Topology string `yaml:"topology"`
}

// DiscoveryConfig configures accessory discovery.
type DiscoveryConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	IPv4Only     bool          `yaml:"ipv4_only"`
}

// PairingConfig configures Pair-Setup.
type PairingConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Method is "pair-setup" or "pair-setup-with-auth".
	Method string `yaml:"method"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Timeout:      discovery.DefaultTimeout,
			PollInterval: discovery.DefaultPollInterval,
			IPv4Only:     true,
		},
		Pairing: PairingConfig{
			RequestTimeout: pairing.DefaultRequestTimeout,
			Method:         "pair-setup-with-auth",
		},
		LogLevel: "info",
	}
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return c, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Discovery.Timeout < 0 {
		return fmt.Errorf("%w: discovery timeout %v", ErrInvalidConfig, c.Discovery.Timeout)
	}
	if c.Discovery.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval %v", ErrInvalidConfig, c.Discovery.PollInterval)
	}
	if c.Pairing.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout %v", ErrInvalidConfig, c.Pairing.RequestTimeout)
	}
	if _, err := c.PairingMethod(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// PairingMethod returns the configured Pair-Setup method.
func (c *Config) PairingMethod() (pairing.Method, error) {
	if c.Pairing.Method == "" {
		return pairing.MethodPairSetupWithAuth, nil
	}
	return pairing.ParseMethod(c.Pairing.Method)
}

// ParseLogLevel maps a level name to a pion log level.
func ParseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "trace":
		return logging.LogLevelTrace, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "error":
		return logging.LogLevelError, nil
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
}

// LoggerFactory builds a logger factory at the configured level.
func (c *Config) LoggerFactory() logging.LoggerFactory {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = logging.LogLevelInfo
	}
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level
	return f
}

// DiscovererConfig returns the discovery.Config for these settings.
func (c *Config) DiscovererConfig(lf logging.LoggerFactory) discovery.Config {
	return discovery.Config{
		Timeout:       c.Discovery.Timeout,
		PollInterval:  c.Discovery.PollInterval,
		LoggerFactory: lf,
	}
}

// DiscoveryOptions returns the per-call options for these settings.
func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		Timeout:  c.Discovery.Timeout,
		IPv4Only: c.Discovery.IPv4Only,
	}
}

// PairerConfig returns the pairing.PairerConfig for these settings.
func (c *Config) PairerConfig(s store.Storage, lf logging.LoggerFactory) (pairing.PairerConfig, error) {
	method, err := c.PairingMethod()
	if err != nil {
		return pairing.PairerConfig{}, err
	}
	return pairing.PairerConfig{
		Method:         method,
		MethodSet:      true,
		RequestTimeout: c.Pairing.RequestTimeout,
		Storage:        s,
		LoggerFactory:  lf,
	}, nil
}

// OpenStore opens the configured pairing store, or a memory store when no
// path is set.
func (c *Config) OpenStore(lf logging.LoggerFactory) (store.Storage, error) {
	if c.StorePath == "" {
		return store.NewMemoryStorage(), nil
	}
	fs, err := store.OpenFileStorage(store.FileStorageConfig{
		Path:          expandHome(c.StorePath),
		LoggerFactory: lf,
	})
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
