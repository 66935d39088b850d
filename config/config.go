// Package config provides YAML configuration parsing for nodepoll.
//
// This package enables running nodepoll as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	poll_period: 10s
//	tick_interval: 250ms
//	max_concurrent_pulls: 50
//	request_timeout: 5s
//
//	nodes:
//	  - id: node-1
//	    host: 10.0.0.1
//	    port: 9090
//	  - host: ${WORKER_HOST:-10.0.0.2}
//	    port: 9090
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minPollPeriod is the minimum allowed poll period for production configs.
// This prevents accidental DoS of node agents with overly aggressive polling.
const minPollPeriod = 100 * time.Millisecond

// minTickInterval keeps the scheduler's drain loop from spinning.
const minTickInterval = 10 * time.Millisecond

// maxConcurrentPullsLimit is a sanity cap on the admission bound.
const maxConcurrentPullsLimit = 10000

// Config is the root configuration structure for nodepoll.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP server port for the resource view and membership
	// API. Defaults to 8080.
	Port int `yaml:"port"`

	// PollPeriod is the minimum interval between two pulls of the same
	// node. Accepts duration strings like "10s", "1m", "500ms".
	// Defaults to 10s.
	PollPeriod Duration `yaml:"poll_period"`

	// TickInterval is the interval of the scheduler's periodic drain.
	// Defaults to 250ms.
	TickInterval Duration `yaml:"tick_interval"`

	// MaxConcurrentPulls bounds how many report requests may be in flight
	// simultaneously across the whole cluster. Defaults to 50.
	MaxConcurrentPulls int `yaml:"max_concurrent_pulls"`

	// RequestTimeout is the per-request timeout for report pulls.
	// Defaults to 5s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// Nodes is the initial cluster membership. May be empty; nodes can
	// also join at runtime through the membership API.
	Nodes []NodeConfig `yaml:"nodes"`
}

// NodeConfig declares one worker node and its agent endpoint.
type NodeConfig struct {
	// ID is the node's stable unique identifier. If empty, an id is
	// generated when the node set is built.
	ID string `yaml:"id"`

	// Host is the node agent's hostname or IP address.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Host string `yaml:"host"`

	// Port is the node agent's TCP port.
	Port int `yaml:"port"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in node host values. Defaults are
// applied for Port (8080), PollPeriod (10s), TickInterval (250ms),
// MaxConcurrentPulls (50), and RequestTimeout (5s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.PollPeriod == 0 {
		cfg.PollPeriod = Duration(10 * time.Second)
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = Duration(250 * time.Millisecond)
	}
	if cfg.MaxConcurrentPulls == 0 {
		cfg.MaxConcurrentPulls = 50
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Duration(5 * time.Second)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollPeriod.Duration() < minPollPeriod {
		return fmt.Errorf("poll_period must be at least %s, got %s", minPollPeriod, c.PollPeriod.Duration())
	}

	if c.TickInterval.Duration() < minTickInterval {
		return fmt.Errorf("tick_interval must be at least %s, got %s", minTickInterval, c.TickInterval.Duration())
	}
	if c.TickInterval.Duration() > c.PollPeriod.Duration() {
		return fmt.Errorf("tick_interval (%s) must not exceed poll_period (%s)",
			c.TickInterval.Duration(), c.PollPeriod.Duration())
	}

	if c.MaxConcurrentPulls < 1 || c.MaxConcurrentPulls > maxConcurrentPullsLimit {
		return fmt.Errorf("max_concurrent_pulls must be between 1 and %d, got %d",
			maxConcurrentPullsLimit, c.MaxConcurrentPulls)
	}

	if c.RequestTimeout.Duration() <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Duration())
	}

	seen := make(map[string]int, len(c.Nodes))
	for i := range c.Nodes {
		nc := &c.Nodes[i]

		if nc.Host == "" {
			return fmt.Errorf("nodes[%d]: host is required", i)
		}
		expanded, err := expandEnvVars(nc.Host)
		if err != nil {
			return fmt.Errorf("nodes[%d]: host: %w", i, err)
		}
		nc.Host = expanded

		if nc.Port < 1 || nc.Port > 65535 {
			return fmt.Errorf("nodes[%d] (%s): port must be between 1 and 65535, got %d", i, nc.Host, nc.Port)
		}

		if nc.ID != "" {
			if prev, dup := seen[nc.ID]; dup {
				return fmt.Errorf("nodes[%d]: duplicate node id %q (also used by nodes[%d])", i, nc.ID, prev)
			}
			seen[nc.ID] = i
		}
	}

	return nil
}
