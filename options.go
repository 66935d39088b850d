package nodepoll

import (
	"errors"
	"log/slog"
	"time"
)

// pollerConfig holds mutable state during Poller construction.
type pollerConfig struct {
	nodes              []Node
	pollPeriod         time.Duration
	tickInterval       time.Duration
	maxConcurrentPulls int
	requestTimeout     time.Duration
	port               int
	logger             *slog.Logger
	reportCallbacks    []func(ResourceReport)
}

// Option is a function that configures a [Poller] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithNode], [WithNodes], [WithPollPeriod],
// [WithTickInterval], [WithMaxConcurrentPulls], [WithRequestTimeout],
// [WithPort], [WithLogger], [WithReportCallback].
type Option func(*pollerConfig) error

// WithNode adds a single [Node] to the initial cluster membership.
//
// Can be called multiple times. Starting with no nodes is valid; nodes can
// join later through [Poller.AddNode] or the HTTP membership API.
func WithNode(n Node) Option {
	return func(cfg *pollerConfig) error {
		cfg.nodes = append(cfg.nodes, n)
		return nil
	}
}

// WithNodes adds multiple [Node] values to the initial cluster membership.
//
// This is a convenience function equivalent to calling [WithNode] multiple
// times.
func WithNodes(nodes ...Node) Option {
	return func(cfg *pollerConfig) error {
		cfg.nodes = append(cfg.nodes, nodes...)
		return nil
	}
}

// WithPollPeriod sets the minimum interval between two pulls of the same
// node.
//
// After a pull completes, the node is not pulled again before the period
// has elapsed. Defaults to 10 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithPollPeriod(d time.Duration) Option {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return errors.New("poll period must be positive")
		}
		cfg.pollPeriod = d
		return nil
	}
}

// WithTickInterval sets the interval of the scheduler's periodic drain.
//
// The tick is independent of any single node's due time; it exists so that
// nodes becoming due are picked up promptly even when no pull completion
// or membership event triggers a drain. Defaults to 250 milliseconds.
//
// Returns an error if the duration is zero or negative.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return errors.New("tick interval must be positive")
		}
		cfg.tickInterval = d
		return nil
	}
}

// WithMaxConcurrentPulls sets the upper bound on simultaneously in-flight
// report requests.
//
// At most this many pulls are ever outstanding across the whole node
// population, regardless of cluster size. Defaults to 50 if not specified.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrentPulls(n int) Option {
	return func(cfg *pollerConfig) error {
		if n <= 0 {
			return errors.New("max concurrent pulls must be positive")
		}
		cfg.maxConcurrentPulls = n
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout for report pulls.
//
// A node agent that does not answer within the timeout fails that pull and
// frees its concurrency slot; the node stays in rotation. Defaults to 5
// seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *pollerConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithPort sets the HTTP port for the resource view and membership API.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *pollerConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Poller instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pollerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithReportCallback registers a function to be called on every successful
// pull.
//
// The callback receives a [ResourceReport] after the cluster view has been
// updated. Multiple callbacks may be registered by calling
// WithReportCallback multiple times; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. They run on pull completion
// goroutines, and long-running work should be dispatched elsewhere.
//
// Panics within callbacks are recovered and logged with a correlation id;
// they do not crash the scheduler.
//
// Nil callbacks are silently ignored.
func WithReportCallback(cb func(ResourceReport)) Option {
	return func(cfg *pollerConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.reportCallbacks = append(cfg.reportCallbacks, cb)
		return nil
	}
}
