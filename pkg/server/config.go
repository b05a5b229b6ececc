package server

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Address is the address to listen on (e.g., ":3000" or "localhost:3000").
	// Default: ":3000".
	Address string

	// RPCPath is where request envelopes are POSTed.
	// Default: "/_helium/rpc".
	RPCPath string

	// WSPath is the WebSocket endpoint.
	// Default: "/_helium/ws".
	WSPath string

	// MetricsPath serves Prometheus metrics when a gatherer is configured.
	// Empty disables the endpoint.
	MetricsPath string

	// TrustProxyHeaders takes the client address from X-Forwarded-For,
	// X-Real-IP and True-Client-IP. Enable only behind a trusted proxy.
	TrustProxyHeaders bool

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout is the time allowed to read request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes.
	// Zero leaves long-running WebSocket connections unbounded.
	WriteTimeout time.Duration

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120 seconds.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":3000",
		RPCPath:           "/_helium/rpc",
		WSPath:            "/_helium/ws",
		MetricsPath:       "/metrics",
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
// MetricsPath is left as given.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.RPCPath == "" {
		out.RPCPath = d.RPCPath
	}
	if out.WSPath == "" {
		out.WSPath = d.WSPath
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	return &out
}

// Validate checks that endpoint paths are absolute and distinct and that
// timeouts are not negative.
func (c *Config) Validate() error {
	var errs []error

	paths := map[string]string{}
	for name, p := range map[string]string{"rpc": c.RPCPath, "ws": c.WSPath, "metrics": c.MetricsPath} {
		if p == "" && name == "metrics" {
			continue
		}
		if !strings.HasPrefix(p, "/") || p == "/" {
			errs = append(errs, fmt.Errorf("%s path %q must start with \"/\" and not be the root", name, p))
			continue
		}
		if other, ok := paths[p]; ok {
			errs = append(errs, fmt.Errorf("%s path %q is also used by %s", name, p, other))
			continue
		}
		paths[p] = name
	}

	for name, d := range map[string]time.Duration{
		"shutdown timeout":    c.ShutdownTimeout,
		"read header timeout": c.ReadHeaderTimeout,
		"read timeout":        c.ReadTimeout,
		"write timeout":       c.WriteTimeout,
		"idle timeout":        c.IdleTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}

	return multierr.Combine(errs...)
}
