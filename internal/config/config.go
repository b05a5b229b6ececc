package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/helium-dev/helium/internal/errors"
	"github.com/helium-dev/helium/pkg/router"
	"github.com/helium-dev/helium/pkg/server"
)

// Configuration file names, in lookup order.
const (
	JSONFileName = "helium.json"
	YAMLFileName = "helium.yaml"
	YMLFileName  = "helium.yml"
)

const (
	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultPagesDir is the default pages directory.
	DefaultPagesDir = "pages"
)

// FileNames lists the configuration file names Load looks for.
var FileNames = []string{JSONFileName, YAMLFileName, YMLFileName}

// Config is the contents of helium.json or helium.yaml.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Server contains HTTP server settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Pages contains page discovery settings.
	Pages PagesConfig `json:"pages" yaml:"pages"`

	// RPC contains procedure call settings.
	RPC RPCConfig `json:"rpc" yaml:"rpc"`

	// Log contains logging settings.
	Log LogConfig `json:"log" yaml:"log"`

	configPath string
	dir        string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to. Empty binds all interfaces.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	RPCPath     string `json:"rpcPath,omitempty" yaml:"rpcPath,omitempty"`
	WSPath      string `json:"wsPath,omitempty" yaml:"wsPath,omitempty"`
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	// ShutdownTimeout is a duration such as "30s".
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// TrustProxyHeaders takes client addresses from proxy headers.
	TrustProxyHeaders bool `json:"trustProxyHeaders,omitempty" yaml:"trustProxyHeaders,omitempty"`
}

// PagesConfig contains page discovery settings.
type PagesConfig struct {
	// Dir is the pages directory, relative to the config file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Extensions are the page file extensions.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// Manifest is a route manifest file path or s3:// URL. When set, serve
	// loads routes from it instead of scanning Dir.
	Manifest string `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// RPCConfig contains procedure call settings.
type RPCConfig struct {
	// Timeout bounds each call, e.g. "10s". Empty means no deadline.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// MaxRequestBytes limits one request envelope.
	MaxRequestBytes int64 `json:"maxRequestBytes,omitempty" yaml:"maxRequestBytes,omitempty"`

	// MaxInFlight limits concurrent calls per WebSocket connection.
	MaxInFlight int `json:"maxInFlight,omitempty" yaml:"maxInFlight,omitempty"`

	// RateLimit limits calls per remote host. Zero disables it.
	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
}

// RateLimitConfig is a token bucket per remote host.
type RateLimitConfig struct {
	RPS   float64 `json:"rps,omitempty" yaml:"rps,omitempty"`
	Burst int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// Enabled reports whether rate limiting is configured.
func (r RateLimitConfig) Enabled() bool {
	return r.RPS > 0 && r.Burst > 0
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	d := server.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			RPCPath:         d.RPCPath,
			WSPath:          d.WSPath,
			MetricsPath:     d.MetricsPath,
			ShutdownTimeout: d.ShutdownTimeout.String(),
		},
		Pages: PagesConfig{
			Dir:        DefaultPagesDir,
			Extensions: append([]string(nil), router.DefaultExtensions...),
		},
		RPC: RPCConfig{
			MaxRequestBytes: 1 << 20,
			MaxInFlight:     64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Default returns the defaults for a project in dir that has no
// configuration file.
func Default(dir string) *Config {
	c := New()
	c.dir = dir
	return c
}

// Load reads the configuration file in dir, trying FileNames in order.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("H020").
		WithDetail("No helium.json or helium.yaml found in " + dir)
}

// LoadFile reads configuration from path. The format follows the extension:
// .yaml and .yml are YAML, anything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("H020").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("H021").Wrap(err)
	}

	cfg := New()
	if err := decode(path, data, cfg); err != nil {
		return nil, errors.New("H021").
			WithLocation(path, 0, 0).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return err
		}
		return nil
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return c.dir
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.RPCPath == "" {
		c.Server.RPCPath = d.Server.RPCPath
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = d.Server.WSPath
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Pages.Dir == "" {
		c.Pages.Dir = d.Pages.Dir
	}
	if len(c.Pages.Extensions) == 0 {
		c.Pages.Extensions = d.Pages.Extensions
	}
	if c.RPC.MaxRequestBytes == 0 {
		c.RPC.MaxRequestBytes = d.RPC.MaxRequestBytes
	}
	if c.RPC.MaxInFlight == 0 {
		c.RPC.MaxInFlight = d.RPC.MaxInFlight
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks ports, durations, paths and limits. Every problem is
// listed in the returned error's detail.
func (c *Config) Validate() error {
	var errs error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port))
	}
	if _, err := parseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("server.shutdownTimeout: %w", err))
	}
	if _, err := parseDuration(c.RPC.Timeout); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("rpc.timeout: %w", err))
	}
	if c.RPC.MaxRequestBytes < 0 {
		errs = multierr.Append(errs, fmt.Errorf("rpc.maxRequestBytes must not be negative"))
	}
	if c.RPC.MaxInFlight < 0 {
		errs = multierr.Append(errs, fmt.Errorf("rpc.maxInFlight must not be negative"))
	}
	if c.RPC.RateLimit.RPS < 0 || c.RPC.RateLimit.Burst < 0 {
		errs = multierr.Append(errs, fmt.Errorf("rpc.rateLimit values must not be negative"))
	}
	for _, ext := range c.Pages.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = multierr.Append(errs, fmt.Errorf("pages.extensions: %q must start with \".\"", ext))
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if sc, err := c.serverConfig(); err == nil {
		errs = multierr.Append(errs, sc.Validate())
	}

	if errs == nil {
		return nil
	}
	lines := make([]string, 0, 4)
	for _, e := range multierr.Errors(errs) {
		lines = append(lines, "- "+e.Error())
	}
	he := errors.New("H022").WithDetail(strings.Join(lines, "\n")).Wrap(errs)
	if c.configPath != "" {
		he.WithLocation(c.configPath, 0, 0)
	}
	return he
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ServerConfig converts the server section for server.New.
func (c *Config) ServerConfig() (*server.Config, error) {
	sc, err := c.serverConfig()
	if err != nil {
		return nil, errors.New("H022").Wrap(err)
	}
	return sc, nil
}

func (c *Config) serverConfig() (*server.Config, error) {
	shutdown, err := parseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("server.shutdownTimeout: %w", err)
	}
	sc := server.DefaultConfig()
	sc.Address = c.Address()
	if c.Server.RPCPath != "" {
		sc.RPCPath = c.Server.RPCPath
	}
	if c.Server.WSPath != "" {
		sc.WSPath = c.Server.WSPath
	}
	sc.MetricsPath = c.Server.MetricsPath
	sc.TrustProxyHeaders = c.Server.TrustProxyHeaders
	if shutdown > 0 {
		sc.ShutdownTimeout = shutdown
	}
	return sc, nil
}

// CallTimeout returns rpc.timeout, or zero when unset or invalid.
func (c *Config) CallTimeout() time.Duration {
	d, _ := parseDuration(c.RPC.Timeout)
	return d
}

// PagesPath returns the pages directory resolved against the config file.
func (c *Config) PagesPath() string {
	return c.resolve(c.Pages.Dir)
}

// ManifestLocation returns pages.manifest with file paths resolved against
// the config file. It is empty when no manifest is configured.
func (c *Config) ManifestLocation() string {
	m := c.Pages.Manifest
	if m == "" || strings.HasPrefix(m, "s3://") {
		return m
	}
	return c.resolve(m)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

// Exists reports whether dir contains a configuration file.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up from startDir to the first directory holding a
// configuration file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("H020").
				WithDetail("No helium.json or helium.yaml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the configuration of the project containing the
// working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
