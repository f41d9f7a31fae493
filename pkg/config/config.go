package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/openmined/arfsync/internal/db"
	"github.com/openmined/arfsync/internal/utils"
	"github.com/openmined/arfsync/pkg/download"
	"github.com/openmined/arfsync/pkg/localtree"
	"github.com/openmined/arfsync/pkg/localwrite"
	"github.com/openmined/arfsync/pkg/logging"
	"github.com/openmined/arfsync/pkg/manifest"
	"github.com/spf13/viper"
)

const (
	EnvPrefix                 = "ARFSYNC"
	DefaultResolveConcurrency = 4
)

var (
	home, _          = os.UserHomeDir()
	DefaultIndexPath = filepath.Join(home, ".arfsync", "index.db")
)

type Config struct {
	Encrypted          bool     `mapstructure:"encrypted" json:"encrypted"`
	ConflictPolicy     string   `mapstructure:"conflict_policy" json:"conflict_policy"`
	GatewayURL         string   `mapstructure:"gateway_url" json:"gateway_url"`
	ManifestName       string   `mapstructure:"manifest_name" json:"manifest_name"`
	ResolveConcurrency int      `mapstructure:"resolve_concurrency" json:"resolve_concurrency"`
	ExcludedNames      []string `mapstructure:"excluded_names" json:"excluded_names,omitempty"`
	IndexDBPath        string   `mapstructure:"index_db_path" json:"index_db_path"`
	LogLevel           string   `mapstructure:"log_level" json:"log_level"`

	// set by Validate
	Policy localwrite.Policy `mapstructure:"-" json:"-"`
	Level  slog.Level        `mapstructure:"-" json:"-"`
	Path   string            `mapstructure:"-" json:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("encrypted", false)
	v.SetDefault("conflict_policy", localwrite.DefaultPolicy.String())
	v.SetDefault("gateway_url", manifest.DefaultGateway)
	v.SetDefault("manifest_name", manifest.DefaultName)
	v.SetDefault("resolve_concurrency", DefaultResolveConcurrency)
	v.SetDefault("excluded_names", []string{})
	v.SetDefault("index_db_path", DefaultIndexPath)
	v.SetDefault("log_level", "info")
}

// Load reads the optional config file at path, applies ARFSYNC_* environment
// overrides and validates the result. The file format follows its extension.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes values in place and reports everything that is wrong.
func (c *Config) Validate() error {
	var errs []error

	policy, err := localwrite.ParsePolicy(c.ConflictPolicy)
	if err != nil {
		errs = append(errs, err)
	}
	c.Policy = policy
	c.ConflictPolicy = policy.String()

	if c.GatewayURL == "" {
		c.GatewayURL = manifest.DefaultGateway
	}
	if u, err := url.Parse(c.GatewayURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid gateway url %q", c.GatewayURL))
	}
	c.GatewayURL = strings.TrimRight(c.GatewayURL, "/")

	c.ManifestName = strings.TrimSpace(c.ManifestName)
	if c.ManifestName == "" {
		c.ManifestName = manifest.DefaultName
	}
	if strings.ContainsAny(c.ManifestName, `/\`) {
		errs = append(errs, fmt.Errorf("manifest name %q must not contain path separators", c.ManifestName))
	}

	if c.ResolveConcurrency == 0 {
		c.ResolveConcurrency = DefaultResolveConcurrency
	}
	if c.ResolveConcurrency < 0 {
		errs = append(errs, fmt.Errorf("resolve concurrency must be positive, got %d", c.ResolveConcurrency))
	}

	names := c.ExcludedNames[:0]
	for _, n := range c.ExcludedNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	c.ExcludedNames = names

	if c.IndexDBPath != db.MemoryPath {
		p, err := utils.ResolvePath(c.IndexDBPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("index db path: %w", err))
		}
		c.IndexDBPath = p
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	c.Level = level

	return errors.Join(errs...)
}

// Save writes the config as JSON to path.
func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// BuilderOptions configures a localtree.Builder from the config.
func (c *Config) BuilderOptions() []localtree.Option {
	opts := []localtree.Option{localtree.WithEncryption(c.Encrypted)}
	if len(c.ExcludedNames) > 0 {
		opts = append(opts, localtree.WithExcludedNames(c.ExcludedNames...))
	}
	return opts
}

// IndexOptions opens the remote index database at IndexDBPath.
func (c *Config) IndexOptions() []db.SqliteOption {
	return []db.SqliteOption{db.WithPath(c.IndexDBPath)}
}

// GatewaySource reads downloaded file data from GatewayURL.
func (c *Config) GatewaySource() *download.GatewaySource {
	return download.NewGatewaySource(c.GatewayURL)
}

func (c *Config) Logger(w io.Writer) *slog.Logger {
	return logging.New(w, logging.Options{Level: c.Level})
}

// LogValue keeps debug output compact.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("encrypted", c.Encrypted),
		slog.String("policy", c.ConflictPolicy),
		slog.String("gateway", c.GatewayURL),
		slog.Int("concurrency", c.ResolveConcurrency),
		slog.String("index", c.IndexDBPath),
	)
}
