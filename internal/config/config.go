package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Duration is a time.Duration written as "60s" or "800ms" in YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

type Articles struct {
	Count int   `yaml:"count"`
	Seed  int64 `yaml:"seed"`
}

type Delays struct {
	APIList   Duration `yaml:"api_list"`
	APIDetail Duration `yaml:"api_detail"`
	SSR       Duration `yaml:"ssr"`
	Mixed     Duration `yaml:"mixed"`
}

type ISR struct {
	TTL               Duration `yaml:"ttl"`
	RevalidateTimeout Duration `yaml:"revalidate_timeout"`
}

type Limits struct {
	List  int `yaml:"list"`
	Mixed int `yaml:"mixed"`
	Feed  int `yaml:"feed"`
}

type Client struct {
	BaseURL   string   `yaml:"base_url"`
	Timeout   Duration `yaml:"timeout"`
	RetryMax  int      `yaml:"retry_max"`
	UserAgent string   `yaml:"user_agent"`
}

type Config struct {
	Addr            string   `yaml:"addr"`
	Env             string   `yaml:"env"`
	LogLevel        string   `yaml:"log_level,omitempty"`
	Articles        Articles `yaml:"articles"`
	Delays          Delays   `yaml:"delays"`
	ISR             ISR      `yaml:"isr"`
	Limits          Limits   `yaml:"limits"`
	SweepInterval   Duration `yaml:"sweep_interval"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	Client          Client   `yaml:"client"`
}

// Production reports whether the config targets a production deployment.
func (c *Config) Production() bool { return c.Env == "production" }

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "rendermodes", "config.yaml")
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load layers the YAML file at path over the embedded defaults and applies
// environment overrides. An empty path means DefaultConfigPath; a missing
// file at the default path is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}
	if seed := os.Getenv("RENDERMODES_SEED"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("RENDERMODES_SEED: %w", err)
		}
		cfg.Articles.Seed = v
	}
	if base := os.Getenv("RENDERMODES_BASE_URL"); base != "" {
		cfg.Client.BaseURL = base
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return errors.New("addr is required")
	}
	if cfg.Articles.Count <= 0 {
		return fmt.Errorf("articles.count must be positive, got %d", cfg.Articles.Count)
	}
	for name, d := range map[string]Duration{
		"delays.api_list":        cfg.Delays.APIList,
		"delays.api_detail":      cfg.Delays.APIDetail,
		"delays.ssr":             cfg.Delays.SSR,
		"delays.mixed":           cfg.Delays.Mixed,
		"isr.revalidate_timeout": cfg.ISR.RevalidateTimeout,
		"sweep_interval":         cfg.SweepInterval,
		"shutdown_timeout":       cfg.ShutdownTimeout,
		"client.timeout":         cfg.Client.Timeout,
	} {
		if d.Duration < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	if cfg.ISR.TTL.Duration <= 0 {
		return fmt.Errorf("isr.ttl must be positive, got %s", cfg.ISR.TTL)
	}
	for name, n := range map[string]int{
		"limits.list":  cfg.Limits.List,
		"limits.mixed": cfg.Limits.Mixed,
		"limits.feed":  cfg.Limits.Feed,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, n)
		}
	}
	if cfg.Client.RetryMax < 0 {
		return fmt.Errorf("client.retry_max must not be negative, got %d", cfg.Client.RetryMax)
	}
	u, err := url.Parse(cfg.Client.BaseURL)
	if err != nil {
		return fmt.Errorf("client.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("client.base_url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}
