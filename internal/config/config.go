package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Source describes one upstream feed.
type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // rss, hackernews, reddit, github-trending
	URL     string `yaml:"url"`
	Icon    string `yaml:"icon,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// LLMConfig selects the completion provider used for digest synthesis.
// Provider is the explicit dialect id ("groq", "openai", "anthropic");
// when empty the dialect is inferred from the API key prefix as a
// compatibility shim for older configs.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

type Config struct {
	CacheTTL    string     `yaml:"cache_ttl,omitempty"`
	Retention   string     `yaml:"retention,omitempty"`
	Port        int        `yaml:"port,omitempty"`
	DatabaseURL string     `yaml:"database_url,omitempty"`
	Sources     []Source   `yaml:"sources"`
	LLM         *LLMConfig `yaml:"llm,omitempty"`
}

// llmKeyEnvVars is the priority order for API key env fallbacks.
var llmKeyEnvVars = []string{"PULSE_LLM_KEY", "GROQ_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"}

// LLMKey returns the resolved API key (config value or env var), or "" if
// no key is configured anywhere.
func (c *Config) LLMKey() string {
	if c.LLM != nil && c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	for _, name := range llmKeyEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// LLMEnabled reports whether an API key is available for the LLM path.
func (c *Config) LLMEnabled() bool {
	return c.LLMKey() != ""
}

// LLMProvider returns the explicitly configured provider id, or "".
func (c *Config) LLMProvider() string {
	if c.LLM == nil {
		return ""
	}
	return c.LLM.Provider
}

// LLMModel returns the configured model override, or "".
func (c *Config) LLMModel() string {
	if c.LLM != nil && c.LLM.Model != "" {
		return c.LLM.Model
	}
	return os.Getenv("PULSE_LLM_MODEL")
}

// CacheTTLDuration returns the digest freshness window (default 4h).
func (c *Config) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 4 * time.Hour
	}
	return d
}

// RetentionDuration returns the history retention horizon (default 30d).
// Supports "Nd" day syntax in addition to time.ParseDuration forms.
func (c *Config) RetentionDuration() time.Duration {
	if c.Retention == "" {
		return 30 * 24 * time.Hour
	}
	if len(c.Retention) > 1 && c.Retention[len(c.Retention)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(c.Retention, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(c.Retention)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

// ServerPort returns the HTTP listen port (default 8080, PORT env wins).
func (c *Config) ServerPort() int {
	if p := os.Getenv("PORT"); p != "" {
		var port int
		if _, err := fmt.Sscanf(p, "%d", &port); err == nil && port > 0 {
			return port
		}
	}
	if c.Port > 0 {
		return c.Port
	}
	return 8080
}

// Database returns the postgres connection string, if any. When empty the
// digest cache falls back to local sqlite.
func (c *Config) Database() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return os.Getenv("DATABASE_URL")
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "ai-pulse", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "ai-pulse", "pulse.db")
}

func loadDefaults() (*Config, error) {
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

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "hackernews": true, "reddit": true, "github-trending": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, hackernews, reddit, github-trending)", s.Name, s.Type)
		}
	}
	if cfg.LLM != nil && cfg.LLM.Provider != "" {
		switch cfg.LLM.Provider {
		case "groq", "openai", "anthropic":
		default:
			return fmt.Errorf("llm: unknown provider %q (valid: groq, openai, anthropic)", cfg.LLM.Provider)
		}
	}
	return nil
}
