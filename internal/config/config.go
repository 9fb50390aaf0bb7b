// Package config loads zenstory settings from an optional YAML file with
// environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/zenstory/internal/llm"
)

// Dir is the per-user directory holding the database and config file.
const Dir = ".zenstory"

// Endpoints are the base URLs of every upstream service. Tests point them at
// httptest servers.
type Endpoints struct {
	IPAPI         string `yaml:"ipapi"`
	Planets       string `yaml:"planets"`
	Arcsecond     string `yaml:"arcsecond"`
	SkyView       string `yaml:"skyview"`
	SDSS          string `yaml:"sdss"`
	Hubble        string `yaml:"hubble"`
	Wikimedia     string `yaml:"wikimedia"`
	APOD          string `yaml:"apod"`
	FallbackImage string `yaml:"fallback_image"`
}

type Keys struct {
	Gemini    string `yaml:"gemini"`
	Arcsecond string `yaml:"arcsecond"`
	NASA      string `yaml:"nasa"`
}

// Scoring holds the celestial selection weights.
type Scoring struct {
	SpecialEvent      int     `yaml:"special_event"`
	EphemerisStar     int     `yaml:"ephemeris_star"`
	PlanetBonus       int     `yaml:"planet_bonus"`
	IconicBonus       int     `yaml:"iconic_bonus"`
	Novelty           int     `yaml:"novelty"`
	NoveltyWindowDays int     `yaml:"novelty_window_days"`
	MinAltitude       float64 `yaml:"min_altitude"`
	EphemerisLimit    int     `yaml:"ephemeris_limit"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type RateLimit struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
	// TrustProxy keys clients by X-Forwarded-For instead of the peer address.
	TrustProxy bool `yaml:"trust_proxy"`
}

// Bedtime mirrors the reminder settings shown to parents.
type Bedtime struct {
	Hour                 int `yaml:"hour"`
	ReminderMinutes      int `yaml:"reminder_minutes"`
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`
}

type LLM struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Endpoint   string `yaml:"endpoint"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	MaxRetries *int   `yaml:"max_retries"`
	LogCalls   bool   `yaml:"log_calls"`
}

type Config struct {
	DBPath          string    `yaml:"db_path"`
	Addr            string    `yaml:"addr"`
	CORSOrigins     []string  `yaml:"cors_origins"`
	Log             Log       `yaml:"log"`
	RateLimit       RateLimit `yaml:"rate_limit"`
	Keys            Keys      `yaml:"keys"`
	Endpoints       Endpoints `yaml:"endpoints"`
	Scoring         Scoring   `yaml:"scoring"`
	Bedtime         Bedtime   `yaml:"bedtime"`
	LLM             LLM       `yaml:"llm"`
	CacheTTLSeconds int       `yaml:"cache_ttl_seconds"`
	HTTPTimeoutSecs int       `yaml:"http_timeout_seconds"`
	RetryDelayMs    int       `yaml:"retry_delay_ms"`
	FunFactsLLM     bool      `yaml:"fun_facts_llm"`

	// Path is the file the config was read from, empty when none existed.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath: defaultDBPath(),
		Addr:   ":7860",
		Log:    Log{Level: "info"},
		RateLimit: RateLimit{
			Requests:      10,
			WindowSeconds: 60,
		},
		Endpoints: Endpoints{
			IPAPI:         "https://ipapi.co/json/",
			Planets:       "https://api.visibleplanets.dev/v3",
			Arcsecond:     "https://api.arcsecond.io/objects",
			SkyView:       "https://skyview.gsfc.nasa.gov/current/cgi/pskcall",
			SDSS:          "https://skyserver.sdss.org/dr16/SkyServerWS/ImgCutout/getjpeg",
			Hubble:        "https://hubblesite.org/api/v3/images",
			Wikimedia:     "https://commons.wikimedia.org/w/api.php",
			APOD:          "https://api.nasa.gov/planetary/apod",
			FallbackImage: "https://images.unsplash.com/photo-1419242902214-272b3f66ee7a?w=1200",
		},
		Keys: Keys{NASA: "DEMO_KEY"},
		Scoring: Scoring{
			SpecialEvent:      100,
			EphemerisStar:     80,
			PlanetBonus:       0,
			IconicBonus:       0,
			Novelty:           20,
			NoveltyWindowDays: 7,
			MinAltitude:       30,
			EphemerisLimit:    10,
		},
		Bedtime: Bedtime{
			Hour:                 21,
			ReminderMinutes:      15,
			CheckIntervalSeconds: 300,
		},
		CacheTTLSeconds: 3600,
		HTTPTimeoutSecs: 30,
		RetryDelayMs:    1000,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(Dir, "zenstory.db")
	}
	return filepath.Join(home, Dir, "zenstory.db")
}

// DefaultPath is ZENSTORY_CONFIG, or ~/.zenstory/config.yaml.
func DefaultPath() string {
	if v := os.Getenv("ZENSTORY_CONFIG"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(Dir, "config.yaml")
	}
	return filepath.Join(home, Dir, "config.yaml")
}

// Load builds the configuration: defaults, then the YAML file at path when it
// exists, then environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			cfg.Path = path
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ZENSTORY_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("ZENSTORY_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("ZENSTORY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Keys.Gemini = v
	}
	if v := os.Getenv("ARCSECOND_API_KEY"); v != "" {
		c.Keys.Arcsecond = v
	}
	if v := os.Getenv("NASA_API_KEY"); v != "" {
		c.Keys.NASA = v
	}
	if v := os.Getenv("ZENSTORY_TRUST_PROXY"); v != "" {
		c.RateLimit.TrustProxy, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("ZENSTORY_FUN_FACTS_LLM"); v != "" {
		c.FunFactsLLM, _ = strconv.ParseBool(v)
	}
}

func (c *Config) validate() error {
	if c.Bedtime.Hour < 0 || c.Bedtime.Hour > 23 {
		return fmt.Errorf("bedtime.hour must be in [0,23], got %d", c.Bedtime.Hour)
	}
	if c.RateLimit.Requests < 0 || c.RateLimit.WindowSeconds < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache_ttl_seconds must not be negative")
	}
	if p := c.LLMConfig().Provider; !p.Valid() {
		return fmt.Errorf("llm.provider %q is not one of gemini, ollama", p)
	}
	return nil
}

// LLMConfig resolves the llm package configuration: its defaults, then the
// file's llm section and key, then the ZENSTORY_LLM_* environment.
func (c *Config) LLMConfig() llm.LLMConfig {
	cfg := llm.DefaultConfig()
	if c.LLM.Provider != "" {
		cfg.Provider = llm.Provider(c.LLM.Provider)
	}
	if c.LLM.Model != "" {
		cfg.Model = c.LLM.Model
	}
	if c.LLM.Endpoint != "" {
		cfg.Endpoint = c.LLM.Endpoint
	}
	if c.LLM.TimeoutMs > 0 {
		cfg.TimeoutMs = c.LLM.TimeoutMs
	}
	if c.LLM.MaxRetries != nil {
		cfg.MaxRetries = *c.LLM.MaxRetries
	}
	cfg.LogCalls = c.LLM.LogCalls
	cfg.APIKey = c.Keys.Gemini
	llm.ApplyEnv(&cfg)
	return cfg
}

func (c *Config) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSeconds) * time.Second }

func (c *Config) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSecs) * time.Second }

func (c *Config) RetryDelay() time.Duration { return time.Duration(c.RetryDelayMs) * time.Millisecond }

func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
