package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ServerArea selects the upstream network for the free Edge endpoint.
// Non-default areas dial a pinned IP instead of resolving DNS.
type ServerArea string

const (
	AreaDefault ServerArea = "default"
	AreaChina   ServerArea = "china"
	AreaChinaHK ServerArea = "china-hk"
	AreaChinaTW ServerArea = "china-tw"
)

func ParseServerArea(s string) (ServerArea, error) {
	switch ServerArea(s) {
	case AreaDefault, AreaChina, AreaChinaHK, AreaChinaTW:
		return ServerArea(s), nil
	}
	return AreaDefault, fmt.Errorf("unknown server area %q", s)
}

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	ServerArea ServerArea `env:"SERVER_AREA" envDefault:"default"`

	DisableEdgeAPI      bool `env:"DISABLE_EDGE_API"`
	DisablePreviewAPI   bool `env:"DISABLE_PREVIEW_API" envDefault:"true"`
	DisableSubscribeAPI bool `env:"DISABLE_SUBSCRIBE_API"`

	// Each entry is "{subscriptionKey},{region}". Entries are separated by
	// semicolons in the env var; the CLI flag is repeatable instead.
	SubscribeKeys []string `env:"SUBSCRIBE_KEYS" envSeparator:";"`

	// Optional shared secret gating /api/tts-ms-subscribe.
	SubscribeAuthToken string `env:"SUBSCRIBE_AUTH_TOKEN"`

	// Skip the online voice-list fetch and start from the embedded lists.
	NoVoiceListUpdate bool `env:"NO_VOICE_LIST_UPDATE"`

	SynthesisTimeout time.Duration `env:"SYNTHESIS_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogToFile bool   `env:"LOG_TO_FILE"`
	LogPath   string `env:"LOG_PATH" envDefault:"tts-engine.log"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile            string
	HTTPAddr           string
	ServerArea         string
	LogLevel           string
	LogPath            string
	LogToFile          bool
	DisableEdgeAPI     bool
	DisableSubAPI      bool
	SubscribeKeys      []string
	SubscribeAuthToken string
	NoVoiceListUpdate  bool
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.ServerArea != "" {
		area, err := ParseServerArea(overrides.ServerArea)
		if err != nil {
			return nil, err
		}
		cfg.ServerArea = area
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.LogPath != "" {
		cfg.LogPath = overrides.LogPath
	}
	if overrides.LogToFile {
		cfg.LogToFile = true
	}
	if overrides.DisableEdgeAPI {
		cfg.DisableEdgeAPI = true
	}
	if overrides.DisableSubAPI {
		cfg.DisableSubscribeAPI = true
	}
	if len(overrides.SubscribeKeys) > 0 {
		cfg.SubscribeKeys = overrides.SubscribeKeys
	}
	if overrides.SubscribeAuthToken != "" {
		cfg.SubscribeAuthToken = overrides.SubscribeAuthToken
	}
	if overrides.NoVoiceListUpdate {
		cfg.NoVoiceListUpdate = true
	}

	if _, err := ParseServerArea(string(cfg.ServerArea)); err != nil {
		return nil, err
	}
	if cfg.DisableEdgeAPI && cfg.DisablePreviewAPI && cfg.DisableSubscribeAPI {
		return nil, fmt.Errorf("all backends disabled: enable at least one API")
	}

	return cfg, nil
}
