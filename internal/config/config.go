package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/randomtoy/tarot-fan/internal/spread"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderNone       = "none"
)

type Config struct {
	HTTPAddr          string
	LogLevel          slog.Level
	LLMProvider       string
	LLMModel          string
	LLMFallbackModels []string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	LLMTimeout        time.Duration

	// SpreadFPS is the frame rate of every session's loop.
	SpreadFPS int
	Spread    spread.Config
}

func Load() (Config, error) {
	c := Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		LLMProvider:       envOr("LLM_PROVIDER", ProviderOpenRouter),
		LLMModel:          envOr("LLM_MODEL", "qwen/qwen3-4b:free"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMFallbackModels: parseFallbackModels(os.Getenv("LLM_FALLBACK_MODELS")),
		LLMTimeout:        10 * time.Second,
		SpreadFPS:         60,
		Spread:            spread.DefaultConfig(),
	}

	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LLM_TIMEOUT %q: %w", v, err)
		}
		c.LLMTimeout = d
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	switch c.LLMProvider {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return Config{}, fmt.Errorf("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
		}
	case ProviderNone:
	default:
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER %q", c.LLMProvider)
	}

	if err := loadSpread(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadSpread reads only the SPREAD_* variables. Hosts without an HTTP
// surface use it.
func LoadSpread() (spread.Config, int, error) {
	c := Config{SpreadFPS: 60, Spread: spread.DefaultConfig()}
	if err := loadSpread(&c); err != nil {
		return spread.Config{}, 0, err
	}
	return c.Spread, c.SpreadFPS, nil
}

func loadSpread(c *Config) error {
	if err := envInt("SPREAD_FPS", &c.SpreadFPS); err != nil {
		return err
	}
	if c.SpreadFPS < 1 || c.SpreadFPS > 240 {
		return fmt.Errorf("invalid SPREAD_FPS %d: must be between 1 and 240", c.SpreadFPS)
	}

	s := &c.Spread
	if err := envInt("SPREAD_MAX_SELECTED", &s.MaxSelected); err != nil {
		return err
	}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"SPREAD_FAN_ANGLE", &s.FanAngle},
		{"SPREAD_FAN_RADIUS", &s.FanRadius},
		{"SPREAD_PUSH_DISTANCE", &s.PushDistance},
		{"SPREAD_STAGGER", &s.Stagger},
		{"SPREAD_SPEED", &s.Speed},
		{"SPREAD_READING_ROW_RATIO", &s.ReadingRowRatio},
	} {
		if err := envFloat(f.key, f.dst); err != nil {
			return err
		}
	}
	if s.FanRadius <= 0 {
		return fmt.Errorf("invalid SPREAD_FAN_RADIUS %v: must be positive", s.FanRadius)
	}
	if s.Speed <= 0 || s.Speed > 1 {
		return fmt.Errorf("invalid SPREAD_SPEED %v: must be in (0, 1]", s.Speed)
	}
	if s.Stagger < 0 {
		return fmt.Errorf("invalid SPREAD_STAGGER %v: must not be negative", s.Stagger)
	}
	if s.ReadingRowRatio <= 0 || s.ReadingRowRatio >= 1 {
		return fmt.Errorf("invalid SPREAD_READING_ROW_RATIO %v: must be in (0, 1)", s.ReadingRowRatio)
	}

	if v := os.Getenv("SPREAD_REVERSIBLE_FLIP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SPREAD_REVERSIBLE_FLIP %q: %w", v, err)
		}
		s.ReversibleFlip = b
	}

	c.Spread = s.Normalize()
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = f
	return nil
}

func parseFallbackModels(s string) []string {
	if s == "" {
		return nil
	}
	var models []string
	for _, m := range strings.Split(s, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			models = append(models, m)
		}
	}
	return models
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
