package config_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/randomtoy/tarot-fan/internal/config"
	"github.com/randomtoy/tarot-fan/internal/spread"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	c, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("unexpected addr: %s", c.HTTPAddr)
	}
	if c.LogLevel != slog.LevelInfo {
		t.Errorf("unexpected log level: %v", c.LogLevel)
	}
	if c.LLMProvider != config.ProviderOpenRouter {
		t.Errorf("unexpected provider: %s", c.LLMProvider)
	}
	if c.LLMTimeout != 10*time.Second {
		t.Errorf("unexpected timeout: %v", c.LLMTimeout)
	}
	if c.SpreadFPS != 60 {
		t.Errorf("unexpected fps: %d", c.SpreadFPS)
	}
	if c.Spread != spread.DefaultConfig() {
		t.Errorf("spread config should default: %+v", c.Spread)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LLM_FALLBACK_MODELS", " a/b , ,c/d ")
	t.Setenv("SPREAD_FPS", "30")
	t.Setenv("SPREAD_MAX_SELECTED", "5")
	t.Setenv("SPREAD_FAN_ANGLE", "90")
	t.Setenv("SPREAD_FAN_RADIUS", "500")
	t.Setenv("SPREAD_PUSH_DISTANCE", "25")
	t.Setenv("SPREAD_STAGGER", "0")
	t.Setenv("SPREAD_SPEED", "0.1")
	t.Setenv("SPREAD_READING_ROW_RATIO", "0.2")
	t.Setenv("SPREAD_REVERSIBLE_FLIP", "true")

	c, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.LogLevel != slog.LevelDebug {
		t.Errorf("unexpected log level: %v", c.LogLevel)
	}
	if len(c.LLMFallbackModels) != 2 || c.LLMFallbackModels[1] != "c/d" {
		t.Errorf("unexpected fallback models: %v", c.LLMFallbackModels)
	}
	s := c.Spread
	if c.SpreadFPS != 30 || s.MaxSelected != 5 || s.FanAngle != 90 || s.FanRadius != 500 ||
		s.PushDistance != 25 || s.Stagger != 0 || s.Speed != 0.1 || s.ReadingRowRatio != 0.2 || !s.ReversibleFlip {
		t.Errorf("overrides not applied: fps=%d %+v", c.SpreadFPS, s)
	}
}

func TestLoad_MaxSelectedIsNormalized(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("SPREAD_MAX_SELECTED", "4")

	c, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Spread.MaxSelected != 2 {
		t.Errorf("expected fallback to 2, got %d", c.Spread.MaxSelected)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing api key", map[string]string{}, "OPENROUTER_API_KEY"},
		{"bad provider", map[string]string{"LLM_PROVIDER": "local"}, "LLM_PROVIDER"},
		{"bad log level", map[string]string{"LLM_PROVIDER": "none", "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad timeout", map[string]string{"LLM_PROVIDER": "none", "LLM_TIMEOUT": "soon"}, "LLM_TIMEOUT"},
		{"bad fps", map[string]string{"LLM_PROVIDER": "none", "SPREAD_FPS": "0"}, "SPREAD_FPS"},
		{"bad fps syntax", map[string]string{"LLM_PROVIDER": "none", "SPREAD_FPS": "fast"}, "SPREAD_FPS"},
		{"bad radius", map[string]string{"LLM_PROVIDER": "none", "SPREAD_FAN_RADIUS": "-1"}, "SPREAD_FAN_RADIUS"},
		{"bad speed", map[string]string{"LLM_PROVIDER": "none", "SPREAD_SPEED": "2"}, "SPREAD_SPEED"},
		{"bad stagger", map[string]string{"LLM_PROVIDER": "none", "SPREAD_STAGGER": "-0.1"}, "SPREAD_STAGGER"},
		{"bad reading row", map[string]string{"LLM_PROVIDER": "none", "SPREAD_READING_ROW_RATIO": "1.5"}, "SPREAD_READING_ROW_RATIO"},
		{"bad angle", map[string]string{"LLM_PROVIDER": "none", "SPREAD_FAN_ANGLE": "wide"}, "SPREAD_FAN_ANGLE"},
		{"bad flip", map[string]string{"LLM_PROVIDER": "none", "SPREAD_REVERSIBLE_FLIP": "maybe"}, "SPREAD_REVERSIBLE_FLIP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENROUTER_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestLoadSpread(t *testing.T) {
	t.Setenv("SPREAD_MAX_SELECTED", "3")

	cfg, fps, err := config.LoadSpread()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxSelected != 3 || fps != 60 {
		t.Errorf("unexpected spread config: max=%d fps=%d", cfg.MaxSelected, fps)
	}
}
