// Package config loads the runtime configuration from a YAML file with
// environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AIConfig points at the chat-completion service.
type AIConfig struct {
	APIKey string `yaml:"api_key"`
	APIURL string `yaml:"api_url"`
	Model  string `yaml:"model"`
}

// CommentaryConfig tunes the live narration behavior.
type CommentaryConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Mode              string `yaml:"mode"` // by_cards or by_turn_end
	Frequency         int    `yaml:"frequency"`
	CardThreshold     int    `yaml:"card_threshold"`
	CooldownMillis    int    `yaml:"cooldown_millis"`
	DisplaySeconds    int    `yaml:"display_seconds"`
	IntroduceMonsters bool   `yaml:"introduce_monsters"`
	DetailedIntro     bool   `yaml:"detailed_intro"`
	KeepHistory       bool   `yaml:"keep_history"`
}

// VoiceConfig tunes speech synthesis and playback.
type VoiceConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Endpoint string  `yaml:"endpoint"`
	Volume   float64 `yaml:"volume"`
	CacheDir string  `yaml:"cache_dir"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// APIConfig configures the status HTTP server.
type APIConfig struct {
	Listen   string `yaml:"listen"`
	AdminKey string `yaml:"admin_key"`
}

// Config is the full runtime configuration.
type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Commentary CommentaryConfig `yaml:"commentary"`
	Voice      VoiceConfig      `yaml:"voice"`
	Store      StoreConfig      `yaml:"store"`
	API        APIConfig        `yaml:"api"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		AI: AIConfig{
			APIURL: "https://api.openai.com/v1/chat/completions",
			Model:  "gpt-4o-mini",
		},
		Commentary: CommentaryConfig{
			Enabled:           true,
			Mode:              "by_cards",
			Frequency:         1,
			CardThreshold:     3,
			CooldownMillis:    3000,
			DisplaySeconds:    4,
			IntroduceMonsters: true,
			KeepHistory:       true,
		},
		Voice: VoiceConfig{
			Enabled:  false,
			Volume:   0.7,
			CacheDir: "voice_cache",
		},
		Store: StoreConfig{
			Path: "slaycast.db",
		},
		API: APIConfig{
			Listen: ":8790",
		},
	}
}

// Load reads a YAML config file on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
			slog.Info("config file not found, using defaults", "path", path)
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Validate()
	return cfg, nil
}

// applyEnv lets deployment secrets override file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("SLAYCAST_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("SLAYCAST_API_URL"); v != "" {
		c.AI.APIURL = v
	}
	if v := os.Getenv("SLAYCAST_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("SLAYCAST_TTS_ENDPOINT"); v != "" {
		c.Voice.Endpoint = v
		c.Voice.Enabled = true
	}
	if v := os.Getenv("SLAYCAST_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SLAYCAST_LISTEN"); v != "" {
		c.API.Listen = v
	}
	if v := os.Getenv("SLAYCAST_VOLUME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Voice.Volume = f
		}
	}
}

// Validate normalizes out-of-range values in place, logging each fixup
// rather than rejecting the config.
func (c *Config) Validate() {
	if c.Commentary.Frequency < 1 {
		slog.Warn("commentary frequency below 1, using 1", "value", c.Commentary.Frequency)
		c.Commentary.Frequency = 1
	}
	if c.Commentary.Frequency > 10 {
		slog.Warn("commentary frequency unusually high", "value", c.Commentary.Frequency)
	}
	if c.Commentary.CardThreshold < 1 {
		slog.Warn("card threshold below 1, using 3", "value", c.Commentary.CardThreshold)
		c.Commentary.CardThreshold = 3
	}
	if c.Commentary.CooldownMillis <= 0 {
		slog.Warn("cooldown not positive, using 3000ms", "value", c.Commentary.CooldownMillis)
		c.Commentary.CooldownMillis = 3000
	}
	if c.Commentary.DisplaySeconds <= 0 {
		slog.Warn("display duration not positive, using 4s", "value", c.Commentary.DisplaySeconds)
		c.Commentary.DisplaySeconds = 4
	}
	switch c.Commentary.Mode {
	case "by_cards", "by_turn_end":
	default:
		slog.Warn("unknown commentary mode, using by_cards", "mode", c.Commentary.Mode)
		c.Commentary.Mode = "by_cards"
	}
	if c.Voice.Volume < 0 {
		slog.Warn("voice volume below 0, clamping", "value", c.Voice.Volume)
		c.Voice.Volume = 0
	}
	if c.Voice.Volume > 1 {
		slog.Warn("voice volume above 1, clamping", "value", c.Voice.Volume)
		c.Voice.Volume = 1
	}
	if c.Voice.Enabled && c.Voice.Endpoint == "" {
		slog.Warn("voice enabled without an endpoint, disabling")
		c.Voice.Enabled = false
	}
}
