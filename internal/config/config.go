// ABOUTME: TOML configuration for the companion client
// ABOUTME: Loads user overrides on top of built-in defaults
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig []byte

// SessionConfig names the remote session service and voice.
type SessionConfig struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Voice    string `toml:"voice"`
}

// AudioConfig fixes the capture and playback formats. Both directions
// are mono 16-bit PCM on the wire; only the rates differ.
type AudioConfig struct {
	InputSampleRate  int `toml:"input_sample_rate"`
	OutputSampleRate int `toml:"output_sample_rate"`
	MicFrameSamples  int `toml:"mic_frame_samples"`
}

// VideoConfig controls frame sampling for the visual channel.
type VideoConfig struct {
	CaptureIntervalMS int `toml:"capture_interval_ms"`
	DownscaleFactor   int `toml:"downscale_factor"`
	JPEGQuality       int `toml:"jpeg_quality"`
}

// PathsConfig locates local state. Empty values resolve to per-user
// cache and config directories.
type PathsConfig struct {
	CatalogDB      string `toml:"catalog_db"`
	PosterCacheDir string `toml:"poster_cache_dir"`
	LogFile        string `toml:"log_file"`
}

// Config is the full client configuration.
type Config struct {
	Session SessionConfig `toml:"session"`
	Audio   AudioConfig   `toml:"audio"`
	Video   VideoConfig   `toml:"video"`
	Paths   PathsConfig   `toml:"paths"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Session: SessionConfig{
			Endpoint: "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent",
			Model:    "models/gemini-2.0-flash-exp",
			Voice:    "Puck",
		},
		Audio: AudioConfig{
			InputSampleRate:  16000,
			OutputSampleRate: 24000,
			MicFrameSamples:  4096,
		},
		Video: VideoConfig{
			CaptureIntervalMS: 1000,
			DownscaleFactor:   4,
			JPEGQuality:       70,
		},
	}
}

// DefaultPath returns the conventional config location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "watchbird", "config.toml"), nil
}

// Load reads the config at path layered over defaults. A missing file
// is not an error; the defaults are returned as-is. The API key falls
// back to the WATCHBIRD_API_KEY environment variable when the file
// leaves it empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return Config{}, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			decoder := toml.NewDecoder(file)
			if err := decoder.Decode(&cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if cfg.Session.APIKey == "" {
		cfg.Session.APIKey = os.Getenv("WATCHBIRD_API_KEY")
	}

	if err := cfg.resolvePaths(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths() error {
	if c.Paths.CatalogDB == "" || c.Paths.PosterCacheDir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("resolve cache dir: %w", err)
		}
		if c.Paths.CatalogDB == "" {
			c.Paths.CatalogDB = filepath.Join(cache, "watchbird", "catalog.db")
		}
		if c.Paths.PosterCacheDir == "" {
			c.Paths.PosterCacheDir = filepath.Join(cache, "watchbird", "posters")
		}
	}
	return nil
}

// Validate rejects values the audio and video pipelines cannot run with.
func (c *Config) Validate() error {
	if c.Session.Endpoint == "" {
		return fmt.Errorf("session.endpoint must be set")
	}
	if c.Session.Model == "" {
		return fmt.Errorf("session.model must be set")
	}
	if c.Audio.InputSampleRate <= 0 || c.Audio.OutputSampleRate <= 0 {
		return fmt.Errorf("audio sample rates must be positive")
	}
	if c.Audio.MicFrameSamples <= 0 {
		return fmt.Errorf("audio.mic_frame_samples must be positive")
	}
	if c.Video.CaptureIntervalMS <= 0 {
		return fmt.Errorf("video.capture_interval_ms must be positive")
	}
	if c.Video.DownscaleFactor < 1 {
		return fmt.Errorf("video.downscale_factor must be at least 1")
	}
	if c.Video.JPEGQuality < 1 || c.Video.JPEGQuality > 100 {
		return fmt.Errorf("video.jpeg_quality must be between 1 and 100")
	}
	return nil
}

// CaptureInterval returns the frame sampling interval as a duration.
func (c *Config) CaptureInterval() time.Duration {
	return time.Duration(c.Video.CaptureIntervalMS) * time.Millisecond
}

// CreateSample writes the annotated sample config to path, refusing to
// overwrite an existing file.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, sampleConfig, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
