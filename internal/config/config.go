package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Mode selects what gets recorded.
type Mode string

const (
	ModeMicrophone Mode = "microphone"
	ModeOutput     Mode = "output"
)

// Language pairs a whisper language code with the model used for it.
type Language struct {
	Code  string
	Model string
	Label string
}

// Languages are the selectable tiers, in prompt order.
var Languages = []Language{
	{Code: "en", Model: "base.en", Label: "English (fast)"},
	{Code: "en", Model: "medium", Label: "English (accurate)"},
	{Code: "de", Model: "small", Label: "German (fast)"},
	{Code: "de", Model: "medium", Label: "German (accurate)"},
}

// DefaultLanguage is used when the selection is missing or invalid.
func DefaultLanguage() Language {
	return Languages[0]
}

type Config struct {
	CacheDir  string        `json:"cache_dir"`
	LogLevel  string        `json:"log_level"`
	Devices   DevicesConfig `json:"devices"`
	Capture   CaptureConfig `json:"capture"`
	Whisper   WhisperConfig `json:"whisper"`
	Clipboard bool          `json:"clipboard"`
}

type DevicesConfig struct {
	PreferredMicrophones []string `json:"preferred_microphones"`
	AutoSelectPreferred  bool     `json:"auto_select_preferred"`
	PipeWireDefault      bool     `json:"pipewire_default"`
	DefaultMonitor       string   `json:"default_monitor"`
	DefaultSampleRate    int      `json:"default_sample_rate"`
}

type CaptureConfig struct {
	StopGrace        Duration `json:"stop_grace"`
	KillWait         Duration `json:"kill_wait"`
	FallbackDuration Duration `json:"fallback_duration"`
}

type WhisperConfig struct {
	ModelsDir string   `json:"models_dir"` // empty means ModelsPath()
	Threads   int      `json:"threads"`    // 0 = auto
	Timeout   Duration `json:"timeout"`    // 0 disables the limit
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		CacheDir: "./cache",
		LogLevel: "info",
		Devices: DevicesConfig{
			PreferredMicrophones: []string{"Trust", "GXT", "Microphone"},
			AutoSelectPreferred:  true,
			PipeWireDefault:      true,
			DefaultMonitor:       "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor",
			DefaultSampleRate:    44100,
		},
		Capture: CaptureConfig{
			StopGrace:        Duration(time.Second),
			KillWait:         Duration(2 * time.Second),
			FallbackDuration: Duration(5 * time.Second),
		},
		Whisper: WhisperConfig{
			Threads: 0,
			Timeout: Duration(5 * time.Minute),
		},
		Clipboard: false,
	}
}

// Load reads the config from path (or the platform default when path is
// empty) on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to path, or the platform default when empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ModelsDir returns the configured models directory or the platform default.
func (c *Config) ModelsDir() string {
	if c.Whisper.ModelsDir != "" {
		return c.Whisper.ModelsDir
	}
	return ModelsPath()
}

// DefaultPath returns the platform-specific config file path
func DefaultPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "whisper-cli", "config.json")
}

// ModelsPath returns the platform-specific models directory path
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "whisper-cli", "models")
}
