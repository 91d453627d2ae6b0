package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheDir != "./cache" {
		t.Errorf("expected ./cache, got %s", cfg.CacheDir)
	}
	if cfg.Capture.StopGrace.Std() != time.Second {
		t.Errorf("expected 1s stop grace, got %s", cfg.Capture.StopGrace)
	}
	if !cfg.Devices.AutoSelectPreferred {
		t.Error("preferred microphone auto-selection should default to on")
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"cache_dir": "/tmp/rec",
		"capture": {"stop_grace": "250ms", "kill_wait": 500},
		"devices": {"auto_select_preferred": false}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheDir != "/tmp/rec" {
		t.Errorf("cache dir not overlaid: %s", cfg.CacheDir)
	}
	if cfg.Capture.StopGrace.Std() != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.Capture.StopGrace)
	}
	if cfg.Capture.KillWait.Std() != 500*time.Millisecond {
		t.Errorf("numeric durations are milliseconds, got %s", cfg.Capture.KillWait)
	}
	if cfg.Capture.FallbackDuration.Std() != 5*time.Second {
		t.Errorf("untouched field lost its default: %s", cfg.Capture.FallbackDuration)
	}
	if cfg.Devices.AutoSelectPreferred {
		t.Error("auto_select_preferred should be false")
	}
	if len(cfg.Devices.PreferredMicrophones) != 3 {
		t.Errorf("preferred list should keep defaults, got %v", cfg.Devices.PreferredMicrophones)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"capture":{"stop_grace":"soon"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unparsable duration")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Whisper.Threads = 4
	cfg.Capture.KillWait = Duration(3 * time.Second)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Whisper.Threads != 4 || got.Capture.KillWait.Std() != 3*time.Second {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLanguageTiers(t *testing.T) {
	if len(Languages) != 4 {
		t.Fatalf("expected four tiers, got %d", len(Languages))
	}
	if DefaultLanguage().Model != "base.en" {
		t.Errorf("default tier should be base.en, got %s", DefaultLanguage().Model)
	}
	for _, l := range Languages[2:] {
		if l.Code != "de" {
			t.Errorf("tier %s should be German", l.Label)
		}
	}
}

func TestLanguageTiersAreNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := Default().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"label"`, `"code"`, `"model"`} {
		if strings.Contains(string(data), key) {
			t.Errorf("saved config should not carry %s:\n%s", key, data)
		}
	}
}
