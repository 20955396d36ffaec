package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mpeg-transcriber/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.FFmpegPath != "ffmpeg" {
		t.Fatalf("ffmpeg path = %q, want ffmpeg", cfg.FFmpegPath)
	}
	if cfg.WhisperPath != "whisper.cpp" {
		t.Fatalf("whisper path = %q, want whisper.cpp", cfg.WhisperPath)
	}
	if !strings.Contains(filepath.ToSlash(cfg.ModelDir), "/"+AppDirName+"/models") {
		t.Fatalf("model dir = %q", cfg.ModelDir)
	}
	if cfg.CopyToClipboard {
		t.Fatal("clipboard copy should be off by default")
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.json")
	store := NewJSONStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	store := NewJSONStore(path)
	want := domain.Settings{
		ModelDir:        "/models",
		FFmpegPath:      "/usr/bin/ffmpeg",
		WhisperPath:     "/opt/whisper/main",
		LogLevel:        "debug",
		LogFormat:       "json",
		CopyToClipboard: true,
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadPartialKeepsDefaults checks missing keys fall back.
func TestJSONStoreLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"logLevel":"warn"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.LogLevel != "warn" {
		t.Fatalf("log level = %q, want warn", got.LogLevel)
	}
	if got.FFmpegPath != "ffmpeg" {
		t.Fatalf("ffmpeg path = %q, want default", got.FFmpegPath)
	}
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected json parse error")
	}
}

// TestJSONStoreSaveOverwritesWithoutLeftovers checks the atomic replace.
func TestJSONStoreSaveOverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(filepath.Join(dir, "settings.json"))

	first := DefaultSettings()
	second := first
	second.LogFormat = "json"
	for _, cfg := range []domain.Settings{first, second} {
		if err := store.Save(cfg); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "settings.json" {
		t.Fatalf("dir entries = %v, want only settings.json", entries)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.LogFormat != "json" {
		t.Fatalf("log format = %q, want json", got.LogFormat)
	}
}
