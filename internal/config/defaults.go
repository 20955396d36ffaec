package config

import (
	"os"
	"path/filepath"

	"mpeg-transcriber/internal/domain"
)

// AppDirName is the per-user directory holding settings and models.
const AppDirName = ".mpeg-transcriber"

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		ModelDir:    filepath.Join(homeDir, AppDirName, "models"),
		FFmpegPath:  "ffmpeg",
		WhisperPath: "whisper.cpp",
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

// DefaultPath returns the settings file location under the user's home.
func DefaultPath(homeDir string) string {
	return filepath.Join(homeDir, AppDirName, "settings.json")
}
