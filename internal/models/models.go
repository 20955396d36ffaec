// Package models resolves the whisper.cpp model file, downloading it once if needed.
package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mpeg-transcriber/internal/domain"
	"mpeg-transcriber/internal/logger"
)

const downloadTimeout = 45 * time.Minute

// Small is the fixed model every transcription uses.
var Small = domain.WhisperModelOption{
	ID:        "small",
	Name:      "Small (Multilingual)",
	FileName:  "ggml-small.bin",
	URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
	SizeLabel: "~466 MB",
}

// Loader returns the local path of one model. The first successful Load is
// cached for the lifetime of the process; failed loads are retried.
type Loader struct {
	model    domain.WhisperModelOption
	dir      string
	log      *logger.Logger
	stat     func(name string) (os.FileInfo, error)
	download func(ctx context.Context, destinationPath, sourceURL string) error

	mu   sync.Mutex
	path string
}

// NewLoader builds a loader storing model files in dir.
func NewLoader(model domain.WhisperModelOption, dir string, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{
		model: model,
		dir:   dir,
		log:   log.Named("models"),
		stat:  os.Stat,
		download: func(ctx context.Context, destinationPath, sourceURL string) error {
			ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
			defer cancel()
			return DownloadURLToFile(ctx, destinationPath, sourceURL)
		},
	}
}

// NewLoaderForTests builds a loader with injectable filesystem and download hooks.
func NewLoaderForTests(
	model domain.WhisperModelOption,
	dir string,
	stat func(name string) (os.FileInfo, error),
	download func(ctx context.Context, destinationPath, sourceURL string) error,
) *Loader {
	return &Loader{
		model:    model,
		dir:      dir,
		log:      logger.Nop(),
		stat:     stat,
		download: download,
	}
}

// Model returns the model this loader resolves.
func (l *Loader) Model() domain.WhisperModelOption {
	return l.model
}

// LocalPath returns where the model file lives once downloaded.
func (l *Loader) LocalPath() string {
	return filepath.Join(l.dir, l.model.FileName)
}

// Load returns the model file path, downloading it on first use.
func (l *Loader) Load(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path != "" {
		return l.path, nil
	}
	if strings.TrimSpace(l.dir) == "" {
		return "", fmt.Errorf("model directory is not configured")
	}

	target := l.LocalPath()
	info, err := l.stat(target)
	switch {
	case err == nil && info.IsDir():
		return "", fmt.Errorf("model path is a directory: %s", target)
	case err == nil:
		l.log.Debug("Model found", logger.String("path", target))
	case errors.Is(err, os.ErrNotExist):
		l.log.Info("Downloading model",
			logger.String("model", l.model.ID),
			logger.String("size", l.model.SizeLabel),
			logger.String("path", target))
		if err := l.download(ctx, target, l.model.URL); err != nil {
			return "", fmt.Errorf("download model %s: %w", l.model.Name, err)
		}
	default:
		return "", fmt.Errorf("check model path: %w", err)
	}

	l.path = target
	return l.path, nil
}
