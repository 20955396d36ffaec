// Package diagnostics checks the external tools and model directory at startup.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mpeg-transcriber/internal/domain"
)

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks for the given model file name.
func (c *Checker) Run(settings domain.Settings, modelFile string) domain.DiagnosticReport {
	return domain.NewDiagnosticReport(time.Now(),
		c.checkTool("tool_ffmpeg", settings.FFmpegPath),
		c.checkTool("tool_whisper", settings.WhisperPath),
		c.checkModel(settings.ModelDir, modelFile),
	)
}

// checkTool verifies a required executable is resolvable.
func (c *Checker) checkTool(id, name string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: id, Name: name}
	if strings.TrimSpace(name) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Tool path is empty."
		item.Hint = "Set the executable name or path in settings.json."
		return item
	}

	path, err := c.lookPath(name)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Tool not found: %s", name)
		item.Hint = "Install it and ensure the binary is available on PATH before starting a transcription."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkModel passes when the model exists or the directory can receive a download.
func (c *Checker) checkModel(modelDir, modelFile string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "model",
		Name: "Model",
	}

	if strings.TrimSpace(modelDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Model directory is empty."
		item.Hint = "Set modelDir in settings.json."
		return item
	}

	target := filepath.Join(modelDir, modelFile)
	info, err := c.stat(target)
	if err == nil && !info.IsDir() {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Model file found: %s", target)
		return item
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot access model path: %s", target)
		item.Hint = "Check permissions for the model directory."
		return item
	}

	if err := c.mkdirAll(modelDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create model directory: %s", modelDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(modelDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Model directory is not writable: %s", modelDir)
		item.Hint = "The model is downloaded here on first use; choose a writable directory."
		return item
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Model %s is missing and will be downloaded on first use.", modelFile)
	item.Hint = "The first transcription takes longer while the model downloads."
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
