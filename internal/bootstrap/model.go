package bootstrap

import (
	"context"
	"fmt"
	"os"

	"mpeg-transcriber/internal/domain"
)

// GetModel describes the fixed model and whether it is already on disk.
func (a *App) GetModel() domain.WhisperModelOption {
	model := a.models.Model()
	model.LocalPath = a.models.LocalPath()
	if info, err := os.Stat(model.LocalPath); err == nil && !info.IsDir() {
		model.Downloaded = true
	}
	return model
}

// DownloadModel fetches the model ahead of the first transcription.
// A transcription already loading the model makes this wait for it.
func (a *App) DownloadModel() (domain.WhisperModelOption, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		ctx = context.Background()
	}
	if _, err := a.models.Load(ctx); err != nil {
		return a.GetModel(), fmt.Errorf("download model: %w", err)
	}

	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()
	a.applySettings(settings)
	return a.GetModel(), nil
}
