package bootstrap

import (
	"context"
	"strings"

	"mpeg-transcriber/internal/controller"
	"mpeg-transcriber/internal/domain"
	"mpeg-transcriber/internal/jobs"
	"mpeg-transcriber/internal/logger"
	"mpeg-transcriber/internal/state"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Runtime event names the frontend subscribes to.
const (
	eventStateUpdate        = "state:update"
	eventTranscriptionStart = "transcription:start"
	eventNotice             = "notice"
)

// frontendView forwards state changes to the web frontend.
type frontendView struct {
	app *App
}

// Update pushes the idle view model.
func (v *frontendView) Update(snap domain.Snapshot) {
	vm := state.Render(snap)
	v.app.publishEvent(eventStateUpdate, jobs.Event{Type: jobs.EventTypeState, View: &vm})
}

// ShowTranscriptionStart pushes the busy view model.
func (v *frontendView) ShowTranscriptionStart(snap domain.Snapshot) {
	vm := state.Render(snap)
	v.app.publishEvent(eventTranscriptionStart, jobs.Event{Type: jobs.EventTypeBusy, View: &vm})
}

// wailsPicker opens the native open-file dialog.
type wailsPicker struct {
	app *App
}

// PickFile returns the chosen path or "" when the dialog was cancelled.
func (p *wailsPicker) PickFile(ctx context.Context, filter controller.FileFilter) (string, error) {
	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select file to transcribe",
		Filters: dialogFilters(filter),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// dialogFilters converts a controller filter into the Wails pattern syntax.
func dialogFilters(filter controller.FileFilter) []wailsruntime.FileFilter {
	patterns := make([]string, 0, len(filter.Extensions))
	for _, ext := range filter.Extensions {
		patterns = append(patterns, "*"+ext)
	}
	return []wailsruntime.FileFilter{{
		DisplayName: filter.DisplayName,
		Pattern:     strings.Join(patterns, ";"),
	}}
}

// wailsNotifier shows modal message dialogs and records them as events.
type wailsNotifier struct {
	app *App
}

// Info shows an information dialog.
func (n *wailsNotifier) Info(title, message string) {
	n.show(wailsruntime.InfoDialog, title, message, false)
}

// Error shows an error dialog.
func (n *wailsNotifier) Error(title, message string) {
	n.show(wailsruntime.ErrorDialog, title, message, true)
}

func (n *wailsNotifier) show(kind wailsruntime.DialogType, title, message string, isError bool) {
	n.app.publishEvent(eventNotice, jobs.Event{
		Type:    jobs.EventTypeNotice,
		Title:   title,
		Message: message,
		IsError: isError,
	})

	ctx, err := n.app.runtimeContext()
	if err != nil {
		return
	}
	if _, err := wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
		Type:    kind,
		Title:   title,
		Message: message,
	}); err != nil {
		n.app.Log.Warn("Message dialog failed", logger.String("title", title), logger.Error(err))
	}
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(name string, event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, published)
	}
}
