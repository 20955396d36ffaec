// Package controller turns user gestures into state changes and transcriptions.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"mpeg-transcriber/internal/domain"
	"mpeg-transcriber/internal/jobs"
	"mpeg-transcriber/internal/logger"
	"mpeg-transcriber/internal/state"
)

var (
	// ErrNoFileSelected is returned when Start is requested with nothing picked.
	ErrNoFileSelected = errors.New("no file selected")

	// ErrFileNotFound is returned when a picked path is not on disk.
	ErrFileNotFound = errors.New("selected file does not exist")

	// ErrTranscriptionInProgress is returned when picking while busy.
	ErrTranscriptionInProgress = errors.New("transcription in progress")
)

const (
	SuccessTitle   = "Success"
	SuccessMessage = "File successfully transcribed!"
	ErrorTitle     = "Error"
)

// MediaFilter is the single file-type filter offered by pickers.
var MediaFilter = FileFilter{
	DisplayName: "MPEG file",
	Extensions:  []string{".mp3", ".mp4"},
}

// FileFilter restricts a file dialog to some extensions.
type FileFilter struct {
	DisplayName string
	Extensions  []string
}

// FilePicker opens a native file dialog. An empty path means cancelled.
type FilePicker interface {
	PickFile(ctx context.Context, filter FileFilter) (string, error)
}

// Notifier shows modal success and error messages.
type Notifier interface {
	Info(title, message string)
	Error(title, message string)
}

// Transcriber turns a media file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Writer persists the transcript next to the media file.
type Writer interface {
	Write(text, mediaPath string) (string, error)
}

// Controller mediates between views and the transcription services.
type Controller struct {
	State       *state.ApplicationState
	Jobs        *jobs.Manager
	Picker      FilePicker
	Notifier    Notifier
	Transcriber Transcriber
	Writer      Writer
	Log         *logger.Logger

	// CopyText, when set, receives the transcript after a successful write.
	CopyText func(text string) error

	// mu makes each busy check atomic with the state change it guards.
	mu sync.Mutex

	stat func(name string) (os.FileInfo, error)
	now  func() time.Time
}

// New wires a controller; log may be nil.
func New(
	st *state.ApplicationState,
	manager *jobs.Manager,
	picker FilePicker,
	notifier Notifier,
	transcriber Transcriber,
	writer Writer,
	log *logger.Logger,
) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		State:       st,
		Jobs:        manager,
		Picker:      picker,
		Notifier:    notifier,
		Transcriber: transcriber,
		Writer:      writer,
		Log:         log.Named("controller"),
		stat:        os.Stat,
		now:         time.Now,
	}
}

// SelectFile asks the picker for a media file and selects it.
// Cancelling the dialog leaves the state untouched.
func (c *Controller) SelectFile(ctx context.Context) error {
	if c.Picker == nil {
		return fmt.Errorf("file picker is not configured")
	}

	path, err := c.Picker.PickFile(ctx, MediaFilter)
	if err != nil {
		return fmt.Errorf("pick file: %w", err)
	}
	return c.SelectPath(path)
}

// SelectPath selects an already picked path after checking it exists.
func (c *Controller) SelectPath(path string) error {
	c.Log.Debug("Picked file", logger.String("path", path))

	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	c.mu.Lock()
	if c.Jobs.IsRunning() {
		c.mu.Unlock()
		return ErrTranscriptionInProgress
	}
	info, err := c.stat(path)
	if err != nil || info.IsDir() {
		c.mu.Unlock()
		c.Log.Warn("Ignoring picked file", logger.String("path", path), logger.Error(err))
		c.Notifier.Error(ErrorTitle, fmt.Sprintf("File does not exist (%s).", path))
		return ErrFileNotFound
	}
	c.State.UpdateFile(path)
	c.mu.Unlock()
	return nil
}

// InitTranscription transcribes the selected file and writes the transcript.
// Failures are reported through one error notification and are not returned;
// only the guards (nothing selected, already running) produce an error.
// The selection is cleared and the views are idle again before the
// notification is shown.
func (c *Controller) InitTranscription(ctx context.Context) error {
	file, jobID, err := c.admit()
	if err != nil {
		return err
	}

	c.Log.Info("Transcribing", logger.String("file", file), logger.String("job", jobID))
	out, err := c.run(ctx, file)
	if err != nil {
		c.Log.Error("Transcription failed", logger.String("file", file), logger.Error(err))
		c.Notifier.Error(ErrorTitle, err.Error())
		return nil
	}

	c.Log.Info("Transcript written", logger.String("path", out))
	c.Notifier.Info(SuccessTitle, SuccessMessage)
	return nil
}

// admit starts a job for the selected file and switches the views to busy.
func (c *Controller) admit() (file, jobID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	file = c.State.FileToTranscribe()
	if file == "" {
		return "", "", ErrNoFileSelected
	}
	jobID = fmt.Sprintf("job-%d", c.now().UnixNano())
	if err := c.Jobs.Start(jobID); err != nil {
		return "", "", err
	}
	c.State.SignalTranscriptionStart()
	return file, jobID, nil
}

// run performs one admitted job and always returns the gate and the
// views to idle.
func (c *Controller) run(ctx context.Context, file string) (out string, err error) {
	defer func() {
		status := domain.JobStatusDone
		if err != nil {
			status = domain.JobStatusFailed
		}
		_ = c.Jobs.Transition(status)

		c.mu.Lock()
		c.Jobs.Reset()
		c.State.UpdateFile("")
		c.mu.Unlock()
	}()
	return c.transcribe(ctx, file)
}

// transcribe runs the model and writes its output, returning the transcript path.
func (c *Controller) transcribe(ctx context.Context, file string) (string, error) {
	text, err := c.Transcriber.Transcribe(ctx, file)
	if err != nil {
		return "", err
	}

	if err := c.Jobs.Transition(domain.JobStatusExporting); err != nil {
		return "", err
	}
	out, err := c.Writer.Write(text, file)
	if err != nil {
		return "", err
	}

	if c.CopyText != nil {
		if err := c.CopyText(text); err != nil {
			c.Log.Warn("Clipboard copy failed", logger.Error(err))
		}
	}
	return out, nil
}
