// Package transcribe turns a media file into text with ffmpeg and whisper.cpp.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mpeg-transcriber/internal/domain"
	"mpeg-transcriber/internal/logger"
)

// Language is the fixed spoken language passed to the model.
const Language = "de"

const (
	StageValidating   = "validating"
	StageLoadingModel = "loading-model"
	StagePreprocess   = "preprocessing"
	StageTranscribing = "transcribing"
)

// ErrFileNotFound is wrapped when the media file to transcribe is missing.
var ErrFileNotFound = errors.New("file does not exist")

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// PipelineError is a stage-aware error with optional command context.
type PipelineError struct {
	Stage      string     `json:"stage"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats pipeline failures for logs and dialogs.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Stage,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ModelSource yields the local path of the model to run.
type ModelSource interface {
	Load(ctx context.Context) (string, error)
}

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Service runs one blocking, all-or-nothing transcription per call.
type Service struct {
	ffmpegPath  string
	whisperPath string
	models      ModelSource
	runner      commandRunner
	log         *logger.Logger
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
	stat        func(name string) (os.FileInfo, error)
	readFile    func(name string) ([]byte, error)
	inspect     func(path string) (audioInfo, error)
}

// NewService constructs the production service with OS dependencies.
func NewService(ffmpegPath, whisperPath string, models ModelSource, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		models:      models,
		runner:      &execRunner{},
		log:         log.Named("transcribe"),
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		stat:        os.Stat,
		readFile:    os.ReadFile,
		inspect:     inspectWAV,
	}
}

// Transcribe returns the text of every recognized segment joined by LineSeparator.
func (s *Service) Transcribe(ctx context.Context, inputPath string) (string, error) {
	segments, err := s.Segments(ctx, inputPath)
	if err != nil {
		return "", err
	}
	return JoinSegments(segments), nil
}

// Segments returns the timed segments of inputPath in model order.
func (s *Service) Segments(ctx context.Context, inputPath string) ([]domain.Segment, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, &PipelineError{
			Stage:   StageValidating,
			Message: "no file selected",
			Err:     ErrFileNotFound,
		}
	}
	if _, err := s.stat(inputPath); err != nil {
		return nil, &PipelineError{
			Stage:   StageValidating,
			Message: fmt.Sprintf("file does not exist (%s)", inputPath),
			Err:     errors.Join(ErrFileNotFound, err),
		}
	}

	modelPath, err := s.models.Load(ctx)
	if err != nil {
		return nil, &PipelineError{
			Stage:   StageLoadingModel,
			Message: err.Error(),
			Err:     err,
		}
	}

	tempDir, err := s.mkdirTemp("", "mpeg-transcriber-*")
	if err != nil {
		return nil, &PipelineError{
			Stage:   StagePreprocess,
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}
	defer func() {
		if err := s.removeAll(tempDir); err != nil {
			s.log.Warn("Cleanup failed", logger.String("dir", tempDir), logger.Error(err))
		}
	}()

	wavPath := filepath.Join(tempDir, "audio.wav")
	ffmpegArgs := buildFFmpegArgs(inputPath, wavPath)
	ffmpegLog, runErr := s.run(ctx, s.ffmpegPath, ffmpegArgs)
	if runErr != nil {
		return nil, &PipelineError{
			Stage:      StagePreprocess,
			Message:    "ffmpeg audio conversion failed",
			CommandLog: ffmpegLog,
			Err:        runErr,
		}
	}

	info, err := s.inspect(wavPath)
	if err != nil {
		return nil, &PipelineError{
			Stage:      StagePreprocess,
			Message:    "ffmpeg output is not usable",
			CommandLog: ffmpegLog,
			Err:        err,
		}
	}
	s.log.Debug("Audio prepared",
		logger.String("wav", wavPath),
		logger.Duration("duration", info.Duration))

	outBase := filepath.Join(tempDir, "transcript")
	whisperArgs := buildWhisperArgs(modelPath, wavPath, outBase, Language)
	whisperLog, runErr := s.run(ctx, s.whisperPath, whisperArgs)
	if runErr != nil {
		return nil, &PipelineError{
			Stage:      StageTranscribing,
			Message:    "whisper.cpp transcription failed",
			CommandLog: whisperLog,
			Err:        runErr,
		}
	}

	jsonPath := outBase + ".json"
	data, err := s.readFile(jsonPath)
	if err != nil {
		return nil, &PipelineError{
			Stage:      StageTranscribing,
			Message:    "whisper.cpp completed but transcript .json file is missing",
			CommandLog: whisperLog,
			Err:        err,
		}
	}

	segments, err := parseWhisperJSON(data)
	if err != nil {
		return nil, &PipelineError{
			Stage:      StageTranscribing,
			Message:    err.Error(),
			CommandLog: whisperLog,
			Err:        err,
		}
	}

	s.log.Debug("Transcription finished", logger.Int("segments", len(segments)))
	return segments, nil
}

// run executes one command and converts the outcome into a CommandLog.
func (s *Service) run(ctx context.Context, name string, args []string) (CommandLog, error) {
	res, err := s.runner.Run(ctx, name, args...)
	log := CommandLog{
		Command:  name,
		Args:     args,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
	if err != nil {
		s.log.Debug("Command failed",
			logger.String("command", name),
			logger.Int("exit", res.ExitCode),
			logger.String("stderr", res.Stderr))
	}
	return log, err
}

// buildFFmpegArgs builds preprocessing CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// buildWhisperArgs builds whisper.cpp args for JSON transcript export.
func buildWhisperArgs(modelPath, audioPath, outBase, language string) []string {
	return []string{
		"-m", modelPath,
		"-f", audioPath,
		"-l", language,
		"-oj",
		"-of", outBase,
		"-np",
	}
}

// NewServiceForTests constructs a service with injectable dependencies.
func NewServiceForTests(
	ffmpegPath string,
	whisperPath string,
	models ModelSource,
	runner commandRunner,
	removeAll func(path string) error,
) *Service {
	return &Service{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		models:      models,
		runner:      runner,
		log:         logger.Nop(),
		mkdirTemp:   os.MkdirTemp,
		removeAll:   removeAll,
		stat:        os.Stat,
		readFile:    os.ReadFile,
		inspect:     inspectWAV,
	}
}
