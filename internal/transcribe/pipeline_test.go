package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// fakeRunner simulates command execution order and outcomes.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (commandResult, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	if f.run == nil {
		return commandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

// fakeModels returns a fixed model path or error.
type fakeModels struct {
	path  string
	err   error
	calls int
}

// Load records the call and returns the configured outcome.
func (m *fakeModels) Load(context.Context) (string, error) {
	m.calls++
	return m.path, m.err
}

const sampleWhisperJSON = `{
  "transcription": [
    {"timestamps": {"from": "00:00:00,000", "to": "00:00:01,500"}, "offsets": {"from": 0, "to": 1500}, "text": "Hallo "},
    {"timestamps": {"from": "00:00:01,500", "to": "00:00:03,000"}, "offsets": {"from": 1500, "to": 3000}, "text": "Welt."}
  ]
}`

// TestServiceTranscribeSuccess checks the happy path and joined output.
func TestServiceTranscribeSuccess(t *testing.T) {
	root := t.TempDir()
	inputPath := filepath.Join(root, "interview.mp3")
	mustWriteFile(t, inputPath, "media")

	var tempDir string
	var whisperArgs []string
	call := 0
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			call++
			switch call {
			case 1:
				if name != "ffmpeg-custom" {
					t.Fatalf("command 1 name = %q, want ffmpeg-custom", name)
				}
				outPath := args[len(args)-1]
				tempDir = filepath.Dir(outPath)
				mustWriteWAV(t, outPath, 16000, 1)
				return commandResult{}, nil
			case 2:
				if name != "whisper-custom" {
					t.Fatalf("command 2 name = %q, want whisper-custom", name)
				}
				whisperArgs = append([]string{}, args...)
				mustWriteFile(t, argValue(args, "-of")+".json", sampleWhisperJSON)
				return commandResult{}, nil
			default:
				t.Fatalf("unexpected command call: %d", call)
				return commandResult{}, nil
			}
		},
	}

	models := &fakeModels{path: "/models/ggml-small.bin"}
	svc := NewServiceForTests("ffmpeg-custom", "whisper-custom", models, runner, os.RemoveAll)

	text, err := svc.Transcribe(context.Background(), inputPath)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if want := "Hallo " + LineSeparator + "Welt."; text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
	if got := argValue(whisperArgs, "-l"); got != "de" {
		t.Fatalf("language = %q, want de", got)
	}
	if got := argValue(whisperArgs, "-m"); got != "/models/ggml-small.bin" {
		t.Fatalf("model = %q", got)
	}
	if !hasArg(whisperArgs, "-oj") {
		t.Fatalf("expected -oj in %v", whisperArgs)
	}
	if _, err := os.Stat(tempDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp dir should be removed, stat err = %v", err)
	}
}

// TestServiceSegmentsKeepTiming checks offsets are carried into segments.
func TestServiceSegmentsKeepTiming(t *testing.T) {
	root := t.TempDir()
	inputPath := filepath.Join(root, "clip.mp4")
	mustWriteFile(t, inputPath, "media")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			if name == "ffmpeg" {
				mustWriteWAV(t, args[len(args)-1], 16000, 1)
				return commandResult{}, nil
			}
			mustWriteFile(t, argValue(args, "-of")+".json", sampleWhisperJSON)
			return commandResult{}, nil
		},
	}

	svc := NewServiceForTests("ffmpeg", "whisper.cpp", &fakeModels{path: "/m.bin"}, runner, os.RemoveAll)
	segments, err := svc.Segments(context.Background(), inputPath)
	if err != nil {
		t.Fatalf("Segments() error = %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[1].Start.Milliseconds() != 1500 || segments[1].End.Milliseconds() != 3000 {
		t.Fatalf("segment timing = %+v", segments[1])
	}
}

// TestServiceMissingFile checks the validation error before any command runs.
func TestServiceMissingFile(t *testing.T) {
	models := &fakeModels{path: "/m.bin"}
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		t.Fatalf("unexpected command %s", name)
		return commandResult{}, nil
	}}
	svc := NewServiceForTests("ffmpeg", "whisper.cpp", models, runner, os.RemoveAll)

	for _, path := range []string{"", filepath.Join(t.TempDir(), "gone.mp3")} {
		_, err := svc.Transcribe(context.Background(), path)
		if !errors.Is(err, ErrFileNotFound) {
			t.Fatalf("Transcribe(%q) error = %v, want ErrFileNotFound", path, err)
		}
		var pErr *PipelineError
		if !errors.As(err, &pErr) || pErr.Stage != StageValidating {
			t.Fatalf("error = %#v, want validating PipelineError", err)
		}
	}
	if models.calls != 0 {
		t.Fatalf("model loaded %d times for invalid input", models.calls)
	}
}

// TestServiceModelFailure checks model load errors are stage-tagged.
func TestServiceModelFailure(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "clip.mp3")
	mustWriteFile(t, inputPath, "media")

	svc := NewServiceForTests("ffmpeg", "whisper.cpp", &fakeModels{err: errors.New("offline")}, &fakeRunner{}, os.RemoveAll)
	_, err := svc.Transcribe(context.Background(), inputPath)

	var pErr *PipelineError
	if !errors.As(err, &pErr) || pErr.Stage != StageLoadingModel {
		t.Fatalf("error = %v, want loading-model PipelineError", err)
	}
}

// TestServiceFFmpegFailureCleansUp checks conversion error path.
func TestServiceFFmpegFailureCleansUp(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "clip.mp4")
	mustWriteFile(t, inputPath, "media")

	var cleaned string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{Stderr: "ffmpeg failed", ExitCode: 1}, errors.New("exit status 1")
		},
	}
	svc := NewServiceForTests("ffmpeg", "whisper.cpp", &fakeModels{path: "/m.bin"}, runner, func(path string) error {
		cleaned = path
		return os.RemoveAll(path)
	})

	_, err := svc.Transcribe(context.Background(), inputPath)
	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		t.Fatalf("error type = %T, want *PipelineError", err)
	}
	if pErr.Stage != StagePreprocess {
		t.Fatalf("stage = %s, want preprocessing", pErr.Stage)
	}
	if pErr.CommandLog.Command != "ffmpeg" || pErr.CommandLog.ExitCode != 1 {
		t.Fatalf("command log = %+v", pErr.CommandLog)
	}
	if cleaned == "" {
		t.Fatal("expected temporary directory cleanup")
	}
}

// TestServiceRejectsWrongWAVFormat checks stereo output is refused.
func TestServiceRejectsWrongWAVFormat(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "clip.mp4")
	mustWriteFile(t, inputPath, "media")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			if name == "ffmpeg" {
				mustWriteWAV(t, args[len(args)-1], 44100, 2)
				return commandResult{}, nil
			}
			t.Fatal("whisper should not run on a bad WAV")
			return commandResult{}, nil
		},
	}
	svc := NewServiceForTests("ffmpeg", "whisper.cpp", &fakeModels{path: "/m.bin"}, runner, os.RemoveAll)

	_, err := svc.Transcribe(context.Background(), inputPath)
	var pErr *PipelineError
	if !errors.As(err, &pErr) || pErr.Stage != StagePreprocess {
		t.Fatalf("error = %v, want preprocessing PipelineError", err)
	}
}

// TestServiceWhisperFailure checks the model run error path.
func TestServiceWhisperFailure(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "clip.mp4")
	mustWriteFile(t, inputPath, "media")

	var tempDir string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			if name == "ffmpeg" {
				outPath := args[len(args)-1]
				tempDir = filepath.Dir(outPath)
				mustWriteWAV(t, outPath, 16000, 1)
				return commandResult{}, nil
			}
			return commandResult{Stderr: "bad model", ExitCode: 1}, errors.New("exit status 1")
		},
	}
	svc := NewServiceForTests("ffmpeg", "whisper.cpp", &fakeModels{path: "/m.bin"}, runner, os.RemoveAll)

	_, err := svc.Transcribe(context.Background(), inputPath)
	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		t.Fatalf("error type = %T, want *PipelineError", err)
	}
	if pErr.Stage != StageTranscribing || pErr.CommandLog.Command != "whisper.cpp" {
		t.Fatalf("error = %+v", pErr)
	}
	if _, statErr := os.Stat(tempDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("temp dir should be removed on failure, stat err = %v", statErr)
	}
}

// TestBuildFFmpegArgs verifies deterministic ffmpeg command arguments.
func TestBuildFFmpegArgs(t *testing.T) {
	args := buildFFmpegArgs("/in.mp4", "/tmp/out.wav")
	want := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", "/in.mp4",
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"/tmp/out.wav",
	}

	if len(args) != len(want) {
		t.Fatalf("args len = %d, want %d", len(args), len(want))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

// mustWriteFile creates parent directory and writes file content.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

// mustWriteWAV writes a short 16-bit PCM WAV with the given format.
func mustWriteWAV(t *testing.T, path string, sampleRate, channels int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, sampleRate*channels/10),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

// argValue returns value for key-style CLI args.
func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

// hasArg reports whether args include the target flag.
func hasArg(args []string, key string) bool {
	for _, arg := range args {
		if arg == key {
			return true
		}
	}
	return false
}
