package domain

import "time"

// JobStatus tracks the stage of the single in-flight transcription.
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusExporting    JobStatus = "exporting"
	JobStatusDone         JobStatus = "done"
	JobStatusFailed       JobStatus = "failed"
)

// Settings contains the tool locations and logging options read at startup.
// Model size and spoken language are fixed and intentionally absent.
type Settings struct {
	ModelDir        string `json:"modelDir"`
	FFmpegPath      string `json:"ffmpegPath"`
	WhisperPath     string `json:"whisperPath"`
	LogLevel        string `json:"logLevel"`
	LogFormat       string `json:"logFormat"`
	CopyToClipboard bool   `json:"copyToClipboard"`
}

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

// Snapshot is a read-only copy of the application state handed to views.
type Snapshot struct {
	FileToTranscribe string `json:"fileToTranscribe"`
	Transcribing     bool   `json:"transcribing"`
}

// HasFile reports whether a file is currently selected.
func (s Snapshot) HasFile() bool {
	return s.FileToTranscribe != ""
}

// ViewModel holds the facts every view renders.
type ViewModel struct {
	FileLabel    string `json:"fileLabel"`
	StartEnabled bool   `json:"startEnabled"`
	StartLabel   string `json:"startLabel"`
}

// Segment is one timed piece of text recognized by the model.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}
