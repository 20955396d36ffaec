package transcribe

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"mpeg-transcriber/internal/domain"
)

// LineSeparator joins segment texts; it matches the platform convention.
var LineSeparator = lineSeparatorFor(runtime.GOOS)

func lineSeparatorFor(goos string) string {
	if goos == "windows" {
		return "\r\n"
	}
	return "\n"
}

// whisperJSON mirrors the part of whisper.cpp's -oj output we read.
type whisperJSON struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON converts whisper.cpp JSON output into ordered segments.
func parseWhisperJSON(data []byte) ([]domain.Segment, error) {
	var doc whisperJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]domain.Segment, 0, len(doc.Transcription))
	for _, item := range doc.Transcription {
		segments = append(segments, domain.Segment{
			Start: time.Duration(item.Offsets.From) * time.Millisecond,
			End:   time.Duration(item.Offsets.To) * time.Millisecond,
			Text:  item.Text,
		})
	}
	return segments, nil
}

// JoinSegments concatenates segment texts in order, verbatim, separated by LineSeparator.
func JoinSegments(segments []domain.Segment) string {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return strings.Join(texts, LineSeparator)
}
