// Package export writes transcripts next to their source media.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSourcePath is returned when no original media path is given.
var ErrNoSourcePath = errors.New("transcribed file cannot be empty")

// TranscriptExt is the extension of every written transcript.
const TranscriptExt = ".txt"

// OutputPath returns the transcript path for a media file: same directory,
// extension of the base name replaced by .txt. A base name that is only an
// extension (".hidden") or has none keeps its full name.
func OutputPath(mediaPath string) string {
	dir, base := filepath.Split(mediaPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return dir + stem + TranscriptExt
}

// Writer creates or truncates the transcript file.
type Writer struct {
	create func(name string) (*os.File, error)
}

// NewWriter builds a writer on the real filesystem.
func NewWriter() *Writer {
	return &Writer{create: os.Create}
}

// Write stores text verbatim at OutputPath(mediaPath) and returns that path.
// An existing file is overwritten.
func (w *Writer) Write(text, mediaPath string) (out string, err error) {
	if strings.TrimSpace(mediaPath) == "" {
		return "", ErrNoSourcePath
	}

	out = OutputPath(mediaPath)
	file, err := w.create(out)
	if err != nil {
		return "", fmt.Errorf("create transcript %s: %w", out, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close transcript %s: %w", out, closeErr)
		}
	}()

	if _, err := file.WriteString(text); err != nil {
		return "", fmt.Errorf("write transcript %s: %w", out, err)
	}
	return out, nil
}
