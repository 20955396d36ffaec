package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// userAgent identifies model downloads to the hosting server.
const userAgent = "mpeg-transcriber"

// DownloadURLToFile streams sourceURL into destinationPath. The body lands
// in a temporary sibling first and is renamed only once complete, so an
// interrupted download never looks like a model.
func DownloadURLToFile(ctx context.Context, destinationPath, sourceURL string) error {
	dir := filepath.Dir(destinationPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected HTTP status %s", sourceURL, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(destinationPath)+".*.download")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return fmt.Errorf("short download: got %d of %d bytes", written, resp.ContentLength)
	}

	if err := os.Rename(tmpPath, destinationPath); err != nil {
		return fmt.Errorf("move model into place: %w", err)
	}
	return nil
}
