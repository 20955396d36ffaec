package models

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// TestLoaderDownloadsOnceAndCaches checks the first-use download and caching.
func TestLoaderDownloadsOnceAndCaches(t *testing.T) {
	dir := t.TempDir()
	downloads := 0
	statCalls := 0
	loader := NewLoaderForTests(Small, dir,
		func(name string) (os.FileInfo, error) {
			statCalls++
			return os.Stat(name)
		},
		func(ctx context.Context, dest, url string) error {
			downloads++
			if url != Small.URL {
				t.Fatalf("url = %q, want %q", url, Small.URL)
			}
			return os.WriteFile(dest, []byte("model"), 0o644)
		},
	)

	for i := 0; i < 3; i++ {
		path, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if path != filepath.Join(dir, "ggml-small.bin") {
			t.Fatalf("path = %q", path)
		}
	}

	if downloads != 1 {
		t.Fatalf("downloads = %d, want 1", downloads)
	}
	if statCalls != 1 {
		t.Fatalf("stat calls = %d, want 1", statCalls)
	}
}

// TestLoaderUsesExistingFile checks no download happens when the model exists.
func TestLoaderUsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, Small.FileName), []byte("model"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	loader := NewLoaderForTests(Small, dir, os.Stat, func(context.Context, string, string) error {
		t.Fatal("unexpected download")
		return nil
	})
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

// TestLoaderRetriesAfterFailure checks failures are not cached.
func TestLoaderRetriesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	attempts := 0
	loader := NewLoaderForTests(Small, dir, os.Stat, func(ctx context.Context, dest, url string) error {
		attempts++
		if attempts == 1 {
			return errors.New("network down")
		}
		return os.WriteFile(dest, []byte("model"), 0o644)
	})

	if _, err := loader.Load(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

// TestLoaderRequiresDirectory checks validation of an empty model dir.
func TestLoaderRequiresDirectory(t *testing.T) {
	loader := NewLoaderForTests(Small, " ", os.Stat, nil)
	if _, err := loader.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// TestDownloadURLToFile checks body is written and temp file removed.
func TestDownloadURLToFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ggml"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "nested", "ggml-small.bin")
	if err := DownloadURLToFile(context.Background(), dest, server.URL); err != nil {
		t.Fatalf("download: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "ggml" {
		t.Fatalf("content = %q, err = %v", data, err)
	}
	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir entries = %v, want only the model", entries)
	}
}

// TestDownloadURLToFileHTTPError checks non-200 responses fail cleanly.
func TestDownloadURLToFileHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	if err := DownloadURLToFile(context.Background(), dest, server.URL); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("destination should not exist, stat err = %v", err)
	}
	if entries, _ := os.ReadDir(filepath.Dir(dest)); len(entries) != 0 {
		t.Fatalf("leftover files: %v", entries)
	}
}
