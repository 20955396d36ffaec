package bootstrap

import (
	"os"
	"path/filepath"

	"mpeg-transcriber/internal/config"
)

// ensureLocalBinOnPATH prepends the per-user tool directory to PATH so
// ffmpeg and whisper.cpp copies placed there are found by name.
func ensureLocalBinOnPATH(homeDir string) error {
	binDir := localBinDir(homeDir)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	current := os.Getenv("PATH")
	for _, entry := range filepath.SplitList(current) {
		if filepath.Clean(entry) == filepath.Clean(binDir) {
			return nil
		}
	}

	if current == "" {
		return os.Setenv("PATH", binDir)
	}
	return os.Setenv("PATH", binDir+string(os.PathListSeparator)+current)
}

func localBinDir(homeDir string) string {
	return filepath.Join(homeDir, config.AppDirName, "bin")
}
