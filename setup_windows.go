//go:build windows

package hostedwebcore

import (
	"os"
	"path/filepath"
)

// DefaultLibraryPath returns the IIS Express hosted web core library under
// the 32-bit Program Files directory.
func DefaultLibraryPath() string {
	programFiles := os.Getenv("ProgramFiles(x86)")
	if programFiles == "" {
		programFiles = `C:\Program Files (x86)`
	}
	return filepath.Join(programFiles, "IIS Express", "hwebcore.dll")
}
