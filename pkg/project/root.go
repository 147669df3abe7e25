package project

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// RootMarkers are the files whose presence marks a project root directory.
var RootMarkers = []string{"pyproject.toml", "requirements.txt", "setup.py"}

// DiscoverRoot walks up from start and returns the first directory holding
// one of [RootMarkers]. It returns "" when the walk reaches the filesystem
// root without a hit.
func DiscoverRoot(start string, logger *log.Logger) string {
	if logger == nil {
		logger = log.Default()
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		for _, name := range RootMarkers {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				logger.Info("discovered root directory", "path", dir)
				return dir
			}
		}
		dir = parent
	}
}

// IsProjectSetupPy reports whether filename is the setup.py of the project
// rooted at root.
func IsProjectSetupPy(root, filename string) bool {
	a, err := os.Stat(filename)
	if err != nil {
		return false
	}
	b, err := os.Stat(filepath.Join(root, "setup.py"))
	if err != nil {
		return false
	}
	return os.SameFile(a, b)
}
