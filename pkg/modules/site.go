package modules

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqcheck/pkg/cache"
	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/observability"
	"github.com/matzehuels/reqcheck/pkg/requirements"
)

// SiteIndexTTL bounds how long a persisted host index is trusted even when
// the scanned directories are unchanged.
const SiteIndexTTL = 24 * time.Hour

// SitePackagesDirs returns the site-packages directories of the active
// Python environment that exist on disk: the virtual environment named by
// VIRTUAL_ENV (or CONDA_PREFIX), the user site directory and the system
// prefixes.
func SitePackagesDirs() []string {
	var patterns []string
	for _, env := range []string{"VIRTUAL_ENV", "CONDA_PREFIX"} {
		if prefix := os.Getenv(env); prefix != "" {
			patterns = append(patterns, prefixPatterns(prefix)...)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		patterns = append(patterns, filepath.Join(home, ".local", "lib", "python3*", "site-packages"))
	}
	if runtime.GOOS != "windows" {
		for _, prefix := range []string{"/usr/local", "/usr", "/opt/homebrew"} {
			patterns = append(patterns, prefixPatterns(prefix)...)
		}
	}

	var dirs []string
	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, dir := range matches {
			if info, err := os.Stat(dir); err == nil && info.IsDir() && !slices.Contains(dirs, dir) {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

func prefixPatterns(prefix string) []string {
	return []string{
		filepath.Join(prefix, "lib", "python3*", "site-packages"),
		filepath.Join(prefix, "lib", "python3*", "dist-packages"),
		filepath.Join(prefix, "lib", "python3", "dist-packages"),
		filepath.Join(prefix, "Lib", "site-packages"),
	}
}

// ScanSitePackages builds a project-to-modules index from the installed
// distribution metadata in dirs. Both "*.egg-info" and "*.dist-info"
// directories are read: the project name comes from PKG-INFO or METADATA,
// the modules from top_level.txt, or from RECORD when top_level.txt is
// absent. Unreadable directories and entries are skipped.
func ScanSitePackages(dirs []string, logger *log.Logger) map[string][]string {
	if logger == nil {
		logger = log.Default()
	}
	index := make(map[string][]string)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Debug("skip site dir", "dir", dir, "err", err)
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			var metaFile string
			switch {
			case strings.HasSuffix(e.Name(), ".egg-info"):
				metaFile = "PKG-INFO"
			case strings.HasSuffix(e.Name(), ".dist-info"):
				metaFile = "METADATA"
			default:
				continue
			}
			info := filepath.Join(dir, e.Name())
			name, err := distributionName(filepath.Join(info, metaFile))
			if err != nil || name == "" {
				logger.Debug("skip distribution", "path", info, "err", err)
				continue
			}
			mods := topLevelModules(info)
			if len(mods) == 0 {
				continue
			}
			for _, key := range ProjectModules(name) {
				index[key] = mods
			}
		}
	}
	return index
}

// distributionName returns the value of the first "Name:" header of a
// PKG-INFO or METADATA file.
func distributionName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range requirements.SplitLines(string(data)) {
		if line == "" {
			break
		}
		if len(line) > 5 && strings.EqualFold(line[:5], "name:") {
			return strings.TrimSpace(line[5:]), nil
		}
	}
	return "", nil
}

func topLevelModules(infoDir string) []string {
	if data, err := os.ReadFile(filepath.Join(infoDir, "top_level.txt")); err == nil {
		return requirements.YieldLines(string(data))
	}
	f, err := os.Open(filepath.Join(infoDir, "RECORD"))
	if err != nil {
		return nil
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var mods []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return mods
		}
		if mod := recordModule(rec[0]); mod != "" && !slices.Contains(mods, mod) {
			mods = append(mods, mod)
		}
	}
	slices.Sort(mods)
	return mods
}

// recordModule returns the top-level module a RECORD path installs, or ""
// for metadata, scripts and data files.
func recordModule(path string) string {
	top, rest, nested := strings.Cut(path, "/")
	switch {
	case top == "" || top == ".." || top == "__pycache__":
		return ""
	case strings.HasSuffix(top, ".dist-info"), strings.HasSuffix(top, ".data"), strings.HasSuffix(top, ".pth"):
		return ""
	case nested:
		if rest == "" || errors.ValidateModulePath(top) != nil {
			return ""
		}
		return top
	case strings.HasSuffix(top, ".py"):
		return strings.TrimSuffix(top, ".py")
	case strings.HasSuffix(top, ".so"), strings.HasSuffix(top, ".pyd"):
		mod, _, _ := strings.Cut(top, ".")
		return mod
	}
	return ""
}

// HostIndex returns the host site-packages index, reading it from c when
// an entry for the current directory stamps exists and scanning otherwise.
// A nil cache always scans.
func HostIndex(ctx context.Context, c cache.Cache, keyer cache.Keyer, dirs []string, logger *log.Logger) map[string][]string {
	if logger == nil {
		logger = log.Default()
	}
	if c == nil {
		return ScanSitePackages(dirs, logger)
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}

	stamps := make([]cache.DirStamp, 0, len(dirs))
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil {
			stamps = append(stamps, cache.DirStamp{Path: dir, ModTime: info.ModTime().UnixNano()})
		}
	}
	key := keyer.SiteIndexKey(stamps)

	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		var index map[string][]string
		if err := json.Unmarshal(data, &index); err == nil {
			observability.Cache().OnCacheHit(ctx, "site-index")
			return index
		}
	}
	observability.Cache().OnCacheMiss(ctx, "site-index")

	index := ScanSitePackages(dirs, logger)
	if data, err := json.Marshal(index); err == nil {
		if err := c.Set(ctx, key, data, SiteIndexTTL); err != nil {
			logger.Debug("persist site index", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "site-index", len(data))
		}
	}
	logger.Debug("scanned site packages", "dirs", len(dirs), "projects", len(index))
	return index
}
