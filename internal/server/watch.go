package server

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the
// watcher reports a change.
const DefaultDebounce = 250 * time.Millisecond

// declarationFiles are the file names whose changes invalidate the
// engine's project state.
var declarationFiles = []string{"setup.py", "setup.cfg", "pyproject.toml"}

// IsDeclarationFile reports whether a change to path can alter the
// project's declared requirements or name.
func IsDeclarationFile(path string) bool {
	base := filepath.Base(path)
	if slices.Contains(declarationFiles, base) {
		return true
	}
	switch filepath.Ext(base) {
	case ".txt", ".in":
		return strings.Contains(strings.ToLower(base), "requirement")
	}
	return false
}

// WatchConfig holds the parameters of a Watcher.
type WatchConfig struct {
	// Root is the project root. It is always watched.
	Root string
	// Files are further declaration files, such as an explicit
	// requirements file. Their directories are watched too; missing
	// directories are skipped.
	Files []string
	// Debounce of zero means DefaultDebounce.
	Debounce time.Duration
	// OnChange receives the sorted declaration files that changed.
	OnChange func(ctx context.Context, changed []string)
	Logger   *log.Logger
}

// Watcher reports changes to declaration files. Events within the debounce
// window are coalesced into one callback.
type Watcher struct {
	cfg   WatchConfig
	fsw   *fsnotify.Watcher
	extra map[string]bool
}

// NewWatcher starts watching the configured directories. Run must be
// called to deliver events; Run closes the watcher.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(cfg.Root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", cfg.Root, err)
	}
	extra := make(map[string]bool)
	for _, file := range cfg.Files {
		if file == "" {
			continue
		}
		file = filepath.Clean(file)
		extra[file] = true
		dir := filepath.Dir(file)
		if dir == filepath.Clean(cfg.Root) {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			cfg.Logger.Debug("not watching directory", "dir", dir, "err", err)
		}
	}
	return &Watcher{cfg: cfg, fsw: fsw, extra: extra}, nil
}

// Run delivers debounced changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) > 0 && w.cfg.OnChange != nil {
			w.cfg.OnChange(ctx, changed)
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		w.fsw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: event channel closed")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			if !IsDeclarationFile(evt.Name) && !w.extra[filepath.Clean(evt.Name)] {
				continue
			}
			w.cfg.Logger.Debug("declaration file changed", "path", evt.Name, "op", evt.Op.String())
			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.cfg.Debounce, fire)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			mu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: error channel closed")
			}
			w.cfg.Logger.Warn("watch error", "err", err)
		}
	}
}
