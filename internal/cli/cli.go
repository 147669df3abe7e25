package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reqcheck/internal/config"
	"github.com/matzehuels/reqcheck/pkg/buildinfo"
	"github.com/matzehuels/reqcheck/pkg/cache"
	"github.com/matzehuels/reqcheck/pkg/checker"
	"github.com/matzehuels/reqcheck/pkg/modules"
	"github.com/matzehuels/reqcheck/pkg/project"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrFindings is returned by "check" when undeclared imports were found.
// main maps it to exit status 1 without printing it.
var ErrFindings = errors.New("undeclared imports found")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "reqcheck reports Python imports not covered by declared requirements",
		Long: `reqcheck classifies every import of a Python project as standard library,
first-party, third-party or missing. Third-party modules are matched against the
project's declared requirements (setup.py, setup.cfg, pyproject.toml or a
requirements file); undeclared imports are reported as I900.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.String("root", "", "project root (default: discovered from the working directory)")
	pf.String("requirements-file", "", "read requirements only from this file, relative to the root")
	pf.Int("requirements-max-depth", project.DefaultRequirementsMaxDepth, "maximum nesting of -r/-c includes")
	pf.String("known-modules", "", `extra project to module mappings, e.g. "my-lib:[mylib.core,mylib_ext]"`)
	pf.String("known-modules-file", "", "TOML or YAML file with project to module mappings")
	pf.Bool("scan-host-site-packages", false, "map projects through the metadata of installed packages")
	pf.String("cache", config.CacheFile, "host index cache backend: file, redis or none")
	pf.String("redis-url", "", "redis URL for --cache=redis")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.requirementsCommand())
	root.AddCommand(c.modulesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// loadConfig resolves the settings for cmd from project files, environment
// and flags.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	if len(cfg.Sources) > 0 {
		c.Logger.Debug("loaded settings", "sources", cfg.Sources)
	}
	return cfg, nil
}

// newEngine builds the classification engine cmd runs against.
func (c *CLI) newEngine(cmd *cobra.Command) (*checker.Engine, *config.Config, error) {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	known, err := cfg.KnownModuleTable()
	if err != nil {
		return nil, nil, err
	}

	var host map[string][]string
	if cfg.ScanHostSitePackages {
		host, err = c.hostIndex(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	engine, err := checker.New(checker.Options{
		RootDir:              cfg.Root,
		RequirementsFile:     cfg.RequirementsFile,
		RequirementsMaxDepth: cfg.RequirementsMaxDepth,
		KnownModules:         known,
		HostModules:          host,
		Logger:               c.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	if engine.RootDir() == "" {
		c.Logger.Warn("no project root found; only the standard library is known")
	} else {
		c.Logger.Debug("project root", "dir", engine.RootDir())
	}
	return engine, cfg, nil
}

// hostIndex scans the interpreter's site-packages directories, reusing a
// cached index while the directories are unchanged.
func (c *CLI) hostIndex(ctx context.Context, cfg *config.Config) (map[string][]string, error) {
	store, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	dirs := modules.SitePackagesDirs()
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, os.Stderr, "Indexing installed packages...")
	if c.Logger.GetLevel() > log.DebugLevel {
		spinner.Start()
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":")
	index := modules.HostIndex(ctx, store, keyer, dirs, c.Logger)
	spinner.Stop()
	prog.done("indexed installed packages", "dirs", len(dirs), "projects", len(index))
	return index, nil
}

// newCache opens the persistent store named by cfg.Cache.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/reqcheck/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
