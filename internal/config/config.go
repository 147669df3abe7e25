// Package config loads reqcheck settings with viper.
//
// Sources are layered, later ones winning: built-in defaults, the
// [tool.reqcheck] table of pyproject.toml, the [flake8] and [reqcheck]
// sections of setup.cfg, tox.ini and .flake8, REQCHECK_* environment
// variables, and finally command-line flags. Option names may be written
// with dashes or underscores ("requirements-max-depth" and
// "requirements_max_depth" are the same key).
package config

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/modules"
	"github.com/matzehuels/reqcheck/pkg/project"
)

const (
	// AppName is the application name.
	AppName = "reqcheck"
	// EnvPrefix prefixes environment overrides, as in REQCHECK_REQUIREMENTS_FILE.
	EnvPrefix = "REQCHECK"
)

// Keys of the settings.
const (
	KeyRoot                 = "root"
	KeyRequirementsFile     = "requirements_file"
	KeyRequirementsMaxDepth = "requirements_max_depth"
	KeyKnownModules         = "known_modules"
	KeyKnownModulesFile     = "known_modules_file"
	KeyScanHostSitePackages = "scan_host_site_packages"
	KeyCache                = "cache"
	KeyRedisURL             = "redis_url"
)

// Cache backends for the host site-packages index.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// iniSections are read from every ini file, later sections winning.
var iniSections = []string{"flake8", AppName}

// iniFiles are read from the project root in order, later files winning.
var iniFiles = []string{"setup.cfg", "tox.ini", ".flake8"}

// Config holds the resolved settings.
type Config struct {
	Root                 string `mapstructure:"root"`
	RequirementsFile     string `mapstructure:"requirements_file"`
	RequirementsMaxDepth int    `mapstructure:"requirements_max_depth"`
	// KnownModules is either the inline "project:[mod,...]" syntax or a
	// table of project name to module list.
	KnownModules         any    `mapstructure:"known_modules"`
	KnownModulesFile     string `mapstructure:"known_modules_file"`
	ScanHostSitePackages bool   `mapstructure:"scan_host_site_packages"`
	Cache                string `mapstructure:"cache"`
	RedisURL             string `mapstructure:"redis_url"`

	// Sources lists the configuration files that contributed settings.
	Sources []string `mapstructure:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		RequirementsMaxDepth: project.DefaultRequirementsMaxDepth,
		Cache:                CacheFile,
	}
}

// LoadOptions control where Load looks for settings.
type LoadOptions struct {
	// Dir holds the project configuration files. Empty means the root
	// discovered from the current directory, or the current directory.
	Dir string

	// Flags are bound by name, with dashes mapped to underscores. Only
	// flags the user set override lower layers.
	Flags *pflag.FlagSet
}

// Load resolves the settings for opts.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := Default()
	v.SetDefault(KeyRoot, defaults.Root)
	v.SetDefault(KeyRequirementsFile, defaults.RequirementsFile)
	v.SetDefault(KeyRequirementsMaxDepth, defaults.RequirementsMaxDepth)
	v.SetDefault(KeyKnownModules, "")
	v.SetDefault(KeyKnownModulesFile, defaults.KnownModulesFile)
	v.SetDefault(KeyScanHostSitePackages, defaults.ScanHostSitePackages)
	v.SetDefault(KeyCache, defaults.Cache)
	v.SetDefault(KeyRedisURL, defaults.RedisURL)

	dir := opts.Dir
	if dir == "" && opts.Flags != nil {
		if f := opts.Flags.Lookup("root"); f != nil && f.Changed {
			dir = f.Value.String()
		}
	}
	if dir == "" {
		if cwd, err := os.Getwd(); err == nil {
			dir = project.DiscoverRoot(cwd, nil)
			if dir == "" {
				dir = cwd
			}
		}
	}

	var sources []string
	if table, ok, err := readPyprojectTable(filepath.Join(dir, "pyproject.toml")); err != nil {
		return nil, err
	} else if ok {
		if err := v.MergeConfigMap(table); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "merge pyproject.toml")
		}
		sources = append(sources, filepath.Join(dir, "pyproject.toml"))
	}
	for _, name := range iniFiles {
		path := filepath.Join(dir, name)
		table, ok, err := readINISections(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := v.MergeConfigMap(table); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "merge %s", name)
		}
		sources = append(sources, path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			if key := normalizeKey(f.Name); isKnownKey(key) {
				_ = v.BindPFlag(key, f)
			}
		})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode settings")
	}
	if cfg.Root == "" {
		cfg.Root = opts.Dir
	}
	cfg.Sources = sources
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.RequirementsMaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"requirements-max-depth must not be negative, got %d", c.RequirementsMaxDepth)
	}
	switch c.Cache {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache %q needs redis-url", c.Cache)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"unknown cache %q (want %s, %s or %s)", c.Cache, CacheFile, CacheRedis, CacheNone)
	}
	return nil
}

// KnownModuleTable returns the user's project-to-modules overrides: the
// known-modules file first, then the inline setting on top.
func (c *Config) KnownModuleTable() (map[string][]string, error) {
	out := make(map[string][]string)
	if c.KnownModulesFile != "" {
		path := c.KnownModulesFile
		if !filepath.IsAbs(path) && c.Root != "" {
			path = filepath.Join(c.Root, path)
		}
		table, err := modules.LoadKnownModules(path)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, table)
	}

	switch km := c.KnownModules.(type) {
	case nil:
	case string:
		if strings.TrimSpace(km) == "" {
			break
		}
		table, err := modules.ParseKnownModules(km)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, table)
	case map[string]any:
		for name, raw := range km {
			list, ok := raw.([]any)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "known-modules entry %q must be a list", name)
			}
			mods := make([]string, 0, len(list))
			for _, m := range list {
				s, ok := m.(string)
				if !ok {
					return nil, errors.New(errors.ErrCodeInvalidConfig, "known-modules entry %q must list strings", name)
				}
				if err := errors.ValidateModulePath(s); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "known-modules entry %q", name)
				}
				mods = append(mods, s)
			}
			out[modules.ProjectModules(name)[0]] = mods
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "known-modules has unsupported type %T", km)
	}
	return out, nil
}

func normalizeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[normalizeKey(k)] = v
	}
	return out
}

// readPyprojectTable returns the [tool.reqcheck] table of path.
func readPyprojectTable(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, nil
	}
	var doc struct {
		Tool map[string]map[string]any `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	table, ok := doc.Tool[AppName]
	if !ok {
		return nil, false, nil
	}
	return normalizeKeys(table), true, nil
}

// readINISections returns the merged reqcheck options of an ini file.
func readINISections(path string) (map[string]any, bool, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, false, nil
	}
	f, err := project.LoadINI(path)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	out := make(map[string]any)
	found := false
	for _, name := range iniSections {
		sec, err := f.GetSection(name)
		if err != nil {
			continue
		}
		for _, key := range sec.Keys() {
			k := normalizeKey(key.Name())
			if !isKnownKey(k) {
				continue
			}
			out[k] = strings.TrimSpace(key.String())
			found = true
		}
	}
	return out, found, nil
}

func isKnownKey(k string) bool {
	switch k {
	case KeyRoot, KeyRequirementsFile, KeyRequirementsMaxDepth, KeyKnownModules,
		KeyKnownModulesFile, KeyScanHostSitePackages, KeyCache, KeyRedisURL:
		return true
	}
	return false
}
