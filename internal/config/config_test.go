package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("root", "", "")
	fs.String("requirements-file", "", "")
	fs.Int("requirements-max-depth", 1, "")
	fs.String("known-modules", "", "")
	fs.Bool("scan-host-site-packages", false, "")
	fs.Bool("verbose", false, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.RequirementsMaxDepth)
	assert.Equal(t, CacheFile, cfg.Cache)
	assert.False(t, cfg.ScanHostSitePackages)
	assert.Empty(t, cfg.Sources)

	table, err := cfg.KnownModuleTable()
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `[tool.reqcheck]
requirements-file = "from-pyproject.txt"
requirements-max-depth = 4
scan_host_site_packages = true
`)
	writeFile(t, filepath.Join(dir, "setup.cfg"), `[flake8]
max-line-length = 100
requirements-file = from-setup-cfg.txt
`)
	writeFile(t, filepath.Join(dir, "tox.ini"), `[flake8]
requirements-max-depth = 2
`)

	cfg, err := Load(context.Background(), LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "from-setup-cfg.txt", cfg.RequirementsFile)
	assert.Equal(t, 2, cfg.RequirementsMaxDepth)
	assert.True(t, cfg.ScanHostSitePackages)
	assert.Equal(t, []string{
		filepath.Join(dir, "pyproject.toml"),
		filepath.Join(dir, "setup.cfg"),
		filepath.Join(dir, "tox.ini"),
	}, cfg.Sources)

	t.Setenv("REQCHECK_REQUIREMENTS_MAX_DEPTH", "3")
	cfg, err = Load(context.Background(), LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.RequirementsMaxDepth)

	cfg, err = Load(context.Background(), LoadOptions{Dir: dir, Flags: flags(t, "--requirements-max-depth=5")})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RequirementsMaxDepth)
	assert.Equal(t, "from-setup-cfg.txt", cfg.RequirementsFile)
}

func TestLoadReqcheckSectionWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".flake8"), `[flake8]
known-modules = a:[b]
[reqcheck]
known-modules = my-lib:[mylib.drm,mylib.ex],
    :[vendored]
`)
	cfg, err := Load(context.Background(), LoadOptions{Dir: dir})
	require.NoError(t, err)

	table, err := cfg.KnownModuleTable()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"my_lib": {"mylib.drm", "mylib.ex"},
		"":       {"vendored"},
	}, table)
}

func TestKnownModulesTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `[tool.reqcheck]
known-modules-file = "modules.yaml"

[tool.reqcheck.known-modules]
Python-Boom = ["boom"]
`)
	writeFile(t, filepath.Join(dir, "modules.yaml"), "modules:\n  foo: [foo_core]\n  python-boom: [old]\n")

	cfg, err := Load(context.Background(), LoadOptions{Dir: dir})
	require.NoError(t, err)
	table, err := cfg.KnownModuleTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"boom"}, table["python_boom"])
	assert.Equal(t, []string{"foo_core"}, table["foo"])
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "setup.cfg"), "[flake8]\nrequirements-max-depth = -1\n")
	_, err := Load(context.Background(), LoadOptions{Dir: dir})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	t.Setenv("REQCHECK_CACHE", "memcached")
	_, err = Load(context.Background(), LoadOptions{Dir: t.TempDir()})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	t.Setenv("REQCHECK_CACHE", CacheRedis)
	_, err = Load(context.Background(), LoadOptions{Dir: t.TempDir()})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	t.Setenv("REQCHECK_REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load(context.Background(), LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, CacheRedis, cfg.Cache)
}

func TestLoadRootFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "setup.cfg"), "[reqcheck]\nrequirements-file = dev.txt\n")

	cfg, err := Load(context.Background(), LoadOptions{Flags: flags(t, "--root", dir)})
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, "dev.txt", cfg.RequirementsFile)
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, LoadOptions{Dir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}
