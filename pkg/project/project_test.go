package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/cache"
	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/requirements"
)

const setupPy = `from setuptools import setup

setup(
    name="from-setup-py",
    version="1.0",
    packages=["pkg"],
    install_requires=["requests"],
    setup_requires=["cython"],
    tests_require=["pytest"],
)
`

const setupCfg = `[metadata]
name = from-setup-cfg

[options]
install_requires =
    attrs>=20
    importlib-metadata; python_version < "3.8"
setup_requires = wheel

[options.extras_require]
Docs =
    sphinx
`

const pyprojectTOML = `[project]
name = "from-pep621"
dependencies = ["httpx"]

[project.optional-dependencies]
cli = ["rich"]

[tool.poetry]
name = "from-poetry"

[tool.poetry.dependencies]
python = "^3.9"
Flask = "^2.0"

[tool.poetry.dev-dependencies]
pytest = "*"

[tool.poetry.group.lint.dependencies]
ruff = "*"
`

func names(reqs []requirements.Requirement) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Name)
	}
	return out
}

func TestDiscoverRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "")
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, DiscoverRoot(nested, nil))
	assert.Equal(t, root, DiscoverRoot(root, nil))
}

func TestIsProjectSetupPy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "setup.py"), setupPy)
	writeFile(t, filepath.Join(root, "docs", "setup.py"), setupPy)

	assert.True(t, IsProjectSetupPy(root, filepath.Join(root, "setup.py")))
	assert.True(t, IsProjectSetupPy(root, filepath.Join(root, "docs", "..", "setup.py")))
	assert.False(t, IsProjectSetupPy(root, filepath.Join(root, "docs", "setup.py")))
	assert.False(t, IsProjectSetupPy(root, filepath.Join(root, "missing.py")))
}

func TestReadSetupCfg(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "setup.cfg"), setupCfg)

	d := ReadSetupCfg(root, nil)
	assert.Equal(t, "from-setup-cfg", d.Name)
	assert.Equal(t, []string{"attrs>=20", `importlib-metadata; python_version < "3.8"`}, d.Install)
	assert.Equal(t, []string{"wheel"}, d.Setup)
	assert.Equal(t, map[string][]string{"docs": {"sphinx"}}, d.Extras)

	reqs, err := d.All(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"attrs", "importlib-metadata", "sphinx"}, names(reqs))
	assert.Equal(t, `python_version < "3.8"`, reqs[1].Marker)
}

func TestReadSetupCfgMissing(t *testing.T) {
	d := ReadSetupCfg(t.TempDir(), nil)
	assert.Equal(t, SourceSetupCfg, d.Source)
	assert.Empty(t, d.Strings(true, true, true, true))
}

func TestPyproject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), pyprojectTOML)
	p := ReadPyproject(root, nil)

	pep := p.PEP621()
	assert.Equal(t, "from-pep621", pep.Name)
	assert.Equal(t, []string{"httpx", "rich"}, pep.Strings(true, true, true, true))

	poetry := p.Poetry()
	assert.Equal(t, "from-poetry", poetry.Name)
	assert.Equal(t, []string{"Flask", "python"}, poetry.Install)
	assert.Equal(t, map[string][]string{
		"dev-dependencies": {"pytest"},
		"group.lint":       {"ruff"},
	}, poetry.Extras)
}

func TestPyprojectMalformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project\nname=")
	p := ReadPyproject(root, nil)
	assert.Empty(t, p.PEP621().Install)
	assert.Empty(t, p.Poetry().Install)
}

func TestReadRequirementsFile(t *testing.T) {
	root := t.TempDir()

	d, err := ReadRequirementsFile(root, "", 1, nil)
	require.NoError(t, err)
	assert.Empty(t, d.Install)

	d, err = ReadRequirementsFile(root, "reqs/missing.txt", 1, nil)
	require.NoError(t, err)
	assert.Empty(t, d.Install)

	writeFile(t, filepath.Join(root, "requirements.txt"), "foo\n-r base.txt\n")
	writeFile(t, filepath.Join(root, "base.txt"), "bar\n")
	d, err = ReadRequirementsFile(root, "", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceRequirements, d.Source)
	assert.Equal(t, []string{"foo", "bar"}, d.Install)

	_, err = ReadRequirementsFile(root, "", 0, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeMaxDepth))

	writeFile(t, filepath.Join(root, "broken.txt"), "-r nowhere.txt\n")
	_, err = ReadRequirementsFile(root, "broken.txt", 1, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeIncludeNotFound))
}

func TestResolverPriority(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "from-requirements\n")
	writeFile(t, filepath.Join(root, "pyproject.toml"), pyprojectTOML)

	r := NewResolver(Options{RootDir: root}, nil)
	sel, err := r.ThirdParty(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SourcePEP621, sel.Source)
	assert.Equal(t, "from-pep621", r.FirstPartyName(ctx))

	writeFile(t, filepath.Join(root, "setup.cfg"), setupCfg)
	r = NewResolver(Options{RootDir: root}, nil)
	sel, err = r.ThirdParty(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SourceSetupCfg, sel.Source)
	assert.Equal(t, "from-setup-cfg", r.FirstPartyName(ctx))

	writeFile(t, filepath.Join(root, "setup.py"), setupPy)
	r = NewResolver(Options{RootDir: root}, nil)
	sel, err = r.ThirdParty(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SourceSetupPy, sel.Source)
	assert.Equal(t, []string{"requests", "pytest"}, names(sel.Requirements))
	assert.Equal(t, "from-setup-py", r.FirstPartyName(ctx))

	sel, err = r.ThirdParty(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "pytest", "cython"}, names(sel.Requirements))
}

func TestResolverExplicitRequirementsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "setup.py"), setupPy)
	writeFile(t, filepath.Join(root, "dev.txt"), "black\n")

	r := NewResolver(Options{RootDir: root, RequirementsFile: "dev.txt", RequirementsMaxDepth: 1}, nil)
	sel, err := r.ThirdParty(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceRequirements, sel.Source)
	assert.Equal(t, []string{"black"}, names(sel.Requirements))
}

func TestResolverFallsBackToRequirements(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[build-system]\nrequires = [\"setuptools\"]\n")
	writeFile(t, filepath.Join(root, "requirements.txt"), "Django>=4\n!!nope\n")

	r := NewResolver(Options{RootDir: root}, nil)
	sel, err := r.ThirdParty(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, SourceRequirements, sel.Source)
	assert.Equal(t, []string{"Django"}, names(sel.Requirements))
	assert.Equal(t, "", r.FirstPartyName(context.Background()))
}

func TestResolverFatalInclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "-r missing.txt\n")

	r := NewResolver(Options{RootDir: root, RequirementsMaxDepth: 1}, nil)
	_, err := r.ThirdParty(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestResolverMemoizes(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "foo\n")

	memo := cache.NewMemo()
	r := NewResolver(Options{RootDir: root}, memo)
	first, err := r.ThirdParty(ctx, false)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "requirements.txt"), "bar\n")
	again, err := r.ThirdParty(ctx, false)
	require.NoError(t, err)
	assert.Same(t, first, again)

	memo.Reset()
	fresh, err := r.ThirdParty(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar"}, names(fresh.Requirements))
}

func TestResolverCanceledSetupNotMemoized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "setup.py"), setupPy)
	r := NewResolver(Options{RootDir: root}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, r.SetupScript(ctx).Detected())
	assert.True(t, r.SetupScript(context.Background()).Detected())
}
