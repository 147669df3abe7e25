package pyeval

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPackageImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mypkg", "__init__.py"), "from ._version import __version__\nfrom . import util\n")
	writeFile(t, filepath.Join(dir, "mypkg", "_version.py"), "__version__ = '2.0'\n")
	writeFile(t, filepath.Join(dir, "mypkg", "util.py"), "def deps():\n    return ['attrs']\n")

	s, err := run(t, dir, `import mypkg
from mypkg import __version__ as v
from mypkg.util import deps
out = [v, mypkg.util.deps(), deps()]
`)
	require.NoError(t, err)
	assert.Equal(t, "['2.0', ['attrs'], ['attrs']]", reprOf(t, s, "out"))
}

func TestBrokenLocalModuleDegrades(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "helper.py"), "import missing_dependency\nraise ImportError('needs a compiler')\n")

	s, err := run(t, dir, `import helper
from helper import thing
value = helper.VERSION
`)
	require.NoError(t, err)
	v, _ := s.Get("value")
	assert.IsType(t, &Opaque{}, v)
	th, _ := s.Get("thing")
	assert.IsType(t, &Opaque{}, th)
}

func TestMissingNameFromCompleteModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "consts.py"), "A = 1\n")
	_, err := run(t, dir, "from consts import B\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ImportError")
}

func TestRelativeImportInMainFails(t *testing.T) {
	_, err := run(t, t.TempDir(), "from . import sibling\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no known parent package")
}

func TestSearchPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shared.py"), "NAME = 'shared'\n")

	path := &SearchPath{}
	path.Push(root)
	path.Push(t.TempDir())
	assert.Len(t, path.Dirs(), 2)
	path.Pop()
	assert.Equal(t, []string{root}, path.Dirs())

	s, err := run(t, t.TempDir(), "from shared import NAME\n", func(o *Options) { o.Path = path })
	require.NoError(t, err)
	assert.Equal(t, "'shared'", reprOf(t, s, "NAME"))

	path.Pop()
	path.Pop()
	assert.Empty(t, path.Dirs())
}

func TestUnknownModulesAreOpaque(t *testing.T) {
	s := mustRun(t, `from setuptools.command.build_ext import build_ext
import Cython.Build as cb
from distutils.core import Extension
ext = Extension("x", sources=["x.c"])
mods = cb.cythonize([ext])
`)
	for _, name := range []string{"build_ext", "cb", "ext", "mods"} {
		v, ok := s.Get(name)
		require.True(t, ok, name)
		switch v.(type) {
		case *Opaque, *Module:
		default:
			t.Fatalf("%s: unexpected %T", name, v)
		}
	}
}

func TestSandboxModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name": "demo", "deps": ["b", "a"], "n": 2}`)
	writeFile(t, filepath.Join(dir, "src", "one.py"), "")
	writeFile(t, filepath.Join(dir, "src", "two.py"), "")

	s, err := run(t, dir, `import json, glob, sys, os
from pathlib import Path
with open("package.json") as f:
    meta = json.load(f)
keys = list(meta)
found = sorted(os.path.basename(p) for p in glob.glob("src/*.py"))
here = Path(__file__).parent
readme = (here / "package.json").exists()
py3 = sys.version_info >= (3, 6)
major = sys.version_info.major
env = os.environ.get("HOME", "unset")
name = os.path.splitext("pkg.tar.gz")
`)
	require.NoError(t, err)
	assert.Equal(t, "['name', 'deps', 'n']", reprOf(t, s, "keys"))
	assert.Equal(t, "['one.py', 'two.py']", reprOf(t, s, "found"))
	assert.Equal(t, "True", reprOf(t, s, "readme"))
	assert.Equal(t, "True", reprOf(t, s, "py3"))
	assert.Equal(t, "3", reprOf(t, s, "major"))
	assert.Equal(t, "'unset'", reprOf(t, s, "env"))
	assert.Equal(t, "('pkg.tar', '.gz')", reprOf(t, s, "name"))
}
