package pyeval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func run(t *testing.T, dir, src string, opts ...func(*Options)) (*Scope, error) {
	t.Helper()
	o := Options{Dir: dir, Filename: filepath.Join(dir, "setup.py"), Path: &SearchPath{}}
	for _, fn := range opts {
		fn(&o)
	}
	return New(o).ExecSource(context.Background(), []byte(src))
}

func mustRun(t *testing.T, src string) *Scope {
	t.Helper()
	scope, err := run(t, t.TempDir(), src)
	require.NoError(t, err)
	return scope
}

func reprOf(t *testing.T, s *Scope, name string) string {
	t.Helper()
	v, ok := s.Get(name)
	require.True(t, ok, "%s is not bound", name)
	return Repr(v)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSetupScriptCapture(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "# demo\n")
	writeFile(t, filepath.Join(dir, "requirements.txt"), "requests>=2\n# comment\nclick\n")

	var captured map[string]Value
	capture := &Builtin{Name: "capture", Fn: func(_ *Interp, _ []Value, kwargs []Kwarg) (Value, error) {
		captured = map[string]Value{}
		for _, kw := range kwargs {
			captured[kw.Name] = kw.Value
		}
		return None, nil
	}}

	src := `import os
from os import path
import numpy

here = path.abspath(path.dirname(__file__))
with open(os.path.join(here, "README.md"), encoding="utf-8") as f:
    long_description = f.read()

def read_requirements(name):
    with open(name) as fh:
        return [l.strip() for l in fh if l.strip() and not l.startswith("#")]

extras = {"test": ["pytest"], "docs": ["sphinx>=4"]}
extras["all"] = sorted({r for reqs in extras.values() for r in reqs})

if __name__ == "__main__":
    capture(
        name="demo",
        version="1.0",
        long_description=long_description,
        include_dirs=[numpy.get_include()],
        install_requires=read_requirements("requirements.txt"),
        extras_require=extras,
    )
`
	_, err := run(t, dir, src, func(o *Options) {
		o.Globals = map[string]Value{"capture": capture}
	})
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, Str("demo"), captured["name"])
	assert.Equal(t, Str("# demo\n"), captured["long_description"])
	assert.Equal(t, "['requests>=2', 'click']", Repr(captured["install_requires"]))
	assert.Equal(t, "{'test': ['pytest'], 'docs': ['sphinx>=4'], 'all': ['pytest', 'sphinx>=4']}", Repr(captured["extras_require"]))
	assert.Equal(t, "[<numpy.get_include()>]", Repr(captured["include_dirs"]))
}

func TestOpaqueValuesAreFalsyAndEmpty(t *testing.T) {
	s := mustRun(t, `import numpy as np
x = np.array([1, 2])
y = [1] if x else [2]
z = [v for v in np.arange(10)]
w = x.shape[0] + 1
`)
	assert.Equal(t, "[2]", reprOf(t, s, "y"))
	assert.Equal(t, "[]", reprOf(t, s, "z"))
	v, _ := s.Get("w")
	assert.IsType(t, &Opaque{}, v)
}

func TestExecVersionFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pkg", "version.py"), "__version__ = '3.2.1'\n")
	scope, err := run(t, dir, `about = {}
with open("pkg/version.py") as f:
    exec(f.read(), about)
version = about["__version__"]
`)
	require.NoError(t, err)
	assert.Equal(t, "'3.2.1'", reprOf(t, scope, "version"))
}

func TestRegexVersionScrape(t *testing.T) {
	s := mustRun(t, `import re
text = "name = 'x'\n__version__ = \"0.4.2\"\n"
version = re.search(r"__version__\s*=\s*['\"]([^'\"]+)['\"]", text).group(1)
parts = re.split(r"[.]", version)
missing = re.match(r"nope", text)
`)
	assert.Equal(t, "'0.4.2'", reprOf(t, s, "version"))
	assert.Equal(t, "['0', '4', '2']", reprOf(t, s, "parts"))
	assert.Equal(t, "None", reprOf(t, s, "missing"))
}

func TestStringFormatting(t *testing.T) {
	s := mustRun(t, `name = "demo"
ver = (1, 2)
a = f"{name}-{ver[0]}.{ver[1]}"
b = "%s==%d.%d" % (name, ver[0], ver[1])
c = "{}-{v}".format(name, v=ver[1])
d = f"{name!r:>8}"
e = "%(n)s" % {"n": name}
g = ".".join(str(v) for v in ver)
`)
	assert.Equal(t, "'demo-1.2'", reprOf(t, s, "a"))
	assert.Equal(t, "'demo==1.2'", reprOf(t, s, "b"))
	assert.Equal(t, "'demo-2'", reprOf(t, s, "c"))
	assert.Equal(t, `"  'demo'"`, reprOf(t, s, "d"))
	assert.Equal(t, "'demo'", reprOf(t, s, "e"))
	assert.Equal(t, "'1.2'", reprOf(t, s, "g"))
}

func TestExceptions(t *testing.T) {
	s := mustRun(t, `caught = []
try:
    {}["missing"]
except KeyError:
    caught.append("key")
try:
    raise ValueError("bad")
except Exception as e:
    caught.append(str(e))
try:
    open("setup.cfg", "w")
except PermissionError:
    caught.append("readonly")
try:
    open("does-not-exist.txt")
except IOError:
    caught.append("missing-file")
finally:
    caught.append("finally")
`)
	assert.Equal(t, "['key', 'bad', 'readonly', 'missing-file', 'finally']", reprOf(t, s, "caught"))
}

func TestUncaughtExceptionIsEvalError(t *testing.T) {
	_, err := run(t, t.TempDir(), "import sys\nx = 1\nraise RuntimeError('boom')\n")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEval, errors.GetCode(err))
	assert.Contains(t, err.Error(), "RuntimeError: boom")
}

func TestSysExitIsAnError(t *testing.T) {
	_, err := run(t, t.TempDir(), "import sys\nsys.exit('unsupported python')\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SystemExit")
}

func TestStepBudgetCannotBeCaught(t *testing.T) {
	src := `try:
    while True:
        pass
except BaseException:
    pass
`
	_, err := run(t, t.TempDir(), src, func(o *Options) { o.MaxSteps = 500 })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step budget")
}

func TestRecursionLimit(t *testing.T) {
	src := "def f(n):\n    return f(n + 1)\nf(0)\n"
	_, err := run(t, t.TempDir(), src, func(o *Options) { o.MaxDepth = 20 })
	require.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := New(Options{Filename: "setup.py"})
	_, err := in.ExecSource(ctx, []byte("i = 0\nwhile True:\n    i += 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canceled")
}

func TestClassesAndClosures(t *testing.T) {
	s := mustRun(t, `class Command:
    name = "base"
    def __init__(self, flag=False):
        self.flag = flag
    def describe(self):
        return "%s:%s" % (self.name, self.flag)

class Build(Command):
    name = "build"

def counter():
    n = 0
    def inc():
        nonlocal n
        n += 1
        return n
    return inc

inc = counter()
inc()
out = [Build(True).describe(), inc(), isinstance(Build(), Command)]
`)
	assert.Equal(t, "['build:True', 2, True]", reprOf(t, s, "out"))
}

func TestGeneratorFunctionsRaise(t *testing.T) {
	_, err := run(t, t.TempDir(), "def g():\n    yield 1\nlist(g())\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypeError")
}

func TestBuiltins(t *testing.T) {
	s := mustRun(t, `a = sorted(["b", "a", "c"], reverse=True)
b = list(zip([1, 2, 3], "ab"))
c = dict(enumerate("xy", start=1))
d = [min(3, 1, 2), max([4, 9, 2]), sum(range(5)), abs(-3)]
e = list(map(lambda s: s.upper(), ["a", "b"]))
f = list(filter(None, [0, 1, "", "x"]))
g = [any([]), all([]), bool("x"), int("42"), float("1.5")]
class Empty:
    pass
h = getattr(Empty(), "missing", "fallback")
i = [hasattr("s", "upper"), callable(len), len({1, 2, 2})]
`)
	assert.Equal(t, "['c', 'b', 'a']", reprOf(t, s, "a"))
	assert.Equal(t, "[(1, 'a'), (2, 'b')]", reprOf(t, s, "b"))
	assert.Equal(t, "{1: 'x', 2: 'y'}", reprOf(t, s, "c"))
	assert.Equal(t, "[1, 9, 10, 3]", reprOf(t, s, "d"))
	assert.Equal(t, "['A', 'B']", reprOf(t, s, "e"))
	assert.Equal(t, "[1, 'x']", reprOf(t, s, "f"))
	assert.Equal(t, "[False, True, True, 42, 1.5]", reprOf(t, s, "g"))
	assert.Equal(t, "'fallback'", reprOf(t, s, "h"))
	assert.Equal(t, "[True, True, 2]", reprOf(t, s, "i"))
}

func TestRangeStepZero(t *testing.T) {
	_, err := run(t, t.TempDir(), "range(0, 10, 0)\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ValueError")
}
