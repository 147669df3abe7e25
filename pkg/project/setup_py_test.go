package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/internal/pyeval"
	"github.com/matzehuels/reqcheck/internal/pysrc"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func firstCall(t *testing.T, src string) *pysrc.Call {
	t.Helper()
	m, err := pysrc.Parse([]byte(src))
	require.NoError(t, err)
	var call *pysrc.Call
	pysrc.Inspect(m, func(n pysrc.Node) bool {
		if c, ok := n.(*pysrc.Call); ok && call == nil {
			call = c
		}
		return true
	})
	require.NotNil(t, call)
	return call
}

func TestScoreSetupCall(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"typical", `setup(name="x", version="1", packages=[], author="a", install_requires=[])`, true},
		{"too few keywords", `setup(name="x", version="1", packages=[], install_requires=[])`, false},
		{"duplicate keywords count once", `setup(name="x", name="y", version="1", packages=[], author="a")`, false},
		{"positional argument", `setup("x", name="x", version="1", packages=[], author="a", license="MIT")`, false},
		{"low score", `run(name="x", a=1, b=2, c=3, d=4)`, false},
		{"dict expansion", `setup(name="x", **{"version": "1", "packages": [], "author": "a", "url": "u"})`, true},
		{"opaque expansion", `setup(name="x", version="1", packages=[], author="a", url="u", **meta)`, false},
		{"non-literal dict key", `setup(name="x", **{key: "1", "packages": [], "author": "a", "url": "u"})`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ScoreSetupCall(firstCall(t, tt.src))
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestScoreSetupCallValue(t *testing.T) {
	score, ok := ScoreSetupCall(firstCall(t, `setup(name="x", version="1", ext_modules=[], py_modules=[], zip_safe=False)`))
	require.True(t, ok)
	assert.InDelta(t, (0.7+0.7+1.0+1.0+0.6)/5, score, 1e-9)
}

func TestEvalSetupScript(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mypkg", "__init__.py"), "__version__ = '0.1'\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# my-pkg\n")
	src := `import os
from setuptools import setup, find_packages
from mypkg import __version__

here = os.path.dirname(os.path.abspath(__file__))
with open("README.md") as f, open("mypkg/__init__.py") as g:
    long_description = f.read()

setup(
    name="my-pkg",
    version=__version__,
    long_description=long_description,
    packages=find_packages(exclude=["tests"]),
    install_requires=["requests>=2", "click"],
    extras_require={"yaml": ["PyYAML"], "all": "PyYAML\nujson"},
    setup_requires="pytest-runner",
    tests_require=["pytest"],
)
`
	s := EvalSetupScript(context.Background(), []byte(src), dir, nil)
	require.True(t, s.Detected())
	assert.Equal(t, "my-pkg", s.Name())
	assert.Equal(t, pyeval.Str("0.1"), s.Keywords()["version"])
	assert.Equal(t, pyeval.Str("# my-pkg\n"), s.Keywords()["long_description"])

	d := s.Declarations()
	assert.Equal(t, SourceSetupPy, d.Source)
	assert.Equal(t, []string{"requests>=2", "click"}, d.Install)
	assert.Equal(t, map[string][]string{"yaml": {"PyYAML"}, "all": {"PyYAML", "ujson"}}, d.Extras)
	assert.Equal(t, []string{"pytest-runner"}, d.Setup)

	reqs, err := s.Requirements(true, false, true, false)
	require.NoError(t, err)
	var names []string
	for _, r := range reqs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"requests", "click", "pytest-runner"}, names)
	assert.Empty(t, pyeval.DefaultPath.Dirs())
}

func TestEvalSetupScriptNotDetected(t *testing.T) {
	tests := map[string]string{
		"no setup call":   "import os\nprint(os.getcwd())\n",
		"syntax error":    "setup(name=\n",
		"raises":          "from setuptools import setup\nraise RuntimeError('no')\nsetup(name='x', version='1', packages=[], author='a', license='MIT')\n",
		"writes a file":   "open('out.txt', 'w').write('x')\nsetup(name='x', version='1', packages=[], author='a', license='MIT')\n",
		"infinite loop":   "while True:\n    pass\nsetup(name='x', version='1', packages=[], author='a', license='MIT')\n",
		"below threshold": "setup(name='x', version='1')\n",
		"huge string":     "a = 'a' * (10**12)\nsetup(name='x', version='1', packages=[], author='a', license='MIT')\n",
		"huge list":       "a = [0] * 10**12\nsetup(name='x', version='1', packages=[], author='a', license='MIT')\n",
		"int overflow":    "a = 10 ** (10**9)\nsetup(name='x', version='1', packages=[], author='a', license='MIT')\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			s := EvalSetupScript(context.Background(), []byte(src), t.TempDir(), nil)
			assert.False(t, s.Detected())
			assert.Empty(t, s.Declarations().Install)
			assert.Empty(t, pyeval.DefaultPath.Dirs())
		})
	}
}

func TestReadSetupScriptMissing(t *testing.T) {
	s := ReadSetupScript(context.Background(), t.TempDir(), nil)
	assert.False(t, s.Detected())
	assert.Equal(t, "", s.Name())
}

func TestRedirectSetupCalls(t *testing.T) {
	m, err := pysrc.Parse([]byte(`def main():
    setuptools.setup(name="a", version="1", packages=[], author="x", license="MIT")
other(name="a")
`))
	require.NoError(t, err)
	assert.Equal(t, 1, RedirectSetupCalls(m, nil))

	var names []string
	pysrc.Inspect(m, func(n pysrc.Node) bool {
		if c, ok := n.(*pysrc.Call); ok {
			if name, ok := c.Func.(*pysrc.Name); ok {
				names = append(names, name.ID)
			}
		}
		return true
	})
	assert.Equal(t, []string{CaptureName, "other"}, names)
}
