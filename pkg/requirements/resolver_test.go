package requirements

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveLine(t *testing.T) {
	r := NewResolver(t.TempDir(), 1)
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"# comment", nil},
		{"#-r requirements.txt", nil},
		{"foo", []string{"foo"}},
		{"  foo >= 1.0  ", []string{"foo >= 1.0"}},
		{"-e .", nil},
		{"-e .[dev]", nil},
		{"--editable .", nil},
		{"-e . --no-deps", nil},
		{"-e .[dev] --no-deps", nil},
		{"-e ./packages/local-lib", []string{"local-lib"}},
		{"-e ./packages/local-lib[extra]", []string{"local-lib[extra]"}},
		{"-e git+https://host/repo.git#egg=theproject", []string{"theproject"}},
		{"git+https://host/repo.git#egg=theproject", []string{"theproject"}},
		{"hg+https://host/repo#egg=other.name-x", []string{"other.name-x"}},
		{"mypkg-1.2.3.tar.gz", []string{"mypkg == 1.2.3"}},
		{"./dist/mypkg-1.2.3-py3-none-any.whl", []string{"mypkg == 1.2.3"}},
		{"vendor/MyPkg.ZIP", []string{"MyPkg"}},
		{"https://host/files/lib-2.0.tgz#sha256=abc", []string{"lib == 2.0"}},
		{"--index-url https://pypi.org/simple", nil},
		{"-c constraints.txt", nil},
		{"foo==1.0 --hash=sha256:abcdef", []string{"foo==1.0"}},
		{"foo --install-option=--prefix", []string{"foo"}},
		{"foo --global-option=build", []string{"foo"}},
		{"zipp >= 3", []string{"zipp >= 3"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := r.Resolve(tt.line, 1, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "foo\n-r reqs/base.txt\n")
	writeFile(t, filepath.Join(root, "reqs", "base.txt"), "# base\nbar \\\n  >= 2\n-r extra.txt\n")
	writeFile(t, filepath.Join(root, "reqs", "extra.txt"), "-e .\nbaz\n")

	r := NewResolver(root, 2)

	got, err := r.Resolve("-r requirements.txt", 3, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar >= 2", "baz"}, got)

	got, err = r.Resolve("--requirement=requirements.txt", 3, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar >= 2", "baz"}, got)
}

func TestResolveIncludeDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "foo\n-r requirements.txt\n")

	r := NewResolver(root, 1)
	_, err := r.Resolve("-r requirements.txt", 2, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeMaxDepth))
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), "--requirements-max-depth=1")

	_, err = r.Resolve("-r requirements.txt", 0, "")
	assert.True(t, errors.Is(err, errors.ErrCodeMaxDepth))
}

func TestResolveIncludeMissing(t *testing.T) {
	r := NewResolver(t.TempDir(), 1)
	_, err := r.Resolve("-r missing.txt", 1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeIncludeNotFound))
	assert.True(t, errors.IsFatal(err))
}

func TestResolveIncludeAbsolute(t *testing.T) {
	other := t.TempDir()
	path := filepath.Join(other, "deps.txt")
	writeFile(t, path, "qux\n")

	r := NewResolver(t.TempDir(), 1)
	got, err := r.Resolve("-r "+path, 1, "/nonexistent")
	require.NoError(t, err)
	assert.Equal(t, []string{"qux"}, got)
}

func TestResolveFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements", "prod.txt"), "foo\n-r common.txt\n")
	writeFile(t, filepath.Join(root, "requirements", "common.txt"), "bar\n")

	r := NewResolver(root, 1)
	got, err := r.ResolveFile("requirements/prod.txt", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, got)

	_, err = r.ResolveFile("nope.txt", 1)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
	assert.False(t, errors.IsFatal(err))
}
