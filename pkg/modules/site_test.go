package modules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/cache"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fakeSite(t *testing.T) string {
	t.Helper()
	site := t.TempDir()
	writeFile(t, filepath.Join(site, "Pillow-10.0.0.egg-info", "PKG-INFO"),
		"Metadata-Version: 2.1\nName: Pillow\nVersion: 10.0.0\n\nname: not-a-header\n")
	writeFile(t, filepath.Join(site, "Pillow-10.0.0.egg-info", "top_level.txt"), "PIL\n")

	writeFile(t, filepath.Join(site, "python_widgets-1.0.dist-info", "METADATA"),
		"Metadata-Version: 2.1\nName: python-widgets\nVersion: 1.0\n")
	writeFile(t, filepath.Join(site, "python_widgets-1.0.dist-info", "RECORD"),
		"widgets/__init__.py,sha256=x,10\n"+
			"widgets/core.py,sha256=y,20\n"+
			"_widgets_speedups.cpython-311-x86_64-linux-gnu.so,sha256=z,30\n"+
			"widgets_compat.py,,\n"+
			"python_widgets-1.0.dist-info/METADATA,,\n"+
			"../../../bin/widgets,,\n"+
			"__pycache__/widgets_compat.cpython-311.pyc,,\n")

	writeFile(t, filepath.Join(site, "broken.dist-info", "RECORD"), "broken.py,,\n")
	writeFile(t, filepath.Join(site, "six.py"), "")
	return site
}

func TestScanSitePackages(t *testing.T) {
	site := fakeSite(t)
	index := ScanSitePackages([]string{site, filepath.Join(site, "missing")}, nil)

	assert.Equal(t, []string{"PIL"}, index["pillow"])
	want := []string{"_widgets_speedups", "widgets", "widgets_compat"}
	assert.Equal(t, want, index["python_widgets"])
	assert.Equal(t, want, index["widgets"])
	assert.NotContains(t, index, "broken")
}

func TestHostIndexPersists(t *testing.T) {
	site := fakeSite(t)
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first := HostIndex(ctx, c, nil, []string{site}, nil)
	require.Contains(t, first, "pillow")

	// The persisted index is served while the directory is unchanged.
	require.NoError(t, os.RemoveAll(filepath.Join(site, "Pillow-10.0.0.egg-info", "top_level.txt")))
	second := HostIndex(ctx, c, nil, []string{site}, nil)
	assert.Equal(t, first, second)

	assert.Equal(t, ScanSitePackages([]string{site}, nil), HostIndex(ctx, nil, nil, []string{site}, nil))
}

func TestRecordModule(t *testing.T) {
	tests := map[string]string{
		"pkg/__init__.py":          "pkg",
		"mod.py":                   "mod",
		"ext.cpython-311.so":       "ext",
		"ext.pyd":                  "ext",
		"pkg-1.0.dist-info/RECORD": "",
		"pkg-1.0.data/scripts/x":   "",
		"../bin/tool":              "",
		"README.txt":               "",
		"has-dash/__init__.py":     "",
		"distutils-precedence.pth": "",
	}
	for path, want := range tests {
		assert.Equal(t, want, recordModule(path), path)
	}
}
