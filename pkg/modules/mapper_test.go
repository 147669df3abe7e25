package modules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func TestMapperKnown(t *testing.T) {
	m := NewMapper(nil, nil)
	tests := []struct {
		project string
		want    []string
	}{
		{"pillow", []string{"PIL"}},
		{"Pillow", []string{"PIL"}},
		{"PyYAML", []string{"yaml", "_yaml"}},
		{"python-dateutil", []string{"dateutil"}},
		{"dateutil", []string{"dateutil"}},
		{"setuptools", []string{"pkg_resources", "setuptools", "_distutils_hack"}},
		{"protobuf", []string{"google.protobuf"}},
		{"requests", []string{"requests"}},
		{"python-boom", []string{"python_boom", "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.project))
		})
	}
}

func TestMapperPrecedence(t *testing.T) {
	m := NewMapper(
		map[string][]string{"pillow": {"mypil"}},
		map[string][]string{"pillow": {"hostpil"}, "foo_bar": {"fb"}},
	)
	assert.Equal(t, []string{"mypil"}, m.Map("Pillow"))
	assert.Equal(t, "override", m.Source("Pillow"))
	assert.Equal(t, []string{"fb"}, m.Map("foo-bar"))
	assert.Equal(t, "host", m.Source("foo-bar"))
	assert.Equal(t, "known", m.Source("pyjwt"))
	assert.Equal(t, "name", m.Source("unknown-project"))

	var zero Mapper
	assert.Equal(t, []string{"PIL"}, zero.Map("pillow"))
}

func TestMapperResultIsCopy(t *testing.T) {
	m := NewMapper(nil, nil)
	got := m.Map("pillow")
	got[0] = "mutated"
	assert.Equal(t, []string{"PIL"}, m.Map("pillow"))
}

func TestParseKnownModules(t *testing.T) {
	got, err := ParseKnownModules(":[pydrmcodec],mylib:[mylib.drm,mylib.ex]")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"":      {"pydrmcodec"},
		"mylib": {"mylib.drm", "mylib.ex"},
	}, got)

	got, err = ParseKnownModules("My-Lib:[a],\n  python-other:[b, c]")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"my_lib":       {"a"},
		"python_other": {"b", "c"},
	}, got)

	got, err = ParseKnownModules("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseKnownModules("broken],x:[y]")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	_, err = ParseKnownModules("x:[not a module]")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestLoadKnownModules(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "known.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[modules]\n\"My-Lib\" = [\"mylib.core\"]\n"), 0o644))
	got, err := LoadKnownModules(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"my_lib": {"mylib.core"}}, got)

	yamlPath := filepath.Join(dir, "known.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("pillow:\n  - PIL\nfoo: [bar, baz.qux]\n"), 0o644))
	got, err = LoadKnownModules(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"pillow": {"PIL"}, "foo": {"bar", "baz.qux"}}, got)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("foo: bar\n"), 0o644))
	_, err = LoadKnownModules(badPath)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	_, err = LoadKnownModules(filepath.Join(dir, "known.json"))
	assert.Error(t, err)
}
