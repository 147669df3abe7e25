package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectModules(t *testing.T) {
	tests := []struct {
		project string
		want    []string
	}{
		{"foo", []string{"foo"}},
		{"Hyp-Hen", []string{"hyp_hen"}},
		{"python-boom", []string{"python_boom", "boom"}},
		{"Python_Boom", []string{"python_boom", "boom"}},
		{"python", []string{"python"}},
		{"python-", []string{"python_"}},
		{"zope.interface", []string{"zope.interface"}},
	}
	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectModules(tt.project))
		})
	}
}

func TestIsStdlib(t *testing.T) {
	for _, name := range []string{"os", "os.path", "sys", "cProfile", "__future__", "xml.etree.ElementTree", "tomllib", "_thread"} {
		assert.True(t, IsStdlib(name), name)
	}
	for _, name := range []string{"cprofile", "requests", "OS", ""} {
		assert.False(t, IsStdlib(name), name)
	}
}

func TestTop(t *testing.T) {
	assert.Equal(t, "a", Top("a.b.c"))
	assert.Equal(t, "a", Top("a"))
}
