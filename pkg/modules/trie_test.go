package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrieNamespaceSemantics(t *testing.T) {
	tr := NewTrie()
	tr.Add("space.module", "ns")
	tr.Add("foo", "foo")

	tests := []struct {
		path string
		want bool
	}{
		{"foo", true},
		{"foo.bar", true},
		{"foo.bar.baz", true},
		{"fo", false},
		{"foobar", false},
		{"space", false},
		{"space.module", true},
		{"space.module.deep", true},
		{"space.other", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Contains(tt.path))
		})
	}
}

func TestTrieLookup(t *testing.T) {
	tr := NewTrie()
	tr.Add("a.b", 1)
	tr.Add("a.b.c", 2)
	tr.Add("a.b", 3)

	v, ok := tr.Lookup("a.b.c.d")
	assert.True(t, ok)
	assert.Equal(t, 3, v, "shortest prefix wins and re-adding replaces")
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, []string{"a.b", "a.b.c"}, tr.Paths())
}

func TestTrieEmpty(t *testing.T) {
	var tr *Trie
	assert.False(t, tr.Contains("x"))
	assert.Zero(t, tr.Len())
	assert.False(t, NewTrie().Contains("x"))
}
