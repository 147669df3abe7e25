package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{"empty", nil, nil},
		{"plain", []string{"foo", "bar"}, []string{"foo", "bar"}},
		{"trims", []string{"  foo  ", "\tbar"}, []string{"foo", "bar"}},
		{"continuation", []string{`foo \`, ">= 1.0"}, []string{"foo >= 1.0"}},
		{"comment dropped", []string{"# comment", "foo"}, []string{"foo"}},
		{"comment inside continuation", []string{`foo \`, "# note", ">= 1.0"}, []string{"foo >= 1.0"}},
		{"dangling continuation", []string{`foo \`}, []string{"foo "}},
		{"blank lines", []string{"", "foo", "   "}, []string{"foo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinLines(tt.lines))
		})
	}
}

func TestYieldLines(t *testing.T) {
	text := "\nfoo\r\n  # comment\n\tbar >= 1\n\n"
	assert.Equal(t, []string{"foo", "bar >= 1"}, YieldLines(text))
}
