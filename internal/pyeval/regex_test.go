package pyeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePatternFlags(t *testing.T) {
	p, err := compilePattern(`
		version  # the key
		\s*=\s*
		(\S+)
	`, reVerbose|reIgnoreCase)
	require.NoError(t, err)
	assert.Equal(t, []string{"VERSION = 1.0", "1.0"}, p.re.FindStringSubmatch("VERSION = 1.0"))

	_, err = compilePattern(`(?<=v)\d+`, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "re.error")
}

func TestRegexModule(t *testing.T) {
	s := mustRun(t, `import re
text = "a=1\nb=2\n"
pairs = re.findall(r"^(\w)=(\d)$", text, re.M)
names = re.findall(r"(\w)=", text)
swapped = re.sub(r"(\w)=(\d)", r"\2=\1", text)
m = re.match(r"(?P<key>\w)=(?P<val>\d)", text)
got = [m.group("key"), m.group(2), m.groups(), m.start(), m.end()]
full = re.fullmatch(r"a=1", "a=1") is not None
pat = re.compile(r"B", re.IGNORECASE)
found = pat.search(text).group(0)
`)
	assert.Equal(t, "[('a', '1'), ('b', '2')]", reprOf(t, s, "pairs"))
	assert.Equal(t, "['a', 'b']", reprOf(t, s, "names"))
	assert.Equal(t, "'1=a\\n2=b\\n'", reprOf(t, s, "swapped"))
	assert.Equal(t, "['a', '1', ('a', '1'), 0, 3]", reprOf(t, s, "got"))
	assert.Equal(t, "True", reprOf(t, s, "full"))
	assert.Equal(t, "'b'", reprOf(t, s, "found"))
}
