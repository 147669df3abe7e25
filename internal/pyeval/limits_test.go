package pyeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func TestSequenceSizeLimit(t *testing.T) {
	tests := map[string]string{
		"string repeat":   "a = 'a' * (10**12)\n",
		"list repeat":     "a = [0] * 10**12\n",
		"tuple repeat":    "a = 10**12 * (1,)\n",
		"doubling concat": "s = 'x'\nfor _ in range(40):\n    s = s + s\n",
		"list extend":     "l = [0]\nfor _ in range(40):\n    l.extend(l)\n",
		"format width":    "a = '{:99999999999}'.format(1)\n",
		"percent width":   "a = '%999999999d' % 1\n",
		"ljust":           "a = 'x'.ljust(10**10)\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, t.TempDir(), src)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeEval, errors.GetCode(err))
			assert.Contains(t, err.Error(), "MemoryError")
		})
	}
}

func TestSequenceSizeWithinLimit(t *testing.T) {
	s := mustRun(t, `a = "ab" * 3
b = [1, 2] * 2
c = -1 * (0,)
d = "{:>6}".format("x")
try:
    "x" * (2**40)
except MemoryError:
    e = "caught"
`)
	assert.Equal(t, "'ababab'", reprOf(t, s, "a"))
	assert.Equal(t, "[1, 2, 1, 2]", reprOf(t, s, "b"))
	assert.Equal(t, "()", reprOf(t, s, "c"))
	assert.Equal(t, "'     x'", reprOf(t, s, "d"))
	assert.Equal(t, "'caught'", reprOf(t, s, "e"))
}

func TestIntegerOverflow(t *testing.T) {
	for _, src := range []string{
		"a = 10 ** (10**9)\n",
		"a = 2 ** 63\n",
		"a = 9223372036854775807 + 1\n",
		"a = -9223372036854775807 - 2\n",
		"a = 3037000500 * 3037000500\n",
		"a = 1 << 63\n",
		"a = abs(-9223372036854775807 - 1)\n",
		"a = int('9' * 30)\n",
		"a = int(1e30)\n",
		"a = 99999999999999999999\n",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := run(t, t.TempDir(), src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "OverflowError")
		})
	}
}

func TestIntegerArithmeticInRange(t *testing.T) {
	s := mustRun(t, `a = [2 ** 62, 1 << 62, (-1) ** 101, 0 ** 0, 7 ** 2]
b = 9223372036854775806 + 1
c = -9223372036854775807 - 1
try:
    2 ** 64
except OverflowError:
    d = "caught"
`)
	assert.Equal(t, "[4611686018427387904, 4611686018427387904, -1, 1, 49]", reprOf(t, s, "a"))
	assert.Equal(t, "9223372036854775807", reprOf(t, s, "b"))
	assert.Equal(t, "-9223372036854775808", reprOf(t, s, "c"))
	assert.Equal(t, "'caught'", reprOf(t, s, "d"))
}

func TestPanicIsEvalError(t *testing.T) {
	broken := newMethod("broken", func(*Interp, []Value, []Kwarg) (Value, error) {
		panic("index out of range")
	})
	_, err := run(t, t.TempDir(), "x = 1\nbroken()\n", func(o *Options) {
		o.Globals = map[string]Value{"broken": broken}
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEval, errors.GetCode(err))
	assert.Contains(t, err.Error(), "index out of range")
}
