package pysrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeIndentation(t *testing.T) {
	src := "if x:\n    y = 1\n\n    # comment\n    if z:\n        pass\nw\n"
	toks, err := Tokenize([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		Ident, Ident, Op, Newline,
		Indent, Ident, Op, Number, Newline,
		Ident, Ident, Op, Newline,
		Indent, Ident, Newline,
		Dedent, Dedent, Ident, Newline,
		EOF,
	}, kinds(toks))
}

func TestTokenizeImplicitJoin(t *testing.T) {
	src := "x = [\n  1,\n\n  2,  # two\n]\ny = 1 + \\\n  2\n"
	toks, err := Tokenize([]byte(src))
	require.NoError(t, err)
	var newlines int
	for _, tok := range toks {
		if tok.Kind == Newline {
			newlines++
		}
		assert.NotEqual(t, Indent, tok.Kind)
	}
	assert.Equal(t, 2, newlines)
}

func TestTokenizeMissingTrailingNewline(t *testing.T) {
	toks, err := Tokenize([]byte("def f():\n    return 1"))
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		Ident, Ident, Op, Op, Op, Newline,
		Indent, Ident, Number, Newline,
		Dedent, EOF,
	}, kinds(toks))
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		src    string
		value  string
		prefix string
	}{
		{`"plain"`, "plain", ""},
		{`'single'`, "single", ""},
		{`"esc\n\t\"q\""`, "esc\n\t\"q\"", ""},
		{`r"raw\n"`, `raw\n`, "r"},
		{`b'bytes'`, "bytes", "b"},
		{`Rb"\d+"`, `\d+`, "rb"},
		{`f"{name}"`, "{name}", "f"},
		{`"""triple
line"""`, "triple\nline", ""},
		{`'\x41\u00e9\101'`, "Aé" + "A", ""},
		{`"keep \q"`, `keep \q`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := Tokenize([]byte(tt.src))
			require.NoError(t, err)
			require.Equal(t, String, toks[0].Kind)
			assert.Equal(t, tt.value, toks[0].Value)
			assert.Equal(t, tt.prefix, toks[0].Prefix)
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	toks, err := Tokenize([]byte("a = 1\n  # c\nif b:\n    import os\n"))
	require.NoError(t, err)
	var imp Token
	for _, tok := range toks {
		if tok.Is("import") {
			imp = tok
		}
	}
	assert.Equal(t, Pos{Line: 4, Col: 4}, imp.Pos)
}

func TestTokenizeOperators(t *testing.T) {
	toks, err := Tokenize([]byte("a **= b // c -> d := e ... f != g"))
	require.NoError(t, err)
	var ops []string
	for _, tok := range toks {
		if tok.Kind == Op {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{"**=", "//", "->", ":=", "...", "!="}, ops)
}

func TestTokenizeNumbers(t *testing.T) {
	toks, err := Tokenize([]byte("1 0x1F 1_000 3.14 .5 1e-3 2j 0o17"))
	require.NoError(t, err)
	var nums []string
	for _, tok := range toks {
		if tok.Kind == Number {
			nums = append(nums, tok.Text)
		}
	}
	assert.Equal(t, []string{"1", "0x1F", "1_000", "3.14", ".5", "1e-3", "2j", "0o17"}, nums)
}

func TestTokenizeErrors(t *testing.T) {
	for _, src := range []string{
		"x = 'unterminated\n",
		`x = """never closed`,
		"if x:\n    a\n  b\n",
		"x = 1 $ 2\n",
		"x = \\ 1\n",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Tokenize([]byte(src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeParse))
		})
	}
}

func TestTokenizeBOMAndCRLF(t *testing.T) {
	toks, err := Tokenize([]byte("\uFEFFimport os\r\nimport sys\r\n"))
	require.NoError(t, err)
	assert.Equal(t, Pos{Line: 1, Col: 0}, toks[0].Pos)
	assert.Equal(t, Pos{Line: 2, Col: 0}, toks[3].Pos)
}
