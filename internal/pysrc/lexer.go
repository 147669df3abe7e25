package pysrc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

// SyntaxError describes malformed source at a position.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func syntaxError(pos Pos, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeParse, &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}, "invalid python source")
}

// Lexer tokenizes Python source text.
type Lexer struct {
	src       string
	pos       int
	line      int
	lineStart int
	depth     int
	indents   []int
	tokens    []Token
}

// Tokenize returns the complete token stream of src, ending with EOF.
func Tokenize(src []byte) ([]Token, error) {
	l := &Lexer{
		src:     strings.TrimPrefix(string(src), "\uFEFF"),
		line:    1,
		indents: []int{0},
	}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Col: l.pos - l.lineStart}
}

func (l *Lexer) emit(kind Kind, pos Pos, text string) *Token {
	l.tokens = append(l.tokens, Token{Kind: kind, Pos: pos, Text: text})
	return &l.tokens[len(l.tokens)-1]
}

func (l *Lexer) newline() {
	if l.pos < len(l.src) && l.src[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '\n' {
		l.pos++
	}
	l.line++
	l.lineStart = l.pos
}

func (l *Lexer) run() error {
	atLineStart := true
	for {
		if atLineStart && l.depth == 0 {
			blank, err := l.indentation()
			if err != nil {
				return err
			}
			if blank {
				if l.pos >= len(l.src) {
					break
				}
				continue
			}
			atLineStart = false
		}

		l.skipSpace()
		if l.pos >= len(l.src) {
			break
		}
		c := l.src[l.pos]
		switch {
		case c == '#':
			l.skipComment()
		case c == '\\':
			if l.pos+1 < len(l.src) && (l.src[l.pos+1] == '\n' || l.src[l.pos+1] == '\r') {
				l.pos++
				l.newline()
				continue
			}
			return syntaxError(l.here(), "unexpected character after line continuation")
		case c == '\n' || c == '\r':
			if l.depth == 0 {
				l.emit(Newline, l.here(), "")
				atLineStart = true
			}
			l.newline()
		case c == '"' || c == '\'':
			if err := l.lexString(""); err != nil {
				return err
			}
		case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
			l.lexNumber()
		default:
			if prefix, ok := l.stringPrefix(); ok {
				if err := l.lexString(prefix); err != nil {
					return err
				}
				continue
			}
			r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
			if r == '_' || unicode.IsLetter(r) {
				l.lexName()
				continue
			}
			if err := l.lexOp(); err != nil {
				return err
			}
		}
	}

	if n := len(l.tokens); n > 0 && l.tokens[n-1].Kind != Newline && l.tokens[n-1].Kind != Dedent {
		l.emit(Newline, l.here(), "")
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(Dedent, l.here(), "")
	}
	l.emit(EOF, l.here(), "")
	return nil
}

// indentation measures the indentation of the line at the current position
// and emits Indent/Dedent tokens. It reports blank for lines holding only
// whitespace or a comment, which produce no tokens.
func (l *Lexer) indentation() (bool, error) {
	col := 0
	i := l.pos
scan:
	for ; i < len(l.src); i++ {
		switch l.src[i] {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			break scan
		}
	}
	l.pos = i
	if i >= len(l.src) {
		return true, nil
	}
	switch l.src[i] {
	case '#':
		l.skipComment()
		if l.pos < len(l.src) {
			l.newline()
		}
		return true, nil
	case '\n', '\r':
		l.newline()
		return true, nil
	}

	top := l.indents[len(l.indents)-1]
	switch {
	case col > top:
		l.indents = append(l.indents, col)
		l.emit(Indent, l.here(), "")
	case col < top:
		for col < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(Dedent, l.here(), "")
		}
		if col != l.indents[len(l.indents)-1] {
			return false, syntaxError(l.here(), "unindent does not match any outer indentation level")
		}
	}
	return false, nil
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\f':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) skipComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
		l.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (l *Lexer) lexName() {
	start, pos := l.pos, l.here()
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.In(r, unicode.Nd, unicode.Mn, unicode.Mc, unicode.Pc) {
			break
		}
		l.pos += size
	}
	l.emit(Ident, pos, l.src[start:l.pos])
}

func (l *Lexer) lexNumber() {
	start, pos := l.pos, l.here()
	src := l.src
	if src[l.pos] == '0' && l.pos+1 < len(src) && strings.ContainsRune("xXoObB", rune(src[l.pos+1])) {
		l.pos += 2
		for l.pos < len(src) && (isHexDigit(src[l.pos]) || src[l.pos] == '_') {
			l.pos++
		}
		l.emit(Number, pos, src[start:l.pos])
		return
	}
	digits := func() {
		for l.pos < len(src) && (isDigit(src[l.pos]) || src[l.pos] == '_') {
			l.pos++
		}
	}
	digits()
	if l.pos < len(src) && src[l.pos] == '.' {
		l.pos++
		digits()
	}
	if l.pos < len(src) && (src[l.pos] == 'e' || src[l.pos] == 'E') {
		next := l.pos + 1
		if next < len(src) && (src[next] == '+' || src[next] == '-') {
			next++
		}
		if next < len(src) && isDigit(src[next]) {
			l.pos = next
			digits()
		}
	}
	if l.pos < len(src) && (src[l.pos] == 'j' || src[l.pos] == 'J') {
		l.pos++
	}
	l.emit(Number, pos, src[start:l.pos])
}

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "b": true, "f": true,
	"br": true, "rb": true, "fr": true, "rf": true,
}

// stringPrefix reports whether a string literal with a prefix starts at the
// current position.
func (l *Lexer) stringPrefix() (string, bool) {
	for n := 1; n <= 2 && l.pos+n < len(l.src); n++ {
		q := l.src[l.pos+n]
		if q == '"' || q == '\'' {
			prefix := strings.ToLower(l.src[l.pos : l.pos+n])
			return prefix, stringPrefixes[prefix]
		}
	}
	return "", false
}

func (l *Lexer) lexString(prefix string) error {
	start, pos := l.pos, l.here()
	l.pos += len(prefix)
	quote := l.src[l.pos]
	triple := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(quote), 3))
	delim := string(quote)
	if triple {
		delim = strings.Repeat(delim, 3)
	}
	l.pos += len(delim)
	bodyStart := l.pos

	for {
		if l.pos >= len(l.src) {
			return syntaxError(pos, "unterminated string literal")
		}
		c := l.src[l.pos]
		switch {
		case c == '\\':
			l.pos++
			if l.pos < len(l.src) && (l.src[l.pos] == '\n' || l.src[l.pos] == '\r') {
				l.newline()
				continue
			}
			l.pos++
			continue
		case c == '\n' || c == '\r':
			if !triple {
				return syntaxError(pos, "unterminated string literal")
			}
			l.newline()
			continue
		case strings.HasPrefix(l.src[l.pos:], delim):
			body := l.src[bodyStart:l.pos]
			l.pos += len(delim)
			tok := l.emit(String, pos, l.src[start:l.pos])
			tok.Prefix = prefix
			if strings.ContainsRune(prefix, 'r') {
				tok.Value = body
			} else {
				tok.Value = unescape(body)
			}
			return nil
		}
		l.pos++
	}
}

func (l *Lexer) lexOp() error {
	pos := l.here()
	rest := l.src[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			l.emit(Op, pos, op)
			return nil
		}
	}
	c := rest[0]
	if !strings.ContainsRune(singleOps, rune(c)) {
		r, _ := utf8.DecodeRuneInString(rest)
		return syntaxError(pos, "invalid character %q", r)
	}
	switch c {
	case '(', '[', '{':
		l.depth++
	case ')', ']', '}':
		if l.depth > 0 {
			l.depth--
		}
	}
	l.pos++
	l.emit(Op, pos, string(c))
	return nil
}

// unescape decodes Python backslash escapes. Unknown escapes are kept
// verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+n <= len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += n
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}
