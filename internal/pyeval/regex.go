package pyeval

import (
	"regexp"
	"strconv"
	"strings"
)

// re flag values.
const (
	reIgnoreCase = 2
	reMultiline  = 8
	reDotAll     = 16
	reVerbose    = 64
)

// Pattern is a compiled regular expression.
type Pattern struct {
	Source string
	Flags  int64
	re     *regexp.Regexp
	anchor *regexp.Regexp
	full   *regexp.Regexp
}

func (*Pattern) Type() string { return "re.Pattern" }

// Match is the result of a successful regular expression match.
type Match struct {
	s   string
	loc []int
	re  *regexp.Regexp
}

func (*Match) Type() string { return "re.Match" }

func compilePattern(src string, flags int64) (*Pattern, error) {
	expr := src
	if flags&reVerbose != 0 {
		expr = stripVerbose(expr)
	}
	prefix := ""
	if flags&reIgnoreCase != 0 {
		prefix += "i"
	}
	if flags&reMultiline != 0 {
		prefix += "m"
	}
	if flags&reDotAll != 0 {
		prefix += "s"
	}
	if prefix != "" {
		expr = "(?" + prefix + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, newException("ValueError", "re.error: %v", err)
	}
	anchor, err := regexp.Compile(`\A(?:` + expr + `)`)
	if err != nil {
		return nil, newException("ValueError", "re.error: %v", err)
	}
	full, err := regexp.Compile(`\A(?:` + expr + `)\z`)
	if err != nil {
		return nil, newException("ValueError", "re.error: %v", err)
	}
	return &Pattern{Source: src, Flags: flags, re: re, anchor: anchor, full: full}, nil
}

// stripVerbose removes whitespace and comments from a verbose pattern.
func stripVerbose(p string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			b.WriteByte(c)
			b.WriteByte(p[i+1])
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
			b.WriteByte(c)
		case c == '[':
			inClass = true
			b.WriteByte(c)
		case c == '#':
			for i < len(p) && p[i] != '\n' {
				i++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (in *Interp) patternArg(v Value, flags Value) (*Pattern, error) {
	if p, ok := v.(*Pattern); ok {
		return p, nil
	}
	src, err := strArg("re", v)
	if err != nil {
		return nil, err
	}
	f, _ := toInt(flags)
	return compilePattern(src, f)
}

func (p *Pattern) find(mode, s string) Value {
	re := p.re
	switch mode {
	case "match":
		re = p.anchor
	case "fullmatch":
		re = p.full
	}
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return None
	}
	return &Match{s: s, loc: loc, re: p.re}
}

func (p *Pattern) findall(s string) Value {
	var out []Value
	for _, loc := range p.re.FindAllStringSubmatchIndex(s, -1) {
		m := &Match{s: s, loc: loc, re: p.re}
		switch n := p.re.NumSubexp(); n {
		case 0:
			out = append(out, Str(s[loc[0]:loc[1]]))
		case 1:
			out = append(out, m.groupStr(1, Str("")))
		default:
			t := make(Tuple, n)
			for i := range n {
				t[i] = m.groupStr(i+1, Str(""))
			}
			out = append(out, t)
		}
	}
	return NewList(out...)
}

func (p *Pattern) sub(in *Interp, repl Value, s string, count int64) (Value, error) {
	var b strings.Builder
	last, n := 0, int64(0)
	for _, loc := range p.re.FindAllStringSubmatchIndex(s, -1) {
		if count > 0 && n >= count {
			break
		}
		b.WriteString(s[last:loc[0]])
		m := &Match{s: s, loc: loc, re: p.re}
		switch r := repl.(type) {
		case Str:
			out, err := m.expand(string(r))
			if err != nil {
				return nil, err
			}
			b.WriteString(out)
		default:
			v, err := in.call(repl, []Value{m}, nil)
			if err != nil {
				return nil, err
			}
			b.WriteString(ToStr(v))
		}
		last = loc[1]
		n++
	}
	b.WriteString(s[last:])
	return Str(b.String()), nil
}

func (p *Pattern) split(s string, maxsplit int64) Value {
	var out []Value
	last := 0
	for i, loc := range p.re.FindAllStringSubmatchIndex(s, -1) {
		if maxsplit > 0 && int64(i) >= maxsplit {
			break
		}
		out = append(out, Str(s[last:loc[0]]))
		m := &Match{s: s, loc: loc, re: p.re}
		for g := 1; g <= p.re.NumSubexp(); g++ {
			out = append(out, m.groupStr(g, None))
		}
		last = loc[1]
	}
	out = append(out, Str(s[last:]))
	return NewList(out...)
}

func patternMethod(p *Pattern, name string) *Builtin {
	switch name {
	case "search", "match", "fullmatch":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			s, err := strArg(name, argOr(args, kwargs, 0, "string", None))
			if err != nil {
				return nil, err
			}
			return p.find(name, s), nil
		})
	case "findall":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			s, err := strArg(name, argOr(args, kwargs, 0, "string", None))
			if err != nil {
				return nil, err
			}
			return p.findall(s), nil
		})
	case "sub":
		return newMethod(name, func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			s, err := strArg(name, argOr(args, kwargs, 1, "string", None))
			if err != nil {
				return nil, err
			}
			count, _ := toInt(argOr(args, kwargs, 2, "count", Int(0)))
			return p.sub(in, argOr(args, kwargs, 0, "repl", Str("")), s, count)
		})
	case "split":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			s, err := strArg(name, argOr(args, kwargs, 0, "string", None))
			if err != nil {
				return nil, err
			}
			n, _ := toInt(argOr(args, kwargs, 1, "maxsplit", Int(0)))
			return p.split(s, n), nil
		})
	case "pattern":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) { return Str(p.Source), nil })
	}
	return nil
}

func (m *Match) groupIndex(v Value) (int, error) {
	switch g := v.(type) {
	case Int:
		if g < 0 || int(g) > m.re.NumSubexp() {
			return 0, newException("IndexError", "no such group")
		}
		return int(g), nil
	case Str:
		if i := m.re.SubexpIndex(string(g)); i >= 0 {
			return i, nil
		}
	}
	return 0, newException("IndexError", "no such group")
}

func (m *Match) groupStr(i int, def Value) Value {
	if m.loc[2*i] < 0 {
		return def
	}
	return Str(m.s[m.loc[2*i]:m.loc[2*i+1]])
}

func (m *Match) group(v Value) (Value, error) {
	i, err := m.groupIndex(v)
	if err != nil {
		return nil, err
	}
	return m.groupStr(i, None), nil
}

// expand substitutes \N, \g<N> and \g<name> references in a replacement.
func (m *Match) expand(tmpl string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '\\' || i+1 == len(tmpl) {
			b.WriteByte(c)
			continue
		}
		i++
		switch d := tmpl[i]; {
		case d >= '0' && d <= '9':
			j := i
			for j < len(tmpl) && j < i+2 && isDigitByte(tmpl[j]) {
				j++
			}
			n, _ := strconv.Atoi(tmpl[i:j])
			g, err := m.group(Int(n))
			if err != nil {
				return "", err
			}
			if s, ok := g.(Str); ok {
				b.WriteString(string(s))
			}
			i = j - 1
		case d == 'g' && i+1 < len(tmpl) && tmpl[i+1] == '<':
			end := strings.IndexByte(tmpl[i:], '>')
			if end < 0 {
				return "", newException("ValueError", "missing >, unterminated name")
			}
			ref := tmpl[i+2 : i+end]
			var key Value = Str(ref)
			if isAllDigits(ref) {
				n, _ := strconv.Atoi(ref)
				key = Int(n)
			}
			g, err := m.group(key)
			if err != nil {
				return "", err
			}
			if s, ok := g.(Str); ok {
				b.WriteString(string(s))
			}
			i += end
		case d == 'n':
			b.WriteByte('\n')
		case d == 't':
			b.WriteByte('\t')
		case d == '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(d)
		}
	}
	return b.String(), nil
}

func matchMethod(m *Match, name string) *Builtin {
	switch name {
	case "group":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) == 0 {
				return m.group(Int(0))
			}
			if len(args) == 1 {
				return m.group(args[0])
			}
			out := make(Tuple, len(args))
			for i, a := range args {
				g, err := m.group(a)
				if err != nil {
					return nil, err
				}
				out[i] = g
			}
			return out, nil
		})
	case "groups":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			def := argOr(args, kwargs, 0, "default", None)
			out := make(Tuple, m.re.NumSubexp())
			for i := range out {
				out[i] = m.groupStr(i+1, def)
			}
			return out, nil
		})
	case "groupdict":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			def := argOr(args, kwargs, 0, "default", None)
			d := NewDict()
			for i, n := range m.re.SubexpNames() {
				if n != "" {
					d.SetStr(n, m.groupStr(i, def))
				}
			}
			return d, nil
		})
	case "start", "end", "span":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			var g Value = Int(0)
			if len(args) > 0 {
				g = args[0]
			}
			i, err := m.groupIndex(g)
			if err != nil {
				return nil, err
			}
			start, end := m.loc[2*i], m.loc[2*i+1]
			if start >= 0 {
				start = len([]rune(m.s[:start]))
				end = len([]rune(m.s[:end]))
			}
			switch name {
			case "start":
				return Int(start), nil
			case "end":
				return Int(end), nil
			}
			return Tuple{Int(start), Int(end)}, nil
		})
	}
	return nil
}

func reModule() *Module {
	m := &Module{Name: "re", Attrs: map[string]Value{}, Partial: true}
	for name, v := range map[string]int64{
		"I": reIgnoreCase, "IGNORECASE": reIgnoreCase,
		"M": reMultiline, "MULTILINE": reMultiline,
		"S": reDotAll, "DOTALL": reDotAll,
		"X": reVerbose, "VERBOSE": reVerbose,
		"A": 256, "ASCII": 256, "U": 32, "UNICODE": 32,
	} {
		m.Attrs[name] = Int(v)
	}
	m.Attrs["compile"] = newMethod("compile", func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
		return in.patternArg(argOr(args, kwargs, 0, "pattern", None), argOr(args, kwargs, 1, "flags", Int(0)))
	})
	m.Attrs["escape"] = newMethod("escape", func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
		s, err := strArg("escape", argOr(args, kwargs, 0, "pattern", None))
		if err != nil {
			return nil, err
		}
		return Str(regexp.QuoteMeta(s)), nil
	})
	// Module-level functions take the pattern first and the flags last.
	for _, name := range []string{"search", "match", "fullmatch", "findall", "split", "sub"} {
		flagsAt := 2
		switch name {
		case "sub":
			flagsAt = 4
		case "split":
			flagsAt = 3
		}
		m.Attrs[name] = newMethod(name, func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			if len(args) == 0 {
				return nil, newException("TypeError", "%s() missing required argument 'pattern'", name)
			}
			p, err := in.patternArg(args[0], argOr(nil, kwargs, -1, "flags", argOr(args, nil, flagsAt, "", Int(0))))
			if err != nil {
				return nil, err
			}
			rest := args[1:]
			if len(rest) > flagsAt-1 {
				rest = rest[:flagsAt-1]
			}
			return patternMethod(p, name).Fn(in, rest, kwargs)
		})
	}
	return m
}
