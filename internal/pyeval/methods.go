package pyeval

import (
	"strings"
	"unicode"
)

// arg returns the i-th positional argument or the keyword argument name.
func arg(args []Value, kwargs []Kwarg, i int, name string) (Value, bool) {
	if i >= 0 && i < len(args) {
		return args[i], true
	}
	for _, kw := range kwargs {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

func argOr(args []Value, kwargs []Kwarg, i int, name string, def Value) Value {
	if v, ok := arg(args, kwargs, i, name); ok {
		return v
	}
	return def
}

func strArg(fn string, v Value) (string, error) {
	switch s := v.(type) {
	case Str:
		return string(s), nil
	case Bytes:
		return string(s), nil
	}
	return "", newException("TypeError", "%s() argument must be str, not %s", fn, v.Type())
}

func newMethod(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{Name: name, Fn: fn}
}

// method resolves a builtin method of v.
func (in *Interp) method(v Value, name string) (Value, bool) {
	var m *Builtin
	switch x := v.(type) {
	case Str:
		m = strMethod(x, name)
	case Bytes:
		m = bytesMethod(x, name)
	case *List:
		m = listMethod(x, name)
	case Tuple:
		m = tupleMethod(x, name)
	case *Dict:
		m = dictMethod(x, name)
	case *Set:
		m = setMethod(x, name)
	case *File:
		m = fileMethod(x, name)
	case *Path:
		return pathAttr(x, name)
	case *Pattern:
		m = patternMethod(x, name)
	case *Match:
		m = matchMethod(x, name)
	case *Iterator:
		if name == "__next__" {
			m = newMethod(name, func(in *Interp, _ []Value, _ []Kwarg) (Value, error) {
				return x.next()
			})
		}
	case *Instance:
		if x.Class.isException() && name == "with_traceback" {
			m = newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) { return x, nil })
		}
	}
	if m == nil {
		return nil, false
	}
	return m, true
}

func (it *Iterator) next() (Value, error) {
	if it.pos >= len(it.Items) {
		return nil, newException("StopIteration", "")
	}
	it.pos++
	return it.Items[it.pos-1], nil
}

func strMethod(s Str, name string) *Builtin {
	str := string(s)
	switch name {
	case "strip", "lstrip", "rstrip":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			chars := argOr(args, kwargs, 0, "chars", None)
			return Str(stripString(name, str, chars)), nil
		})
	case "split", "rsplit":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			sep := argOr(args, kwargs, 0, "sep", None)
			maxv := argOr(args, kwargs, 1, "maxsplit", Int(-1))
			n, _ := toInt(maxv)
			parts, err := splitString(str, sep, int(n), name == "rsplit")
			if err != nil {
				return nil, err
			}
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = Str(p)
			}
			return NewList(out...), nil
		})
	case "splitlines":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			keep := Truth(argOr(args, kwargs, 0, "keepends", Bool(false)))
			var out []Value
			for _, l := range splitLines(str, keep) {
				out = append(out, Str(l))
			}
			return NewList(out...), nil
		})
	case "join":
		return newMethod(name, func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "join() takes exactly one argument")
			}
			items, err := in.iterate(args[0])
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, it := range items {
				p, ok := it.(Str)
				if !ok {
					if isOpaque(it) {
						p = Str(ToStr(it))
					} else {
						return nil, newException("TypeError", "sequence item %d: expected str instance, %s found", i, it.Type())
					}
				}
				parts[i] = string(p)
			}
			return Str(strings.Join(parts, str)), nil
		})
	case "replace":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			if len(args) < 2 {
				return nil, newException("TypeError", "replace() takes at least 2 arguments")
			}
			old, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			repl, err := strArg(name, args[1])
			if err != nil {
				return nil, err
			}
			n, _ := toInt(argOr(args, kwargs, 2, "count", Int(-1)))
			return Str(strings.Replace(str, old, repl, int(n))), nil
		})
	case "startswith", "endswith":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) == 0 {
				return nil, newException("TypeError", "%s() takes at least 1 argument", name)
			}
			target := str
			if len(args) > 1 {
				if start, ok := toInt(args[1]); ok {
					runes := []rune(str)
					if start < 0 {
						start += int64(len(runes))
					}
					start = max(0, min(start, int64(len(runes))))
					target = string(runes[start:])
				}
			}
			affixes := []Value{args[0]}
			if t, ok := args[0].(Tuple); ok {
				affixes = t
			}
			for _, a := range affixes {
				p, err := strArg(name, a)
				if err != nil {
					return nil, err
				}
				if (name == "startswith" && strings.HasPrefix(target, p)) || (name == "endswith" && strings.HasSuffix(target, p)) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		})
	case "lower":
		return strFunc(name, func() Value { return Str(strings.ToLower(str)) })
	case "upper":
		return strFunc(name, func() Value { return Str(strings.ToUpper(str)) })
	case "casefold":
		return strFunc(name, func() Value { return Str(strings.ToLower(str)) })
	case "title":
		return strFunc(name, func() Value { return Str(titleCase(str)) })
	case "capitalize":
		return strFunc(name, func() Value {
			if str == "" {
				return s
			}
			r := []rune(strings.ToLower(str))
			r[0] = unicode.ToUpper(r[0])
			return Str(r)
		})
	case "isdigit", "isnumeric", "isdecimal":
		return strFunc(name, func() Value { return Bool(allRunes(str, unicode.IsDigit)) })
	case "isalpha":
		return strFunc(name, func() Value { return Bool(allRunes(str, unicode.IsLetter)) })
	case "isalnum":
		return strFunc(name, func() Value {
			return Bool(allRunes(str, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }))
		})
	case "isspace":
		return strFunc(name, func() Value { return Bool(allRunes(str, unicode.IsSpace)) })
	case "isidentifier":
		return strFunc(name, func() Value { return Bool(isIdentifier(str)) })
	case "islower":
		return strFunc(name, func() Value { return Bool(str != "" && strings.ToLower(str) == str && strings.ToUpper(str) != str) })
	case "isupper":
		return strFunc(name, func() Value { return Bool(str != "" && strings.ToUpper(str) == str && strings.ToLower(str) != str) })
	case "find", "rfind", "index", "rindex", "count":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) == 0 {
				return nil, newException("TypeError", "%s() takes at least 1 argument", name)
			}
			sub, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			var i int
			switch name {
			case "count":
				return Int(strings.Count(str, sub)), nil
			case "find", "index":
				i = strings.Index(str, sub)
			default:
				i = strings.LastIndex(str, sub)
			}
			if i >= 0 {
				i = len([]rune(str[:i]))
			} else if name == "index" || name == "rindex" {
				return nil, newException("ValueError", "substring not found")
			}
			return Int(i), nil
		})
	case "partition", "rpartition":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "%s() takes exactly one argument", name)
			}
			sep, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			i := strings.Index(str, sep)
			if name == "rpartition" {
				i = strings.LastIndex(str, sep)
			}
			if i < 0 {
				if name == "rpartition" {
					return Tuple{Str(""), Str(""), s}, nil
				}
				return Tuple{s, Str(""), Str("")}, nil
			}
			return Tuple{Str(str[:i]), Str(sep), Str(str[i+len(sep):])}, nil
		})
	case "removeprefix":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "removeprefix() takes exactly one argument")
			}
			p, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			return Str(strings.TrimPrefix(str, p)), nil
		})
	case "removesuffix":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "removesuffix() takes exactly one argument")
			}
			p, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			return Str(strings.TrimSuffix(str, p)), nil
		})
	case "ljust", "rjust", "center", "zfill":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) == 0 {
				return nil, newException("TypeError", "%s() takes at least 1 argument", name)
			}
			w, ok := toInt(args[0])
			if !ok {
				return nil, newException("TypeError", "integer argument expected")
			}
			if err := checkLen(w); w > 0 && err != nil {
				return nil, err
			}
			fs := formatSpec{fill: ' ', width: int(w)}
			if len(args) > 1 {
				if f, ok := args[1].(Str); ok && len([]rune(string(f))) == 1 {
					fs.fill = []rune(string(f))[0]
				}
			}
			switch name {
			case "ljust":
				fs.align = '<'
			case "rjust":
				fs.align = '>'
			case "center":
				fs.align = '^'
			case "zfill":
				fs.fill, fs.align = '0', '='
			}
			return Str(pad(str, fs, false)), nil
		})
	case "format":
		return newMethod(name, func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			out, err := in.strFormat(str, args, kwargs)
			return Str(out), err
		})
	case "encode":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			return Bytes(str), nil
		})
	case "expandtabs":
		return strFunc(name, func() Value { return Str(strings.ReplaceAll(str, "\t", "        ")) })
	}
	return nil
}

func strFunc(name string, fn func() Value) *Builtin {
	return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) { return fn(), nil })
}

func stripString(name, s string, chars Value) string {
	cut := " \t\n\r\v\f"
	if c, ok := chars.(Str); ok {
		cut = string(c)
	} else if c, ok := chars.(Bytes); ok {
		cut = string(c)
	}
	switch name {
	case "lstrip":
		return strings.TrimLeft(s, cut)
	case "rstrip":
		return strings.TrimRight(s, cut)
	}
	return strings.Trim(s, cut)
}

func splitString(s string, sep Value, n int, fromRight bool) ([]string, error) {
	if sep == None {
		fields := strings.Fields(s)
		if n < 0 || n >= len(fields)-1 || len(fields) == 0 {
			return fields, nil
		}
		if fromRight {
			trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
			out := make([]string, 0, n+1)
			for range n {
				i := strings.LastIndexFunc(trimmed, unicode.IsSpace)
				out = append([]string{trimmed[i+1:]}, out...)
				trimmed = strings.TrimRightFunc(trimmed[:i], unicode.IsSpace)
			}
			return append([]string{trimmed}, out...), nil
		}
		trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
		out := make([]string, 0, n+1)
		for range n {
			i := strings.IndexFunc(trimmed, unicode.IsSpace)
			out = append(out, trimmed[:i])
			trimmed = strings.TrimLeftFunc(trimmed[i:], unicode.IsSpace)
		}
		return append(out, trimmed), nil
	}
	sp, err := strArg("split", sep)
	if err != nil {
		return nil, err
	}
	if sp == "" {
		return nil, newException("ValueError", "empty separator")
	}
	if n < 0 {
		return strings.Split(s, sp), nil
	}
	if !fromRight {
		return strings.SplitN(s, sp, n+1), nil
	}
	var out []string
	for range n {
		i := strings.LastIndex(s, sp)
		if i < 0 {
			break
		}
		out = append([]string{s[i+len(sp):]}, out...)
		s = s[:i]
	}
	return append([]string{s}, out...), nil
}

func splitLines(s string, keep bool) []string {
	var out []string
	for s != "" {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			out = append(out, s)
			break
		}
		end := i + 1
		if s[i] == '\r' && end < len(s) && s[end] == '\n' {
			end++
		}
		if keep {
			out = append(out, s[:end])
		} else {
			out = append(out, s[:i])
		}
		s = s[end:]
	}
	return out
}

func titleCase(s string) string {
	var b strings.Builder
	prev := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prev {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prev = true
			continue
		}
		prev = false
		b.WriteRune(r)
	}
	return b.String()
}

func allRunes(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return s != ""
}

func bytesMethod(b Bytes, name string) *Builtin {
	switch name {
	case "decode":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			return Str(b), nil
		})
	case "strip", "lstrip", "rstrip":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			return Bytes(stripString(name, string(b), argOr(args, kwargs, 0, "chars", None))), nil
		})
	case "splitlines":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			var out []Value
			for _, l := range splitLines(string(b), false) {
				out = append(out, Bytes(l))
			}
			return NewList(out...), nil
		})
	case "startswith", "endswith", "replace", "split", "find", "count":
		m := strMethod(Str(b), name)
		return newMethod(name, func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			r, err := m.Fn(in, args, kwargs)
			if err != nil {
				return nil, err
			}
			return toBytes(r), nil
		})
	}
	return nil
}

func toBytes(v Value) Value {
	switch x := v.(type) {
	case Str:
		return Bytes(x)
	case *List:
		for i, it := range x.Items {
			x.Items[i] = toBytes(it)
		}
	}
	return v
}

func listMethod(l *List, name string) *Builtin {
	switch name {
	case "append":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "append() takes exactly one argument (%d given)", len(args))
			}
			l.Items = append(l.Items, args[0])
			return None, nil
		})
	case "extend":
		return newMethod(name, func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "extend() takes exactly one argument (%d given)", len(args))
			}
			items, err := in.iterate(args[0])
			if err != nil {
				return nil, err
			}
			if err := checkLen(int64(len(l.Items) + len(items))); err != nil {
				return nil, err
			}
			l.Items = append(l.Items, items...)
			return None, nil
		})
	case "insert":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 2 {
				return nil, newException("TypeError", "insert expected 2 arguments, got %d", len(args))
			}
			i, ok := toInt(args[0])
			if !ok {
				return nil, newException("TypeError", "integer argument expected")
			}
			n := int64(len(l.Items))
			if i < 0 {
				i += n
			}
			i = max(0, min(i, n))
			l.Items = append(l.Items[:i], append([]Value{args[1]}, l.Items[i:]...)...)
			return None, nil
		})
	case "pop":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(l.Items) == 0 {
				return nil, newException("IndexError", "pop from empty list")
			}
			var idx Value = Int(-1)
			if len(args) > 0 {
				idx = args[0]
			}
			i, err := normIndex(idx, len(l.Items))
			if err != nil {
				return nil, err
			}
			v := l.Items[i]
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return v, nil
		})
	case "remove":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "remove() takes exactly one argument")
			}
			for i, it := range l.Items {
				if equal(it, args[0]) {
					l.Items = append(l.Items[:i], l.Items[i+1:]...)
					return None, nil
				}
			}
			return nil, newException("ValueError", "list.remove(x): x not in list")
		})
	case "index", "count":
		return seqMethod(name, func() []Value { return l.Items })
	case "sort":
		return newMethod(name, func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			key, _ := arg(nil, kwargs, -1, "key")
			reverse, _ := arg(nil, kwargs, -1, "reverse")
			return None, sortValues(in, l.Items, key, reverse != nil && Truth(reverse))
		})
	case "reverse":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			for i, j := 0, len(l.Items)-1; i < j; i, j = i+1, j-1 {
				l.Items[i], l.Items[j] = l.Items[j], l.Items[i]
			}
			return None, nil
		})
	case "copy":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			return NewList(append([]Value(nil), l.Items...)...), nil
		})
	case "clear":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			l.Items = nil
			return None, nil
		})
	}
	return nil
}

func tupleMethod(t Tuple, name string) *Builtin {
	switch name {
	case "index", "count":
		return seqMethod(name, func() []Value { return t })
	}
	return nil
}

func seqMethod(name string, items func() []Value) *Builtin {
	return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
		if len(args) == 0 {
			return nil, newException("TypeError", "%s() takes at least 1 argument", name)
		}
		n := 0
		for i, it := range items() {
			if equal(it, args[0]) {
				if name == "index" {
					return Int(i), nil
				}
				n++
			}
		}
		if name == "index" {
			return nil, newException("ValueError", "%s is not in list", Repr(args[0]))
		}
		return Int(n), nil
	})
}

func dictMethod(d *Dict, name string) *Builtin {
	switch name {
	case "get":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) == 0 {
				return nil, newException("TypeError", "get expected at least 1 argument")
			}
			if v, ok := d.Get(args[0]); ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return None, nil
		})
	case "keys":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			return NewList(d.Keys()...), nil
		})
	case "values":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			return NewList(d.Values()...), nil
		})
	case "items":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			out := make([]Value, d.Len())
			for i, k := range d.keys {
				out[i] = Tuple{k, d.vals[i]}
			}
			return NewList(out...), nil
		})
	case "update":
		return newMethod(name, func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			if len(args) > 0 {
				if err := in.updateDict(d, args[0]); err != nil {
					return nil, err
				}
			}
			for _, kw := range kwargs {
				d.SetStr(kw.Name, kw.Value)
			}
			return None, nil
		})
	case "setdefault":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) == 0 {
				return nil, newException("TypeError", "setdefault expected at least 1 argument")
			}
			if v, ok := d.Get(args[0]); ok {
				return v, nil
			}
			var def Value = None
			if len(args) > 1 {
				def = args[1]
			}
			return def, dictSet(d, args[0], def)
		})
	case "pop":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) == 0 {
				return nil, newException("TypeError", "pop expected at least 1 argument")
			}
			if v, ok := d.Get(args[0]); ok {
				d.Delete(args[0])
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, newException("KeyError", "%s", Repr(args[0]))
		})
	case "copy":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) { return d.copy(), nil })
	case "clear":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			*d = *NewDict()
			return None, nil
		})
	}
	return nil
}

func (in *Interp) updateDict(d *Dict, src Value) error {
	switch s := src.(type) {
	case *Dict:
		for i, k := range s.keys {
			d.Set(k, s.vals[i])
		}
		return nil
	case *Opaque:
		return nil
	}
	pairs, err := in.iterate(src)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		kv, err := in.iterate(p)
		if err != nil {
			return err
		}
		if len(kv) != 2 {
			return newException("ValueError", "dictionary update sequence element has length %d; 2 is required", len(kv))
		}
		if err := dictSet(d, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func setMethod(s *Set, name string) *Builtin {
	switch name {
	case "add":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "add() takes exactly one argument")
			}
			if _, ok := hashKey(args[0]); !ok {
				return nil, newException("TypeError", "unhashable type: '%s'", args[0].Type())
			}
			s.Add(args[0])
			return None, nil
		})
	case "update":
		return newMethod(name, func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			for _, a := range args {
				items, err := in.iterate(a)
				if err != nil {
					return nil, err
				}
				for _, it := range items {
					s.Add(it)
				}
			}
			return None, nil
		})
	case "discard", "remove":
		return newMethod(name, func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "%s() takes exactly one argument", name)
			}
			if !s.Remove(args[0]) && name == "remove" {
				return nil, newException("KeyError", "%s", Repr(args[0]))
			}
			return None, nil
		})
	case "union", "intersection", "difference", "symmetric_difference":
		op := map[string]string{"union": "|", "intersection": "&", "difference": "-", "symmetric_difference": "^"}[name]
		return newMethod(name, func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			out := setOp("|", s, NewSet())
			for _, a := range args {
				items, err := in.iterate(a)
				if err != nil {
					return nil, err
				}
				other, err := newSetFrom(items)
				if err != nil {
					return nil, err
				}
				out = setOp(op, out, other)
			}
			return out, nil
		})
	case "issubset", "issuperset":
		return newMethod(name, func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "%s() takes exactly one argument", name)
			}
			items, err := in.iterate(args[0])
			if err != nil {
				return nil, err
			}
			other, err := newSetFrom(items)
			if err != nil {
				return nil, err
			}
			a, b := s, other
			if name == "issuperset" {
				a, b = other, s
			}
			for _, it := range a.items {
				if !b.Has(it) {
					return Bool(false), nil
				}
			}
			return Bool(true), nil
		})
	case "copy":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) { return setOp("|", s, NewSet()), nil })
	}
	return nil
}
