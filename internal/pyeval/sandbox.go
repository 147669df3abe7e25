package pyeval

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// sandboxModule builds a standard library module the interpreter models.
// Unmodeled attributes of these modules are Opaque.
func sandboxModule(in *Interp, name string) (*Module, bool) {
	switch name {
	case "os":
		return osModule(in), true
	case "posixpath":
		return osPathModule(in, name), true
	case "sys":
		return sysModule(in), true
	case "io", "codecs":
		return ioModule(name), true
	case "re":
		return reModule(), true
	case "json":
		return jsonModule(), true
	case "glob":
		return globModule(), true
	case "pathlib":
		return pathlibModule(), true
	}
	return nil, false
}

func builtinsOf(fns map[string]BuiltinFunc) map[string]Value {
	attrs := make(map[string]Value, len(fns))
	for name, fn := range fns {
		attrs[name] = &Builtin{Name: name, Fn: fn}
	}
	return attrs
}

func osModule(in *Interp) *Module {
	m := &Module{Name: "os", Partial: true, Attrs: builtinsOf(map[string]BuiltinFunc{
		"getenv": func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			return argOr(args, kwargs, 1, "default", None), nil
		},
		"getcwd": func(in *Interp, _ []Value, _ []Kwarg) (Value, error) {
			return Str(in.opts.Dir), nil
		},
		"listdir": func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			dir, _ := pathArg(argOr(args, kwargs, 0, "path", Str(".")))
			entries, err := os.ReadDir(in.resolve(dir))
			if err != nil {
				return nil, osError(err, dir)
			}
			out := make([]Value, len(entries))
			for i, e := range entries {
				out[i] = Str(e.Name())
			}
			return NewList(out...), nil
		},
		"fspath": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "fspath() takes exactly one argument")
			}
			p, ok := pathArg(args[0])
			if !ok {
				return nil, newException("TypeError", "expected str or os.PathLike object")
			}
			return Str(p), nil
		},
	})}
	m.Attrs["environ"] = NewDict()
	m.Attrs["sep"] = Str("/")
	m.Attrs["pathsep"] = Str(":")
	m.Attrs["linesep"] = Str("\n")
	m.Attrs["curdir"] = Str(".")
	m.Attrs["pardir"] = Str("..")
	m.Attrs["name"] = Str("posix")
	if runtime.GOOS == "windows" {
		m.Attrs["name"] = Str("nt")
	}
	path := osPathModule(in, "os.path")
	m.Attrs["path"] = path
	in.modules["os.path"] = path
	return m
}

func osPathModule(in *Interp, name string) *Module {
	str1 := func(fn string, args []Value) (string, error) {
		if len(args) == 0 {
			return "", newException("TypeError", "%s() missing required argument", fn)
		}
		p, ok := pathArg(args[0])
		if !ok {
			return "", newException("TypeError", "expected str, bytes or os.PathLike object, not %s", args[0].Type())
		}
		return p, nil
	}
	m := &Module{Name: name, Partial: true, Attrs: builtinsOf(map[string]BuiltinFunc{
		"join": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			out := ""
			for _, a := range args {
				if isOpaque(a) {
					return opaque("os.path.join()"), nil
				}
				p, ok := pathArg(a)
				if !ok {
					return nil, newException("TypeError", "join() argument must be str, not %s", a.Type())
				}
				switch {
				case strings.HasPrefix(p, "/") || out == "":
					out = p
				case strings.HasSuffix(out, "/"):
					out += p
				default:
					out += "/" + p
				}
			}
			return Str(out), nil
		},
		"dirname": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("dirname", args)
			if err != nil {
				return nil, err
			}
			i := strings.LastIndexByte(p, '/') + 1
			head := p[:i]
			if trimmed := strings.TrimRight(head, "/"); trimmed != "" {
				head = trimmed
			}
			return Str(head), nil
		},
		"basename": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("basename", args)
			if err != nil {
				return nil, err
			}
			return Str(p[strings.LastIndexByte(p, '/')+1:]), nil
		},
		"split": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("split", args)
			if err != nil {
				return nil, err
			}
			i := strings.LastIndexByte(p, '/') + 1
			head := p[:i]
			if trimmed := strings.TrimRight(head, "/"); trimmed != "" {
				head = trimmed
			}
			return Tuple{Str(head), Str(p[i:])}, nil
		},
		"splitext": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("splitext", args)
			if err != nil {
				return nil, err
			}
			parts := splitExt(p)
			return Tuple{Str(parts[0]), Str(parts[1])}, nil
		},
		"abspath": func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("abspath", args)
			if err != nil {
				return nil, err
			}
			return Str(filepath.Clean(in.resolve(p))), nil
		},
		"realpath": func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("realpath", args)
			if err != nil {
				return nil, err
			}
			return Str(filepath.Clean(in.resolve(p))), nil
		},
		"normpath": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("normpath", args)
			if err != nil {
				return nil, err
			}
			return Str(filepath.Clean(p)), nil
		},
		"isabs": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("isabs", args)
			if err != nil {
				return nil, err
			}
			return Bool(strings.HasPrefix(p, "/")), nil
		},
		"exists": func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("exists", args)
			if err != nil {
				return Bool(false), nil
			}
			return Bool(statIs(in.resolve(p), "exists")), nil
		},
		"isfile": func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("isfile", args)
			if err != nil {
				return Bool(false), nil
			}
			return Bool(statIs(in.resolve(p), "isfile")), nil
		},
		"isdir": func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("isdir", args)
			if err != nil {
				return Bool(false), nil
			}
			return Bool(statIs(in.resolve(p), "isdir")), nil
		},
		"relpath": func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			p, err := str1("relpath", args)
			if err != nil {
				return nil, err
			}
			start, _ := pathArg(argOr(args, kwargs, 1, "start", Str(in.opts.Dir)))
			rel, rerr := filepath.Rel(in.resolve(start), in.resolve(p))
			if rerr != nil {
				return nil, newException("ValueError", "%s", rerr.Error())
			}
			return Str(rel), nil
		},
		"expanduser": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			p, err := str1("expanduser", args)
			if err != nil {
				return nil, err
			}
			return Str(p), nil
		},
	})}
	m.Attrs["sep"] = Str("/")
	m.Attrs["curdir"] = Str(".")
	m.Attrs["pardir"] = Str("..")
	return m
}

func sysModule(in *Interp) *Module {
	path := make([]Value, 0, 4)
	for _, d := range in.searchDirs() {
		path = append(path, Str(d))
	}
	platform := runtime.GOOS
	if platform == "windows" {
		platform = "win32"
	}
	argv0 := "setup.py"
	if in.opts.Filename != "" {
		argv0 = filepath.Base(in.opts.Filename)
	}
	m := &Module{Name: "sys", Partial: true, Attrs: builtinsOf(map[string]BuiltinFunc{
		"exit": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			exc := newException("SystemExit", "")
			exc.Value.Attrs["args"] = Tuple(append([]Value(nil), args...))
			return nil, exc
		},
		"getdefaultencoding": func(*Interp, []Value, []Kwarg) (Value, error) {
			return Str("utf-8"), nil
		},
	})}
	m.Attrs["argv"] = NewList(Str(argv0))
	m.Attrs["path"] = NewList(path...)
	m.Attrs["modules"] = NewDict()
	m.Attrs["platform"] = Str(platform)
	m.Attrs["version"] = Str("3.11.0")
	m.Attrs["hexversion"] = Int(0x030b00f0)
	m.Attrs["version_info"] = &StructSeq{
		Name:   "sys.version_info",
		Items:  Tuple{Int(3), Int(11), Int(0), Str("final"), Int(0)},
		Fields: []string{"major", "minor", "micro", "releaselevel", "serial"},
	}
	m.Attrs["executable"] = Str("python3")
	m.Attrs["maxsize"] = Int(1<<63 - 1)
	m.Attrs["byteorder"] = Str("little")
	return m
}

func ioModule(name string) *Module {
	return &Module{Name: name, Partial: true, Attrs: builtinsOf(map[string]BuiltinFunc{
		"open": func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			return in.openFile(args, kwargs)
		},
	})}
}

func jsonModule() *Module {
	return &Module{Name: "json", Partial: true, Attrs: builtinsOf(map[string]BuiltinFunc{
		"loads": func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			s, err := strArg("loads", argOr(args, kwargs, 0, "s", None))
			if err != nil {
				return nil, err
			}
			return decodeJSON(s)
		},
		"load": func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			fp := argOr(args, kwargs, 0, "fp", None)
			data, err := in.callMethod(fp, "read")
			if err != nil {
				return nil, err
			}
			s, err := strArg("load", data)
			if err != nil {
				return nil, err
			}
			return decodeJSON(s)
		},
	})}
}

// decodeJSON converts a JSON document into Python values, keeping object
// key order.
func decodeJSON(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, newException("ValueError", "Expecting value: %v", err)
	}
	if _, err := dec.Token(); !stderrors.Is(err, io.EOF) {
		return nil, newException("ValueError", "Extra data")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			d := NewDict()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				d.SetStr(kt.(string), v)
			}
			_, err := dec.Token()
			return d, err
		case '[':
			var items []Value
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			_, err := dec.Token()
			return NewList(items...), err
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		return Float(f), err
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return None, nil
	}
	return nil, stderrors.New("unexpected token")
}

func globModule() *Module {
	return &Module{Name: "glob", Partial: true, Attrs: builtinsOf(map[string]BuiltinFunc{
		"glob": func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			pat, ok := pathArg(argOr(args, kwargs, 0, "pathname", None))
			if !ok {
				return NewList(), nil
			}
			pat = strings.ReplaceAll(pat, "**", "*")
			matches, err := filepath.Glob(in.resolve(pat))
			if err != nil {
				return nil, newException("ValueError", "%s", err.Error())
			}
			slices.Sort(matches)
			out := make([]Value, len(matches))
			for i, m := range matches {
				if !filepath.IsAbs(pat) && in.opts.Dir != "" {
					if rel, err := filepath.Rel(in.opts.Dir, m); err == nil {
						m = rel
					}
				}
				out[i] = Str(m)
			}
			return NewList(out...), nil
		},
	})}
}

func pathlibModule() *Module {
	newPath := func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
		p := &Path{P: "."}
		for i, a := range args {
			s, ok := pathArg(a)
			if !ok {
				if isOpaque(a) {
					return opaque("pathlib.Path()"), nil
				}
				return nil, newException("TypeError", "expected str, bytes or os.PathLike object, not %s", a.Type())
			}
			if i == 0 {
				p = &Path{P: filepath.Clean(s)}
				continue
			}
			p = p.join(s)
		}
		return p, nil
	}
	attrs := builtinsOf(map[string]BuiltinFunc{
		"Path":      newPath,
		"PurePath":  newPath,
		"PosixPath": newPath,
	})
	for _, b := range attrs {
		b.(*Builtin).IsType = true
	}
	return &Module{Name: "pathlib", Partial: true, Attrs: attrs}
}
