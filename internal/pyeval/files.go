package pyeval

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is a read-only file object returned by open().
type File struct {
	Path   string
	data   string
	pos    int
	binary bool
	closed bool
}

func (*File) Type() string { return "TextIOWrapper" }

// Path is a pathlib.Path.
type Path struct {
	P string
}

func (*Path) Type() string { return "PosixPath" }

func pathArg(v Value) (string, bool) {
	switch p := v.(type) {
	case Str:
		return string(p), true
	case *Path:
		return p.P, true
	}
	return "", false
}

func (p *Path) join(other string) *Path {
	if filepath.IsAbs(other) {
		return &Path{P: other}
	}
	return &Path{P: filepath.Join(p.P, other)}
}

// resolve returns name relative to the script directory.
func (in *Interp) resolve(name string) string {
	if filepath.IsAbs(name) || in.opts.Dir == "" {
		return name
	}
	return filepath.Join(in.opts.Dir, name)
}

func osError(err error, name string) *Exception {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return newException("FileNotFoundError", "[Errno 2] No such file or directory: %s", quote(name))
	case stderrors.Is(err, fs.ErrPermission):
		return newException("PermissionError", "[Errno 13] Permission denied: %s", quote(name))
	}
	return newException("OSError", "%s", err.Error())
}

// openFile implements open(file, mode="r", ...). Only reading is allowed.
func (in *Interp) openFile(args []Value, kwargs []Kwarg) (Value, error) {
	fv, ok := arg(args, kwargs, 0, "file")
	if !ok {
		return nil, newException("TypeError", "open() missing required argument 'file'")
	}
	if isOpaque(fv) {
		return opaque("file"), nil
	}
	name, ok := pathArg(fv)
	if !ok {
		return nil, newException("TypeError", "expected str, bytes or os.PathLike object, not %s", fv.Type())
	}
	mode := "r"
	if m, ok := arg(args, kwargs, 1, "mode"); ok {
		if ms, ok := m.(Str); ok {
			mode = string(ms)
		}
	}
	if strings.ContainsAny(mode, "wax+") {
		return nil, newException("PermissionError", "[Errno 13] Permission denied: %s", quote(name))
	}
	path := in.resolve(name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, osError(err, name)
	}
	if info.IsDir() {
		return nil, newException("IsADirectoryError", "[Errno 21] Is a directory: %s", quote(name))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, osError(err, name)
	}
	f := &File{Path: name, data: string(data), binary: strings.Contains(mode, "b")}
	if !f.binary {
		f.data = strings.TrimPrefix(f.data, "\uFEFF")
		f.data = strings.ReplaceAll(f.data, "\r\n", "\n")
	}
	in.logger.Debug("build script read file", "path", path, "bytes", len(data))
	return f, nil
}

func (f *File) wrap(s string) Value {
	if f.binary {
		return Bytes(s)
	}
	return Str(s)
}

func (f *File) lines() []Value {
	var out []Value
	for _, l := range splitLines(f.data[f.pos:], true) {
		out = append(out, f.wrap(l))
	}
	f.pos = len(f.data)
	return out
}

func fileMethod(f *File, name string) *Builtin {
	switch name {
	case "read":
		return newMethod(name, func(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			if f.closed {
				return nil, newException("ValueError", "I/O operation on closed file.")
			}
			n, _ := toInt(argOr(args, kwargs, 0, "size", Int(-1)))
			rest := f.data[f.pos:]
			if n >= 0 && int(n) < len(rest) {
				rest = rest[:n]
			}
			f.pos += len(rest)
			return f.wrap(rest), nil
		})
	case "readline":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			rest := f.data[f.pos:]
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				rest = rest[:i+1]
			}
			f.pos += len(rest)
			return f.wrap(rest), nil
		})
	case "readlines":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			return NewList(f.lines()...), nil
		})
	case "close", "__exit__":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			f.closed = true
			return None, nil
		})
	case "__enter__":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) { return f, nil })
	case "write", "writelines", "truncate", "flush":
		return newMethod(name, func(*Interp, []Value, []Kwarg) (Value, error) {
			return nil, newException("PermissionError", "file %s is not writable", quote(f.Path))
		})
	}
	return nil
}

// pathAttr resolves attributes and methods of pathlib.Path values.
func pathAttr(p *Path, name string) (Value, bool) {
	switch name {
	case "name":
		return Str(filepath.Base(p.P)), true
	case "suffix":
		return Str(splitExt(filepath.Base(p.P))[1]), true
	case "stem":
		return Str(splitExt(filepath.Base(p.P))[0]), true
	case "parent":
		return &Path{P: filepath.Dir(p.P)}, true
	case "parts":
		var parts Tuple
		if filepath.IsAbs(p.P) {
			parts = append(parts, Str("/"))
		}
		for _, s := range strings.Split(strings.Trim(p.P, "/"), "/") {
			if s != "" {
				parts = append(parts, Str(s))
			}
		}
		return parts, true
	}
	var fn BuiltinFunc
	switch name {
	case "read_text", "read_bytes":
		fn = func(in *Interp, _ []Value, _ []Kwarg) (Value, error) {
			data, err := os.ReadFile(in.resolve(p.P))
			if err != nil {
				return nil, osError(err, p.P)
			}
			if name == "read_bytes" {
				return Bytes(data), nil
			}
			return Str(strings.ReplaceAll(string(data), "\r\n", "\n")), nil
		}
	case "open":
		fn = func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
			return in.openFile(append([]Value{p}, args...), kwargs)
		}
	case "exists", "is_file", "is_dir":
		fn = func(in *Interp, _ []Value, _ []Kwarg) (Value, error) {
			return Bool(statIs(in.resolve(p.P), name)), nil
		}
	case "resolve", "absolute":
		fn = func(in *Interp, _ []Value, _ []Kwarg) (Value, error) {
			return &Path{P: filepath.Clean(in.resolve(p.P))}, nil
		}
	case "joinpath":
		fn = func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			out := p
			for _, a := range args {
				s, ok := pathArg(a)
				if !ok {
					return nil, newException("TypeError", "expected str, not %s", a.Type())
				}
				out = out.join(s)
			}
			return out, nil
		}
	case "with_suffix":
		fn = func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "with_suffix() takes exactly one argument")
			}
			s, _ := pathArg(args[0])
			dir, base := filepath.Split(p.P)
			return &Path{P: dir + splitExt(base)[0] + s}, nil
		}
	case "with_name":
		fn = func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "with_name() takes exactly one argument")
			}
			s, _ := pathArg(args[0])
			return &Path{P: filepath.Join(filepath.Dir(p.P), s)}, nil
		}
	case "glob":
		fn = func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			if len(args) != 1 {
				return nil, newException("TypeError", "glob() takes exactly one argument")
			}
			pat, _ := pathArg(args[0])
			matches, _ := filepath.Glob(filepath.Join(in.resolve(p.P), pat))
			out := make([]Value, len(matches))
			for i, m := range matches {
				rel, err := filepath.Rel(in.resolve(p.P), m)
				if err != nil {
					rel = filepath.Base(m)
				}
				out[i] = p.join(rel)
			}
			return &Iterator{Items: out}, nil
		}
	case "__fspath__", "as_posix":
		fn = func(*Interp, []Value, []Kwarg) (Value, error) { return Str(p.P), nil }
	default:
		return nil, false
	}
	return newMethod(name, fn), true
}

func statIs(path, kind string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	switch kind {
	case "is_file", "isfile":
		return info.Mode().IsRegular()
	case "is_dir", "isdir":
		return info.IsDir()
	}
	return true
}

// splitExt splits a file name like os.path.splitext: leading dots do not
// start an extension.
func splitExt(p string) [2]string {
	base := filepath.Base(p)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || strings.Trim(base[:i], ".") == "" {
		return [2]string{p, ""}
	}
	cut := len(p) - len(base) + i
	return [2]string{p[:cut], p[cut:]}
}
