package pyeval

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/reqcheck/internal/pysrc"
)

var typeNames = map[string]func(Value) bool{
	"str":       func(v Value) bool { _, ok := v.(Str); return ok },
	"bytes":     func(v Value) bool { _, ok := v.(Bytes); return ok },
	"bool":      func(v Value) bool { _, ok := v.(Bool); return ok },
	"int":       func(v Value) bool { _, _, isInt, ok := number(v); return ok && isInt },
	"float":     func(v Value) bool { _, ok := v.(Float); return ok },
	"list":      func(v Value) bool { _, ok := v.(*List); return ok },
	"dict":      func(v Value) bool { _, ok := v.(*Dict); return ok },
	"set":       func(v Value) bool { _, ok := v.(*Set); return ok },
	"frozenset": func(v Value) bool { _, ok := v.(*Set); return ok },
	"range":     func(v Value) bool { _, ok := v.(*Range); return ok },
	"object":    func(Value) bool { return true },
	"tuple": func(v Value) bool {
		switch v.(type) {
		case Tuple, *StructSeq:
			return true
		}
		return false
	},
}

func builtinTable() map[string]Value {
	fns := map[string]BuiltinFunc{
		"print": builtinNone,
		"len":   builtinLen,
		"repr": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			return unaryArg("repr", args, func(v Value) (Value, error) { return Str(Repr(v)), nil })
		},
		"abs":        builtinAbs,
		"round":      builtinRound,
		"min":        func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) { return in.minMax("min", args, kwargs) },
		"max":        func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) { return in.minMax("max", args, kwargs) },
		"sum":        builtinSum,
		"any":        builtinAnyAll(true),
		"all":        builtinAnyAll(false),
		"sorted":     builtinSorted,
		"reversed":   builtinReversed,
		"enumerate":  builtinEnumerate,
		"zip":        builtinZip,
		"map":        builtinMap,
		"filter":     builtinFilter,
		"iter":       builtinIter,
		"next":       builtinNext,
		"isinstance": builtinIsinstance,
		"issubclass": builtinIssubclass,
		"hasattr":    builtinHasattr,
		"getattr":    builtinGetattr,
		"setattr":    builtinSetattr,
		"callable":   builtinCallable,
		"type":       builtinType,
		"format":     builtinFormat,
		"ord":        builtinOrd,
		"chr":        builtinChr,
		"open":       func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) { return in.openFile(args, kwargs) },
		"exec":       builtinExec,
		"eval":       builtinEval,
		"compile":    builtinCompile,
		"globals":    builtinGlobals,
		"locals":     builtinGlobals,
		"vars":       builtinGlobals,
		"__import__": builtinImport,
		"super":      func(*Interp, []Value, []Kwarg) (Value, error) { return opaque("super()"), nil },
		"property":   func(*Interp, []Value, []Kwarg) (Value, error) { return opaque("property"), nil },
		"staticmethod": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			return unaryArg("staticmethod", args, func(fn Value) (Value, error) {
				return &Builtin{Name: "staticmethod", Fn: func(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
					return in.call(fn, args, kwargs)
				}}, nil
			})
		},
		"classmethod": func(*Interp, []Value, []Kwarg) (Value, error) { return opaque("classmethod"), nil },
		"id":          func(*Interp, []Value, []Kwarg) (Value, error) { return Int(0), nil },
		"hash": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			return unaryArg("hash", args, func(v Value) (Value, error) {
				k, ok := hashKey(v)
				if !ok {
					return nil, newException("TypeError", "unhashable type: '%s'", v.Type())
				}
				var h int64
				for i := 0; i < len(k); i++ {
					h = h*31 + int64(k[i])
				}
				return Int(h), nil
			})
		},
	}
	types := map[string]BuiltinFunc{
		"str":   builtinStr,
		"bytes": builtinBytes,
		"int":   builtinInt,
		"float": builtinFloat,
		"bool": func(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
			return Bool(len(args) > 0 && Truth(args[0])), nil
		},
		"list": func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			return in.collect(args, func(v []Value) Value { return NewList(v...) })
		},
		"tuple": func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
			return in.collect(args, func(v []Value) Value { return Tuple(v) })
		},
		"set":       builtinSet,
		"frozenset": builtinSet,
		"dict":      builtinDict,
		"range":     builtinRange,
		"object":    func(*Interp, []Value, []Kwarg) (Value, error) { return opaque("object()"), nil },
	}
	table := make(map[string]Value, len(fns)+len(types)+len(exceptionClasses))
	for name, fn := range fns {
		table[name] = &Builtin{Name: name, Fn: fn}
	}
	for name, fn := range types {
		table[name] = &Builtin{Name: name, Fn: fn, IsType: true}
	}
	for name, c := range exceptionClasses {
		table[name] = c
	}
	table["NotImplemented"] = opaque("NotImplemented")
	table["Ellipsis"] = opaque("Ellipsis")
	return table
}

func builtinNone(*Interp, []Value, []Kwarg) (Value, error) { return None, nil }

func unaryArg(name string, args []Value, fn func(Value) (Value, error)) (Value, error) {
	if len(args) != 1 {
		return nil, newException("TypeError", "%s() takes exactly one argument (%d given)", name, len(args))
	}
	return fn(args[0])
}

func builtinLen(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	return unaryArg("len", args, func(v Value) (Value, error) {
		switch x := v.(type) {
		case *Opaque:
			return opaque("len()"), nil
		case Str:
			return Int(len([]rune(string(x)))), nil
		case Bytes:
			return Int(len(x)), nil
		case *Dict:
			return Int(x.Len()), nil
		case *Set:
			return Int(x.Len()), nil
		case *Range:
			return Int(x.length()), nil
		case *Instance:
			if m, ok := x.Class.lookup("__len__"); ok {
				return in.call(m, []Value{x}, nil)
			}
		}
		if items, ok := seqItems(v); ok {
			return Int(len(items)), nil
		}
		return nil, newException("TypeError", "object of type '%s' has no len()", v.Type())
	})
}

func builtinAbs(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	return unaryArg("abs", args, func(v Value) (Value, error) {
		f, i, isInt, ok := number(v)
		switch {
		case isOpaque(v):
			return v, nil
		case !ok:
			return nil, newException("TypeError", "bad operand type for abs(): '%s'", v.Type())
		case isInt:
			if i < 0 {
				return subInt(0, i)
			}
			return Int(i), nil
		}
		return Float(math.Abs(f)), nil
	})
}

func builtinRound(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	v := argOr(args, kwargs, 0, "number", None)
	f, i, isInt, ok := number(v)
	if !ok {
		return nil, newException("TypeError", "type %s doesn't define __round__ method", v.Type())
	}
	nd, hasDigits := arg(args, kwargs, 1, "ndigits")
	if !hasDigits || nd == None {
		if isInt {
			return Int(i), nil
		}
		return floatToInt(math.RoundToEven(f))
	}
	n, _ := toInt(nd)
	if isInt {
		return Int(i), nil
	}
	p := math.Pow(10, float64(n))
	return Float(math.RoundToEven(f*p) / p), nil
}

func (in *Interp) minMax(name string, args []Value, kwargs []Kwarg) (Value, error) {
	items := args
	if len(args) == 1 {
		var err error
		if items, err = in.iterate(args[0]); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		if def, ok := arg(nil, kwargs, -1, "default"); ok {
			return def, nil
		}
		return nil, newException("ValueError", "%s() arg is an empty sequence", name)
	}
	key, _ := arg(nil, kwargs, -1, "key")
	keyOf := func(v Value) (Value, error) {
		if key == nil || key == None {
			return v, nil
		}
		return in.call(key, []Value{v}, nil)
	}
	best := items[0]
	bestKey, err := keyOf(best)
	if err != nil {
		return nil, err
	}
	for _, it := range items[1:] {
		k, err := keyOf(it)
		if err != nil {
			return nil, err
		}
		a, b := k, bestKey
		if name == "max" {
			a, b = bestKey, k
		}
		less, err := lessThan(in, a, b)
		if err != nil {
			return nil, err
		}
		if less {
			best, bestKey = it, k
		}
	}
	return best, nil
}

func builtinSum(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return nil, newException("TypeError", "sum() takes at least 1 positional argument (0 given)")
	}
	items, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	total := argOr(args, kwargs, 1, "start", Int(0))
	for _, it := range items {
		if total, err = in.binop("+", total, it); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func builtinAnyAll(isAny bool) BuiltinFunc {
	return func(in *Interp, args []Value, _ []Kwarg) (Value, error) {
		if len(args) != 1 {
			return nil, newException("TypeError", "expected exactly one argument")
		}
		items, err := in.iterate(args[0])
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if Truth(it) == isAny {
				return Bool(isAny), nil
			}
		}
		return Bool(!isAny), nil
	}
}

func builtinSorted(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) != 1 {
		return nil, newException("TypeError", "sorted expected 1 argument, got %d", len(args))
	}
	items, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	key, _ := arg(nil, kwargs, -1, "key")
	reverse, _ := arg(nil, kwargs, -1, "reverse")
	if err := sortValues(in, items, key, reverse != nil && Truth(reverse)); err != nil {
		return nil, err
	}
	return NewList(items...), nil
}

func builtinReversed(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) != 1 {
		return nil, newException("TypeError", "reversed expected 1 argument, got %d", len(args))
	}
	items, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return &Iterator{Items: out}, nil
}

func builtinEnumerate(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return nil, newException("TypeError", "enumerate() missing required argument 'iterable'")
	}
	items, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	start, _ := toInt(argOr(args, kwargs, 1, "start", Int(0)))
	out := make([]Value, len(items))
	for i, it := range items {
		out[i] = Tuple{Int(start + int64(i)), it}
	}
	return &Iterator{Items: out}, nil
}

func builtinZip(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	seqs := make([][]Value, len(args))
	n := -1
	for i, a := range args {
		items, err := in.iterate(a)
		if err != nil {
			return nil, err
		}
		seqs[i] = items
		if n < 0 || len(items) < n {
			n = len(items)
		}
	}
	out := make([]Value, 0, max(n, 0))
	for i := 0; i < n; i++ {
		t := make(Tuple, len(seqs))
		for j := range seqs {
			t[j] = seqs[j][i]
		}
		out = append(out, t)
	}
	return &Iterator{Items: out}, nil
}

func builtinMap(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) < 2 {
		return nil, newException("TypeError", "map() must have at least two arguments.")
	}
	zipped, err := builtinZip(in, args[1:], nil)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, t := range zipped.(*Iterator).Items {
		v, err := in.call(args[0], t.(Tuple), nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return &Iterator{Items: out}, nil
}

func builtinFilter(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) != 2 {
		return nil, newException("TypeError", "filter expected 2 arguments, got %d", len(args))
	}
	items, err := in.iterate(args[1])
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, it := range items {
		keep := it
		if args[0] != None {
			if keep, err = in.call(args[0], []Value{it}, nil); err != nil {
				return nil, err
			}
		}
		if Truth(keep) {
			out = append(out, it)
		}
	}
	return &Iterator{Items: out}, nil
}

func builtinIter(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) != 1 {
		return nil, newException("TypeError", "iter expected 1 argument, got %d", len(args))
	}
	if it, ok := args[0].(*Iterator); ok {
		return it, nil
	}
	items, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	return &Iterator{Items: items}, nil
}

func builtinNext(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) == 0 {
		return nil, newException("TypeError", "next expected at least 1 argument, got 0")
	}
	it, ok := args[0].(*Iterator)
	if !ok {
		if isOpaque(args[0]) {
			return opaque("next()"), nil
		}
		return nil, newException("TypeError", "'%s' object is not an iterator", args[0].Type())
	}
	v, err := it.next()
	if err != nil && len(args) > 1 {
		return args[1], nil
	}
	return v, err
}

func isInstance(v, cls Value) bool {
	switch c := cls.(type) {
	case Tuple:
		for _, it := range c {
			if isInstance(v, it) {
				return true
			}
		}
	case *Builtin:
		if match, ok := typeNames[c.Name]; ok && c.IsType {
			return match(v)
		}
		if p, ok := v.(*Path); ok && c.IsType {
			return strings.HasSuffix(c.Name, "Path") && p != nil
		}
	case *Class:
		if inst, ok := v.(*Instance); ok {
			return inst.Class.isSubclass(c)
		}
	}
	return false
}

func builtinIsinstance(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) != 2 {
		return nil, newException("TypeError", "isinstance expected 2 arguments, got %d", len(args))
	}
	return Bool(isInstance(args[0], args[1])), nil
}

func builtinIssubclass(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) != 2 {
		return nil, newException("TypeError", "issubclass expected 2 arguments, got %d", len(args))
	}
	c, ok := args[0].(*Class)
	if !ok {
		return Bool(false), nil
	}
	targets := []Value{args[1]}
	if t, ok := args[1].(Tuple); ok {
		targets = t
	}
	for _, t := range targets {
		if tc, ok := t.(*Class); ok && c.isSubclass(tc) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func nameArg(fn string, args []Value) (string, error) {
	if len(args) < 2 {
		return "", newException("TypeError", "%s expected at least 2 arguments, got %d", fn, len(args))
	}
	name, ok := args[1].(Str)
	if !ok {
		return "", newException("TypeError", "attribute name must be string, not '%s'", args[1].Type())
	}
	return string(name), nil
}

func builtinHasattr(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	name, err := nameArg("hasattr", args)
	if err != nil {
		return nil, err
	}
	_, err = in.getAttr(args[0], name)
	if exc, ok := err.(*Exception); ok && exc.ClassName() == "AttributeError" {
		return Bool(false), nil
	}
	return Bool(err == nil), err
}

func builtinGetattr(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	name, err := nameArg("getattr", args)
	if err != nil {
		return nil, err
	}
	v, err := in.getAttr(args[0], name)
	if exc, ok := err.(*Exception); ok && exc.ClassName() == "AttributeError" && len(args) > 2 {
		return args[2], nil
	}
	return v, err
}

func builtinSetattr(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	name, err := nameArg("setattr", args)
	if err != nil {
		return nil, err
	}
	if len(args) != 3 {
		return nil, newException("TypeError", "setattr expected 3 arguments, got %d", len(args))
	}
	return None, in.setAttr(args[0], name, args[2])
}

func builtinCallable(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	return unaryArg("callable", args, func(v Value) (Value, error) {
		switch x := v.(type) {
		case *Builtin, *Function, *BoundMethod, *Class, *Opaque:
			return Bool(true), nil
		case *Instance:
			_, ok := x.Class.lookup("__call__")
			return Bool(ok), nil
		}
		return Bool(false), nil
	})
}

func builtinType(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) != 1 {
		return opaque("type()"), nil
	}
	switch x := args[0].(type) {
	case *Instance:
		return x.Class, nil
	case *Opaque:
		return opaque("type(" + x.Name + ")"), nil
	}
	if t, ok := in.builtins[args[0].Type()].(*Builtin); ok && t.IsType {
		return t, nil
	}
	return opaque(args[0].Type()), nil
}

func builtinFormat(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return nil, newException("TypeError", "format expected at least 1 argument, got 0")
	}
	spec, _ := argOr(args, kwargs, 1, "format_spec", Str("")).(Str)
	out, err := formatValue(args[0], string(spec))
	return Str(out), err
}

func builtinOrd(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	return unaryArg("ord", args, func(v Value) (Value, error) {
		s, ok := v.(Str)
		if !ok || len([]rune(string(s))) != 1 {
			return nil, newException("TypeError", "ord() expected a character")
		}
		return Int([]rune(string(s))[0]), nil
	})
}

func builtinChr(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	return unaryArg("chr", args, func(v Value) (Value, error) {
		i, ok := toInt(v)
		if !ok {
			return nil, newException("TypeError", "an integer is required")
		}
		return Str(rune(i)), nil
	})
}

func builtinStr(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return Str(""), nil
	}
	if b, ok := args[0].(Bytes); ok && (len(args) > 1 || len(kwargs) > 0) {
		return Str(b), nil
	}
	return Str(ToStr(args[0])), nil
}

func builtinBytes(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) == 0 {
		return Bytes(""), nil
	}
	switch x := args[0].(type) {
	case Str:
		return Bytes(x), nil
	case Bytes:
		return x, nil
	}
	return opaque("bytes()"), nil
}

func builtinInt(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}
	switch x := args[0].(type) {
	case Int:
		return x, nil
	case Bool:
		return Int(boolInt(bool(x))), nil
	case Float:
		return floatToInt(float64(x))
	case Str, Bytes:
		s, _ := strArg("int", x)
		base, _ := toInt(argOr(args, kwargs, 1, "base", Int(10)))
		clean := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
		n, err := strconv.ParseInt(clean, int(base), 64)
		if errors.Is(err, strconv.ErrRange) {
			return nil, errOverflow()
		}
		if err != nil {
			return nil, newException("ValueError", "invalid literal for int() with base %d: %s", base, quote(s))
		}
		return Int(n), nil
	case *Opaque:
		return opaque("int()"), nil
	}
	return nil, newException("TypeError", "int() argument must be a string or a number, not '%s'", args[0].Type())
}

func builtinFloat(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) == 0 {
		return Float(0), nil
	}
	switch x := args[0].(type) {
	case Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, newException("ValueError", "could not convert string to float: %s", quote(string(x)))
		}
		return Float(f), nil
	case *Opaque:
		return opaque("float()"), nil
	}
	f, _, _, ok := number(args[0])
	if !ok {
		return nil, newException("TypeError", "float() argument must be a string or a number, not '%s'", args[0].Type())
	}
	return Float(f), nil
}

func (in *Interp) collect(args []Value, build func([]Value) Value) (Value, error) {
	if len(args) == 0 {
		return build(nil), nil
	}
	items, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	return build(items), nil
}

func builtinSet(in *Interp, args []Value, _ []Kwarg) (Value, error) {
	if len(args) == 0 {
		return NewSet(), nil
	}
	items, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	return newSetFrom(items)
}

func builtinDict(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	d := NewDict()
	if len(args) > 0 {
		if err := in.updateDict(d, args[0]); err != nil {
			return nil, err
		}
	}
	for _, kw := range kwargs {
		d.SetStr(kw.Name, kw.Value)
	}
	return d, nil
}

func builtinRange(_ *Interp, args []Value, _ []Kwarg) (Value, error) {
	ints := make([]int64, len(args))
	for i, a := range args {
		n, ok := toInt(a)
		if !ok {
			return nil, newException("TypeError", "'%s' object cannot be interpreted as an integer", a.Type())
		}
		ints[i] = n
	}
	switch len(ints) {
	case 1:
		return &Range{Start: 0, Stop: ints[0], Step: 1}, nil
	case 2:
		return &Range{Start: ints[0], Stop: ints[1], Step: 1}, nil
	case 3:
		if ints[2] == 0 {
			return nil, newException("ValueError", "range() arg 3 must not be zero")
		}
		return &Range{Start: ints[0], Stop: ints[1], Step: ints[2]}, nil
	}
	return nil, newException("TypeError", "range expected 1 to 3 arguments, got %d", len(ints))
}

func sourceArg(fn string, v Value) (string, bool, error) {
	switch x := v.(type) {
	case Str:
		return string(x), true, nil
	case Bytes:
		return string(x), true, nil
	case *Opaque:
		return "", false, nil
	}
	return "", false, newException("TypeError", "%s() arg 1 must be a string, bytes or code object", fn)
}

// namespace returns the scope an exec or eval call runs in. A dict
// argument becomes a fresh module namespace seeded from its entries.
func (in *Interp) namespace(g Value) (*Scope, *Dict) {
	d, ok := g.(*Dict)
	if !ok {
		return in.currentScope(), nil
	}
	scope := newModuleScope()
	for i, k := range d.keys {
		if name, ok := k.(Str); ok {
			scope.vars[string(name)] = d.vals[i]
		}
	}
	return scope, d
}

func builtinExec(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return nil, newException("TypeError", "exec expected at least 1 argument, got 0")
	}
	src, ok, err := sourceArg("exec", args[0])
	if err != nil || !ok {
		return None, err
	}
	m, perr := pysrc.Parse([]byte(src))
	if perr != nil {
		return nil, newException("SyntaxError", "%v", perr)
	}
	scope, d := in.namespace(argOr(args, kwargs, 1, "globals", None))
	if err := in.execModule(scope, m.Body); err != nil {
		return nil, err
	}
	if d != nil {
		for k, v := range scope.vars {
			d.SetStr(k, v)
		}
	}
	return None, nil
}

func builtinEval(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return nil, newException("TypeError", "eval expected at least 1 argument, got 0")
	}
	src, ok, err := sourceArg("eval", args[0])
	if err != nil || !ok {
		return opaque("eval()"), err
	}
	x, perr := pysrc.ParseExpr(strings.TrimSpace(src))
	if perr != nil {
		return nil, newException("SyntaxError", "%v", perr)
	}
	scope, _ := in.namespace(argOr(args, kwargs, 1, "globals", None))
	return in.eval(scope, x)
}

func builtinCompile(_ *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	src := argOr(args, kwargs, 0, "source", None)
	if _, _, err := sourceArg("compile", src); err != nil {
		return nil, err
	}
	return src, nil
}

func builtinGlobals(in *Interp, _ []Value, _ []Kwarg) (Value, error) {
	d := NewDict()
	for k, v := range in.currentScope().vars {
		d.SetStr(k, v)
	}
	return d, nil
}

func builtinImport(in *Interp, args []Value, kwargs []Kwarg) (Value, error) {
	name, err := strArg("__import__", argOr(args, kwargs, 0, "name", None))
	if err != nil {
		return nil, err
	}
	if _, err := in.importModule(name); err != nil {
		return nil, err
	}
	top, _, _ := strings.Cut(name, ".")
	return in.modules[top], nil
}
