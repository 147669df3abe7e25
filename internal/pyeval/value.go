package pyeval

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/reqcheck/internal/pysrc"
)

// Value is a Python runtime value.
type Value interface {
	Type() string
}

type (
	// NoneType is the type of None.
	NoneType struct{}
	// Bool is a Python bool.
	Bool bool
	// Int is a Python int limited to 64 bits. Arithmetic leaving that
	// range raises OverflowError.
	Int int64
	// Float is a Python float.
	Float float64
	// Str is a Python str.
	Str string
	// Bytes is a Python bytes object.
	Bytes string
	// Tuple is an immutable sequence.
	Tuple []Value
)

// None is the None singleton.
var None Value = NoneType{}

// List is a mutable sequence.
type List struct {
	Items []Value
}

// Iterator is a one-shot sequence produced by generator expressions and
// builtins such as zip and map.
type Iterator struct {
	Items []Value
	pos   int
}

// Range is the result of range().
type Range struct {
	Start, Stop, Step int64
}

// Opaque stands in for any value the sandbox does not model: attributes of
// unknown modules, results of calls into them and instances of unknown
// classes. Every operation on an Opaque yields another Opaque; it iterates
// as empty and is falsy.
type Opaque struct {
	Name string
}

// Kwarg is one keyword argument of a call.
type Kwarg struct {
	Name  string
	Value Value
}

// BuiltinFunc implements a function provided by the sandbox.
type BuiltinFunc func(in *Interp, args []Value, kwargs []Kwarg) (Value, error)

// Builtin is a function provided by the sandbox. Builtins named after a
// type ("str", "list", ...) double as that type for isinstance.
type Builtin struct {
	Name   string
	Fn     BuiltinFunc
	IsType bool
}

// Function is a user-defined function or lambda.
type Function struct {
	Name      string
	Params    *pysrc.Params
	Defaults  map[string]Value
	Body      []pysrc.Stmt
	Expr      pysrc.Expr
	Scope     *Scope
	generator bool
}

// Class is a user-defined or builtin exception class.
type Class struct {
	Name    string
	Bases   []Value
	Attrs   map[string]Value
	builtin bool
}

// Instance is an instance of a Class.
type Instance struct {
	Class *Class
	Attrs map[string]Value
}

// BoundMethod binds a function to its receiver.
type BoundMethod struct {
	Self Value
	Fn   Value
}

// Module is an imported module. Attributes missing from a partial module
// resolve to Opaque values.
type Module struct {
	Name    string
	Attrs   map[string]Value
	Partial bool
}

func (NoneType) Type() string     { return "NoneType" }
func (Bool) Type() string         { return "bool" }
func (Int) Type() string          { return "int" }
func (Float) Type() string        { return "float" }
func (Str) Type() string          { return "str" }
func (Bytes) Type() string        { return "bytes" }
func (Tuple) Type() string        { return "tuple" }
func (*List) Type() string        { return "list" }
func (*Iterator) Type() string    { return "iterator" }
func (*Range) Type() string       { return "range" }
func (*Opaque) Type() string      { return "opaque" }
func (*Builtin) Type() string     { return "builtin_function_or_method" }
func (*Function) Type() string    { return "function" }
func (*Class) Type() string       { return "type" }
func (i *Instance) Type() string  { return i.Class.Name }
func (*BoundMethod) Type() string { return "method" }
func (*Module) Type() string      { return "module" }

// NewList returns a list holding items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// Truth reports the truthiness of v.
func Truth(v Value) bool {
	switch v := v.(type) {
	case NoneType:
		return false
	case Bool:
		return bool(v)
	case Int:
		return v != 0
	case Float:
		return v != 0
	case Str:
		return v != ""
	case Bytes:
		return v != ""
	case Tuple:
		return len(v) > 0
	case *List:
		return len(v.Items) > 0
	case *Dict:
		return v.Len() > 0
	case *Set:
		return v.Len() > 0
	case *Range:
		return v.length() > 0
	case *Opaque:
		return false
	}
	return true
}

func (r *Range) length() int64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	case r.Step < 0 && r.Start > r.Stop:
		return (r.Start - r.Stop - r.Step - 1) / -r.Step
	}
	return 0
}

// ToStr returns str(v).
func ToStr(v Value) string {
	switch v := v.(type) {
	case Str:
		return string(v)
	case *Opaque:
		return "<" + v.Name + ">"
	case *Path:
		return v.P
	case *Instance:
		if args, ok := v.Attrs["args"].(Tuple); ok && v.Class.isException() {
			switch len(args) {
			case 0:
				return ""
			case 1:
				return ToStr(args[0])
			}
		}
	}
	return Repr(v)
}

// Repr returns repr(v).
func Repr(v Value) string {
	switch v := v.(type) {
	case NoneType:
		return "None"
	case Bool:
		if v {
			return "True"
		}
		return "False"
	case Int:
		return strconv.FormatInt(int64(v), 10)
	case Float:
		return formatFloat(float64(v))
	case Str:
		return quote(string(v))
	case Bytes:
		return "b" + quote(string(v))
	case Tuple:
		if len(v) == 1 {
			return "(" + Repr(v[0]) + ",)"
		}
		return "(" + joinRepr(v) + ")"
	case *List:
		return "[" + joinRepr(v.Items) + "]"
	case *Dict:
		parts := make([]string, 0, v.Len())
		for i, k := range v.keys {
			parts = append(parts, Repr(k)+": "+Repr(v.vals[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Set:
		if v.Len() == 0 {
			return "set()"
		}
		return "{" + joinRepr(v.items) + "}"
	case *Range:
		if v.Step == 1 {
			return "range(" + strconv.FormatInt(v.Start, 10) + ", " + strconv.FormatInt(v.Stop, 10) + ")"
		}
		return "range(" + strconv.FormatInt(v.Start, 10) + ", " + strconv.FormatInt(v.Stop, 10) + ", " + strconv.FormatInt(v.Step, 10) + ")"
	case *Opaque:
		return "<" + v.Name + ">"
	case *Builtin:
		return "<built-in function " + v.Name + ">"
	case *Function:
		return "<function " + v.Name + ">"
	case *Class:
		return "<class '" + v.Name + "'>"
	case *Instance:
		if args, ok := v.Attrs["args"].(Tuple); ok && v.Class.isException() {
			return v.Class.Name + joinArgsRepr(args)
		}
		return "<" + v.Class.Name + " object>"
	case *Module:
		return "<module '" + v.Name + "'>"
	case *File:
		return "<file '" + v.Path + "'>"
	case *Path:
		return "PosixPath(" + quote(v.P) + ")"
	}
	return "<" + v.Type() + ">"
}

func joinArgsRepr(args Tuple) string {
	return "(" + joinRepr(args) + ")"
}

func joinRepr(items []Value) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = Repr(it)
	}
	return strings.Join(parts, ", ")
}

func quote(s string) string {
	q := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		q = `"`
	}
	var b strings.Builder
	b.WriteString(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case string(r) == q:
			b.WriteString(`\` + q)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(q)
	return b.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, "e") {
		mant, exp, _ := strings.Cut(s, "e")
		if exp[0] == '+' || exp[0] == '-' {
			sign := exp[:1]
			exp = strings.TrimLeft(exp[1:], "0")
			if len(exp) < 2 {
				exp = strings.Repeat("0", 2-len(exp)) + exp
			}
			return mant + "e" + sign + exp
		}
		return s
	}
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// hashKey returns a map key identifying v for dict and set membership, or
// false when v is unhashable.
func hashKey(v Value) (string, bool) {
	switch v := v.(type) {
	case NoneType:
		return "N", true
	case Bool:
		if v {
			return "i1", true
		}
		return "i0", true
	case Int:
		return "i" + strconv.FormatInt(int64(v), 10), true
	case Float:
		if f := float64(v); f == math.Trunc(f) && math.Abs(f) < 1<<62 {
			return "i" + strconv.FormatInt(int64(f), 10), true
		}
		return "f" + strconv.FormatFloat(float64(v), 'g', -1, 64), true
	case Str:
		return "s" + string(v), true
	case Bytes:
		return "b" + string(v), true
	case Tuple:
		parts := make([]string, len(v))
		for i, it := range v {
			k, ok := hashKey(it)
			if !ok {
				return "", false
			}
			parts[i] = strconv.Itoa(len(k)) + ":" + k
		}
		return "t" + strings.Join(parts, ""), true
	case *Opaque:
		return "o" + v.Name, true
	case *Builtin:
		return "B" + v.Name, true
	case *Class:
		return "C" + v.Name, true
	case *Path:
		return "p" + v.P, true
	}
	return "", false
}

// sortValues sorts values in place with Python ordering rules.
func sortValues(in *Interp, items []Value, key Value, reverse bool) error {
	keys := items
	if key != nil && key != None {
		keys = make([]Value, len(items))
		for i, it := range items {
			k, err := in.call(key, []Value{it}, nil)
			if err != nil {
				return err
			}
			keys[i] = k
		}
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		less, err := lessThan(in, keys[idx[a]], keys[idx[b]])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if reverse {
			more, _ := lessThan(in, keys[idx[b]], keys[idx[a]])
			return more
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}
	sorted := make([]Value, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
	return nil
}
