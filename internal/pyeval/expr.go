package pyeval

import (
	"math"
	"strings"

	"github.com/matzehuels/reqcheck/internal/pysrc"
)

// StructSeq is a tuple whose items are also reachable by field name, such
// as sys.version_info.
type StructSeq struct {
	Name   string
	Items  Tuple
	Fields []string
}

func (s *StructSeq) Type() string { return s.Name }

type sliceValue struct {
	Lo, Hi, Step Value
}

func (*sliceValue) Type() string { return "slice" }

func opaque(name string) *Opaque { return &Opaque{Name: name} }

func isOpaque(vs ...Value) bool {
	for _, v := range vs {
		if _, ok := v.(*Opaque); ok {
			return true
		}
	}
	return false
}

func (in *Interp) eval(s *Scope, e pysrc.Expr) (Value, error) {
	switch e := e.(type) {
	case *pysrc.Name:
		if v, ok := s.lookup(e.ID); ok {
			return v, nil
		}
		if v, ok := in.builtins[e.ID]; ok {
			return v, nil
		}
		return nil, newException("NameError", "name '%s' is not defined", e.ID)
	case *pysrc.Constant:
		return constant(e)
	case *pysrc.FString:
		return in.evalFString(s, e)
	case *pysrc.Attribute:
		x, err := in.eval(s, e.X)
		if err != nil {
			return nil, err
		}
		return in.getAttr(x, e.Attr)
	case *pysrc.Subscript:
		x, err := in.eval(s, e.X)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(s, e.Index)
		if err != nil {
			return nil, err
		}
		return in.getItem(x, idx)
	case *pysrc.Slice:
		sl := &sliceValue{Lo: None, Hi: None, Step: None}
		for _, p := range []struct {
			dst *Value
			src pysrc.Expr
		}{{&sl.Lo, e.Lo}, {&sl.Hi, e.Hi}, {&sl.Step, e.Step}} {
			if p.src == nil {
				continue
			}
			v, err := in.eval(s, p.src)
			if err != nil {
				return nil, err
			}
			*p.dst = v
		}
		return sl, nil
	case *pysrc.Call:
		return in.evalCall(s, e)
	case *pysrc.Starred:
		return nil, newException("SyntaxError", "can't use starred expression here")
	case *pysrc.BinOp:
		x, err := in.eval(s, e.X)
		if err != nil {
			return nil, err
		}
		y, err := in.eval(s, e.Y)
		if err != nil {
			return nil, err
		}
		return in.binop(e.Op, x, y)
	case *pysrc.UnaryOp:
		x, err := in.eval(s, e.X)
		if err != nil {
			return nil, err
		}
		return unary(e.Op, x)
	case *pysrc.BoolOp:
		var v Value
		for _, x := range e.Values {
			var err error
			if v, err = in.eval(s, x); err != nil {
				return nil, err
			}
			if Truth(v) == (e.Op == "or") {
				return v, nil
			}
		}
		return v, nil
	case *pysrc.Compare:
		left, err := in.eval(s, e.X)
		if err != nil {
			return nil, err
		}
		var result Value = Bool(true)
		for i, op := range e.Ops {
			right, err := in.eval(s, e.Comparators[i])
			if err != nil {
				return nil, err
			}
			if result, err = in.compare(op, left, right); err != nil {
				return nil, err
			}
			if !Truth(result) {
				return result, nil
			}
			left = right
		}
		return result, nil
	case *pysrc.IfExp:
		t, err := in.eval(s, e.Test)
		if err != nil {
			return nil, err
		}
		if Truth(t) {
			return in.eval(s, e.Body)
		}
		return in.eval(s, e.Else)
	case *pysrc.Lambda:
		return in.makeFunction(s, "<lambda>", e.Params, nil, e.Body)
	case *pysrc.NamedExpr:
		v, err := in.eval(s, e.Value)
		if err != nil {
			return nil, err
		}
		s.set(e.Target.ID, v)
		return v, nil
	case *pysrc.List:
		items, err := in.evalElts(s, e.Elts)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case *pysrc.Tuple:
		items, err := in.evalElts(s, e.Elts)
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil
	case *pysrc.Set:
		items, err := in.evalElts(s, e.Elts)
		if err != nil {
			return nil, err
		}
		return newSetFrom(items)
	case *pysrc.Dict:
		return in.evalDict(s, e)
	case *pysrc.Comp:
		return in.evalComp(s, e)
	case *pysrc.Yield:
		return nil, newException("SyntaxError", "'yield' outside function")
	case *pysrc.Await:
		return opaque("await"), nil
	}
	return nil, newException("SyntaxError", "unsupported expression %T", e)
}

func constant(c *pysrc.Constant) (Value, error) {
	switch c.Kind {
	case pysrc.ConstBool:
		return Bool(c.Bool), nil
	case pysrc.ConstInt:
		if c.Overflow {
			return nil, errOverflow()
		}
		return Int(c.Int), nil
	case pysrc.ConstFloat:
		return Float(c.Float), nil
	case pysrc.ConstImag:
		return opaque("complex"), nil
	case pysrc.ConstStr:
		return Str(c.Str), nil
	case pysrc.ConstBytes:
		return Bytes(c.Str), nil
	case pysrc.ConstEllipsis:
		return opaque("Ellipsis"), nil
	}
	return None, nil
}

func (in *Interp) evalElts(s *Scope, elts []pysrc.Expr) ([]Value, error) {
	items := make([]Value, 0, len(elts))
	for _, x := range elts {
		if st, ok := x.(*pysrc.Starred); ok {
			v, err := in.eval(s, st.X)
			if err != nil {
				return nil, err
			}
			vs, err := in.iterate(v)
			if err != nil {
				return nil, err
			}
			items = append(items, vs...)
			continue
		}
		v, err := in.eval(s, x)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func newSetFrom(items []Value) (*Set, error) {
	set := NewSet()
	for _, it := range items {
		if _, ok := hashKey(it); !ok {
			return nil, newException("TypeError", "unhashable type: '%s'", it.Type())
		}
		set.Add(it)
	}
	return set, nil
}

func dictSet(d *Dict, k, v Value) error {
	if !d.Set(k, v) {
		return newException("TypeError", "unhashable type: '%s'", k.Type())
	}
	return nil
}

func (in *Interp) evalDict(s *Scope, e *pysrc.Dict) (Value, error) {
	d := NewDict()
	for i, kx := range e.Keys {
		v, err := in.eval(s, e.Values[i])
		if err != nil {
			return nil, err
		}
		if kx == nil {
			switch m := v.(type) {
			case *Dict:
				for j, k := range m.keys {
					d.Set(k, m.vals[j])
				}
			case *Opaque:
			default:
				return nil, newException("TypeError", "'%s' object is not a mapping", v.Type())
			}
			continue
		}
		k, err := in.eval(s, kx)
		if err != nil {
			return nil, err
		}
		if err := dictSet(d, k, v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (in *Interp) evalComp(s *Scope, e *pysrc.Comp) (Value, error) {
	cs := newScope(s)
	var items []Value
	dict := NewDict()
	var emit func(i int) error
	emit = func(i int) error {
		if i == len(e.Generators) {
			if err := in.step(); err != nil {
				return err
			}
			k, err := in.eval(cs, e.Elt)
			if err != nil {
				return err
			}
			if e.Kind != pysrc.DictComp {
				items = append(items, k)
				return nil
			}
			v, err := in.eval(cs, e.Value)
			if err != nil {
				return err
			}
			return dictSet(dict, k, v)
		}
		g := e.Generators[i]
		iterScope := cs
		if i == 0 {
			iterScope = s
		}
		seq, err := in.eval(iterScope, g.Iter)
		if err != nil {
			return err
		}
		vals, err := in.iterate(seq)
		if err != nil {
			return err
		}
	next:
		for _, v := range vals {
			if err := in.assign(cs, g.Target, v); err != nil {
				return err
			}
			for _, cond := range g.Ifs {
				ok, err := in.eval(cs, cond)
				if err != nil {
					return err
				}
				if !Truth(ok) {
					continue next
				}
			}
			if err := emit(i + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := emit(0); err != nil {
		return nil, err
	}
	switch e.Kind {
	case pysrc.ListComp:
		return NewList(items...), nil
	case pysrc.SetComp:
		return newSetFrom(items)
	case pysrc.DictComp:
		return dict, nil
	}
	return &Iterator{Items: items}, nil
}

func (in *Interp) evalCall(s *Scope, e *pysrc.Call) (Value, error) {
	fn, err := in.eval(s, e.Func)
	if err != nil {
		return nil, err
	}
	args, err := in.evalElts(s, e.Args)
	if err != nil {
		return nil, err
	}
	var kwargs []Kwarg
	for _, kw := range e.Keywords {
		v, err := in.eval(s, kw.Value)
		if err != nil {
			return nil, err
		}
		if kw.Name != "" {
			kwargs = append(kwargs, Kwarg{Name: kw.Name, Value: v})
			continue
		}
		switch m := v.(type) {
		case *Dict:
			for i, k := range m.keys {
				name, ok := k.(Str)
				if !ok {
					return nil, newException("TypeError", "keywords must be strings")
				}
				kwargs = append(kwargs, Kwarg{Name: string(name), Value: m.vals[i]})
			}
		case *Opaque:
		default:
			return nil, newException("TypeError", "argument after ** must be a mapping, not %s", v.Type())
		}
	}
	return in.call(fn, args, kwargs)
}

func (in *Interp) call(fn Value, args []Value, kwargs []Kwarg) (Value, error) {
	switch f := fn.(type) {
	case *Builtin:
		return f.Fn(in, args, kwargs)
	case *Function:
		return in.callFunction(f, args, kwargs)
	case *BoundMethod:
		return in.call(f.Fn, append([]Value{f.Self}, args...), kwargs)
	case *Class:
		return in.instantiate(f, args, kwargs)
	case *Opaque:
		return opaque(f.Name + "()"), nil
	case *Instance:
		if m, ok := f.Class.lookup("__call__"); ok {
			return in.call(m, append([]Value{f}, args...), kwargs)
		}
	}
	return nil, newException("TypeError", "'%s' object is not callable", fn.Type())
}

func (in *Interp) callMethod(v Value, name string, args ...Value) (Value, error) {
	m, err := in.getAttr(v, name)
	if err != nil {
		return nil, err
	}
	return in.call(m, args, nil)
}

func (c *Class) lookup(name string) (Value, bool) {
	if v, ok := c.Attrs[name]; ok {
		return v, true
	}
	for _, b := range c.Bases {
		switch b := b.(type) {
		case *Class:
			if v, ok := b.lookup(name); ok {
				return v, true
			}
		case *Opaque:
			return opaque(b.Name + "." + name), true
		}
	}
	return nil, false
}

func (in *Interp) instantiate(c *Class, args []Value, kwargs []Kwarg) (Value, error) {
	inst := &Instance{Class: c, Attrs: map[string]Value{}}
	if c.isException() {
		inst.Attrs["args"] = Tuple(append([]Value(nil), args...))
	}
	if init, ok := c.lookup("__init__"); ok {
		if _, err := in.call(init, append([]Value{inst}, args...), kwargs); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (in *Interp) getAttr(v Value, name string) (Value, error) {
	switch x := v.(type) {
	case *Opaque:
		return opaque(x.Name + "." + name), nil
	case *Module:
		if a, ok := x.Attrs[name]; ok {
			return a, nil
		}
		if name == "__name__" {
			return Str(x.Name), nil
		}
		if x.Partial {
			return opaque(x.Name + "." + name), nil
		}
		return nil, newException("AttributeError", "module '%s' has no attribute '%s'", x.Name, name)
	case *Instance:
		if a, ok := x.Attrs[name]; ok {
			return a, nil
		}
		if a, ok := x.Class.lookup(name); ok {
			if fn, ok := a.(*Function); ok {
				return &BoundMethod{Self: x, Fn: fn}, nil
			}
			return a, nil
		}
		if name == "__class__" {
			return x.Class, nil
		}
	case *Class:
		if a, ok := x.lookup(name); ok {
			return a, nil
		}
		if name == "__name__" {
			return Str(x.Name), nil
		}
	case *Function:
		switch name {
		case "__name__":
			return Str(x.Name), nil
		case "__doc__":
			return None, nil
		}
	case *Builtin:
		if name == "__name__" {
			return Str(x.Name), nil
		}
	case *StructSeq:
		for i, f := range x.Fields {
			if f == name {
				return x.Items[i], nil
			}
		}
	}
	if m, ok := in.method(v, name); ok {
		return m, nil
	}
	return nil, newException("AttributeError", "'%s' object has no attribute '%s'", v.Type(), name)
}

func (in *Interp) setAttr(v Value, name string, val Value) error {
	switch x := v.(type) {
	case *Instance:
		x.Attrs[name] = val
	case *Module:
		x.Attrs[name] = val
	case *Class:
		x.Attrs[name] = val
	case *Opaque, *Function:
	default:
		return newException("AttributeError", "'%s' object attribute '%s' is read-only", v.Type(), name)
	}
	return nil
}

// seqItems returns the items of tuple-like and list values.
func seqItems(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case Tuple:
		return x, true
	case *List:
		return x.Items, true
	case *StructSeq:
		return x.Items, true
	}
	return nil, false
}

func toInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int:
		return int64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func normIndex(idx Value, n int) (int, error) {
	i, ok := toInt(idx)
	if !ok {
		return 0, newException("TypeError", "indices must be integers, not %s", idx.Type())
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, newException("IndexError", "index out of range")
	}
	return int(i), nil
}

func sliceBounds(sl *sliceValue, n int) (start, stop, step int, err error) {
	step = 1
	if sl.Step != None {
		st, ok := toInt(sl.Step)
		if !ok {
			return 0, 0, 0, newException("TypeError", "slice indices must be integers or None")
		}
		if st == 0 {
			return 0, 0, 0, newException("ValueError", "slice step cannot be zero")
		}
		step = int(st)
	}
	clamp := func(v Value, def int) (int, error) {
		if v == None {
			return def, nil
		}
		i64, ok := toInt(v)
		if !ok {
			return 0, newException("TypeError", "slice indices must be integers or None")
		}
		i := int(i64)
		if i < 0 {
			i += n
			if i < 0 {
				if step > 0 {
					return 0, nil
				}
				return -1, nil
			}
		}
		if i >= n {
			if step > 0 {
				return n, nil
			}
			return n - 1, nil
		}
		return i, nil
	}
	if step > 0 {
		start, err = clamp(sl.Lo, 0)
		if err == nil {
			stop, err = clamp(sl.Hi, n)
		}
	} else {
		start, err = clamp(sl.Lo, n-1)
		if err == nil {
			stop, err = clamp(sl.Hi, -1)
		}
	}
	return start, stop, step, err
}

func sliceIndices(sl *sliceValue, n int) ([]int, error) {
	start, stop, step, err := sliceBounds(sl, n)
	if err != nil {
		return nil, err
	}
	var idx []int
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		idx = append(idx, i)
	}
	return idx, nil
}

func (in *Interp) getItem(x, idx Value) (Value, error) {
	if isOpaque(x) {
		return opaque(x.(*Opaque).Name + "[]"), nil
	}
	sl, isSlice := idx.(*sliceValue)
	switch c := x.(type) {
	case *Dict:
		v, ok := c.Get(idx)
		if !ok {
			if _, hashable := hashKey(idx); !hashable {
				return nil, newException("TypeError", "unhashable type: '%s'", idx.Type())
			}
			return nil, newException("KeyError", "%s", Repr(idx))
		}
		return v, nil
	case Str:
		runes := []rune(string(c))
		if isSlice {
			ids, err := sliceIndices(sl, len(runes))
			if err != nil {
				return nil, err
			}
			out := make([]rune, len(ids))
			for i, j := range ids {
				out[i] = runes[j]
			}
			return Str(out), nil
		}
		i, err := normIndex(idx, len(runes))
		if err != nil {
			return nil, err
		}
		return Str(runes[i]), nil
	case Bytes:
		if isSlice {
			ids, err := sliceIndices(sl, len(c))
			if err != nil {
				return nil, err
			}
			out := make([]byte, len(ids))
			for i, j := range ids {
				out[i] = c[j]
			}
			return Bytes(out), nil
		}
		i, err := normIndex(idx, len(c))
		if err != nil {
			return nil, err
		}
		return Int(c[i]), nil
	case *Range:
		n := int(c.length())
		if isSlice {
			return nil, newException("TypeError", "range slicing is not supported")
		}
		i, err := normIndex(idx, n)
		if err != nil {
			return nil, err
		}
		return Int(c.Start + int64(i)*c.Step), nil
	case *Instance:
		if m, ok := c.Class.lookup("__getitem__"); ok {
			return in.call(m, []Value{c, idx}, nil)
		}
	case *Match:
		return c.group(idx)
	}
	if items, ok := seqItems(x); ok {
		if isSlice {
			ids, err := sliceIndices(sl, len(items))
			if err != nil {
				return nil, err
			}
			out := make([]Value, len(ids))
			for i, j := range ids {
				out[i] = items[j]
			}
			if _, isList := x.(*List); isList {
				return NewList(out...), nil
			}
			return Tuple(out), nil
		}
		i, err := normIndex(idx, len(items))
		if err != nil {
			return nil, err
		}
		return items[i], nil
	}
	return nil, newException("TypeError", "'%s' object is not subscriptable", x.Type())
}

func (in *Interp) setItem(x, idx, v Value) error {
	switch c := x.(type) {
	case *Opaque:
		return nil
	case *Dict:
		return dictSet(c, idx, v)
	case *List:
		if sl, ok := idx.(*sliceValue); ok {
			start, stop, step, err := sliceBounds(sl, len(c.Items))
			if err != nil {
				return err
			}
			if step != 1 {
				return newException("ValueError", "extended slice assignment is not supported")
			}
			repl, err := in.iterate(v)
			if err != nil {
				return err
			}
			if stop < start {
				stop = start
			}
			items := append([]Value(nil), c.Items[:start]...)
			items = append(items, repl...)
			c.Items = append(items, c.Items[stop:]...)
			return nil
		}
		i, err := normIndex(idx, len(c.Items))
		if err != nil {
			return err
		}
		c.Items[i] = v
		return nil
	case *Instance:
		if m, ok := c.Class.lookup("__setitem__"); ok {
			_, err := in.call(m, []Value{c, idx, v}, nil)
			return err
		}
	}
	return newException("TypeError", "'%s' object does not support item assignment", x.Type())
}

func (in *Interp) assign(s *Scope, target pysrc.Expr, v Value) error {
	switch t := target.(type) {
	case *pysrc.Name:
		s.set(t.ID, v)
		return nil
	case *pysrc.Tuple:
		return in.unpack(s, t.Elts, v)
	case *pysrc.List:
		return in.unpack(s, t.Elts, v)
	case *pysrc.Attribute:
		obj, err := in.eval(s, t.X)
		if err != nil {
			return err
		}
		return in.setAttr(obj, t.Attr, v)
	case *pysrc.Subscript:
		obj, err := in.eval(s, t.X)
		if err != nil {
			return err
		}
		idx, err := in.eval(s, t.Index)
		if err != nil {
			return err
		}
		return in.setItem(obj, idx, v)
	}
	return newException("SyntaxError", "cannot assign to %T", target)
}

func (in *Interp) unpack(s *Scope, targets []pysrc.Expr, v Value) error {
	items, err := in.iterate(v)
	if err != nil {
		return err
	}
	if isOpaque(v) {
		for _, t := range targets {
			if st, ok := t.(*pysrc.Starred); ok {
				t = st.X
			}
			if err := in.assign(s, t, opaque(v.(*Opaque).Name+"[]")); err != nil {
				return err
			}
		}
		return nil
	}
	star := -1
	for i, t := range targets {
		if _, ok := t.(*pysrc.Starred); ok {
			star = i
		}
	}
	if star < 0 {
		if len(items) != len(targets) {
			return newException("ValueError", "expected %d values to unpack, got %d", len(targets), len(items))
		}
		for i, t := range targets {
			if err := in.assign(s, t, items[i]); err != nil {
				return err
			}
		}
		return nil
	}
	after := len(targets) - star - 1
	if len(items) < star+after {
		return newException("ValueError", "not enough values to unpack")
	}
	for i := 0; i < star; i++ {
		if err := in.assign(s, targets[i], items[i]); err != nil {
			return err
		}
	}
	rest := append([]Value(nil), items[star:len(items)-after]...)
	if err := in.assign(s, targets[star].(*pysrc.Starred).X, NewList(rest...)); err != nil {
		return err
	}
	for i := 0; i < after; i++ {
		if err := in.assign(s, targets[star+1+i], items[len(items)-after+i]); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interp) delete(s *Scope, target pysrc.Expr) error {
	switch t := target.(type) {
	case *pysrc.Name:
		if !s.del(t.ID) {
			return newException("NameError", "name '%s' is not defined", t.ID)
		}
		return nil
	case *pysrc.Tuple:
		for _, x := range t.Elts {
			if err := in.delete(s, x); err != nil {
				return err
			}
		}
		return nil
	case *pysrc.Attribute:
		obj, err := in.eval(s, t.X)
		if err != nil {
			return err
		}
		switch o := obj.(type) {
		case *Instance:
			delete(o.Attrs, t.Attr)
		case *Module:
			delete(o.Attrs, t.Attr)
		}
		return nil
	case *pysrc.Subscript:
		obj, err := in.eval(s, t.X)
		if err != nil {
			return err
		}
		idx, err := in.eval(s, t.Index)
		if err != nil {
			return err
		}
		switch o := obj.(type) {
		case *Dict:
			if !o.Delete(idx) {
				return newException("KeyError", "%s", Repr(idx))
			}
		case *List:
			i, err := normIndex(idx, len(o.Items))
			if err != nil {
				return err
			}
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
		}
		return nil
	}
	return newException("SyntaxError", "cannot delete %T", target)
}

func (in *Interp) augAssign(s *Scope, st *pysrc.AugAssign) error {
	v, err := in.eval(s, st.Value)
	if err != nil {
		return err
	}
	switch t := st.Target.(type) {
	case *pysrc.Name:
		cur, ok := s.lookup(t.ID)
		if !ok {
			return newException("NameError", "name '%s' is not defined", t.ID)
		}
		r, err := in.inplace(st.Op, cur, v)
		if err != nil {
			return err
		}
		s.set(t.ID, r)
		return nil
	case *pysrc.Attribute:
		obj, err := in.eval(s, t.X)
		if err != nil {
			return err
		}
		cur, err := in.getAttr(obj, t.Attr)
		if err != nil {
			return err
		}
		r, err := in.inplace(st.Op, cur, v)
		if err != nil {
			return err
		}
		return in.setAttr(obj, t.Attr, r)
	case *pysrc.Subscript:
		obj, err := in.eval(s, t.X)
		if err != nil {
			return err
		}
		idx, err := in.eval(s, t.Index)
		if err != nil {
			return err
		}
		cur, err := in.getItem(obj, idx)
		if err != nil {
			return err
		}
		r, err := in.inplace(st.Op, cur, v)
		if err != nil {
			return err
		}
		return in.setItem(obj, idx, r)
	}
	return newException("SyntaxError", "illegal target for augmented assignment")
}

func (in *Interp) inplace(op string, cur, v Value) (Value, error) {
	switch c := cur.(type) {
	case *List:
		if op == "+" {
			items, err := in.iterate(v)
			if err != nil {
				return nil, err
			}
			if err := checkLen(int64(len(c.Items) + len(items))); err != nil {
				return nil, err
			}
			c.Items = append(c.Items, items...)
			return c, nil
		}
	case *Set:
		if op == "|" {
			items, err := in.iterate(v)
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				c.Add(it)
			}
			return c, nil
		}
	case *Dict:
		if o, ok := v.(*Dict); ok && op == "|" {
			for i, k := range o.keys {
				c.Set(k, o.vals[i])
			}
			return c, nil
		}
	}
	return in.binop(op, cur, v)
}

// iterate returns the items produced by iterating v. Opaque values iterate
// as empty.
func (in *Interp) iterate(v Value) ([]Value, error) {
	switch x := v.(type) {
	case *Opaque:
		return nil, nil
	case Str:
		runes := []rune(string(x))
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = Str(r)
		}
		return out, nil
	case Bytes:
		out := make([]Value, len(x))
		for i := range len(x) {
			out[i] = Int(x[i])
		}
		return out, nil
	case *Dict:
		return x.Keys(), nil
	case *Set:
		return x.Items(), nil
	case *Range:
		n := x.length()
		if n > int64(in.opts.MaxSteps) {
			return nil, &haltError{msg: "evaluation step budget exhausted"}
		}
		out := make([]Value, n)
		for i := range n {
			out[i] = Int(x.Start + i*x.Step)
		}
		return out, nil
	case *Iterator:
		out := x.Items[x.pos:]
		x.pos = len(x.Items)
		return out, nil
	case *File:
		return x.lines(), nil
	case *Instance:
		if m, ok := x.Class.lookup("__iter__"); ok {
			it, err := in.call(m, []Value{x}, nil)
			if err != nil {
				return nil, err
			}
			return in.iterate(it)
		}
	}
	if items, ok := seqItems(v); ok {
		return append([]Value(nil), items...), nil
	}
	return nil, newException("TypeError", "'%s' object is not iterable", v.Type())
}

func unary(op string, x Value) (Value, error) {
	if op == "not" {
		if isOpaque(x) {
			return x, nil
		}
		return Bool(!Truth(x)), nil
	}
	if isOpaque(x) {
		return x, nil
	}
	switch v := x.(type) {
	case Bool:
		return unary(op, Int(boolInt(bool(v))))
	case Int:
		switch op {
		case "-":
			if v == math.MinInt64 {
				return nil, errOverflow()
			}
			return -v, nil
		case "+":
			return v, nil
		case "~":
			return ^v, nil
		}
	case Float:
		switch op {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		}
	}
	return nil, newException("TypeError", "bad operand type for unary %s: '%s'", op, x.Type())
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// number returns v as a float and whether it is integral.
func number(v Value) (f float64, i int64, isInt, ok bool) {
	switch x := v.(type) {
	case Bool:
		n := boolInt(bool(x))
		return float64(n), n, true, true
	case Int:
		return float64(x), int64(x), true, true
	case Float:
		return float64(x), 0, false, true
	}
	return 0, 0, false, false
}

func (in *Interp) binop(op string, x, y Value) (Value, error) {
	if isOpaque(x, y) {
		return opaque("(" + op + ")"), nil
	}
	if r, ok, err := numericOp(op, x, y); ok || err != nil {
		return r, err
	}
	switch op {
	case "+":
		if n, ok := seqLen(x); ok {
			if m, ok := seqLen(y); ok {
				if err := checkLen(n + m); err != nil {
					return nil, err
				}
				if err := in.charge(n + m); err != nil {
					return nil, err
				}
			}
		}
		switch a := x.(type) {
		case Str:
			if b, ok := y.(Str); ok {
				return a + b, nil
			}
		case Bytes:
			if b, ok := y.(Bytes); ok {
				return a + b, nil
			}
		case Tuple:
			if b, ok := y.(Tuple); ok {
				return append(append(Tuple{}, a...), b...), nil
			}
		case *List:
			if b, ok := y.(*List); ok {
				return NewList(append(append([]Value{}, a.Items...), b.Items...)...), nil
			}
		}
	case "*":
		if n, ok := toInt(y); ok {
			if r, ok, err := in.repeat(x, n); ok || err != nil {
				return r, err
			}
		}
		if n, ok := toInt(x); ok {
			if r, ok, err := in.repeat(y, n); ok || err != nil {
				return r, err
			}
		}
	case "%":
		switch a := x.(type) {
		case Str:
			s, err := percentFormat(string(a), y)
			return Str(s), err
		case Bytes:
			s, err := percentFormat(string(a), y)
			return Bytes(s), err
		}
	case "/":
		if p, ok := x.(*Path); ok {
			if q, ok := pathArg(y); ok {
				return p.join(q), nil
			}
		}
		if q, ok := x.(Str); ok {
			if p, ok := y.(*Path); ok {
				return (&Path{P: string(q)}).join(p.P), nil
			}
		}
	case "-", "|", "&", "^":
		if a, ok := x.(*Set); ok {
			if b, ok := y.(*Set); ok {
				return setOp(op, a, b), nil
			}
		}
		if a, ok := x.(*Dict); ok && op == "|" {
			if b, ok := y.(*Dict); ok {
				d := a.copy()
				for i, k := range b.keys {
					d.Set(k, b.vals[i])
				}
				return d, nil
			}
		}
	}
	return nil, newException("TypeError", "unsupported operand type(s) for %s: '%s' and '%s'", op, x.Type(), y.Type())
}

func (in *Interp) repeat(v Value, n int64) (Value, bool, error) {
	size, ok := seqLen(v)
	if !ok {
		return nil, false, nil
	}
	total := productLen(size, n)
	if err := checkLen(total); err != nil {
		return nil, true, err
	}
	if err := in.charge(total); err != nil {
		return nil, true, err
	}
	if n < 0 {
		n = 0
	}
	switch a := v.(type) {
	case Str:
		return Str(strings.Repeat(string(a), int(n))), true, nil
	case Bytes:
		return Bytes(strings.Repeat(string(a), int(n))), true, nil
	case Tuple:
		out := make(Tuple, 0, total)
		for range n {
			out = append(out, a...)
		}
		return out, true, nil
	case *List:
		out := make([]Value, 0, total)
		for range n {
			out = append(out, a.Items...)
		}
		return NewList(out...), true, nil
	}
	return nil, false, nil
}

func setOp(op string, a, b *Set) *Set {
	out := NewSet()
	switch op {
	case "|":
		for _, it := range a.items {
			out.Add(it)
		}
		for _, it := range b.items {
			out.Add(it)
		}
	case "&":
		for _, it := range a.items {
			if b.Has(it) {
				out.Add(it)
			}
		}
	case "-":
		for _, it := range a.items {
			if !b.Has(it) {
				out.Add(it)
			}
		}
	case "^":
		for _, it := range a.items {
			if !b.Has(it) {
				out.Add(it)
			}
		}
		for _, it := range b.items {
			if !a.Has(it) {
				out.Add(it)
			}
		}
	}
	return out
}

func numericOp(op string, x, y Value) (Value, bool, error) {
	xf, xi, xInt, ok1 := number(x)
	yf, yi, yInt, ok2 := number(y)
	if !ok1 || !ok2 {
		return nil, false, nil
	}
	ints := xInt && yInt
	switch op {
	case "+":
		if ints {
			r, err := addInt(xi, yi)
			return r, true, err
		}
		return Float(xf + yf), true, nil
	case "-":
		if ints {
			r, err := subInt(xi, yi)
			return r, true, err
		}
		return Float(xf - yf), true, nil
	case "*":
		if ints {
			r, err := mulInt(xi, yi)
			return r, true, err
		}
		return Float(xf * yf), true, nil
	case "/":
		if yf == 0 {
			return nil, true, newException("ZeroDivisionError", "division by zero")
		}
		return Float(xf / yf), true, nil
	case "//":
		if yf == 0 {
			return nil, true, newException("ZeroDivisionError", "integer division or modulo by zero")
		}
		if ints {
			if xi == math.MinInt64 && yi == -1 {
				return nil, true, errOverflow()
			}
			q := xi / yi
			if xi%yi != 0 && (xi < 0) != (yi < 0) {
				q--
			}
			return Int(q), true, nil
		}
		return Float(math.Floor(xf / yf)), true, nil
	case "%":
		if yf == 0 {
			return nil, true, newException("ZeroDivisionError", "integer division or modulo by zero")
		}
		if ints {
			r := xi % yi
			if r != 0 && (r < 0) != (yi < 0) {
				r += yi
			}
			return Int(r), true, nil
		}
		r := math.Mod(xf, yf)
		if r != 0 && (r < 0) != (yf < 0) {
			r += yf
		}
		return Float(r), true, nil
	case "**":
		if ints && yi >= 0 {
			r, err := powInt(xi, yi)
			return r, true, err
		}
		return Float(math.Pow(xf, yf)), true, nil
	case "<<", ">>", "&", "|", "^":
		if !ints {
			return nil, false, nil
		}
		switch op {
		case "<<", ">>":
			if yi < 0 {
				return nil, true, newException("ValueError", "negative shift count")
			}
			if op == "<<" {
				r, err := shlInt(xi, yi)
				return r, true, err
			}
			return Int(xi >> uint(yi)), true, nil
		case "&":
			return Int(xi & yi), true, nil
		case "|":
			return Int(xi | yi), true, nil
		}
		return Int(xi ^ yi), true, nil
	}
	return nil, false, nil
}

func (in *Interp) compare(op string, a, b Value) (Value, error) {
	switch op {
	case "is":
		return Bool(identical(a, b)), nil
	case "is not":
		return Bool(!identical(a, b)), nil
	case "in", "not in":
		r, err := in.contains(b, a)
		if err != nil || isOpaque(r) {
			return r, err
		}
		if op == "not in" {
			return Bool(!Truth(r)), nil
		}
		return r, nil
	}
	if isOpaque(a, b) {
		return opaque("(" + op + ")"), nil
	}
	switch op {
	case "==":
		return Bool(equal(a, b)), nil
	case "!=":
		return Bool(!equal(a, b)), nil
	case "<":
		r, err := lessThan(in, a, b)
		return Bool(r), err
	case ">":
		r, err := lessThan(in, b, a)
		return Bool(r), err
	case "<=":
		r, err := lessThan(in, b, a)
		return Bool(!r), err
	case ">=":
		r, err := lessThan(in, a, b)
		return Bool(!r), err
	}
	return nil, newException("SyntaxError", "unknown comparison %s", op)
}

func (in *Interp) contains(container, item Value) (Value, error) {
	switch c := container.(type) {
	case *Opaque:
		return opaque(c.Name + ".__contains__()"), nil
	case Str:
		s, ok := item.(Str)
		if !ok {
			return nil, newException("TypeError", "'in <string>' requires string as left operand, not %s", item.Type())
		}
		return Bool(strings.Contains(string(c), string(s))), nil
	case Bytes:
		s, ok := item.(Bytes)
		if !ok {
			return nil, newException("TypeError", "a bytes-like object is required")
		}
		return Bool(strings.Contains(string(c), string(s))), nil
	case *Dict:
		if _, ok := hashKey(item); !ok {
			return nil, newException("TypeError", "unhashable type: '%s'", item.Type())
		}
		_, ok := c.Get(item)
		return Bool(ok), nil
	case *Set:
		if _, ok := hashKey(item); !ok {
			return nil, newException("TypeError", "unhashable type: '%s'", item.Type())
		}
		return Bool(c.Has(item)), nil
	case *Range:
		i, ok := toInt(item)
		if !ok {
			return Bool(false), nil
		}
		n := c.length()
		if n == 0 || (i-c.Start)%c.Step != 0 {
			return Bool(false), nil
		}
		k := (i - c.Start) / c.Step
		return Bool(k >= 0 && k < n), nil
	case *Instance:
		if m, ok := c.Class.lookup("__contains__"); ok {
			r, err := in.call(m, []Value{c, item}, nil)
			if err != nil {
				return nil, err
			}
			return Bool(Truth(r)), nil
		}
	}
	items, err := in.iterate(container)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if equal(it, item) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func identical(a, b Value) bool {
	switch x := a.(type) {
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int, Float, Str, Bytes:
		return a == b
	case Tuple:
		y, ok := b.(Tuple)
		return ok && len(x) == len(y) && (len(x) == 0 || &x[0] == &y[0])
	}
	if _, ok := b.(Tuple); ok {
		return false
	}
	return a == b
}

func equal(a, b Value) bool {
	if af, ai, aInt, ok := number(a); ok {
		bf, bi, bInt, ok := number(b)
		if !ok {
			return false
		}
		if aInt && bInt {
			return ai == bi
		}
		return af == bf
	}
	switch x := a.(type) {
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case Bytes:
		y, ok := b.(Bytes)
		return ok && x == y
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case Tuple, *StructSeq:
		ai, _ := seqItems(a)
		switch b.(type) {
		case Tuple, *StructSeq:
			bi, _ := seqItems(b)
			return equalItems(ai, bi)
		}
		return false
	case *List:
		y, ok := b.(*List)
		return ok && equalItems(x.Items, y.Items)
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			v, ok := y.Get(k)
			if !ok || !equal(x.vals[i], v) {
				return false
			}
		}
		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, it := range x.items {
			if !y.Has(it) {
				return false
			}
		}
		return true
	case *Path:
		y, ok := b.(*Path)
		return ok && x.P == y.P
	case *Range:
		y, ok := b.(*Range)
		return ok && *x == *y
	}
	return identical(a, b)
}

func equalItems(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func lessThan(in *Interp, a, b Value) (bool, error) {
	if isOpaque(a, b) {
		return false, nil
	}
	if af, ai, aInt, ok := number(a); ok {
		if bf, bi, bInt, ok := number(b); ok {
			if aInt && bInt {
				return ai < bi, nil
			}
			return af < bf, nil
		}
	}
	switch x := a.(type) {
	case Str:
		if y, ok := b.(Str); ok {
			return x < y, nil
		}
	case Bytes:
		if y, ok := b.(Bytes); ok {
			return x < y, nil
		}
	case *Set:
		if y, ok := b.(*Set); ok {
			if x.Len() >= y.Len() {
				return false, nil
			}
			for _, it := range x.items {
				if !y.Has(it) {
					return false, nil
				}
			}
			return true, nil
		}
	}
	ai, aok := seqItems(a)
	bi, bok := seqItems(b)
	_, aList := a.(*List)
	_, bList := b.(*List)
	if aok && bok && aList == bList {
		for i := 0; i < len(ai) && i < len(bi); i++ {
			if equal(ai[i], bi[i]) {
				continue
			}
			return lessThan(in, ai[i], bi[i])
		}
		return len(ai) < len(bi), nil
	}
	return false, newException("TypeError", "'<' not supported between instances of '%s' and '%s'", a.Type(), b.Type())
}

func (in *Interp) evalFString(s *Scope, e *pysrc.FString) (Value, error) {
	var b strings.Builder
	for _, part := range e.Parts {
		if !part.Formatted {
			b.WriteString(part.Text)
			continue
		}
		out, err := in.formatFString(s, part.Text)
		if err != nil {
			return nil, err
		}
		b.WriteString(out)
	}
	return Str(b.String()), nil
}

// formatFString expands the replacement fields of one f-string literal.
func (in *Interp) formatFString(s *Scope, text string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := fieldEnd(text, i+1)
			if end < 0 {
				return "", newException("SyntaxError", "f-string: expecting '}'")
			}
			out, err := in.formatField(s, text[i+1:end])
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			i = end
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// fieldEnd returns the index of the brace closing the field starting at i.
func fieldEnd(text string, i int) int {
	depth := 0
	var quote byte
	for ; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func (in *Interp) formatField(s *Scope, field string) (string, error) {
	exprText, conv, spec := splitField(field)
	debug := ""
	if t := strings.TrimRight(exprText, " "); strings.HasSuffix(t, "=") && !strings.HasSuffix(t, "==") {
		debug = exprText
		exprText = strings.TrimSuffix(t, "=")
		if conv == "" && spec == "" {
			conv = "r"
		}
	}
	x, err := pysrc.ParseExpr(exprText)
	if err != nil {
		return "", newException("SyntaxError", "f-string: %v", err)
	}
	v, err := in.eval(s, x)
	if err != nil {
		return "", err
	}
	if strings.Contains(spec, "{") {
		if spec, err = in.formatFString(s, spec); err != nil {
			return "", err
		}
	}
	switch conv {
	case "r", "a":
		v = Str(Repr(v))
	case "s":
		v = Str(ToStr(v))
	}
	out, err := formatValue(v, spec)
	return debug + out, err
}

// splitField splits "expr!conv:spec" at its top-level separators.
func splitField(field string) (expr, conv, spec string) {
	depth := 0
	var quote byte
	for i := 0; i < len(field); i++ {
		c := field[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case depth == 0 && c == '!' && i+1 < len(field) && field[i+1] != '=':
			expr = field[:i]
			rest := field[i+1:]
			conv, spec, _ = strings.Cut(rest, ":")
			return expr, conv, spec
		case depth == 0 && c == ':':
			return field[:i], "", field[i+1:]
		}
	}
	return field, "", ""
}
