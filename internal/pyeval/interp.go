package pyeval

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqcheck/internal/pysrc"
	"github.com/matzehuels/reqcheck/pkg/errors"
)

const (
	// DefaultMaxSteps bounds the statements and loop iterations one
	// evaluation may execute.
	DefaultMaxSteps = 1_000_000
	// DefaultMaxDepth bounds nested calls.
	DefaultMaxDepth = 200
)

// Options configure an Interp.
type Options struct {
	// Dir is the script directory. Relative file paths resolve against it.
	Dir string
	// Filename is exposed to the script as __file__.
	Filename string
	// Globals are bound in the module namespace before execution.
	Globals map[string]Value
	// Path is searched for local modules. Nil means DefaultPath.
	Path *SearchPath

	MaxSteps int
	MaxDepth int

	Logger *log.Logger
}

// Interp evaluates one Python program and the local modules it imports.
// An Interp is not safe for concurrent use.
type Interp struct {
	opts     Options
	logger   *log.Logger
	builtins map[string]Value
	modules  map[string]*Module
	frames   []*Scope
	handling []*Exception
	steps    int
	depth    int
	ctx      context.Context
}

// New returns an interpreter configured by opts.
func New(opts Options) *Interp {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Path == nil {
		opts.Path = DefaultPath
	}
	if opts.Dir == "" && opts.Filename != "" {
		opts.Dir = filepath.Dir(opts.Filename)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	in := &Interp{
		opts:    opts,
		logger:  logger,
		modules: make(map[string]*Module),
		ctx:     context.Background(),
	}
	in.builtins = builtinTable()
	return in
}

// Exec runs m as the __main__ module and returns its namespace. A panic
// inside the evaluator is returned as an EVAL_ERROR.
func (in *Interp) Exec(ctx context.Context, m *pysrc.Module) (scope *Scope, err error) {
	defer func() {
		if r := recover(); r != nil {
			in.logger.Error("build script evaluation panicked", "file", in.opts.Filename, "panic", r)
			err = errors.New(errors.ErrCodeEval, "evaluate %s: internal error: %v", in.opts.Filename, r)
		}
	}()
	in.ctx = ctx
	scope = newModuleScope()
	scope.vars["__name__"] = Str("__main__")
	scope.vars["__file__"] = Str(in.opts.Filename)
	scope.vars["__builtins__"] = &Module{Name: "builtins", Attrs: in.builtins}
	for k, v := range in.opts.Globals {
		scope.vars[k] = v
	}
	if err := in.execModule(scope, m.Body); err != nil {
		return scope, errors.Wrap(errors.ErrCodeEval, err, "evaluate %s", in.opts.Filename)
	}
	return scope, nil
}

// ExecSource parses and runs src.
func (in *Interp) ExecSource(ctx context.Context, src []byte) (*Scope, error) {
	m, err := pysrc.Parse(src)
	if err != nil {
		return nil, err
	}
	return in.Exec(ctx, m)
}

// Steps returns the number of steps executed so far.
func (in *Interp) Steps() int { return in.steps }

func (in *Interp) execModule(scope *Scope, body []pysrc.Stmt) error {
	in.frames = append(in.frames, scope)
	defer func() { in.frames = in.frames[:len(in.frames)-1] }()
	fl, err := in.execBlock(scope, &frame{}, body)
	if err != nil {
		return err
	}
	if fl != flowNormal {
		return newException("SyntaxError", "'return', 'break' or 'continue' outside function or loop")
	}
	return nil
}

func (in *Interp) currentScope() *Scope {
	return in.frames[len(in.frames)-1]
}

func (in *Interp) step() error {
	in.steps++
	if in.steps > in.opts.MaxSteps {
		return &haltError{msg: "evaluation step budget exhausted"}
	}
	if in.steps&1023 == 0 {
		if err := in.ctx.Err(); err != nil {
			return &haltError{msg: "evaluation canceled: " + err.Error()}
		}
	}
	return nil
}

// Scope is a namespace: the module globals, a function's locals, a class
// body or a comprehension.
type Scope struct {
	vars     map[string]Value
	parent   *Scope
	module   *Scope
	global   map[string]bool
	nonlocal map[string]bool
}

func newModuleScope() *Scope {
	s := &Scope{vars: make(map[string]Value)}
	s.module = s
	return s
}

func newScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]Value), parent: parent, module: parent.module}
}

// Get returns the value bound to name in this scope.
func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Names returns the bound names in this scope.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	return names
}

func (s *Scope) lookup(name string) (Value, bool) {
	if s.global[name] {
		v, ok := s.module.vars[name]
		return v, ok
	}
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	v, ok := s.module.vars[name]
	return v, ok
}

func (s *Scope) target(name string) *Scope {
	switch {
	case s.global[name]:
		return s.module
	case s.nonlocal[name]:
		for sc := s.parent; sc != nil; sc = sc.parent {
			if _, ok := sc.vars[name]; ok {
				return sc
			}
		}
	}
	return s
}

func (s *Scope) set(name string, v Value) {
	s.target(name).vars[name] = v
}

func (s *Scope) del(name string) bool {
	sc := s.target(name)
	if _, ok := sc.vars[name]; !ok {
		return false
	}
	delete(sc.vars, name)
	return true
}

type flow int

const (
	flowNormal flow = iota
	flowBreak
	flowContinue
	flowReturn
)

type frame struct {
	ret Value
}

func (in *Interp) execBlock(s *Scope, f *frame, body []pysrc.Stmt) (flow, error) {
	for _, st := range body {
		fl, err := in.exec(s, f, st)
		if err != nil {
			if exc, ok := err.(*Exception); ok && exc.Pos.Line == 0 {
				exc.Pos = st.Position()
			}
			return fl, err
		}
		if fl != flowNormal {
			return fl, nil
		}
	}
	return flowNormal, nil
}

func (in *Interp) exec(s *Scope, f *frame, st pysrc.Stmt) (flow, error) {
	if err := in.step(); err != nil {
		return flowNormal, err
	}
	switch st := st.(type) {
	case *pysrc.ExprStmt:
		_, err := in.eval(s, st.X)
		return flowNormal, err
	case *pysrc.Assign:
		v, err := in.eval(s, st.Value)
		if err != nil {
			return flowNormal, err
		}
		for _, t := range st.Targets {
			if err := in.assign(s, t, v); err != nil {
				return flowNormal, err
			}
		}
	case *pysrc.AugAssign:
		return flowNormal, in.augAssign(s, st)
	case *pysrc.AnnAssign:
		if st.Value == nil {
			return flowNormal, nil
		}
		v, err := in.eval(s, st.Value)
		if err != nil {
			return flowNormal, err
		}
		return flowNormal, in.assign(s, st.Target, v)
	case *pysrc.Import:
		return flowNormal, in.execImport(s, st)
	case *pysrc.ImportFrom:
		return flowNormal, in.execImportFrom(s, st)
	case *pysrc.If:
		v, err := in.eval(s, st.Test)
		if err != nil {
			return flowNormal, err
		}
		if Truth(v) {
			return in.execBlock(s, f, st.Body)
		}
		return in.execBlock(s, f, st.Else)
	case *pysrc.While:
		return in.execWhile(s, f, st)
	case *pysrc.For:
		return in.execFor(s, f, st)
	case *pysrc.With:
		return in.execWith(s, f, st, 0)
	case *pysrc.Try:
		return in.execTry(s, f, st)
	case *pysrc.FunctionDef:
		fn, err := in.makeFunction(s, st.Name, st.Params, st.Body, nil)
		if err != nil {
			return flowNormal, err
		}
		v, err := in.decorate(s, st.Decorators, fn)
		if err != nil {
			return flowNormal, err
		}
		s.set(st.Name, v)
	case *pysrc.ClassDef:
		return flowNormal, in.execClass(s, st)
	case *pysrc.Return:
		f.ret = None
		if st.Value != nil {
			v, err := in.eval(s, st.Value)
			if err != nil {
				return flowNormal, err
			}
			f.ret = v
		}
		return flowReturn, nil
	case *pysrc.Raise:
		return flowNormal, in.execRaise(s, st)
	case *pysrc.Assert:
		v, err := in.eval(s, st.Test)
		if err != nil {
			return flowNormal, err
		}
		if !Truth(v) {
			msg := ""
			if st.Msg != nil {
				m, err := in.eval(s, st.Msg)
				if err != nil {
					return flowNormal, err
				}
				msg = ToStr(m)
			}
			return flowNormal, newException("AssertionError", "%s", msg)
		}
	case *pysrc.Delete:
		for _, t := range st.Targets {
			if err := in.delete(s, t); err != nil {
				return flowNormal, err
			}
		}
	case *pysrc.Global:
		for _, name := range st.Names {
			if st.Nonlocal {
				if s.nonlocal == nil {
					s.nonlocal = make(map[string]bool)
				}
				s.nonlocal[name] = true
				continue
			}
			if s.global == nil {
				s.global = make(map[string]bool)
			}
			s.global[name] = true
		}
	case *pysrc.Pass:
	case *pysrc.Break:
		return flowBreak, nil
	case *pysrc.Continue:
		return flowContinue, nil
	default:
		return flowNormal, errors.New(errors.ErrCodeUnsupported, "unsupported statement %T", st)
	}
	return flowNormal, nil
}

func (in *Interp) execWhile(s *Scope, f *frame, st *pysrc.While) (flow, error) {
	for {
		if err := in.step(); err != nil {
			return flowNormal, err
		}
		v, err := in.eval(s, st.Test)
		if err != nil {
			return flowNormal, err
		}
		if !Truth(v) {
			break
		}
		fl, err := in.execBlock(s, f, st.Body)
		if err != nil {
			return flowNormal, err
		}
		switch fl {
		case flowBreak:
			return flowNormal, nil
		case flowReturn:
			return fl, nil
		}
	}
	return in.execBlock(s, f, st.Else)
}

func (in *Interp) execFor(s *Scope, f *frame, st *pysrc.For) (flow, error) {
	seq, err := in.eval(s, st.Iter)
	if err != nil {
		return flowNormal, err
	}
	items, err := in.iterate(seq)
	if err != nil {
		return flowNormal, err
	}
	for _, it := range items {
		if err := in.step(); err != nil {
			return flowNormal, err
		}
		if err := in.assign(s, st.Target, it); err != nil {
			return flowNormal, err
		}
		fl, err := in.execBlock(s, f, st.Body)
		if err != nil {
			return flowNormal, err
		}
		switch fl {
		case flowBreak:
			return flowNormal, nil
		case flowReturn:
			return fl, nil
		}
	}
	return in.execBlock(s, f, st.Else)
}

func (in *Interp) execWith(s *Scope, f *frame, st *pysrc.With, i int) (flow, error) {
	if i == len(st.Items) {
		return in.execBlock(s, f, st.Body)
	}
	item := st.Items[i]
	ctx, err := in.eval(s, item.Context)
	if err != nil {
		return flowNormal, err
	}
	entered, err := in.callMethod(ctx, "__enter__")
	if err != nil {
		return flowNormal, err
	}
	if item.Target != nil {
		if err := in.assign(s, item.Target, entered); err != nil {
			return flowNormal, err
		}
	}
	fl, bodyErr := in.execWith(s, f, st, i+1)
	if _, halt := bodyErr.(*haltError); halt {
		return fl, bodyErr
	}
	if _, err := in.callMethod(ctx, "__exit__", None, None, None); err != nil && bodyErr == nil {
		return flowNormal, err
	}
	return fl, bodyErr
}

func (in *Interp) execTry(s *Scope, f *frame, st *pysrc.Try) (flow, error) {
	fl, err := in.execBlock(s, f, st.Body)
	if exc, ok := err.(*Exception); ok {
		for _, h := range st.Handlers {
			caught := h.Type == nil
			if !caught {
				typ, terr := in.eval(s, h.Type)
				if terr != nil {
					return flowNormal, terr
				}
				caught = exc.matches(typ)
			}
			if !caught {
				continue
			}
			if h.Name != "" {
				s.set(h.Name, exc.Value)
			}
			in.handling = append(in.handling, exc)
			fl, err = in.execBlock(s, f, h.Body)
			in.handling = in.handling[:len(in.handling)-1]
			if h.Name != "" {
				s.del(h.Name)
			}
			break
		}
	} else if err == nil && fl == flowNormal {
		fl, err = in.execBlock(s, f, st.Else)
	}
	if _, halt := err.(*haltError); halt || len(st.Finally) == 0 {
		return fl, err
	}
	ret := f.ret
	ffl, ferr := in.execBlock(s, f, st.Finally)
	if ferr != nil || ffl != flowNormal {
		return ffl, ferr
	}
	f.ret = ret
	return fl, err
}

func (in *Interp) execRaise(s *Scope, st *pysrc.Raise) error {
	if st.Exc == nil {
		if len(in.handling) == 0 {
			return newException("RuntimeError", "No active exception to reraise")
		}
		return in.handling[len(in.handling)-1]
	}
	v, err := in.eval(s, st.Exc)
	if err != nil {
		return err
	}
	if c, ok := v.(*Class); ok {
		if v, err = in.call(c, nil, nil); err != nil {
			return err
		}
	}
	if inst, ok := v.(*Instance); ok && inst.Class.isException() {
		return &Exception{Value: inst}
	}
	if _, ok := v.(*Opaque); ok {
		return newException("RuntimeError", "%s", ToStr(v))
	}
	return newException("TypeError", "exceptions must derive from BaseException")
}

func (in *Interp) execClass(s *Scope, st *pysrc.ClassDef) error {
	bases := make([]Value, 0, len(st.Bases))
	for _, b := range st.Bases {
		v, err := in.eval(s, b)
		if err != nil {
			return err
		}
		bases = append(bases, v)
	}
	body := newScope(s)
	body.vars["__module__"] = s.module.vars["__name__"]
	body.vars["__qualname__"] = Str(st.Name)
	fl, err := in.execBlock(body, &frame{}, st.Body)
	if err != nil {
		return err
	}
	if fl != flowNormal {
		return newException("SyntaxError", "'return' outside function")
	}
	// Methods close over the enclosing scope, not the class body.
	for _, v := range body.vars {
		if fn, ok := v.(*Function); ok && fn.Scope == body {
			fn.Scope = s
		}
	}
	cls := &Class{Name: st.Name, Bases: bases, Attrs: body.vars}
	v, err := in.decorate(s, st.Decorators, cls)
	if err != nil {
		return err
	}
	s.set(st.Name, v)
	return nil
}

func (in *Interp) makeFunction(s *Scope, name string, params *pysrc.Params, body []pysrc.Stmt, expr pysrc.Expr) (*Function, error) {
	fn := &Function{Name: name, Params: params, Defaults: map[string]Value{}, Body: body, Expr: expr, Scope: s}
	for _, group := range [][]*pysrc.Param{params.Args, params.KwOnly} {
		for _, p := range group {
			if p.Default == nil {
				continue
			}
			v, err := in.eval(s, p.Default)
			if err != nil {
				return nil, err
			}
			fn.Defaults[p.Name] = v
		}
	}
	for _, st := range body {
		if containsYield(st) {
			fn.generator = true
			break
		}
	}
	return fn, nil
}

func containsYield(n pysrc.Node) bool {
	found := false
	pysrc.Inspect(n, func(n pysrc.Node) bool {
		switch n.(type) {
		case *pysrc.Yield:
			found = true
		case *pysrc.FunctionDef, *pysrc.Lambda, *pysrc.ClassDef:
			return false
		}
		return !found
	})
	return found
}

func (in *Interp) decorate(s *Scope, decorators []pysrc.Expr, v Value) (Value, error) {
	for i := len(decorators) - 1; i >= 0; i-- {
		d, err := in.eval(s, decorators[i])
		if err != nil {
			return nil, err
		}
		if v, err = in.call(d, []Value{v}, nil); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (in *Interp) callFunction(fn *Function, args []Value, kwargs []Kwarg) (Value, error) {
	if fn.generator {
		return nil, newException("TypeError", "generator function %s is not supported", fn.Name)
	}
	in.depth++
	defer func() { in.depth-- }()
	if in.depth > in.opts.MaxDepth {
		return nil, &haltError{msg: "maximum recursion depth exceeded"}
	}
	scope := newScope(fn.Scope)
	if err := bindParams(fn, scope, args, kwargs); err != nil {
		return nil, err
	}
	if fn.Expr != nil {
		return in.eval(scope, fn.Expr)
	}
	in.frames = append(in.frames, scope)
	defer func() { in.frames = in.frames[:len(in.frames)-1] }()
	f := &frame{ret: None}
	if _, err := in.execBlock(scope, f, fn.Body); err != nil {
		return nil, err
	}
	return f.ret, nil
}

func bindParams(fn *Function, scope *Scope, args []Value, kwargs []Kwarg) error {
	p := fn.Params
	for i, a := range args {
		if i < len(p.Args) {
			scope.vars[p.Args[i].Name] = a
		}
	}
	if len(args) > len(p.Args) {
		if p.VarArg == "" {
			return newException("TypeError", "%s() takes %d positional arguments but %d were given", fn.Name, len(p.Args), len(args))
		}
		scope.vars[p.VarArg] = Tuple(append([]Value(nil), args[len(p.Args):]...))
	} else if p.VarArg != "" {
		scope.vars[p.VarArg] = Tuple{}
	}
	var extra *Dict
	if p.KwArg != "" {
		extra = NewDict()
		scope.vars[p.KwArg] = extra
	}
	for _, kw := range kwargs {
		if hasParam(p, kw.Name) {
			if _, dup := scope.vars[kw.Name]; dup {
				return newException("TypeError", "%s() got multiple values for argument '%s'", fn.Name, kw.Name)
			}
			scope.vars[kw.Name] = kw.Value
			continue
		}
		if extra == nil {
			return newException("TypeError", "%s() got an unexpected keyword argument '%s'", fn.Name, kw.Name)
		}
		extra.SetStr(kw.Name, kw.Value)
	}
	for _, group := range [][]*pysrc.Param{p.Args, p.KwOnly} {
		for _, param := range group {
			if _, ok := scope.vars[param.Name]; ok {
				continue
			}
			d, ok := fn.Defaults[param.Name]
			if !ok {
				return newException("TypeError", "%s() missing required argument: '%s'", fn.Name, param.Name)
			}
			scope.vars[param.Name] = d
		}
	}
	return nil
}

func hasParam(p *pysrc.Params, name string) bool {
	for _, group := range [][]*pysrc.Param{p.Args, p.KwOnly} {
		for _, param := range group {
			if param.Name == name {
				return true
			}
		}
	}
	return false
}
