package pyeval

import (
	"fmt"

	"github.com/matzehuels/reqcheck/internal/pysrc"
)

// Exception is a Python exception propagating through the interpreter.
type Exception struct {
	Value *Instance
	Pos   pysrc.Pos
}

func (e *Exception) Error() string {
	msg := e.Value.Class.Name
	if args, ok := e.Value.Attrs["args"].(Tuple); ok && len(args) > 0 {
		if len(args) == 1 {
			msg += ": " + ToStr(args[0])
		} else {
			msg += ": " + Repr(args)
		}
	}
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Pos.Line, msg)
	}
	return msg
}

// ClassName returns the name of the exception's class.
func (e *Exception) ClassName() string {
	return e.Value.Class.Name
}

// haltError stops evaluation and cannot be caught by the script.
type haltError struct {
	msg string
}

func (e *haltError) Error() string { return e.msg }

var exceptionTree = [][2]string{
	{"BaseException", ""},
	{"Exception", "BaseException"},
	{"SystemExit", "BaseException"},
	{"KeyboardInterrupt", "BaseException"},
	{"ArithmeticError", "Exception"},
	{"ZeroDivisionError", "ArithmeticError"},
	{"OverflowError", "ArithmeticError"},
	{"AssertionError", "Exception"},
	{"AttributeError", "Exception"},
	{"ImportError", "Exception"},
	{"ModuleNotFoundError", "ImportError"},
	{"MemoryError", "Exception"},
	{"LookupError", "Exception"},
	{"IndexError", "LookupError"},
	{"KeyError", "LookupError"},
	{"NameError", "Exception"},
	{"UnboundLocalError", "NameError"},
	{"OSError", "Exception"},
	{"FileNotFoundError", "OSError"},
	{"PermissionError", "OSError"},
	{"IsADirectoryError", "OSError"},
	{"RuntimeError", "Exception"},
	{"NotImplementedError", "RuntimeError"},
	{"RecursionError", "RuntimeError"},
	{"StopIteration", "Exception"},
	{"SyntaxError", "Exception"},
	{"TypeError", "Exception"},
	{"ValueError", "Exception"},
	{"UnicodeError", "ValueError"},
	{"UnicodeDecodeError", "UnicodeError"},
	{"Warning", "Exception"},
	{"DeprecationWarning", "Warning"},
	{"UserWarning", "Warning"},
}

var exceptionClasses = func() map[string]*Class {
	classes := make(map[string]*Class, len(exceptionTree)+2)
	for _, e := range exceptionTree {
		c := &Class{Name: e[0], Attrs: map[string]Value{}, builtin: true}
		if e[1] != "" {
			c.Bases = []Value{classes[e[1]]}
		}
		classes[e[0]] = c
	}
	classes["IOError"] = classes["OSError"]
	classes["EnvironmentError"] = classes["OSError"]
	return classes
}()

// isException reports whether c derives from BaseException.
func (c *Class) isException() bool {
	return c.isSubclass(exceptionClasses["BaseException"])
}

// isSubclass reports whether c is target or derives from it.
func (c *Class) isSubclass(target *Class) bool {
	if c == target {
		return true
	}
	for _, b := range c.Bases {
		if bc, ok := b.(*Class); ok && bc.isSubclass(target) {
			return true
		}
	}
	return false
}

// newException builds an exception of the named builtin class.
func newException(class string, format string, args ...any) *Exception {
	c := exceptionClasses[class]
	return &Exception{Value: &Instance{
		Class: c,
		Attrs: map[string]Value{"args": Tuple{Str(fmt.Sprintf(format, args...))}},
	}}
}

// matches reports whether exc is caught by an except clause of type typ.
func (e *Exception) matches(typ Value) bool {
	switch t := typ.(type) {
	case *Class:
		return e.Value.Class.isSubclass(t)
	case Tuple:
		for _, it := range t {
			if e.matches(it) {
				return true
			}
		}
	}
	return false
}
