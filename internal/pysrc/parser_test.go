package pysrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/errors"
)

func mustParse(t *testing.T, src string) *Module {
	t.Helper()
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	return m
}

func TestParseSetupScript(t *testing.T) {
	src := `#!/usr/bin/env python
import os
from setuptools import setup, find_packages

here = os.path.abspath(os.path.dirname(__file__))
with open(os.path.join(here, "README.md"), encoding="utf-8") as f:
    long_description = f.read()

about = {}
exec(open("pkg/__version__.py").read(), about)

setup(
    name="pkg",
    version=about["__version__"],
    packages=find_packages(exclude=["tests", "tests.*"]),
    install_requires=[
        "requests>=2",
        "click",
    ],
    extras_require={"dev": ["pytest"]},
    **{"zip_safe": False},
)
`
	m := mustParse(t, src)
	require.Len(t, m.Body, 7)

	call := m.Body[6].(*ExprStmt).X.(*Call)
	assert.Equal(t, "setup", call.Func.(*Name).ID)
	assert.Empty(t, call.Args)
	require.Len(t, call.Keywords, 6)
	assert.Equal(t, "name", call.Keywords[0].Name)
	assert.Equal(t, "", call.Keywords[5].Name)
	assert.IsType(t, &Dict{}, call.Keywords[5].Value)

	with := m.Body[3].(*With)
	require.Len(t, with.Items, 1)
	assert.Equal(t, "f", with.Items[0].Target.(*Name).ID)
}

func TestParseWithItems(t *testing.T) {
	m := mustParse(t, "with open(a) as f, open(b) as (g, h), lock:\n    pass\n")
	with := m.Body[0].(*With)
	require.Len(t, with.Items, 3)
	assert.Equal(t, "f", with.Items[0].Target.(*Name).ID)
	assert.IsType(t, &Tuple{}, with.Items[1].Target)
	assert.Nil(t, with.Items[2].Target)
	assert.Equal(t, "lock", with.Items[2].Context.(*Name).ID)

	_, err := Parse([]byte("with open(a) as f(): pass\n"))
	assert.True(t, errors.Is(err, errors.ErrCodeParse))
}

func TestParseStatements(t *testing.T) {
	src := `
def f(a, b=1, *args, c, d=2, **kw) -> int:
    global g
    if a:
        return a
    elif b:
        pass
    else:
        raise ValueError("x") from None
    for i, (j, k) in enumerate(x):
        continue
    else:
        pass
    while False:
        break
    try:
        x = y = 1
    except (IOError, OSError) as e:
        x += 1
    except:
        del x
    else:
        assert x, "msg"
    finally:
        x: int = 2
    return lambda q, r=3: q * r

@decorator
class C(Base, metaclass=M):
    attr = 1

async def g():
    await h()
x = 1; y = 2
`
	m := mustParse(t, src)
	require.Len(t, m.Body, 5)

	fn := m.Body[0].(*FunctionDef)
	assert.Equal(t, "f", fn.Name)
	require.Len(t, fn.Params.Args, 2)
	assert.Equal(t, "args", fn.Params.VarArg)
	require.Len(t, fn.Params.KwOnly, 2)
	assert.Equal(t, "kw", fn.Params.KwArg)
	require.Len(t, fn.Body, 6)

	iff := fn.Body[1].(*If)
	require.Len(t, iff.Else, 1)
	assert.IsType(t, &If{}, iff.Else[0])

	loop := fn.Body[2].(*For)
	target := loop.Target.(*Tuple)
	assert.Len(t, target.Elts, 2)
	assert.Len(t, loop.Else, 1)

	try := fn.Body[4].(*Try)
	assert.Len(t, try.Handlers, 2)
	assert.Equal(t, "e", try.Handlers[0].Name)
	assert.Nil(t, try.Handlers[1].Type)
	assert.Len(t, try.Finally, 1)
	assign := try.Body[0].(*Assign)
	assert.Len(t, assign.Targets, 2)

	cls := m.Body[1].(*ClassDef)
	assert.Equal(t, "C", cls.Name)
	assert.Len(t, cls.Decorators, 1)
	assert.Len(t, cls.Bases, 1)
	assert.Equal(t, "metaclass", cls.Keywords[0].Name)

	assert.IsType(t, &FunctionDef{}, m.Body[2])
	assert.IsType(t, &Assign{}, m.Body[3])
	assert.IsType(t, &Assign{}, m.Body[4])
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		src   string
		check func(t *testing.T, e Expr)
	}{
		{"a if b else c", func(t *testing.T, e Expr) { assert.IsType(t, &IfExp{}, e) }},
		{"not a or b and c", func(t *testing.T, e Expr) {
			or := e.(*BoolOp)
			assert.Equal(t, "or", or.Op)
			assert.IsType(t, &UnaryOp{}, or.Values[0])
		}},
		{"1 < x <= 3", func(t *testing.T, e Expr) {
			assert.Equal(t, []string{"<", "<="}, e.(*Compare).Ops)
		}},
		{"a not in b is not c", func(t *testing.T, e Expr) {
			assert.Equal(t, []string{"not in", "is not"}, e.(*Compare).Ops)
		}},
		{"-2 ** 2", func(t *testing.T, e Expr) {
			u := e.(*UnaryOp)
			assert.Equal(t, "**", u.X.(*BinOp).Op)
		}},
		{"1 + 2 * 3", func(t *testing.T, e Expr) {
			add := e.(*BinOp)
			assert.Equal(t, "+", add.Op)
			assert.Equal(t, "*", add.Y.(*BinOp).Op)
		}},
		{"a.b[1:2, ::3](x, *y, z=1, **w)", func(t *testing.T, e Expr) {
			call := e.(*Call)
			assert.Len(t, call.Args, 2)
			assert.Len(t, call.Keywords, 2)
			sub := call.Func.(*Subscript)
			assert.Len(t, sub.Index.(*Tuple).Elts, 2)
		}},
		{"[x for x in y if x]", func(t *testing.T, e Expr) {
			c := e.(*Comp)
			assert.Equal(t, ListComp, c.Kind)
			assert.Len(t, c.Generators[0].Ifs, 1)
		}},
		{"{k: v for k, v in d.items()}", func(t *testing.T, e Expr) {
			assert.Equal(t, DictComp, e.(*Comp).Kind)
		}},
		{"{1, 2}", func(t *testing.T, e Expr) { assert.Len(t, e.(*Set).Elts, 2) }},
		{"{'a': 1, **b}", func(t *testing.T, e Expr) {
			d := e.(*Dict)
			assert.Len(t, d.Keys, 2)
			assert.Nil(t, d.Keys[1])
		}},
		{"(1,)", func(t *testing.T, e Expr) { assert.Len(t, e.(*Tuple).Elts, 1) }},
		{"()", func(t *testing.T, e Expr) { assert.Empty(t, e.(*Tuple).Elts) }},
		{"(x)", func(t *testing.T, e Expr) { assert.IsType(t, &Name{}, e) }},
		{"sum(x for x in y)", func(t *testing.T, e Expr) {
			assert.Equal(t, GenExp, e.(*Call).Args[0].(*Comp).Kind)
		}},
		{"'a' 'b' \"c\"", func(t *testing.T, e Expr) { assert.Equal(t, "abc", e.(*Constant).Str) }},
		{"f'{x}' 'y'", func(t *testing.T, e Expr) { assert.IsType(t, &FString{}, e) }},
		{"0x10", func(t *testing.T, e Expr) { assert.Equal(t, int64(16), e.(*Constant).Int) }},
		{"1_000.5", func(t *testing.T, e Expr) { assert.InDelta(t, 1000.5, e.(*Constant).Float, 1e-9) }},
		{"(y := 3)", func(t *testing.T, e Expr) { assert.IsType(t, &NamedExpr{}, e) }},
		{"a, *b", func(t *testing.T, e Expr) { assert.IsType(t, &Starred{}, e.(*Tuple).Elts[1]) }},
		{"lambda: 0", func(t *testing.T, e Expr) { assert.Empty(t, e.(*Lambda).Params.Args) }},
		{"None is not True", func(t *testing.T, e Expr) { assert.IsType(t, &Compare{}, e) }},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := ParseExpr(tt.src)
			require.NoError(t, err)
			tt.check(t, e)
		})
	}
}

func TestParseImports(t *testing.T) {
	m := mustParse(t, "import a.b as c, d\nfrom .. import x\nfrom .m import (y as z,)\nfrom e import *\n")
	imp := m.Body[0].(*Import)
	assert.Equal(t, []*Alias{{Name: "a.b", AsName: "c"}, {Name: "d"}}, imp.Names)

	rel := m.Body[1].(*ImportFrom)
	assert.Equal(t, 2, rel.Level)
	assert.Equal(t, "", rel.Module)

	rel2 := m.Body[2].(*ImportFrom)
	assert.Equal(t, 1, rel2.Level)
	assert.Equal(t, "m", rel2.Module)
	assert.Equal(t, []*Alias{{Name: "y", AsName: "z"}}, rel2.Names)

	star := m.Body[3].(*ImportFrom)
	assert.Equal(t, "*", star.Names[0].Name)
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"x = \n",
		"def f(:\n    pass\n",
		"if x\n    pass\n",
		"f() = 1\n",
		"try:\n    pass\n",
		"print 'py2'\n",
		"x = (1, 2\n",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse([]byte(src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeParse))
		})
	}
}

func TestInspect(t *testing.T) {
	m := mustParse(t, "def f():\n    return g(h(1), k=[i(2)])\nclass C:\n    x = j()\n")
	var calls []string
	Inspect(m, func(n Node) bool {
		if c, ok := n.(*Call); ok {
			calls = append(calls, c.Func.(*Name).ID)
		}
		return true
	})
	assert.Equal(t, []string{"g", "h", "i", "j"}, calls)

	var visited int
	Inspect(m, func(n Node) bool {
		visited++
		_, isDef := n.(*FunctionDef)
		return !isDef
	})
	assert.Less(t, visited, 10)
}
