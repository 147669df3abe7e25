package pysrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImports(t *testing.T) {
	src := `"""Module docstring mentioning import os."""
import os, sys as system
import space.module
from foo import bar, baz as qux
from namespace import (
    module,
)
from . import sibling
from ..parent import thing
from star import *

def f():
    import cat

class C:
    if True: from dog import Bark; import emu
    x = {"from": 1}

text = "import nothing"
y = (yield_ from_)
`
	records, err := Imports([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []ImportRecord{
		{Line: 2, Col: 0, Module: "os"},
		{Line: 2, Col: 0, Module: "sys"},
		{Line: 3, Col: 0, Module: "space.module"},
		{Line: 4, Col: 0, Module: "foo", Alternate: "foo.bar"},
		{Line: 4, Col: 0, Module: "foo", Alternate: "foo.baz"},
		{Line: 5, Col: 0, Module: "namespace", Alternate: "namespace.module"},
		{Line: 10, Col: 0, Module: "star"},
		{Line: 13, Col: 4, Module: "cat"},
		{Line: 16, Col: 13, Module: "dog", Alternate: "dog.Bark"},
		{Line: 16, Col: 35, Module: "emu"},
	}, records)
}

func TestImportsToleratesUnparsableStatements(t *testing.T) {
	src := "match command:\n    case 'go':\n        import requests\nprint 'legacy'\nimport yaml\n"
	records, err := Imports([]byte(src))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "requests", records[0].Module)
	assert.Equal(t, "yaml", records[1].Module)
}

func TestImportsLexError(t *testing.T) {
	_, err := Imports([]byte("import os\nx = 'open\n"))
	assert.Error(t, err)
}
