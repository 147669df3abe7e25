// Package pysrc tokenizes and parses Python source text.
//
// The lexer follows Python's tokenization rules: significant indentation,
// implicit line joining inside brackets, backslash continuations and the
// full set of string prefixes. [Imports] walks the token stream to extract
// absolute import statements without building a tree, so it tolerates
// syntax the parser does not model. [Parse] builds an explicit syntax tree
// for the statement and expression subset found in build scripts.
package pysrc

import "fmt"

// Pos is a source position. Line is 1-based, Col is the 0-based byte offset
// within the line.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Kind identifies a token type.
type Kind int

const (
	// EOF is end of input.
	EOF Kind = iota
	// Newline ends a logical line.
	Newline
	// Indent opens a block.
	Indent
	// Dedent closes a block.
	Dedent
	// Ident is an identifier or keyword.
	Ident
	// Number is a numeric literal.
	Number
	// String is a string or bytes literal.
	String
	// Op is an operator or delimiter.
	Op
)

var kindNames = [...]string{
	EOF:     "EOF",
	Newline: "NEWLINE",
	Indent:  "INDENT",
	Dedent:  "DEDENT",
	Ident:   "NAME",
	Number:  "NUMBER",
	String:  "STRING",
	Op:      "OP",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a lexical token.
type Token struct {
	Kind Kind
	Pos  Pos
	// Text is the source text of the token. For strings it includes the
	// prefix and quotes.
	Text string
	// Value is the decoded content of a string literal.
	Value string
	// Prefix holds the lowercased string prefix ("", "r", "b", "f", "rb", ...).
	Prefix string
}

// Is reports whether t is the operator or keyword text.
func (t Token) Is(text string) bool {
	return (t.Kind == Op || t.Kind == Ident) && t.Text == text
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true, "elif": true,
	"else": true, "except": true, "finally": true, "for": true, "from": true,
	"global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true,
	"raise": true, "return": true, "try": true, "while": true, "with": true,
	"yield": true,
}

// IsKeyword reports whether name is a reserved Python keyword.
func IsKeyword(name string) bool {
	return keywords[name]
}

// operators lists multi-character operators longest first.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", ":=", "**", "//", "<<", ">>", "<=", ">=", "==", "!=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
}

const singleOps = "+-*/%@&|^~<>()[]{},:.;="
