package pysrc

// Node is any syntax tree node.
type Node interface {
	Position() Pos
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Module is a parsed source file.
type Module struct {
	Body []Stmt
}

// Position returns the start of the first statement.
func (m *Module) Position() Pos {
	if len(m.Body) == 0 {
		return Pos{Line: 1}
	}
	return m.Body[0].Position()
}

// ConstKind identifies the type of a literal.
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstImag
	ConstStr
	ConstBytes
	ConstEllipsis
)

type (
	// Name is a variable reference.
	Name struct {
		At Pos
		ID string
	}

	// Constant is a literal value. Str holds string, bytes and numeric
	// source text; Bool, Int and Float hold decoded values. Overflow marks
	// an integer literal that does not fit in 64 bits.
	Constant struct {
		At       Pos
		Kind     ConstKind
		Str      string
		Bool     bool
		Int      int64
		Float    float64
		Overflow bool
	}

	// FString is a string concatenation containing at least one formatted
	// literal. Formatted parts keep their replacement fields unparsed.
	FString struct {
		At    Pos
		Raw   string
		Parts []StrPart
	}

	// Attribute is X.Attr.
	Attribute struct {
		X    Expr
		Attr string
	}

	// Subscript is X[Index].
	Subscript struct {
		X     Expr
		Index Expr
	}

	// Slice is Lo:Hi:Step inside a subscript.
	Slice struct {
		At           Pos
		Lo, Hi, Step Expr
	}

	// Call is Func(Args, Keywords). Starred entries of Args are *args
	// expansions; keywords with an empty Name are **kwargs expansions.
	Call struct {
		Func     Expr
		Args     []Expr
		Keywords []*Keyword
	}

	// Starred is *X.
	Starred struct {
		At Pos
		X  Expr
	}

	// BinOp is X Op Y for arithmetic and bitwise operators.
	BinOp struct {
		Op   string
		X, Y Expr
	}

	// UnaryOp is Op X where Op is one of "-", "+", "~" or "not".
	UnaryOp struct {
		At Pos
		Op string
		X  Expr
	}

	// BoolOp is a chain of "and" or "or".
	BoolOp struct {
		Op     string
		Values []Expr
	}

	// Compare is a comparison chain X Ops[0] Comparators[0] ...
	Compare struct {
		X           Expr
		Ops         []string
		Comparators []Expr
	}

	// IfExp is Body if Test else Else.
	IfExp struct {
		Test, Body, Else Expr
	}

	// Lambda is an anonymous function.
	Lambda struct {
		At     Pos
		Params *Params
		Body   Expr
	}

	// NamedExpr is Target := Value.
	NamedExpr struct {
		Target *Name
		Value  Expr
	}

	// List is a list display.
	List struct {
		At   Pos
		Elts []Expr
	}

	// Tuple is a tuple display.
	Tuple struct {
		At   Pos
		Elts []Expr
	}

	// Set is a set display.
	Set struct {
		At   Pos
		Elts []Expr
	}

	// Dict is a dict display. A nil key marks a **expansion of the value.
	Dict struct {
		At     Pos
		Keys   []Expr
		Values []Expr
	}

	// Comp is a list, set or dict comprehension or a generator expression.
	Comp struct {
		At         Pos
		Kind       CompKind
		Elt        Expr
		Value      Expr
		Generators []*Comprehension
	}

	// Yield is a yield or yield from expression.
	Yield struct {
		At    Pos
		Value Expr
		From  bool
	}

	// Await is await X.
	Await struct {
		At Pos
		X  Expr
	}
)

// CompKind identifies the kind of comprehension.
type CompKind int

const (
	ListComp CompKind = iota
	SetComp
	DictComp
	GenExp
)

// Comprehension is one "for Target in Iter if ..." clause.
type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// StrPart is one literal of a string concatenation.
type StrPart struct {
	Text      string
	Formatted bool
}

// Keyword is a keyword argument. Name is empty for **expansions.
type Keyword struct {
	At    Pos
	Name  string
	Value Expr
}

// Param is one function parameter.
type Param struct {
	Name    string
	Default Expr
}

// Params is a function parameter list.
type Params struct {
	Args   []*Param
	VarArg string
	KwOnly []*Param
	KwArg  string
}

type (
	// ExprStmt is an expression evaluated for its effect.
	ExprStmt struct {
		X Expr
	}

	// Assign is Targets[0] = Targets[1] = ... = Value.
	Assign struct {
		Targets []Expr
		Value   Expr
	}

	// AugAssign is Target Op= Value.
	AugAssign struct {
		Target Expr
		Op     string
		Value  Expr
	}

	// AnnAssign is Target: Annotation [= Value].
	AnnAssign struct {
		Target     Expr
		Annotation Expr
		Value      Expr
	}

	// Import is "import a.b as c, d".
	Import struct {
		At    Pos
		Names []*Alias
	}

	// ImportFrom is "from ..module import names". Level counts the
	// leading dots.
	ImportFrom struct {
		At     Pos
		Module string
		Level  int
		Names  []*Alias
	}

	// If is an if statement; elif chains nest in Else.
	If struct {
		At   Pos
		Test Expr
		Body []Stmt
		Else []Stmt
	}

	// For is a for loop.
	For struct {
		At     Pos
		Target Expr
		Iter   Expr
		Body   []Stmt
		Else   []Stmt
	}

	// While is a while loop.
	While struct {
		At   Pos
		Test Expr
		Body []Stmt
		Else []Stmt
	}

	// With is a with statement.
	With struct {
		At    Pos
		Items []*WithItem
		Body  []Stmt
	}

	// Try is a try statement.
	Try struct {
		At       Pos
		Body     []Stmt
		Handlers []*ExceptHandler
		Else     []Stmt
		Finally  []Stmt
	}

	// FunctionDef is a def statement.
	FunctionDef struct {
		At         Pos
		Name       string
		Params     *Params
		Body       []Stmt
		Decorators []Expr
	}

	// ClassDef is a class statement.
	ClassDef struct {
		At         Pos
		Name       string
		Bases      []Expr
		Keywords   []*Keyword
		Body       []Stmt
		Decorators []Expr
	}

	// Return is a return statement.
	Return struct {
		At    Pos
		Value Expr
	}

	// Raise is a raise statement.
	Raise struct {
		At    Pos
		Exc   Expr
		Cause Expr
	}

	// Assert is an assert statement.
	Assert struct {
		At   Pos
		Test Expr
		Msg  Expr
	}

	// Delete is a del statement.
	Delete struct {
		At      Pos
		Targets []Expr
	}

	// Global is a global or nonlocal declaration.
	Global struct {
		At       Pos
		Names    []string
		Nonlocal bool
	}

	// Pass is a pass statement.
	Pass struct{ At Pos }

	// Break is a break statement.
	Break struct{ At Pos }

	// Continue is a continue statement.
	Continue struct{ At Pos }
)

// Alias is one imported name with its optional binding.
type Alias struct {
	Name   string
	AsName string
}

// WithItem is one context manager of a with statement.
type WithItem struct {
	Context Expr
	Target  Expr
}

// ExceptHandler is one except clause. Type is nil for a bare except.
type ExceptHandler struct {
	At   Pos
	Type Expr
	Name string
	Body []Stmt
}

func (n *Name) Position() Pos      { return n.At }
func (n *Constant) Position() Pos  { return n.At }
func (n *FString) Position() Pos   { return n.At }
func (n *Attribute) Position() Pos { return n.X.Position() }
func (n *Subscript) Position() Pos { return n.X.Position() }
func (n *Slice) Position() Pos     { return n.At }
func (n *Call) Position() Pos      { return n.Func.Position() }
func (n *Starred) Position() Pos   { return n.At }
func (n *BinOp) Position() Pos     { return n.X.Position() }
func (n *UnaryOp) Position() Pos   { return n.At }
func (n *BoolOp) Position() Pos    { return n.Values[0].Position() }
func (n *Compare) Position() Pos   { return n.X.Position() }
func (n *IfExp) Position() Pos     { return n.Body.Position() }
func (n *Lambda) Position() Pos    { return n.At }
func (n *NamedExpr) Position() Pos { return n.Target.At }
func (n *List) Position() Pos      { return n.At }
func (n *Tuple) Position() Pos     { return n.At }
func (n *Set) Position() Pos       { return n.At }
func (n *Dict) Position() Pos      { return n.At }
func (n *Comp) Position() Pos      { return n.At }
func (n *Yield) Position() Pos     { return n.At }
func (n *Await) Position() Pos     { return n.At }

func (*Name) exprNode()      {}
func (*Constant) exprNode()  {}
func (*FString) exprNode()   {}
func (*Attribute) exprNode() {}
func (*Subscript) exprNode() {}
func (*Slice) exprNode()     {}
func (*Call) exprNode()      {}
func (*Starred) exprNode()   {}
func (*BinOp) exprNode()     {}
func (*UnaryOp) exprNode()   {}
func (*BoolOp) exprNode()    {}
func (*Compare) exprNode()   {}
func (*IfExp) exprNode()     {}
func (*Lambda) exprNode()    {}
func (*NamedExpr) exprNode() {}
func (*List) exprNode()      {}
func (*Tuple) exprNode()     {}
func (*Set) exprNode()       {}
func (*Dict) exprNode()      {}
func (*Comp) exprNode()      {}
func (*Yield) exprNode()     {}
func (*Await) exprNode()     {}

func (n *ExprStmt) Position() Pos    { return n.X.Position() }
func (n *Assign) Position() Pos      { return n.Targets[0].Position() }
func (n *AugAssign) Position() Pos   { return n.Target.Position() }
func (n *AnnAssign) Position() Pos   { return n.Target.Position() }
func (n *Import) Position() Pos      { return n.At }
func (n *ImportFrom) Position() Pos  { return n.At }
func (n *If) Position() Pos          { return n.At }
func (n *For) Position() Pos         { return n.At }
func (n *While) Position() Pos       { return n.At }
func (n *With) Position() Pos        { return n.At }
func (n *Try) Position() Pos         { return n.At }
func (n *FunctionDef) Position() Pos { return n.At }
func (n *ClassDef) Position() Pos    { return n.At }
func (n *Return) Position() Pos      { return n.At }
func (n *Raise) Position() Pos       { return n.At }
func (n *Assert) Position() Pos      { return n.At }
func (n *Delete) Position() Pos      { return n.At }
func (n *Global) Position() Pos      { return n.At }
func (n *Pass) Position() Pos        { return n.At }
func (n *Break) Position() Pos       { return n.At }
func (n *Continue) Position() Pos    { return n.At }

func (*ExprStmt) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*AnnAssign) stmtNode()   {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*If) stmtNode()          {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*With) stmtNode()        {}
func (*Try) stmtNode()         {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Raise) stmtNode()       {}
func (*Assert) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Global) stmtNode()      {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
