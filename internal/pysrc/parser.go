package pysrc

import (
	"errors"
	"strconv"
	"strings"
)

// Parser builds a syntax tree from a token stream.
type Parser struct {
	toks []Token
	pos  int
}

// Parse parses a complete source file.
func Parse(src []byte) (*Module, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseModule()
}

// ParseExpr parses a single expression.
func ParseExpr(src string) (Expr, error) {
	toks, err := Tokenize([]byte(src))
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	e, err := p.parseStarExprs()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == Newline {
		p.next()
	}
	if p.peek().Kind != EOF {
		return nil, p.errorf("unexpected %s", describe(p.peek()))
	}
	return e, nil
}

func (p *Parser) peek() Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *Parser) at(text string) bool {
	return p.peek().Is(text)
}

func (p *Parser) accept(text string) bool {
	if p.at(text) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(text string) (Token, error) {
	if !p.at(text) {
		return Token{}, p.errorf("expected %q, found %s", text, describe(p.peek()))
	}
	return p.next(), nil
}

func (p *Parser) expectName() (string, error) {
	t := p.peek()
	if t.Kind != Ident || IsKeyword(t.Text) {
		return "", p.errorf("expected name, found %s", describe(t))
	}
	p.next()
	return t.Text, nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return syntaxError(p.peek().Pos, format, args...)
}

func describe(t Token) string {
	switch t.Kind {
	case Ident, Op, Number, String:
		return strconv.Quote(t.Text)
	}
	return t.Kind.String()
}

func (p *Parser) parseModule() (*Module, error) {
	m := &Module{}
	for p.peek().Kind != EOF {
		if p.peek().Kind == Newline {
			p.next()
			continue
		}
		stmts, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		m.Body = append(m.Body, stmts...)
	}
	return m, nil
}

func (p *Parser) parseStatement() ([]Stmt, error) {
	t := p.peek()
	if t.Is("@") {
		s, err := p.parseDecorated()
		return []Stmt{s}, err
	}
	if t.Kind == Ident {
		var (
			s   Stmt
			err error
		)
		switch t.Text {
		case "if":
			s, err = p.parseIf()
		case "while":
			s, err = p.parseWhile()
		case "for":
			s, err = p.parseFor()
		case "try":
			s, err = p.parseTry()
		case "with":
			s, err = p.parseWith()
		case "def":
			s, err = p.parseDef(nil)
		case "class":
			s, err = p.parseClass(nil)
		case "async":
			if n := p.peekAt(1); n.Is("def") || n.Is("for") || n.Is("with") {
				p.next()
				return p.parseStatement()
			}
			return p.parseSimpleStmts()
		default:
			return p.parseSimpleStmts()
		}
		if err != nil {
			return nil, err
		}
		return []Stmt{s}, nil
	}
	return p.parseSimpleStmts()
}

func (p *Parser) parseSimpleStmts() ([]Stmt, error) {
	var out []Stmt
	for {
		s, err := p.parseSimple()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if !p.accept(";") {
			break
		}
		if k := p.peek().Kind; k == Newline || k == EOF {
			break
		}
	}
	switch p.peek().Kind {
	case Newline:
		p.next()
	case EOF:
	default:
		return nil, p.errorf("unexpected %s", describe(p.peek()))
	}
	return out, nil
}

func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	if p.peek().Kind != Newline {
		return p.parseSimpleStmts()
	}
	p.next()
	if p.peek().Kind != Indent {
		return nil, p.errorf("expected an indented block")
	}
	p.next()
	var body []Stmt
	for p.peek().Kind != Dedent && p.peek().Kind != EOF {
		if p.peek().Kind == Newline {
			p.next()
			continue
		}
		stmts, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	if p.peek().Kind == Dedent {
		p.next()
	}
	return body, nil
}

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, ">>=": true, "<<=": true, "&=": true, "|=": true, "^=": true, "@=": true,
}

func (p *Parser) parseSimple() (Stmt, error) {
	t := p.peek()
	if t.Kind == Ident {
		switch t.Text {
		case "pass":
			p.next()
			return &Pass{At: t.Pos}, nil
		case "break":
			p.next()
			return &Break{At: t.Pos}, nil
		case "continue":
			p.next()
			return &Continue{At: t.Pos}, nil
		case "return":
			p.next()
			s := &Return{At: t.Pos}
			if p.startsExpr() {
				v, err := p.parseStarExprs()
				if err != nil {
					return nil, err
				}
				s.Value = v
			}
			return s, nil
		case "raise":
			return p.parseRaise()
		case "global", "nonlocal":
			p.next()
			s := &Global{At: t.Pos, Nonlocal: t.Text == "nonlocal"}
			for {
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				s.Names = append(s.Names, name)
				if !p.accept(",") {
					return s, nil
				}
			}
		case "del":
			p.next()
			targets, err := p.parseExprList(p.parseBitOr)
			if err != nil {
				return nil, err
			}
			return &Delete{At: t.Pos, Targets: targets}, nil
		case "assert":
			p.next()
			s := &Assert{At: t.Pos}
			test, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			s.Test = test
			if p.accept(",") {
				if s.Msg, err = p.parseExpr(); err != nil {
					return nil, err
				}
			}
			return s, nil
		case "import":
			return p.parseImport()
		case "from":
			return p.parseFrom()
		}
	}
	return p.parseExprStmt()
}

func (p *Parser) parseRaise() (Stmt, error) {
	t := p.next()
	s := &Raise{At: t.Pos}
	if !p.startsExpr() {
		return s, nil
	}
	exc, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	s.Exc = exc
	if p.accept("from") {
		if s.Cause, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseExprStmt() (Stmt, error) {
	first, err := p.parseStarExprsOrYield()
	if err != nil {
		return nil, err
	}
	switch t := p.peek(); {
	case t.Is("="):
		targets := []Expr{first}
		var value Expr
		for p.accept("=") {
			v, err := p.parseStarExprsOrYield()
			if err != nil {
				return nil, err
			}
			if value != nil {
				targets = append(targets, value)
			}
			value = v
		}
		for _, target := range targets {
			if err := checkTarget(target); err != nil {
				return nil, err
			}
		}
		return &Assign{Targets: targets, Value: value}, nil
	case t.Kind == Op && augOps[t.Text]:
		p.next()
		if err := checkTarget(first); err != nil {
			return nil, err
		}
		v, err := p.parseStarExprsOrYield()
		if err != nil {
			return nil, err
		}
		return &AugAssign{Target: first, Op: strings.TrimSuffix(t.Text, "="), Value: v}, nil
	case t.Is(":"):
		p.next()
		ann, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		s := &AnnAssign{Target: first, Annotation: ann}
		if p.accept("=") {
			if s.Value, err = p.parseStarExprsOrYield(); err != nil {
				return nil, err
			}
		}
		return s, nil
	}
	return &ExprStmt{X: first}, nil
}

func checkTarget(e Expr) error {
	switch e := e.(type) {
	case *Name, *Attribute, *Subscript:
		return nil
	case *Starred:
		return checkTarget(e.X)
	case *Tuple:
		for _, elt := range e.Elts {
			if err := checkTarget(elt); err != nil {
				return err
			}
		}
		return nil
	case *List:
		for _, elt := range e.Elts {
			if err := checkTarget(elt); err != nil {
				return err
			}
		}
		return nil
	}
	return syntaxError(e.Position(), "cannot assign to expression")
}

func (p *Parser) parseDottedName() (string, error) {
	name, err := p.expectName()
	if err != nil {
		return "", err
	}
	for p.at(".") {
		p.next()
		part, err := p.expectName()
		if err != nil {
			return "", err
		}
		name += "." + part
	}
	return name, nil
}

func (p *Parser) parseImport() (Stmt, error) {
	t := p.next()
	s := &Import{At: t.Pos}
	for {
		name, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		alias := &Alias{Name: name}
		if p.accept("as") {
			if alias.AsName, err = p.expectName(); err != nil {
				return nil, err
			}
		}
		s.Names = append(s.Names, alias)
		if !p.accept(",") {
			return s, nil
		}
	}
}

func (p *Parser) parseFrom() (Stmt, error) {
	t := p.next()
	s := &ImportFrom{At: t.Pos}
	for p.at(".") || p.at("...") {
		s.Level += len(p.next().Text)
	}
	if !p.at("import") {
		name, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		s.Module = name
	}
	if _, err := p.expect("import"); err != nil {
		return nil, err
	}
	if p.accept("*") {
		s.Names = []*Alias{{Name: "*"}}
		return s, nil
	}
	paren := p.accept("(")
	for {
		if paren && p.at(")") {
			break
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		alias := &Alias{Name: name}
		if p.accept("as") {
			if alias.AsName, err = p.expectName(); err != nil {
				return nil, err
			}
		}
		s.Names = append(s.Names, alias)
		if !p.accept(",") {
			break
		}
	}
	if paren {
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
	}
	if len(s.Names) == 0 {
		return nil, p.errorf("expected import names")
	}
	return s, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	t := p.next()
	test, err := p.parseNamedExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &If{At: t.Pos, Test: test, Body: body}
	switch {
	case p.at("elif"):
		elif, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		s.Else = []Stmt{elif}
	case p.accept("else"):
		if s.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	t := p.next()
	test, err := p.parseNamedExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &While{At: t.Pos, Test: test, Body: body}
	if p.accept("else") {
		if s.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseFor() (Stmt, error) {
	t := p.next()
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseStarExprs()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &For{At: t.Pos, Target: target, Iter: iter, Body: body}
	if p.accept("else") {
		if s.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseTry() (Stmt, error) {
	t := p.next()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &Try{At: t.Pos, Body: body}
	for p.at("except") {
		et := p.next()
		p.accept("*")
		h := &ExceptHandler{At: et.Pos}
		if !p.at(":") {
			if h.Type, err = p.parseExpr(); err != nil {
				return nil, err
			}
			if p.accept("as") {
				if h.Name, err = p.expectName(); err != nil {
					return nil, err
				}
			}
		}
		if h.Body, err = p.parseBlock(); err != nil {
			return nil, err
		}
		s.Handlers = append(s.Handlers, h)
	}
	if p.accept("else") {
		if s.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if p.accept("finally") {
		if s.Finally, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if len(s.Handlers) == 0 && s.Finally == nil {
		return nil, p.errorf("expected 'except' or 'finally' block")
	}
	return s, nil
}

func (p *Parser) parseWith() (Stmt, error) {
	t := p.next()
	s := &With{At: t.Pos}
	for {
		ctx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := &WithItem{Context: ctx}
		if p.accept("as") {
			// One target per item; a comma starts the next item.
			if item.Target, err = p.parseBitOr(); err != nil {
				return nil, err
			}
			if err := checkTarget(item.Target); err != nil {
				return nil, err
			}
		}
		s.Items = append(s.Items, item)
		if !p.accept(",") {
			break
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

func (p *Parser) parseDecorated() (Stmt, error) {
	var decorators []Expr
	for p.accept("@") {
		d, err := p.parseNamedExpr()
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
		if p.peek().Kind != Newline {
			return nil, p.errorf("expected newline after decorator")
		}
		p.next()
	}
	p.accept("async")
	switch {
	case p.at("def"):
		return p.parseDef(decorators)
	case p.at("class"):
		return p.parseClass(decorators)
	}
	return nil, p.errorf("expected function or class after decorator")
}

func (p *Parser) parseDef(decorators []Expr) (Stmt, error) {
	t := p.next()
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	params, err := p.parseParams(")", true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	if p.accept("->") {
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunctionDef{At: t.Pos, Name: name, Params: params, Body: body, Decorators: decorators}, nil
}

func (p *Parser) parseClass(decorators []Expr) (Stmt, error) {
	t := p.next()
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	s := &ClassDef{At: t.Pos, Name: name, Decorators: decorators}
	if p.accept("(") {
		args, kws, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		s.Bases, s.Keywords = args, kws
	}
	if s.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseParams parses a parameter list up to closer. Annotations are
// accepted and discarded when annotated is set.
func (p *Parser) parseParams(closer string, annotated bool) (*Params, error) {
	params := &Params{}
	kwOnly := false
	for !p.at(closer) {
		switch {
		case p.accept("/"):
		case p.accept("**"):
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			if err := p.skipAnnotation(annotated); err != nil {
				return nil, err
			}
			params.KwArg = name
		case p.accept("*"):
			kwOnly = true
			if p.peek().Kind == Ident {
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				if err := p.skipAnnotation(annotated); err != nil {
					return nil, err
				}
				params.VarArg = name
			}
		default:
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			if err := p.skipAnnotation(annotated); err != nil {
				return nil, err
			}
			param := &Param{Name: name}
			if p.accept("=") {
				if param.Default, err = p.parseExpr(); err != nil {
					return nil, err
				}
			}
			if kwOnly {
				params.KwOnly = append(params.KwOnly, param)
			} else {
				params.Args = append(params.Args, param)
			}
		}
		if !p.accept(",") {
			break
		}
	}
	return params, nil
}

func (p *Parser) skipAnnotation(annotated bool) error {
	if annotated && p.accept(":") {
		_, err := p.parseExpr()
		return err
	}
	return nil
}

// startsExpr reports whether the current token can begin an expression.
func (p *Parser) startsExpr() bool {
	t := p.peek()
	switch t.Kind {
	case Number, String:
		return true
	case Ident:
		switch t.Text {
		case "None", "True", "False", "not", "lambda", "await", "yield":
			return true
		}
		return !IsKeyword(t.Text)
	case Op:
		switch t.Text {
		case "(", "[", "{", "-", "+", "~", "*", "**", "...":
			return true
		}
	}
	return false
}

// parseExprList parses item (',' item)* [','] with the given item parser.
func (p *Parser) parseExprList(item func() (Expr, error)) ([]Expr, error) {
	var out []Expr
	for {
		e, err := item()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if !p.at(",") {
			return out, nil
		}
		p.next()
		if !p.startsExpr() {
			return out, nil
		}
	}
}

func (p *Parser) parseStarExprs() (Expr, error) {
	start := p.peek().Pos
	first, err := p.parseStarExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(",") {
		return first, nil
	}
	elts := []Expr{first}
	for p.accept(",") {
		if !p.startsExpr() {
			break
		}
		e, err := p.parseStarExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &Tuple{At: start, Elts: elts}, nil
}

func (p *Parser) parseStarExprsOrYield() (Expr, error) {
	if p.at("yield") {
		return p.parseYield()
	}
	return p.parseStarExprs()
}

func (p *Parser) parseStarExpr() (Expr, error) {
	if t := p.peek(); t.Is("*") {
		p.next()
		x, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		return &Starred{At: t.Pos, X: x}, nil
	}
	return p.parseExpr()
}

// parseTarget parses one assignment target, possibly a tuple.
func (p *Parser) parseTarget() (Expr, error) {
	e, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	return e, checkTarget(e)
}

// parseTargetList parses loop targets: bitwise-or level items separated by
// commas, so that a following "in" is not taken as a comparison.
func (p *Parser) parseTargetList() (Expr, error) {
	start := p.peek().Pos
	item := func() (Expr, error) {
		if t := p.peek(); t.Is("*") {
			p.next()
			x, err := p.parseBitOr()
			if err != nil {
				return nil, err
			}
			return &Starred{At: t.Pos, X: x}, nil
		}
		return p.parseBitOr()
	}
	elts, err := p.parseExprList(item)
	if err != nil {
		return nil, err
	}
	if len(elts) == 1 && !p.toks[p.pos-1].Is(",") {
		return elts[0], checkTarget(elts[0])
	}
	t := &Tuple{At: start, Elts: elts}
	return t, checkTarget(t)
}

func (p *Parser) parseYield() (Expr, error) {
	t := p.next()
	y := &Yield{At: t.Pos}
	if p.accept("from") {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		y.Value, y.From = v, true
		return y, nil
	}
	if p.startsExpr() {
		v, err := p.parseStarExprs()
		if err != nil {
			return nil, err
		}
		y.Value = v
	}
	return y, nil
}

func (p *Parser) parseNamedExpr() (Expr, error) {
	if t := p.peek(); t.Kind == Ident && p.peekAt(1).Is(":=") {
		p.next()
		p.next()
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &NamedExpr{Target: &Name{At: t.Pos, ID: t.Text}, Value: v}, nil
	}
	return p.parseExpr()
}

func (p *Parser) parseExpr() (Expr, error) {
	if p.at("lambda") {
		return p.parseLambda()
	}
	x, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if !p.at("if") {
		return x, nil
	}
	p.next()
	test, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("else"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &IfExp{Test: test, Body: x, Else: els}, nil
}

func (p *Parser) parseLambda() (Expr, error) {
	t := p.next()
	params, err := p.parseParams(":", false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Lambda{At: t.Pos, Params: params, Body: body}, nil
}

func (p *Parser) parseBoolChain(op string, operand func() (Expr, error)) (Expr, error) {
	x, err := operand()
	if err != nil {
		return nil, err
	}
	if !p.at(op) {
		return x, nil
	}
	values := []Expr{x}
	for p.accept(op) {
		y, err := operand()
		if err != nil {
			return nil, err
		}
		values = append(values, y)
	}
	return &BoolOp{Op: op, Values: values}, nil
}

func (p *Parser) parseDisjunction() (Expr, error) {
	return p.parseBoolChain("or", p.parseConjunction)
}

func (p *Parser) parseConjunction() (Expr, error) {
	return p.parseBoolChain("and", p.parseInversion)
}

func (p *Parser) parseInversion() (Expr, error) {
	if t := p.peek(); t.Is("not") {
		p.next()
		x, err := p.parseInversion()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{At: t.Pos, Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

func (p *Parser) compareOp() (string, bool) {
	t := p.peek()
	switch {
	case t.Kind == Op:
		switch t.Text {
		case "<", ">", "==", ">=", "<=", "!=":
			p.next()
			return t.Text, true
		}
	case t.Is("in"):
		p.next()
		return "in", true
	case t.Is("not") && p.peekAt(1).Is("in"):
		p.next()
		p.next()
		return "not in", true
	case t.Is("is"):
		p.next()
		if p.accept("not") {
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

func (p *Parser) parseComparison() (Expr, error) {
	x, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	var cmp *Compare
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		y, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		if cmp == nil {
			cmp = &Compare{X: x}
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Comparators = append(cmp.Comparators, y)
	}
	if cmp == nil {
		return x, nil
	}
	return cmp, nil
}

// parseBinary parses a left-associative chain of the given operators.
func (p *Parser) parseBinary(operand func() (Expr, error), ops ...string) (Expr, error) {
	x, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind != Op || !contains(ops, t.Text) {
			return x, nil
		}
		p.next()
		y, err := operand()
		if err != nil {
			return nil, err
		}
		x = &BinOp{Op: t.Text, X: x, Y: y}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (p *Parser) parseBitOr() (Expr, error)  { return p.parseBinary(p.parseBitXor, "|") }
func (p *Parser) parseBitXor() (Expr, error) { return p.parseBinary(p.parseBitAnd, "^") }
func (p *Parser) parseBitAnd() (Expr, error) { return p.parseBinary(p.parseShift, "&") }
func (p *Parser) parseShift() (Expr, error)  { return p.parseBinary(p.parseSum, "<<", ">>") }
func (p *Parser) parseSum() (Expr, error)    { return p.parseBinary(p.parseTerm, "+", "-") }
func (p *Parser) parseTerm() (Expr, error) {
	return p.parseBinary(p.parseFactor, "*", "/", "//", "%", "@")
}

func (p *Parser) parseFactor() (Expr, error) {
	t := p.peek()
	if t.Is("-") || t.Is("+") || t.Is("~") {
		p.next()
		x, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{At: t.Pos, Op: t.Text, X: x}, nil
	}
	return p.parsePower()
}

func (p *Parser) parsePower() (Expr, error) {
	x, err := p.parseAwait()
	if err != nil {
		return nil, err
	}
	if !p.accept("**") {
		return x, nil
	}
	y, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	return &BinOp{Op: "**", X: x, Y: y}, nil
}

func (p *Parser) parseAwait() (Expr, error) {
	if t := p.peek(); t.Is("await") {
		p.next()
		x, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Await{At: t.Pos, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			x = &Attribute{X: x, Attr: name}
		case p.accept("("):
			args, kws, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			x = &Call{Func: x, Args: args, Keywords: kws}
		case p.at("["):
			p.next()
			index, err := p.parseSubscript()
			if err != nil {
				return nil, err
			}
			x = &Subscript{X: x, Index: index}
		default:
			return x, nil
		}
	}
}

// parseCallArgs parses call arguments after the opening parenthesis and
// consumes the closing one.
func (p *Parser) parseCallArgs() ([]Expr, []*Keyword, error) {
	var (
		args []Expr
		kws  []*Keyword
	)
	for !p.at(")") {
		t := p.peek()
		switch {
		case t.Is("*"):
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, &Starred{At: t.Pos, X: x})
		case t.Is("**"):
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kws = append(kws, &Keyword{At: t.Pos, Value: x})
		case t.Kind == Ident && !IsKeyword(t.Text) && p.peekAt(1).Is("="):
			p.next()
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kws = append(kws, &Keyword{At: t.Pos, Name: t.Text, Value: x})
		default:
			x, err := p.parseNamedExpr()
			if err != nil {
				return nil, nil, err
			}
			if p.at("for") || p.at("async") {
				gens, err := p.parseCompFor()
				if err != nil {
					return nil, nil, err
				}
				x = &Comp{At: x.Position(), Kind: GenExp, Elt: x, Generators: gens}
			}
			args = append(args, x)
		}
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, nil, err
	}
	return args, kws, nil
}

// parseSubscript parses the index after "[" and consumes "]".
func (p *Parser) parseSubscript() (Expr, error) {
	start := p.peek().Pos
	var items []Expr
	trailing := false
	for !p.at("]") {
		item, err := p.parseSliceItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		trailing = p.accept(",")
		if !trailing {
			break
		}
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	switch {
	case len(items) == 0:
		return nil, syntaxError(start, "empty subscript")
	case len(items) == 1 && !trailing:
		return items[0], nil
	}
	return &Tuple{At: start, Elts: items}, nil
}

func (p *Parser) parseSliceItem() (Expr, error) {
	start := p.peek().Pos
	var lo Expr
	if !p.at(":") {
		e, err := p.parseStarExpr()
		if err != nil {
			return nil, err
		}
		if !p.at(":") {
			return e, nil
		}
		lo = e
	}
	p.next()
	s := &Slice{At: start, Lo: lo}
	var err error
	if !p.at(":") && !p.at("]") && !p.at(",") {
		if s.Hi, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.accept(":") && !p.at("]") && !p.at(",") {
		if s.Step, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseCompFor() ([]*Comprehension, error) {
	var gens []*Comprehension
	for p.at("for") || (p.at("async") && p.peekAt(1).Is("for")) {
		p.accept("async")
		p.next()
		target, err := p.parseTargetList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("in"); err != nil {
			return nil, err
		}
		iter, err := p.parseDisjunction()
		if err != nil {
			return nil, err
		}
		g := &Comprehension{Target: target, Iter: iter}
		for p.accept("if") {
			cond, err := p.parseDisjunction()
			if err != nil {
				return nil, err
			}
			g.Ifs = append(g.Ifs, cond)
		}
		gens = append(gens, g)
	}
	return gens, nil
}

func (p *Parser) parseAtom() (Expr, error) {
	t := p.peek()
	switch t.Kind {
	case Ident:
		switch t.Text {
		case "None":
			p.next()
			return &Constant{At: t.Pos, Kind: ConstNone}, nil
		case "True", "False":
			p.next()
			return &Constant{At: t.Pos, Kind: ConstBool, Bool: t.Text == "True"}, nil
		case "lambda":
			return p.parseLambda()
		}
		if IsKeyword(t.Text) {
			return nil, p.errorf("unexpected keyword %q", t.Text)
		}
		p.next()
		return &Name{At: t.Pos, ID: t.Text}, nil
	case Number:
		p.next()
		return parseNumber(t)
	case String:
		return p.parseStrings(), nil
	case Op:
		switch t.Text {
		case "...":
			p.next()
			return &Constant{At: t.Pos, Kind: ConstEllipsis}, nil
		case "(":
			p.next()
			return p.parseParen(t.Pos)
		case "[":
			p.next()
			return p.parseListDisplay(t.Pos)
		case "{":
			p.next()
			return p.parseBraceDisplay(t.Pos)
		}
	}
	return nil, p.errorf("unexpected %s", describe(t))
}

func parseNumber(t Token) (Expr, error) {
	text := strings.ReplaceAll(t.Text, "_", "")
	c := &Constant{At: t.Pos, Str: t.Text}
	lower := strings.ToLower(text)
	switch {
	case strings.HasSuffix(lower, "j"):
		c.Kind = ConstImag
		f, err := strconv.ParseFloat(lower[:len(lower)-1], 64)
		if err != nil {
			return nil, syntaxError(t.Pos, "invalid number %q", t.Text)
		}
		c.Float = f
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "0o"), strings.HasPrefix(lower, "0b"):
		c.Kind = ConstInt
		n, err := strconv.ParseInt(lower, 0, 64)
		if errors.Is(err, strconv.ErrRange) {
			c.Overflow = true
		} else if err != nil {
			return nil, syntaxError(t.Pos, "invalid number %q", t.Text)
		}
		c.Int = n
	case strings.ContainsAny(lower, ".e"):
		c.Kind = ConstFloat
		f, err := strconv.ParseFloat(lower, 64)
		if err != nil {
			return nil, syntaxError(t.Pos, "invalid number %q", t.Text)
		}
		c.Float = f
	default:
		c.Kind = ConstInt
		n, err := strconv.ParseInt(lower, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			c.Overflow = true
		} else if err != nil {
			return nil, syntaxError(t.Pos, "invalid number %q", t.Text)
		}
		c.Int = n
	}
	return c, nil
}

// parseStrings concatenates adjacent string literals.
func (p *Parser) parseStrings() Expr {
	start := p.peek().Pos
	var (
		value, raw strings.Builder
		parts      []StrPart
		fstring    bool
		bytes      bool
	)
	for p.peek().Kind == String {
		t := p.next()
		formatted := strings.ContainsRune(t.Prefix, 'f')
		value.WriteString(t.Value)
		raw.WriteString(t.Text)
		parts = append(parts, StrPart{Text: t.Value, Formatted: formatted})
		fstring = fstring || formatted
		bytes = bytes || strings.ContainsRune(t.Prefix, 'b')
	}
	switch {
	case fstring:
		return &FString{At: start, Raw: raw.String(), Parts: parts}
	case bytes:
		return &Constant{At: start, Kind: ConstBytes, Str: value.String()}
	}
	return &Constant{At: start, Kind: ConstStr, Str: value.String()}
}

func (p *Parser) parseParen(start Pos) (Expr, error) {
	if p.accept(")") {
		return &Tuple{At: start}, nil
	}
	if p.at("yield") {
		y, err := p.parseYield()
		if err != nil {
			return nil, err
		}
		_, err = p.expect(")")
		return y, err
	}
	first, err := p.parseStarNamed()
	if err != nil {
		return nil, err
	}
	if p.at("for") || p.at("async") {
		gens, err := p.parseCompFor()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return &Comp{At: start, Kind: GenExp, Elt: first, Generators: gens}, nil
	}
	if p.accept(")") {
		return first, nil
	}
	elts, err := p.parseDisplayTail(first, ")")
	if err != nil {
		return nil, err
	}
	return &Tuple{At: start, Elts: elts}, nil
}

func (p *Parser) parseStarNamed() (Expr, error) {
	if t := p.peek(); t.Is("*") {
		p.next()
		x, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		return &Starred{At: t.Pos, X: x}, nil
	}
	return p.parseNamedExpr()
}

// parseDisplayTail parses the remaining ", item" entries of a display whose
// first item has been read, and consumes closer.
func (p *Parser) parseDisplayTail(first Expr, closer string) ([]Expr, error) {
	elts := []Expr{first}
	for p.accept(",") {
		if p.at(closer) {
			break
		}
		e, err := p.parseStarNamed()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if _, err := p.expect(closer); err != nil {
		return nil, err
	}
	return elts, nil
}

func (p *Parser) parseListDisplay(start Pos) (Expr, error) {
	if p.accept("]") {
		return &List{At: start}, nil
	}
	first, err := p.parseStarNamed()
	if err != nil {
		return nil, err
	}
	if p.at("for") || p.at("async") {
		gens, err := p.parseCompFor()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("]"); err != nil {
			return nil, err
		}
		return &Comp{At: start, Kind: ListComp, Elt: first, Generators: gens}, nil
	}
	elts, err := p.parseDisplayTail(first, "]")
	if err != nil {
		return nil, err
	}
	return &List{At: start, Elts: elts}, nil
}

func (p *Parser) parseBraceDisplay(start Pos) (Expr, error) {
	if p.accept("}") {
		return &Dict{At: start}, nil
	}
	if p.at("**") {
		return p.parseDictTail(start, nil)
	}
	first, err := p.parseStarNamed()
	if err != nil {
		return nil, err
	}
	if !p.accept(":") {
		if p.at("for") || p.at("async") {
			gens, err := p.parseCompFor()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("}"); err != nil {
				return nil, err
			}
			return &Comp{At: start, Kind: SetComp, Elt: first, Generators: gens}, nil
		}
		elts, err := p.parseDisplayTail(first, "}")
		if err != nil {
			return nil, err
		}
		return &Set{At: start, Elts: elts}, nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at("for") || p.at("async") {
		gens, err := p.parseCompFor()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("}"); err != nil {
			return nil, err
		}
		return &Comp{At: start, Kind: DictComp, Elt: first, Value: value, Generators: gens}, nil
	}
	d := &Dict{At: start, Keys: []Expr{first}, Values: []Expr{value}}
	if !p.accept(",") {
		_, err := p.expect("}")
		return d, err
	}
	return p.parseDictTail(start, d)
}

// parseDictTail parses "key: value" and "**mapping" entries up to "}".
func (p *Parser) parseDictTail(start Pos, d *Dict) (Expr, error) {
	if d == nil {
		d = &Dict{At: start}
	}
	for !p.at("}") {
		if p.accept("**") {
			v, err := p.parseBitOr()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, v)
		} else {
			k, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(":"); err != nil {
				return nil, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v)
		}
		if !p.accept(",") {
			break
		}
	}
	_, err := p.expect("}")
	return d, err
}
