package pysrc

// ImportRecord is one absolute import found in source text.
type ImportRecord struct {
	// Line is the 1-based line of the import keyword.
	Line int `json:"line"`
	// Col is the 0-based byte column of the import keyword.
	Col int `json:"col"`
	// Module is the imported dotted module path. For "from X import Y"
	// it is X.
	Module string `json:"module"`
	// Alternate is X.Y for "from X import Y" and empty otherwise.
	Alternate string `json:"alternate,omitempty"`
}

// Imports extracts absolute imports from source text. Every alias of
// "import a, b" and every name of "from x import a, b" yields one record;
// relative imports yield none. Imports nested in functions, classes and
// conditional blocks are included.
func Imports(src []byte) ([]ImportRecord, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ImportsFromTokens(toks), nil
}

// ImportsFromTokens is [Imports] over an existing token stream.
func ImportsFromTokens(toks []Token) []ImportRecord {
	var out []ImportRecord
	depth := 0
	for i, t := range toks {
		if t.Kind == Op {
			switch t.Text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth > 0 {
					depth--
				}
			}
			continue
		}
		if t.Kind != Ident || depth > 0 || !statementStart(toks, i) {
			continue
		}
		switch t.Text {
		case "import":
			out = append(out, scanImport(toks, i)...)
		case "from":
			out = append(out, scanFrom(toks, i)...)
		}
	}
	return out
}

// statementStart reports whether toks[i] begins a statement. A statement
// follows the start of input, a NEWLINE, INDENT or DEDENT, a ';', or the ':'
// of a compound statement header written on one line.
func statementStart(toks []Token, i int) bool {
	if i == 0 {
		return true
	}
	prev := toks[i-1]
	switch prev.Kind {
	case Newline, Indent, Dedent:
		return true
	case Op:
		return prev.Text == ";" || prev.Text == ":"
	}
	return false
}

func tokenAt(toks []Token, i int) Token {
	if i < len(toks) {
		return toks[i]
	}
	return toks[len(toks)-1]
}

// dotted reads a dotted name starting at toks[i] and returns it with the
// index after it. An empty name means no name starts at i.
func dotted(toks []Token, i int) (string, int) {
	t := tokenAt(toks, i)
	if t.Kind != Ident || IsKeyword(t.Text) {
		return "", i
	}
	name := t.Text
	i++
	for tokenAt(toks, i).Is(".") {
		part := tokenAt(toks, i+1)
		if part.Kind != Ident || IsKeyword(part.Text) {
			break
		}
		name += "." + part.Text
		i += 2
	}
	return name, i
}

func skipAlias(toks []Token, i int) int {
	if tokenAt(toks, i).Is("as") && tokenAt(toks, i+1).Kind == Ident {
		return i + 2
	}
	return i
}

func scanImport(toks []Token, i int) []ImportRecord {
	kw := toks[i]
	var out []ImportRecord
	j := i + 1
	for {
		name, next := dotted(toks, j)
		if name == "" {
			return out
		}
		out = append(out, ImportRecord{Line: kw.Pos.Line, Col: kw.Pos.Col, Module: name})
		j = skipAlias(toks, next)
		if !tokenAt(toks, j).Is(",") {
			return out
		}
		j++
	}
}

func scanFrom(toks []Token, i int) []ImportRecord {
	kw := toks[i]
	j := i + 1
	level := 0
	for tokenAt(toks, j).Is(".") || tokenAt(toks, j).Is("...") {
		level += len(toks[j].Text)
		j++
	}
	module, j := dotted(toks, j)
	if level > 0 || module == "" || !tokenAt(toks, j).Is("import") {
		return nil
	}
	j++

	if tokenAt(toks, j).Is("*") {
		return []ImportRecord{{Line: kw.Pos.Line, Col: kw.Pos.Col, Module: module}}
	}
	if tokenAt(toks, j).Is("(") {
		j++
	}
	var out []ImportRecord
	for {
		name := tokenAt(toks, j)
		if name.Kind != Ident || IsKeyword(name.Text) {
			return out
		}
		out = append(out, ImportRecord{
			Line:      kw.Pos.Line,
			Col:       kw.Pos.Col,
			Module:    module,
			Alternate: module + "." + name.Text,
		})
		j = skipAlias(toks, j+1)
		if !tokenAt(toks, j).Is(",") {
			return out
		}
		j++
	}
}
