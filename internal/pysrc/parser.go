package pysrc

import (
	"fmt"
	"os"
	"slices"

	"ninja-orval-forge/internal/diagnostic"
)

var compoundKeywords = []string{
	"if", "elif", "else", "for", "while", "try", "except", "finally", "with",
}

// ParseFile reads and parses a Python source file.
func ParseFile(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return Parse(path, src)
}

// Parse parses Python source. Malformed input yields a *diagnostic.ParseError.
func Parse(file string, src []byte) (*Module, error) {
	lines, err := lex(file, string(src))
	if err != nil {
		return nil, err
	}

	p := &parser{file: file, lines: lines}

	if len(lines) > 0 && lines[0].indent != 0 {
		return nil, p.errorf(lines[0].line, "unexpected indent")
	}

	body, err := p.block(0)
	if err != nil {
		return nil, err
	}

	return &Module{File: file, Body: body}, nil
}

type parser struct {
	file  string
	lines []logicalLine
	pos   int
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &diagnostic.ParseError{File: p.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// block parses statements at exactly indent until a dedent.
func (p *parser) block(indent int) ([]Stmt, error) {
	var (
		out        []Stmt
		decorators []*Expr
	)

	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent < indent {
			break
		}

		if ln.indent > indent {
			return nil, p.errorf(ln.line, "unexpected indent")
		}

		p.pos++

		if ln.toks[0].kind == tokOp && ln.toks[0].text == "@" {
			ep := &exprParser{toks: ln.toks[1:]}
			decorators = append(decorators, ep.parseExpr())

			continue
		}

		stmt, suite, err := p.header(ln)
		if err != nil {
			return nil, err
		}

		if stmt.Kind == StmtClass || stmt.Kind == StmtFunc {
			if stmt.Class != nil {
				stmt.Class.Decorators = decorators
			} else {
				stmt.Func.Decorators = decorators
			}
		} else if len(decorators) > 0 {
			return nil, p.errorf(ln.line, "decorator must precede a class or function")
		}

		decorators = nil

		if suite != nil {
			body, err := p.suite(ln, indent, suite)
			if err != nil {
				return nil, err
			}

			attachBody(&stmt, body)
		}

		out = append(out, stmt)
	}

	if len(decorators) > 0 {
		return nil, p.errorf(p.lastLine(), "decorator must precede a class or function")
	}

	return out, nil
}

// suite parses the body of a compound statement: either the inline
// statement after the colon or an indented block.
func (p *parser) suite(header logicalLine, indent int, inline []token) ([]Stmt, error) {
	if len(inline) > 0 {
		stmt, nested, err := p.header(logicalLine{line: header.line, indent: header.indent, toks: inline})
		if err != nil {
			return nil, err
		}

		if nested != nil {
			return nil, p.errorf(header.line, "compound statement cannot follow a colon on the same line")
		}

		return []Stmt{stmt}, nil
	}

	if p.pos >= len(p.lines) || p.lines[p.pos].indent <= indent {
		return nil, p.errorf(header.line, "expected an indented block")
	}

	childIndent := p.lines[p.pos].indent

	body, err := p.block(childIndent)
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.lines) && p.lines[p.pos].indent > indent {
		return nil, p.errorf(p.lines[p.pos].line, "unindent does not match any outer indentation level")
	}

	return body, nil
}

func attachBody(stmt *Stmt, body []Stmt) {
	switch stmt.Kind {
	case StmtClass:
		stmt.Class.Body = body
		if len(body) > 0 {
			if s, ok := body[0].Expr.StringValue(); ok && body[0].Kind == StmtExpr {
				stmt.Class.Doc = s
			}
		}
	case StmtFunc:
		stmt.Func.Body = body
	default:
		stmt.Body = body
	}
}

// header parses one logical line. A non-nil suite means the statement opens
// a block; an empty non-nil suite means the block is indented below.
func (p *parser) header(ln logicalLine) (Stmt, []token, error) {
	toks := ln.toks
	first := toks[0]
	stmt := Stmt{Line: ln.line}

	if first.kind == tokName {
		switch {
		case first.text == "class":
			return p.classHeader(ln)
		case first.text == "def" || (first.text == "async" && len(toks) > 1 && toks[1].text == "def"):
			return p.funcHeader(ln)
		case slices.Contains(compoundKeywords, first.text):
			colon := topLevelColon(toks)
			if colon < 0 {
				return stmt, nil, p.errorf(ln.line, "expected ':'")
			}

			stmt.Kind = StmtCompound
			stmt.Keyword = first.text

			return stmt, suiteTokens(toks, colon), nil
		}
	}

	if eq := lastTopLevelAssign(toks); eq > 0 {
		return p.assign(ln, eq), nil, nil
	}

	if first.kind == tokName && !isExprStart(toks) {
		stmt.Kind = StmtOther
		stmt.Keyword = first.text

		return stmt, nil, nil
	}

	ep := &exprParser{toks: toks}
	stmt.Kind = StmtExpr
	stmt.Expr = ep.parseExpr()

	return stmt, nil, nil
}

func (p *parser) classHeader(ln logicalLine) (Stmt, []token, error) {
	toks := ln.toks
	if len(toks) < 2 || toks[1].kind != tokName {
		return Stmt{}, nil, p.errorf(ln.line, "expected class name")
	}

	colon := topLevelColon(toks)
	if colon < 0 {
		return Stmt{}, nil, p.errorf(ln.line, "expected ':' after class header")
	}

	cls := &Class{Name: toks[1].text, Line: ln.line}

	if len(toks) > 2 && toks[2].kind == tokOp && toks[2].text == "(" {
		ep := &exprParser{toks: toks[3:colon]}
		for ep.pos < len(ep.toks) && !ep.peekOp(")") {
			if t, _ := ep.peek(); t.kind == tokName && ep.pos+1 < len(ep.toks) && ep.toks[ep.pos+1].text == "=" {
				// metaclass=... keyword
				ep.pos += 2
				ep.parseExpr()
			} else {
				cls.Bases = append(cls.Bases, ep.parseExpr())
			}

			if ep.peekOp(",") {
				ep.pos++
			}
		}
	}

	return Stmt{Kind: StmtClass, Line: ln.line, Class: cls}, suiteTokens(toks, colon), nil
}

func (p *parser) funcHeader(ln logicalLine) (Stmt, []token, error) {
	toks := ln.toks

	i := 1
	if toks[0].text == "async" {
		i = 2
	}

	if i >= len(toks) || toks[i].kind != tokName {
		return Stmt{}, nil, p.errorf(ln.line, "expected function name")
	}

	colon := topLevelColon(toks)
	if colon < 0 {
		return Stmt{}, nil, p.errorf(ln.line, "expected ':' after function header")
	}

	fn := &Func{Name: toks[i].text, Line: ln.line}

	return Stmt{Kind: StmtFunc, Line: ln.line, Func: fn}, suiteTokens(toks, colon), nil
}

func (p *parser) assign(ln logicalLine, eq int) Stmt {
	toks := ln.toks
	stmt := Stmt{Kind: StmtAssign, Line: ln.line}
	target := toks[:firstTopLevelAssign(toks)]

	a := &Assign{Line: ln.line}

	if colon := topLevelColon(target); colon > 0 {
		ep := &exprParser{toks: target[colon+1:]}
		a.Annotation = ep.parseExpr()
		target = target[:colon]
	}

	a.Target = joinTokens(target)
	ep := &exprParser{toks: toks[eq+1:]}
	a.Value = ep.parseExpr()
	stmt.Assign = a

	return stmt
}

func (p *parser) lastLine() int {
	if len(p.lines) == 0 {
		return 0
	}

	return p.lines[len(p.lines)-1].line
}

// suiteTokens returns the tokens after the header colon, never nil.
func suiteTokens(toks []token, colon int) []token {
	return append([]token{}, toks[colon+1:]...)
}

// topLevelColon returns the index of the first ':' outside brackets that is
// not part of a lambda.
func topLevelColon(toks []token) int {
	depth := 0
	lambdas := 0

	for i, t := range toks {
		switch {
		case t.kind == tokName && t.text == "lambda" && depth == 0:
			lambdas++
		case t.kind != tokOp:
		case t.text == "(" || t.text == "[" || t.text == "{":
			depth++
		case t.text == ")" || t.text == "]" || t.text == "}":
			depth--
		case t.text == ":" && depth == 0:
			if lambdas > 0 {
				lambdas--
				continue
			}

			return i
		}
	}

	return -1
}

func topLevelAssigns(toks []token) []int {
	var out []int

	depth := 0

	for i, t := range toks {
		if t.kind != tokOp {
			continue
		}

		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case "=":
			if depth == 0 {
				out = append(out, i)
			}
		}
	}

	return out
}

func firstTopLevelAssign(toks []token) int {
	if eqs := topLevelAssigns(toks); len(eqs) > 0 {
		return eqs[0]
	}

	return -1
}

func lastTopLevelAssign(toks []token) int {
	if eqs := topLevelAssigns(toks); len(eqs) > 0 {
		return eqs[len(eqs)-1]
	}

	return -1
}

var simpleKeywords = []string{
	"pass", "return", "import", "from", "raise", "global", "nonlocal", "del", "assert", "break", "continue",
}

// isExprStart reports whether a line starting with a name is an expression
// statement rather than a simple keyword statement.
func isExprStart(toks []token) bool {
	return !slices.Contains(simpleKeywords, toks[0].text)
}
