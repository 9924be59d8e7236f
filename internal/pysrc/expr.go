package pysrc

import (
	"strconv"
	"strings"
)

// ExprKind classifies an expression.
type ExprKind int

const (
	// ExprOther is any expression the parser does not model; only Raw is set.
	ExprOther ExprKind = iota
	// ExprName is a possibly dotted name such as "models.CharField".
	ExprName
	ExprAttr
	ExprCall
	ExprString
	ExprNumber
	ExprList
	ExprTuple
)

// Expr is a parsed expression.
type Expr struct {
	Kind ExprKind
	// Raw is the normalized source text.
	Raw string
	// Name is the dotted name of ExprName, or the attribute of ExprAttr.
	Name string
	// Value is the decoded string value or the number text.
	Value string
	// X is the receiver of ExprAttr.
	X *Expr
	// Func is the callee of ExprCall.
	Func   *Expr
	Args   []*Expr
	Kwargs []Kwarg
	// Elems holds list and tuple elements.
	Elems []*Expr
	Line  int
}

// Kwarg is a keyword argument of a call.
type Kwarg struct {
	Name  string
	Value *Expr
}

// Dotted returns the dotted name of a name expression or an attribute chain
// over names, and "" otherwise.
func (e *Expr) Dotted() string {
	if e == nil {
		return ""
	}

	switch e.Kind {
	case ExprName:
		return e.Name
	case ExprAttr:
		if x := e.X.Dotted(); x != "" {
			return x + "." + e.Name
		}
	}

	return ""
}

// CallName returns the dotted callee of a call expression.
func (e *Expr) CallName() string {
	if e == nil || e.Kind != ExprCall {
		return ""
	}

	return e.Func.Dotted()
}

// Root returns the first name segment of a name, attribute or call chain:
// "User" for "User.objects.filter(active=True)".
func (e *Expr) Root() string {
	for e != nil {
		switch e.Kind {
		case ExprName:
			name, _, _ := strings.Cut(e.Name, ".")
			return name
		case ExprAttr:
			e = e.X
		case ExprCall:
			e = e.Func
		default:
			return ""
		}
	}

	return ""
}

// Kwarg returns the keyword argument with the given name.
func (e *Expr) Kwarg(name string) (*Expr, bool) {
	if e == nil {
		return nil, false
	}

	for _, kw := range e.Kwargs {
		if kw.Name == name {
			return kw.Value, true
		}
	}

	return nil, false
}

// Arg returns the i-th positional argument.
func (e *Expr) Arg(i int) (*Expr, bool) {
	if e == nil || i >= len(e.Args) {
		return nil, false
	}

	return e.Args[i], true
}

// StringValue returns the value of a string literal.
func (e *Expr) StringValue() (string, bool) {
	if e == nil || e.Kind != ExprString {
		return "", false
	}

	return e.Value, true
}

// BoolValue returns the value of True or False.
func (e *Expr) BoolValue() (bool, bool) {
	if e == nil || e.Kind != ExprName {
		return false, false
	}

	switch e.Name {
	case "True":
		return true, true
	case "False":
		return false, true
	default:
		return false, false
	}
}

// IntValue returns the value of a decimal integer literal.
func (e *Expr) IntValue() (int, bool) {
	if e == nil || e.Kind != ExprNumber {
		return 0, false
	}

	n, err := strconv.Atoi(strings.ReplaceAll(e.Value, "_", ""))
	if err != nil {
		return 0, false
	}

	return n, true
}

// IsNone reports whether the expression is the None constant.
func (e *Expr) IsNone() bool {
	return e != nil && e.Kind == ExprName && e.Name == "None"
}

// StringList returns the values of a list or tuple made only of strings.
func (e *Expr) StringList() ([]string, bool) {
	if e == nil || (e.Kind != ExprList && e.Kind != ExprTuple) {
		return nil, false
	}

	out := make([]string, 0, len(e.Elems))

	for _, el := range e.Elems {
		s, ok := el.StringValue()
		if !ok {
			return nil, false
		}

		out = append(out, s)
	}

	return out, true
}

// ChoiceValues returns the stored values of a choices literal: a list or
// tuple of (value, label) pairs, or of bare strings.
func (e *Expr) ChoiceValues() ([]string, bool) {
	if e == nil || (e.Kind != ExprList && e.Kind != ExprTuple) {
		return nil, false
	}

	out := make([]string, 0, len(e.Elems))

	for _, el := range e.Elems {
		if s, ok := el.LiteralText(); ok && el.Kind != ExprTuple && el.Kind != ExprList {
			out = append(out, unquoteLiteral(el, s))
			continue
		}

		if (el.Kind != ExprTuple && el.Kind != ExprList) || len(el.Elems) == 0 {
			return nil, false
		}

		s, ok := el.Elems[0].LiteralText()
		if !ok {
			return nil, false
		}

		out = append(out, unquoteLiteral(el.Elems[0], s))
	}

	return out, true
}

func unquoteLiteral(e *Expr, text string) string {
	if e.Kind == ExprString {
		return e.Value
	}

	return text
}

// IsLiteral reports whether the expression is a constant: a string, number,
// True, False, None, or a list or tuple of constants.
func (e *Expr) IsLiteral() bool {
	_, ok := e.LiteralText()
	return ok
}

// LiteralText returns the constant in Python source syntax.
func (e *Expr) LiteralText() (string, bool) {
	if e == nil {
		return "", false
	}

	switch e.Kind {
	case ExprString:
		return strconv.Quote(e.Value), true
	case ExprNumber:
		return e.Value, true
	case ExprName:
		switch e.Name {
		case "True", "False", "None":
			return e.Name, true
		}
	case ExprList, ExprTuple:
		parts := make([]string, len(e.Elems))

		for i, el := range e.Elems {
			s, ok := el.LiteralText()
			if !ok {
				return "", false
			}

			parts[i] = s
		}

		if e.Kind == ExprList {
			return "[" + strings.Join(parts, ", ") + "]", true
		}

		if len(parts) == 1 {
			return "(" + parts[0] + ",)", true
		}

		return "(" + strings.Join(parts, ", ") + ")", true
	}

	return "", false
}

// exprParser parses expressions from a token slice.
type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}

	return p.toks[p.pos], true
}

func (p *exprParser) peekOp(op string) bool {
	t, ok := p.peek()
	return ok && t.kind == tokOp && t.text == op
}

func (p *exprParser) atTerminator() bool {
	t, ok := p.peek()
	if !ok {
		return true
	}

	if t.kind != tokOp {
		return false
	}

	switch t.text {
	case ",", ")", "]", "}", ":", "=":
		return true
	}

	return false
}

// parseExpr parses one expression up to the next terminator at depth zero.
func (p *exprParser) parseExpr() *Expr {
	start := p.pos

	e := p.parsePrimary()
	if !p.atTerminator() || e == nil {
		p.skipExpr(false)
		return p.other(start)
	}

	return e
}

func (p *exprParser) other(start int) *Expr {
	e := &Expr{Kind: ExprOther, Raw: joinTokens(p.toks[start:p.pos])}
	if start < len(p.toks) {
		e.Line = p.toks[start].line
	}

	return e
}

// skipExpr advances to the next terminator at depth zero. A lambda body may
// contain ':' so lambdas only stop at ',' or a closer.
func (p *exprParser) skipExpr(lambda bool) {
	depth := 0

	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.kind == tokOp {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					return
				}

				depth--
			case ",", "=":
				if depth == 0 {
					return
				}
			case ":":
				if depth == 0 && !lambda {
					return
				}
			}
		}

		p.pos++
	}
}

// skipBalanced skips a bracketed group starting at an opener.
func (p *exprParser) skipBalanced() {
	depth := 0

	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		p.pos++

		if t.kind != tokOp {
			continue
		}

		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *exprParser) parsePrimary() *Expr {
	start := p.pos

	t, ok := p.peek()
	if !ok {
		return nil
	}

	var e *Expr

	switch {
	case t.kind == tokString:
		var b strings.Builder

		for {
			nt, ok := p.peek()
			if !ok || nt.kind != tokString {
				break
			}

			b.WriteString(nt.text)
			p.pos++
		}

		e = &Expr{Kind: ExprString, Value: b.String()}
	case t.kind == tokNumber:
		p.pos++
		e = &Expr{Kind: ExprNumber, Value: t.text}
	case t.kind == tokName && t.text == "lambda":
		p.skipExpr(true)
		return p.other(start)
	case t.kind == tokName:
		p.pos++
		e = &Expr{Kind: ExprName, Name: t.text}
	case t.kind == tokOp && t.text == "-":
		p.pos++

		nt, ok := p.peek()
		if !ok || nt.kind != tokNumber {
			return nil
		}

		p.pos++
		e = &Expr{Kind: ExprNumber, Value: "-" + nt.text}
	case t.kind == tokOp && t.text == "(":
		p.pos++
		elems, trailingComma := p.parseSeq(")")

		if len(elems) == 1 && !trailingComma {
			e = elems[0]
		} else {
			e = &Expr{Kind: ExprTuple, Elems: elems}
		}
	case t.kind == tokOp && t.text == "[":
		p.pos++
		elems, _ := p.parseSeq("]")
		e = &Expr{Kind: ExprList, Elems: elems}
	case t.kind == tokOp && t.text == "{":
		p.skipBalanced()
		e = &Expr{Kind: ExprOther}
	default:
		return nil
	}

	e = p.parsePostfix(e)
	e.Line = t.line
	e.Raw = joinTokens(p.toks[start:p.pos])

	return e
}

func (p *exprParser) parsePostfix(e *Expr) *Expr {
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp {
			return e
		}

		switch t.text {
		case ".":
			nt := p.pos + 1
			if nt >= len(p.toks) || p.toks[nt].kind != tokName {
				return e
			}

			p.pos += 2
			attr := p.toks[nt].text

			if e.Kind == ExprName {
				e = &Expr{Kind: ExprName, Name: e.Name + "." + attr}
			} else {
				e = &Expr{Kind: ExprAttr, X: e, Name: attr}
			}
		case "(":
			p.pos++
			call := &Expr{Kind: ExprCall, Func: e}
			p.parseArgs(call)
			e = call
		case "[":
			p.skipBalanced()
			e = &Expr{Kind: ExprOther, X: e}
		default:
			return e
		}
	}
}

// parseSeq parses comma-separated expressions up to closer, consuming it.
func (p *exprParser) parseSeq(closer string) ([]*Expr, bool) {
	var (
		elems    []*Expr
		trailing bool
	)

	for p.pos < len(p.toks) {
		if p.peekOp(closer) {
			p.pos++
			return elems, trailing
		}

		elems = append(elems, p.parseExpr())
		trailing = false

		if p.peekOp(",") {
			p.pos++
			trailing = true

			continue
		}

		if !p.peekOp(closer) {
			// stray ':' or '=' inside a display; keep going past it
			p.pos++
		}
	}

	return elems, trailing
}

func (p *exprParser) parseArgs(call *Expr) {
	for p.pos < len(p.toks) {
		if p.peekOp(")") {
			p.pos++
			return
		}

		t := p.toks[p.pos]

		switch {
		case t.kind == tokOp && (t.text == "*" || t.text == "**"):
			p.pos++
			p.skipExpr(false)
		case t.kind == tokName && p.pos+1 < len(p.toks) &&
			p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "=":
			p.pos += 2
			call.Kwargs = append(call.Kwargs, Kwarg{Name: t.text, Value: p.parseExpr()})
		default:
			call.Args = append(call.Args, p.parseExpr())
		}

		if p.peekOp(",") {
			p.pos++
			continue
		}

		if !p.peekOp(")") && p.pos < len(p.toks) {
			p.pos++
		}
	}
}

// joinTokens rebuilds single-line source text from tokens.
func joinTokens(toks []token) string {
	var b strings.Builder

	for i, t := range toks {
		text := t.text
		if t.kind == tokString {
			text = strconv.Quote(t.text)
		}

		if i > 0 && needsSpace(toks[i-1], t) {
			b.WriteByte(' ')
		}

		b.WriteString(text)
	}

	return b.String()
}

func needsSpace(prev, cur token) bool {
	if prev.kind == tokOp {
		return prev.text == "," || prev.text == ":"
	}

	return cur.kind != tokOp
}
