package pysrc

import (
	"fmt"
	"strings"
	"unicode"

	"ninja-orval-forge/internal/diagnostic"
)

type tokenKind int

const (
	tokName tokenKind = iota
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string // source text; for strings the decoded value
	line int
}

// logicalLine is one statement line after bracket and backslash joining.
type logicalLine struct {
	line   int
	indent int
	toks   []token
}

var multiOps = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", "==", "!=", "<=", ">=", "**", "//", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", ":=", "<<", ">>",
}

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

type lexer struct {
	file  string
	src   string
	pos   int
	line  int
	lines []logicalLine
	cur   *logicalLine
	open  []openBracket
}

type openBracket struct {
	ch   byte
	line int
}

func lex(file, src string) ([]logicalLine, error) {
	l := &lexer{file: file, src: src, line: 1}
	if err := l.run(); err != nil {
		return nil, err
	}

	return l.lines, nil
}

func (l *lexer) errorf(line int, format string, args ...any) error {
	return &diagnostic.ParseError{File: l.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) run() error {
	lineStart := 0

	for l.pos < len(l.src) {
		c := l.src[l.pos]

		switch {
		case c == '\n':
			l.pos++
			l.line++
			lineStart = l.pos

			if len(l.open) == 0 {
				l.endLine()
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '\\':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
				l.pos += 2
				l.line++
				lineStart = l.pos

				continue
			}

			if l.pos+2 < len(l.src) && l.src[l.pos+1] == '\r' && l.src[l.pos+2] == '\n' {
				l.pos += 3
				l.line++
				lineStart = l.pos

				continue
			}

			return l.errorf(l.line, "unexpected character after line continuation character")
		case c == '"' || c == '\'':
			l.startToken(lineStart)

			if err := l.lexString(""); err != nil {
				return err
			}
		case isIdentStart(rune(c)) || c >= 0x80:
			l.startToken(lineStart)

			start := l.pos
			for l.pos < len(l.src) && (isIdentPart(rune(l.src[l.pos])) || l.src[l.pos] >= 0x80) {
				l.pos++
			}

			word := l.src[start:l.pos]
			if l.pos < len(l.src) && (l.src[l.pos] == '"' || l.src[l.pos] == '\'') && isStringPrefix(word) {
				if err := l.lexString(word); err != nil {
					return err
				}

				continue
			}

			l.emit(tokName, word)
		case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
			l.startToken(lineStart)
			l.lexNumber()
		default:
			l.startToken(lineStart)

			if err := l.lexOp(); err != nil {
				return err
			}
		}
	}

	if len(l.open) > 0 {
		top := l.open[len(l.open)-1]
		return l.errorf(top.line, "'%c' was never closed", top.ch)
	}

	l.endLine()

	return nil
}

// startToken opens a logical line when the token is its first.
func (l *lexer) startToken(lineStart int) {
	if l.cur != nil {
		return
	}

	l.cur = &logicalLine{line: l.line, indent: visualColumn(l.src[lineStart:l.pos])}
}

func (l *lexer) emit(kind tokenKind, text string) {
	l.cur.toks = append(l.cur.toks, token{kind: kind, text: text, line: l.line})
}

func (l *lexer) endLine() {
	if l.cur != nil && len(l.cur.toks) > 0 {
		l.lines = append(l.lines, *l.cur)
	}

	l.cur = nil
}

func (l *lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]

		isExpSign := (c == '+' || c == '-') && l.pos > start &&
			(l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E') &&
			!strings.HasPrefix(strings.ToLower(l.src[start:l.pos]), "0x")
		if !isIdentPart(rune(c)) && c != '.' && !isExpSign {
			break
		}

		l.pos++
	}

	l.emit(tokNumber, l.src[start:l.pos])
}

func (l *lexer) lexOp() error {
	for _, op := range multiOps {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			l.emit(tokOp, op)

			return nil
		}
	}

	c := l.src[l.pos]

	switch c {
	case '(', '[', '{':
		l.open = append(l.open, openBracket{ch: c, line: l.line})
	case ')', ']', '}':
		if len(l.open) == 0 {
			return l.errorf(l.line, "unmatched '%c'", c)
		}

		top := l.open[len(l.open)-1]
		if top.ch != closers[c] {
			return l.errorf(l.line, "closing '%c' does not match '%c' opened on line %d", c, top.ch, top.line)
		}

		l.open = l.open[:len(l.open)-1]
	}

	if !strings.ContainsRune("()[]{},:.;@=+-*/%<>&|^~!", rune(c)) {
		return l.errorf(l.line, "invalid character %q", c)
	}

	l.pos++
	l.emit(tokOp, string(c))

	return nil
}

func (l *lexer) lexString(prefix string) error {
	startLine := l.line
	quote := l.src[l.pos]
	triple := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(quote), 3))
	raw := strings.ContainsAny(prefix, "rR")

	delim := string(quote)
	if triple {
		delim = strings.Repeat(delim, 3)
	}

	l.pos += len(delim)

	var b strings.Builder

	for {
		if l.pos >= len(l.src) {
			if triple {
				return l.errorf(startLine, "unterminated triple-quoted string literal")
			}

			return l.errorf(startLine, "unterminated string literal")
		}

		if strings.HasPrefix(l.src[l.pos:], delim) {
			l.pos += len(delim)
			break
		}

		c := l.src[l.pos]

		switch {
		case c == '\n':
			if !triple {
				return l.errorf(startLine, "unterminated string literal")
			}

			l.line++
			b.WriteByte(c)
			l.pos++
		case c == '\\' && l.pos+1 < len(l.src):
			next := l.src[l.pos+1]
			if next == '\n' {
				l.line++
			}

			if raw {
				b.WriteByte(c)
				b.WriteByte(next)
			} else {
				b.WriteString(unescape(next))
			}

			l.pos += 2
		default:
			b.WriteByte(c)
			l.pos++
		}
	}

	l.emit(tokString, b.String())

	return nil
}

func unescape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case '\\', '\'', '"':
		return string(c)
	case '\n':
		return ""
	default:
		return "\\" + string(c)
	}
}

func isStringPrefix(word string) bool {
	if len(word) > 2 {
		return false
	}

	for _, r := range strings.ToLower(word) {
		if !strings.ContainsRune("rbuf", r) {
			return false
		}
	}

	return true
}

// visualColumn expands tabs to the next multiple of eight.
func visualColumn(prefix string) int {
	col := 0

	for _, r := range prefix {
		switch r {
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			col++
		}
	}

	return col
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
