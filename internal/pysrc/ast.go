package pysrc

import (
	"slices"

	"ninja-orval-forge/internal/common"
)

// StmtKind classifies a statement.
type StmtKind int

const (
	StmtOther StmtKind = iota
	StmtExpr
	StmtAssign
	StmtClass
	StmtFunc
	StmtCompound
)

func (k StmtKind) String() string {
	switch k {
	case StmtOther:
		return "other"
	case StmtExpr:
		return "expr"
	case StmtAssign:
		return "assign"
	case StmtClass:
		return "class"
	case StmtFunc:
		return "func"
	case StmtCompound:
		return "compound"
	default:
		return common.UnknownStr
	}
}

// Stmt is one statement. Exactly one of Class, Func, Assign or Expr is set
// for the matching kinds.
type Stmt struct {
	Kind StmtKind
	Line int
	// Keyword is the leading keyword of a compound or other statement.
	Keyword string
	Class   *Class
	Func    *Func
	Assign  *Assign
	Expr    *Expr
	// Body holds the suite of compound statements.
	Body []Stmt
}

// Module is one parsed source file.
type Module struct {
	File string
	Body []Stmt
}

// Class is a class definition.
type Class struct {
	Name       string
	Bases      []*Expr
	Decorators []*Expr
	Doc        string
	Line       int
	Body       []Stmt
}

// Func is a function definition. Its body is parsed but rarely inspected.
type Func struct {
	Name       string
	Decorators []*Expr
	Line       int
	Body       []Stmt
}

// Assign is "target = value" or "target: annotation = value".
type Assign struct {
	Target     string
	Annotation *Expr
	Value      *Expr
	Line       int
}

// Classes returns the top-level class definitions in source order.
func (m *Module) Classes() []*Class {
	return classesIn(m.Body)
}

// Class returns the top-level class with the given name.
func (m *Module) Class(name string) (*Class, bool) {
	return findClass(m.Body, name)
}

// Assign returns the last top-level assignment to name.
func (m *Module) Assign(name string) (*Assign, bool) {
	return findAssign(m.Body, name)
}

// BaseNames returns the dotted base class names. Bases that are not plain
// names keep their raw text.
func (c *Class) BaseNames() []string {
	out := make([]string, len(c.Bases))
	for i, b := range c.Bases {
		if d := b.Dotted(); d != "" {
			out[i] = d
		} else {
			out[i] = b.Raw
		}
	}

	return out
}

// HasBase reports whether any base ends in one of names, so both
// "ModelViewSet" and "viewsets.ModelViewSet" match "ModelViewSet".
func (c *Class) HasBase(names ...string) bool {
	for _, b := range c.BaseNames() {
		if slices.Contains(names, common.LastSegment(b)) {
			return true
		}
	}

	return false
}

// Assigns returns the assignments directly in the class body.
func (c *Class) Assigns() []*Assign {
	var out []*Assign

	for _, s := range c.Body {
		if s.Kind == StmtAssign {
			out = append(out, s.Assign)
		}
	}

	return out
}

// Assign returns the last assignment to name directly in the class body.
func (c *Class) Assign(name string) (*Assign, bool) {
	return findAssign(c.Body, name)
}

// Class returns a nested class such as Meta.
func (c *Class) Class(name string) (*Class, bool) {
	return findClass(c.Body, name)
}

// Funcs returns the methods directly in the class body.
func (c *Class) Funcs() []*Func {
	var out []*Func

	for _, s := range c.Body {
		if s.Kind == StmtFunc {
			out = append(out, s.Func)
		}
	}

	return out
}

// Func returns the method with the given name.
func (c *Class) Func(name string) (*Func, bool) {
	for _, f := range c.Funcs() {
		if f.Name == name {
			return f, true
		}
	}

	return nil, false
}

// HasDecorator reports whether the function carries a decorator whose
// dotted name, or called dotted name, ends in name.
func (f *Func) HasDecorator(name string) bool {
	for _, d := range f.Decorators {
		dotted := d.Dotted()
		if d.Kind == ExprCall {
			dotted = d.CallName()
		}

		if common.LastSegment(dotted) == name {
			return true
		}
	}

	return false
}

func classesIn(body []Stmt) []*Class {
	var out []*Class

	for _, s := range body {
		if s.Kind == StmtClass {
			out = append(out, s.Class)
		}
	}

	return out
}

func findClass(body []Stmt, name string) (*Class, bool) {
	for _, c := range classesIn(body) {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

func findAssign(body []Stmt, name string) (*Assign, bool) {
	var found *Assign

	for _, s := range body {
		if s.Kind == StmtAssign && s.Assign.Target == name {
			found = s.Assign
		}
	}

	return found, found != nil
}
