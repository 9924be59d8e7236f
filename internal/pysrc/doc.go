// Package pysrc reads Python source declaratively.
//
// It never executes anything. The lexer joins physical lines into logical
// lines (open brackets and backslash continuations), drops comments and
// understands every string literal form. The parser then builds an
// indentation block tree that keeps only what declarative extraction needs.
//
// Key types:
//   - Module: the top-level statements of one file
//   - Class: name, bases, decorators, docstring and body
//   - Assign: target plus a parsed value expression
//   - Expr: names, calls, attribute chains, literals; anything else is kept raw
package pysrc
