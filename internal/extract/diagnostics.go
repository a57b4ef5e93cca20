package extract

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError locates an ERROR or MISSING node in a parsed module.
type SyntaxError struct {
	Path    string
	Line    uint32 // 0-indexed
	Column  uint32 // 0-indexed
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line+1, e.Column+1, e.Message)
}

// Diagnostics returns every syntax error tree-sitter recovered from, in
// source order. Exports of a module with diagnostics may be incomplete.
func (m *Module) Diagnostics() []SyntaxError {
	if !m.root.HasError() {
		return nil
	}
	var diags []SyntaxError
	stack := []*sitter.Node{m.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case n.IsMissing():
			diags = append(diags, m.syntaxError(n, "expected "+describe(n)))
		case n.IsError():
			diags = append(diags, m.syntaxError(n, unexpected(n)))
		default:
			// push in reverse so the first child is visited first
			for i := int(n.ChildCount()) - 1; i >= 0; i-- {
				if c := n.Child(i); c != nil && (c.HasError() || c.IsMissing()) {
					stack = append(stack, c)
				}
			}
		}
	}
	return diags
}

func (m *Module) syntaxError(n *sitter.Node, msg string) SyntaxError {
	start := n.StartPoint()
	return SyntaxError{Path: m.Path, Line: start.Row, Column: start.Column, Message: msg}
}

// unexpected names what an ERROR node starts with.
func unexpected(n *sitter.Node) string {
	if n.ChildCount() == 0 {
		return "unexpected input"
	}
	return "unexpected " + describe(n.Child(0))
}

// describe renders a node kind: named kinds bare, tokens quoted.
func describe(n *sitter.Node) string {
	if n.IsNamed() {
		return n.Type()
	}
	return fmt.Sprintf("%q", n.Type())
}
