package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// consoleRef is the value of the identifier `console` in a script config.
type consoleRef struct{}

// evalScript finds the exported configuration object of a CommonJS or ES
// module script and evaluates it without running any code.
func evalScript(content []byte, path, dir string) (any, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		line := 0
		if n := firstError(root); n != nil {
			line = int(n.StartPoint().Row) + 1
		}
		return nil, &Error{Path: path, Line: line, Message: "syntax error"}
	}

	ev := &evaluator{
		src:       content,
		path:      path,
		dir:       dir,
		bindings:  make(map[string]*sitter.Node),
		resolving: make(map[string]bool),
	}

	var exported *sitter.Node
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "lexical_declaration", "variable_declaration":
			ev.bind(stmt)
		case "expression_statement":
			expr := stmt.NamedChild(0)
			if expr == nil || expr.Type() != "assignment_expression" {
				continue
			}
			left := expr.ChildByFieldName("left")
			if left != nil && ev.text(left) == "module.exports" {
				exported = expr.ChildByFieldName("right")
			}
		case "export_statement":
			if v := stmt.ChildByFieldName("value"); v != nil {
				exported = v
			}
		}
	}
	if exported == nil {
		return nil, &Error{Path: path, Message: "no module.exports assignment or default export"}
	}
	return ev.eval(exported)
}

type evaluator struct {
	src       []byte
	path      string
	dir       string
	bindings  map[string]*sitter.Node
	resolving map[string]bool
}

func (ev *evaluator) text(n *sitter.Node) string {
	return n.Content(ev.src)
}

func (ev *evaluator) errorf(n *sitter.Node, format string, args ...any) error {
	return &Error{Path: ev.path, Line: int(n.StartPoint().Row) + 1, Message: fmt.Sprintf(format, args...)}
}

// bind records top-level declarations. Values are evaluated on first use,
// so unused bindings such as `const path = require('path')` are harmless.
func (ev *evaluator) bind(decl *sitter.Node) {
	count := int(decl.NamedChildCount())
	for i := 0; i < count; i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		value := d.ChildByFieldName("value")
		if name != nil && value != nil && name.Type() == "identifier" {
			ev.bindings[ev.text(name)] = value
		}
	}
}

func (ev *evaluator) eval(n *sitter.Node) (any, error) {
	switch n.Type() {
	case "object":
		return ev.object(n)
	case "array":
		var out []any
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			c := n.NamedChild(i)
			if c.Type() == "comment" {
				continue
			}
			v, err := ev.eval(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case "string":
		return ev.quoted(n, nil)
	case "template_string":
		return ev.quoted(n, ev.substitute)
	case "number":
		f, err := strconv.ParseFloat(strings.ReplaceAll(ev.text(n), "_", ""), 64)
		if err != nil {
			return nil, ev.errorf(n, "invalid number %s", ev.text(n))
		}
		return f, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "identifier":
		return ev.identifier(n)
	case "parenthesized_expression":
		return ev.eval(n.NamedChild(0))
	case "binary_expression":
		return ev.binary(n)
	case "call_expression":
		return ev.call(n)
	default:
		return nil, ev.errorf(n, "unsupported expression %q", ev.text(n))
	}
}

func (ev *evaluator) object(n *sitter.Node) (any, error) {
	out := make(map[string]any)
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "comment":
		case "pair":
			key, err := ev.key(c.ChildByFieldName("key"))
			if err != nil {
				return nil, err
			}
			v, err := ev.eval(c.ChildByFieldName("value"))
			if err != nil {
				return nil, err
			}
			out[key] = v
		case "shorthand_property_identifier":
			v, err := ev.lookup(c, ev.text(c))
			if err != nil {
				return nil, err
			}
			out[ev.text(c)] = v
		default:
			return nil, ev.errorf(c, "unsupported object member %q", ev.text(c))
		}
	}
	return out, nil
}

func (ev *evaluator) key(n *sitter.Node) (string, error) {
	switch n.Type() {
	case "property_identifier", "number":
		return ev.text(n), nil
	case "string":
		v, err := ev.quoted(n, nil)
		if err != nil {
			return "", err
		}
		return v.(string), nil
	default:
		return "", ev.errorf(n, "unsupported property key %q", ev.text(n))
	}
}

func (ev *evaluator) identifier(n *sitter.Node) (any, error) {
	return ev.lookup(n, ev.text(n))
}

func (ev *evaluator) lookup(at *sitter.Node, name string) (any, error) {
	switch name {
	case "__dirname":
		return ev.dir, nil
	case "undefined":
		return nil, nil
	case "console":
		return consoleRef{}, nil
	}
	value, ok := ev.bindings[name]
	if !ok {
		return nil, ev.errorf(at, "undefined identifier %s", name)
	}
	if ev.resolving[name] {
		return nil, ev.errorf(at, "circular reference to %s", name)
	}
	ev.resolving[name] = true
	defer delete(ev.resolving, name)
	return ev.eval(value)
}

func (ev *evaluator) binary(n *sitter.Node) (any, error) {
	op := n.ChildByFieldName("operator")
	if op == nil || ev.text(op) != "+" {
		return nil, ev.errorf(n, "unsupported expression %q", ev.text(n))
	}
	left, err := ev.eval(n.ChildByFieldName("left"))
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}
	lf, lok := left.(float64)
	rf, rok := right.(float64)
	if lok && rok {
		return lf + rf, nil
	}
	return stringify(left) + stringify(right), nil
}

func (ev *evaluator) call(n *sitter.Node) (any, error) {
	callee := ev.text(n.ChildByFieldName("function"))

	var args []string
	if argList := n.ChildByFieldName("arguments"); argList != nil {
		count := int(argList.NamedChildCount())
		for i := 0; i < count; i++ {
			v, err := ev.eval(argList.NamedChild(i))
			if err != nil {
				return nil, err
			}
			s, ok := v.(string)
			if !ok {
				return nil, ev.errorf(n, "%s expects string arguments", callee)
			}
			args = append(args, s)
		}
	}

	switch callee {
	case "path.join":
		return filepath.Join(args...), nil
	case "path.resolve":
		resolved := ""
		for _, a := range args {
			if filepath.IsAbs(a) {
				resolved = a
			} else {
				resolved = filepath.Join(resolved, a)
			}
		}
		if !filepath.IsAbs(resolved) {
			wd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			resolved = filepath.Join(wd, resolved)
		}
		return resolved, nil
	case "process.cwd":
		return os.Getwd()
	default:
		return nil, ev.errorf(n, "unsupported call %s", callee)
	}
}

// quoted evaluates a string or template literal by copying the source
// between the delimiters, decoding escape sequences and, for templates,
// replacing ${...} substitutions.
func (ev *evaluator) quoted(n *sitter.Node, sub func(*sitter.Node) (string, error)) (any, error) {
	var b strings.Builder
	cursor := n.StartByte() + 1
	end := n.EndByte() - 1

	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		var repl string
		switch c.Type() {
		case "escape_sequence":
			repl = unescape(ev.text(c))
		case "template_substitution":
			if sub == nil {
				continue
			}
			s, err := sub(c)
			if err != nil {
				return nil, err
			}
			repl = s
		default:
			continue
		}
		b.Write(ev.src[cursor:c.StartByte()])
		b.WriteString(repl)
		cursor = c.EndByte()
	}
	if cursor < end {
		b.Write(ev.src[cursor:end])
	}
	return b.String(), nil
}

func (ev *evaluator) substitute(n *sitter.Node) (string, error) {
	expr := n.NamedChild(0)
	if expr == nil {
		return "", nil
	}
	v, err := ev.eval(expr)
	if err != nil {
		return "", err
	}
	return stringify(v), nil
}

func unescape(seq string) string {
	switch seq {
	case `\'`:
		return "'"
	case "\\`":
		return "`"
	}
	if s, err := strconv.Unquote(`"` + seq + `"`); err == nil {
		return s
	}
	return strings.TrimPrefix(seq, `\`)
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// firstError does a depth-first search for the first ERROR node.
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := firstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}
