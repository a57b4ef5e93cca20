// Package extract finds the exports of a page module that a forwarding
// module has to re-export.
//
// Only top-level export statements are inspected. Exported function
// declarations contribute their name; exported variable statements
// contribute every plain identifier they bind. Destructuring patterns,
// export clauses (export { a }) and re-exports contribute nothing.
package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultExport is the alias under which a module's default export is forwarded.
const DefaultExport = "default"

// DataHooks are the data-fetching exports the framework reads statically
// from page modules. Any other named export must not be forwarded.
var DataHooks = map[string]bool{
	"getStaticProps":     true,
	"getStaticPaths":     true,
	"getServerSideProps": true,
}

// Module is a parsed page module.
type Module struct {
	Path     string
	Language string

	source []byte
	root   *sitter.Node
}

// Parse parses source with the grammar matching path's extension.
// Tree-sitter recovers from syntax errors, so a malformed file still yields
// a Module; see Diagnostics.
func Parse(source []byte, path string) (*Module, error) {
	name, lang := DetectLanguage(path)

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", path, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root for %s", path)
	}
	return &Module{Path: path, Language: name, source: source, root: root}, nil
}

// Exports parses source and returns the names to forward: DefaultExport
// first, then the exported data hooks in declaration order.
func Exports(source []byte, path string) ([]string, error) {
	m, err := Parse(source, path)
	if err != nil {
		return nil, err
	}
	return m.Exports(), nil
}

// Exports returns DefaultExport followed by every exported data hook, in
// declaration order. The default alias is included whether or not the
// module declares a default export; a missing one is the framework
// compiler's error to report.
func (m *Module) Exports() []string {
	names := []string{DefaultExport}
	seen := map[string]bool{DefaultExport: true}
	for _, name := range m.ExportedNames() {
		if !DataHooks[name] || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// ExportedNames returns the names of all exported top-level function and
// variable declarations in file order, unfiltered.
func (m *Module) ExportedNames() []string {
	var names []string
	count := int(m.root.NamedChildCount())
	for i := 0; i < count; i++ {
		stmt := m.root.NamedChild(i)
		if stmt == nil || stmt.Type() != "export_statement" || isDefaultExport(stmt) {
			continue
		}
		decl := stmt.ChildByFieldName("declaration")
		if decl == nil {
			continue
		}
		names = append(names, m.declaredNames(decl)...)
	}
	return names
}

func (m *Module) declaredNames(decl *sitter.Node) []string {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			return []string{name.Content(m.source)}
		}
	case "lexical_declaration", "variable_declaration":
		var names []string
		count := int(decl.NamedChildCount())
		for i := 0; i < count; i++ {
			d := decl.NamedChild(i)
			if d == nil || d.Type() != "variable_declarator" {
				continue
			}
			// object_pattern and array_pattern bind nothing we forward
			if name := d.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				names = append(names, name.Content(m.source))
			}
		}
		return names
	}
	return nil
}

// isDefaultExport reports whether stmt is `export default ...`.
func isDefaultExport(stmt *sitter.Node) bool {
	count := int(stmt.ChildCount())
	for i := 0; i < count; i++ {
		if c := stmt.Child(i); c != nil && !c.IsNamed() && c.Type() == "default" {
			return true
		}
	}
	return false
}
