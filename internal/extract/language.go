package extract

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DetectLanguage returns the language name and tree-sitter grammar for a
// page module path. Unknown extensions are parsed as TypeScript.
func DetectLanguage(path string) (name string, lang *sitter.Language) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return "tsx", tsx.GetLanguage()
	case ".js", ".jsx", ".mjs", ".cjs":
		// the javascript grammar accepts JSX
		return "javascript", javascript.GetLanguage()
	default:
		return "typescript", typescript.GetLanguage()
	}
}
