// Package emit writes forwarding modules into the routing directory.
package emit

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/routemap/internal/logging"
)

// IndexName is the base name of every forwarding module.
const IndexName = "index"

var sourceExt = regexp.MustCompile(`\.[jt]sx?$`)

// Emitter writes forwarding modules. Paths are relative to the root of FS,
// which is the project base directory.
type Emitter struct {
	FS        billy.Filesystem
	PagesDir  string
	Extension string
	Logger    logging.Logger
}

// New returns an Emitter writing modules with extension ext under pagesDir.
func New(fs billy.Filesystem, pagesDir, ext string, logger logging.Logger) *Emitter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Emitter{FS: fs, PagesDir: pagesDir, Extension: ext, Logger: logger}
}

// Destination returns the forwarding module path for urlPath:
// <PagesDir>/<urlPath>/index.<ext>.
func (e *Emitter) Destination(urlPath string) string {
	return filepath.Join(e.PagesDir, urlPath, IndexName+"."+e.Extension)
}

// Emit writes the forwarding module for urlPath re-exporting names from
// sourcePath. An existing file at the destination is overwritten.
func (e *Emitter) Emit(urlPath string, names []string, sourcePath string) error {
	dest := e.Destination(urlPath)
	dir := filepath.Dir(dest)

	content := Render(names, ImportPath(dir, sourcePath))
	if err := e.FS.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := util.WriteFile(e.FS, dest, []byte(content), 0o644); err != nil {
		return err
	}

	e.Logger.Info("created page module for %s", urlPath)
	return nil
}

// ImportPath returns the module specifier that resolves sourcePath from
// fromDir, using forward slashes and without a script extension.
func ImportPath(fromDir, sourcePath string) string {
	rel, err := filepath.Rel(fromDir, sourcePath)
	if err != nil {
		// both paths share the filesystem root, so Rel only fails on
		// mixed absolute/relative input
		rel = sourcePath
	}
	rel = sourceExt.ReplaceAllString(filepath.ToSlash(rel), "")
	if !strings.HasPrefix(rel, "../") && !strings.HasPrefix(rel, "./") {
		rel = "./" + rel
	}
	return rel
}

// Render returns the forwarding module body.
func Render(names []string, importPath string) string {
	return fmt.Sprintf("export { %s } from '%s'\n", strings.Join(names, ", "), importPath)
}
