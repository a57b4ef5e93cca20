// Package builder generates the forwarding modules of a route map.
package builder

import (
	"os"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/routemap/api"
	"github.com/agentic-research/routemap/internal/emit"
	"github.com/agentic-research/routemap/internal/extract"
	"github.com/agentic-research/routemap/internal/logging"
	"github.com/agentic-research/routemap/internal/reconcile"
)

// RouteMapBuilder cleans the routing directory and writes one forwarding
// module per route. A builder must not run two builds at once.
type RouteMapBuilder struct {
	fs            billy.Filesystem
	base          string // base directory, relative to the root of fs
	baseDir       string
	pagesDir      string
	routes        api.RouteTable
	preservePaths []string
	logger        logging.Logger
	emitter       *emit.Emitter
}

// New returns a builder working on the local disk for opts.BaseDir (or the
// working directory when empty). Route targets and the routing directory may
// lie outside the base directory; the filesystem is rooted at the deepest
// directory containing all of them.
func New(opts api.Options, logger logging.Logger) (*RouteMapBuilder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		baseDir = wd
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	opts.BaseDir = abs

	root := commonDir(abs, filepath.Join(abs, opts.PagesDir))
	for _, target := range opts.Routes {
		root = commonDir(root, filepath.Dir(filepath.Join(abs, target)))
	}
	base, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, err
	}
	return newBuilder(osfs.New(root), base, opts, logger)
}

// commonDir returns the deepest directory containing both a and b.
func commonDir(a, b string) string {
	for !within(a, b) {
		parent := filepath.Dir(a)
		if parent == a {
			break
		}
		a = parent
	}
	return a
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// NewWithFilesystem returns a builder whose base directory is the root of
// fs. opts.BaseDir is informational only.
func NewWithFilesystem(fs billy.Filesystem, opts api.Options, logger logging.Logger) (*RouteMapBuilder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newBuilder(fs, ".", opts, logger)
}

func newBuilder(fs billy.Filesystem, base string, opts api.Options, logger logging.Logger) (*RouteMapBuilder, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	pagesDir := filepath.Join(base, opts.PagesDir)
	return &RouteMapBuilder{
		fs:            fs,
		base:          base,
		baseDir:       opts.BaseDir,
		pagesDir:      pagesDir,
		routes:        opts.Routes,
		preservePaths: opts.PreservePaths,
		logger:        logger,
		emitter:       emit.New(fs, pagesDir, opts.ModuleExtension(), logger),
	}, nil
}

// BaseDir returns the absolute base directory, if known.
func (b *RouteMapBuilder) BaseDir() string { return b.baseDir }

// PagesDir returns the routing directory relative to the base directory.
func (b *RouteMapBuilder) PagesDir() string {
	rel, err := filepath.Rel(b.base, b.pagesDir)
	if err != nil {
		return b.pagesDir
	}
	return rel
}

// Build cleans the routing directory, then emits every forwarding module
// concurrently. It returns the first error once all routes have finished.
// Cleaning is not rolled back when emission fails.
func (b *RouteMapBuilder) Build() error {
	if err := b.cleanPagesDir(); err != nil {
		return err
	}
	return b.createForwardingModules()
}

func (b *RouteMapBuilder) cleanPagesDir() error {
	return reconcile.Clean(b.fs, b.pagesDir, b.preservePaths, b.logger)
}

func (b *RouteMapBuilder) createForwardingModules() error {
	var g errgroup.Group
	for _, urlPath := range b.routes.URLPaths() {
		filePath := b.routes[urlPath]
		g.Go(func() error {
			return b.createForwardingModule(urlPath, filePath)
		})
	}
	return g.Wait()
}

func (b *RouteMapBuilder) createForwardingModule(urlPath, filePath string) error {
	sourcePath := filepath.Join(b.base, filePath)
	content, err := util.ReadFile(b.fs, sourcePath)
	if err != nil {
		return err
	}

	mod, err := extract.Parse(content, sourcePath)
	if err != nil {
		return err
	}
	for _, d := range mod.Diagnostics() {
		b.logger.Warn("%s", d.Error())
	}

	names := mod.Exports()
	if len(names) == 0 {
		return nil
	}
	return b.emitter.Emit(urlPath, names, sourcePath)
}
