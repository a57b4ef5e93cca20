package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrPagesDirRequired     = errors.New("pagesDir is required")
	ErrRoutesRequired       = errors.New("routes is required")
	ErrUnsupportedExtension = errors.New("unsupported module extension")
	ErrRouteEscapesPages    = errors.New("route path escapes pagesDir")
)

// DefaultExtension is the file extension of generated forwarding modules.
const DefaultExtension = "ts"

// RouteTable maps a URL path pattern (e.g. "/users/[username]") to the
// implementation file that serves it, relative to the base directory.
type RouteTable map[string]string

// URLPaths returns the route keys in a stable order.
func (r RouteTable) URLPaths() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options configures a route-map build.
type Options struct {
	// BaseDir is the project directory. Defaults to the working directory.
	BaseDir string `json:"baseDir,omitempty" yaml:"baseDir,omitempty"`
	// PagesDir is the routing directory, relative to BaseDir.
	PagesDir string `json:"pagesDir" yaml:"pagesDir"`
	// Routes is the route map.
	Routes RouteTable `json:"routes" yaml:"routes"`
	// PreservePaths are paths under PagesDir that survive cleaning,
	// e.g. ["/ping.ts", "/api"].
	PreservePaths []string `json:"preservePaths,omitempty" yaml:"preservePaths,omitempty"`
	// Extension of generated modules without the dot. Defaults to "ts".
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	// Logger names the log sink. Only "console" is recognized; empty is silent.
	Logger string `json:"logger,omitempty" yaml:"logger,omitempty"`
}

// Validate reports configuration errors that must stop a build before it starts.
func (o Options) Validate() error {
	if o.PagesDir == "" {
		return ErrPagesDirRequired
	}
	if o.Routes == nil {
		return ErrRoutesRequired
	}
	switch o.Extension {
	case "", "ts", "tsx", "js", "jsx":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, o.Extension)
	}
	for _, urlPath := range o.Routes.URLPaths() {
		if escapes(urlPath) {
			return fmt.Errorf("%w: %q", ErrRouteEscapesPages, urlPath)
		}
	}
	return nil
}

// escapes reports whether urlPath, joined under the routing directory,
// resolves outside of it.
func escapes(urlPath string) bool {
	rel := filepath.ToSlash(filepath.Join(".", urlPath))
	return rel == ".." || strings.HasPrefix(rel, "../")
}

// ModuleExtension returns the configured extension, falling back to the default.
func (o Options) ModuleExtension() string {
	if o.Extension == "" {
		return DefaultExtension
	}
	return o.Extension
}

// Merge returns o with every non-zero field of override applied on top.
func (o Options) Merge(override Options) Options {
	if override.BaseDir != "" {
		o.BaseDir = override.BaseDir
	}
	if override.PagesDir != "" {
		o.PagesDir = override.PagesDir
	}
	if override.Routes != nil {
		o.Routes = override.Routes
	}
	if override.PreservePaths != nil {
		o.PreservePaths = override.PreservePaths
	}
	if override.Extension != "" {
		o.Extension = override.Extension
	}
	if override.Logger != "" {
		o.Logger = override.Logger
	}
	return o
}
