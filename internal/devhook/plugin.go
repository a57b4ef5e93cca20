// Package devhook runs the route-map builder from a development build
// pipeline: once when the pipeline initializes and, optionally, again
// whenever the configuration or a page module changes.
package devhook

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentic-research/routemap/api"
	"github.com/agentic-research/routemap/internal/builder"
	"github.com/agentic-research/routemap/internal/config"
	"github.com/agentic-research/routemap/internal/logging"
)

const (
	// ModeDevelopment is the only pipeline mode the plugin builds in.
	ModeDevelopment = "development"
	// TargetClient is the build target the plugin attaches to. Pipelines
	// that compile several targets together build once, for this one.
	TargetClient = "client"

	pluginName = "RouteMapDevPlugin"
)

// Compiler is the build pipeline a Plugin attaches to.
type Compiler interface {
	Mode() string
	Name() string
	// OnInitialize registers fn to run when the pipeline initializes.
	OnInitialize(name string, fn func())
}

// PluginOptions are builder options plus the configuration file to read
// them from. Non-zero options override the file.
type PluginOptions struct {
	api.Options
	ConfigPath string
}

// Plugin builds the route map on pipeline initialization.
type Plugin struct {
	mu       sync.Mutex
	opts     PluginOptions
	resolved api.Options
	out      io.Writer
	builder  *builder.RouteMapBuilder
	logger   logging.Logger
}

// NewPlugin resolves options and prepares a builder. A configuration file
// that cannot be loaded is treated as empty.
func NewPlugin(opts PluginOptions, out io.Writer) (*Plugin, error) {
	if out == nil {
		out = os.Stderr
	}
	p := &Plugin{opts: opts, out: out}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the configuration file and replaces the builder.
func (p *Plugin) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	resolved := safeConfig(p.opts.ConfigPath).Merge(p.opts.Options)
	logger := logging.Wrap(logging.Named(resolved.Logger, p.out))
	b, err := builder.New(resolved, logger)
	if err != nil {
		return err
	}
	p.resolved = resolved
	p.builder = b
	p.logger = logger
	return nil
}

func safeConfig(path string) api.Options {
	opts, err := config.Load(path)
	if err != nil {
		return api.Options{}
	}
	return opts
}

// Apply attaches the plugin to c. It does nothing outside development mode
// or for targets other than TargetClient.
func (p *Plugin) Apply(c Compiler) {
	if c.Mode() != ModeDevelopment {
		return
	}
	if c.Name() != TargetClient {
		return
	}
	c.OnInitialize(pluginName, func() {
		if err := p.Build(); err != nil {
			p.logger.Error("%v", err)
		}
	})
}

// Build runs one build with the current builder. Builds never overlap.
func (p *Plugin) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.builder.Build()
}

// Rebuild handles changes to paths. When any of them is the configuration
// file the options are reloaded first; otherwise only a build runs.
func (p *Plugin) Rebuild(paths ...string) error {
	for _, path := range paths {
		if p.IsConfig(path) {
			if err := p.Reload(); err != nil {
				return err
			}
			break
		}
	}
	return p.Build()
}

// WatchPaths returns the files whose changes should trigger a rebuild: the
// configuration file and every route target of the current options.
func (p *Plugin) WatchPaths() []string {
	var paths []string
	if p.opts.ConfigPath != "" {
		if abs, err := filepath.Abs(p.opts.ConfigPath); err == nil {
			paths = append(paths, abs)
		}
	} else if abs, err := filepath.Abs(config.DefaultFile); err == nil {
		paths = append(paths, abs)
	}
	p.mu.Lock()
	baseDir := p.builder.BaseDir()
	routes := p.resolved.Routes
	p.mu.Unlock()
	for _, urlPath := range routes.URLPaths() {
		paths = append(paths, filepath.Join(baseDir, routes[urlPath]))
	}
	return paths
}

// IsConfig reports whether path is the plugin's configuration file.
func (p *Plugin) IsConfig(path string) bool {
	cfg := p.opts.ConfigPath
	if cfg == "" {
		cfg = config.DefaultFile
	}
	abs, err := filepath.Abs(cfg)
	return err == nil && abs == path
}
