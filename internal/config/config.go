// Package config loads route-map options from a user-authored file.
//
// Supported formats, chosen by extension:
//
//	.js .cjs .mjs  a script exporting an object literal, evaluated statically
//	.json          JSON
//	.yaml .yml     YAML
//	.hcl           HCL, with a "dirname" variable
//
// Script files are never executed. Only literals, top-level const bindings,
// __dirname, path.join, path.resolve and process.cwd() are understood;
// anything else is reported as an error. The file is still trusted input:
// it decides which paths the builder deletes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/routemap/api"
)

// DefaultFile is the configuration file used when none is given.
const DefaultFile = "routes.config.js"

// Error is a configuration error at a known position.
type Error struct {
	Path    string
	Line    int // 1-indexed, 0 when unknown
	Message string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// Load reads the configuration at path. An empty path means DefaultFile.
// A relative baseDir is resolved against the configuration file's directory.
func Load(path string) (api.Options, error) {
	if path == "" {
		path = DefaultFile
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return api.Options{}, err
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return api.Options{}, err
	}

	opts, err := Parse(content, path, dir)
	if err != nil {
		return api.Options{}, err
	}
	if opts.BaseDir != "" && !filepath.IsAbs(opts.BaseDir) {
		opts.BaseDir = filepath.Join(dir, opts.BaseDir)
	}
	return opts, nil
}

// Parse decodes content according to path's extension. dir is the value of
// the directory-context variable (__dirname, dirname).
func Parse(content []byte, path, dir string) (api.Options, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".cjs", ".mjs":
		v, err := evalScript(content, path, dir)
		if err != nil {
			return api.Options{}, err
		}
		return decode(v, path)
	case ".json":
		v, err := oj.ParseString(string(content))
		if err != nil {
			return api.Options{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return decode(v, path)
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(content, &v); err != nil {
			return api.Options{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return decode(v, path)
	case ".hcl":
		return parseHCL(content, path, dir)
	default:
		return api.Options{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// decode maps a generic document onto Options. Unknown keys are ignored so
// a config shared with other tools still loads.
func decode(v any, path string) (api.Options, error) {
	doc, ok := v.(map[string]any)
	if !ok {
		return api.Options{}, &Error{Path: path, Message: fmt.Sprintf("config must be an object, got %T", v)}
	}

	var opts api.Options
	var err error
	str := func(key string) string {
		if err != nil {
			return ""
		}
		raw, ok := doc[key]
		if !ok || raw == nil {
			return ""
		}
		s, ok := raw.(string)
		if !ok {
			err = &Error{Path: path, Message: fmt.Sprintf("%s must be a string, got %T", key, raw)}
		}
		return s
	}

	opts.BaseDir = str("baseDir")
	opts.PagesDir = str("pagesDir")
	opts.Extension = strings.TrimPrefix(str("extension"), ".")
	if err != nil {
		return api.Options{}, err
	}

	if raw, ok := doc["routes"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return api.Options{}, &Error{Path: path, Message: fmt.Sprintf("routes must be an object, got %T", raw)}
		}
		opts.Routes = make(api.RouteTable, len(m))
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				return api.Options{}, &Error{Path: path, Message: fmt.Sprintf("route %q must map to a string, got %T", k, v)}
			}
			opts.Routes[k] = s
		}
	}

	if raw, ok := doc["preservePaths"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return api.Options{}, &Error{Path: path, Message: fmt.Sprintf("preservePaths must be a list, got %T", raw)}
		}
		opts.PreservePaths = make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return api.Options{}, &Error{Path: path, Message: fmt.Sprintf("preservePaths entries must be strings, got %T", item)}
			}
			opts.PreservePaths = append(opts.PreservePaths, s)
		}
	}

	switch l := doc["logger"].(type) {
	case nil:
	case consoleRef:
		opts.Logger = "console"
	case string:
		opts.Logger = l
	default:
		return api.Options{}, &Error{Path: path, Message: fmt.Sprintf("logger must be console, got %T", l)}
	}
	return opts, nil
}
