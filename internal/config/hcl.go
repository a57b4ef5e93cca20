package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"

	"github.com/agentic-research/routemap/api"
)

// hclFile is the HCL shape of api.Options:
//
//	base_dir       = dirname
//	pages_dir      = "./src/pages"
//	routes         = { "/" = "./src/home/HomePage.tsx" }
//	preserve_paths = ["/ping.ts", "/api"]
//	logger         = "console"
type hclFile struct {
	BaseDir       string            `hcl:"base_dir,optional"`
	PagesDir      string            `hcl:"pages_dir,optional"`
	Routes        map[string]string `hcl:"routes,optional"`
	PreservePaths []string          `hcl:"preserve_paths,optional"`
	Extension     string            `hcl:"extension,optional"`
	Logger        string            `hcl:"logger,optional"`
}

func parseHCL(content []byte, path, dir string) (api.Options, error) {
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"dirname": cty.StringVal(dir),
		},
	}

	var f hclFile
	if err := hclsimple.Decode(path, content, ctx, &f); err != nil {
		return api.Options{}, err
	}

	opts := api.Options{
		BaseDir:       f.BaseDir,
		PagesDir:      f.PagesDir,
		PreservePaths: f.PreservePaths,
		Extension:     f.Extension,
		Logger:        f.Logger,
	}
	if f.Routes != nil {
		opts.Routes = api.RouteTable(f.Routes)
	}
	return opts, nil
}
