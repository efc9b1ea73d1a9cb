// Package noderesolve resolves bare import specifiers to files inside
// node_modules, the way Node and browser bundlers look them up.
package noderesolve

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/livebud/devbridge/internal/esbuild"
	"github.com/livebud/devbridge/internal/plugin"
)

type Options struct {
	// MainFields are the package.json entry fields to try, in order
	MainFields []string `yaml:"mainFields"`
	// Extensions are appended to extensionless paths
	Extensions []string `yaml:"extensions"`
	// Conditions pick entries from package.json exports
	Conditions []string `yaml:"conditions"`
}

var (
	defaultMainFields = []string{"module", "browser", "main"}
	defaultExtensions = []string{".mjs", ".js", ".json"}
)

func New(options Options) *plugin.Plugin {
	if len(options.MainFields) == 0 {
		options.MainFields = defaultMainFields
	}
	if len(options.Extensions) == 0 {
		options.Extensions = defaultExtensions
	}
	if len(options.Conditions) == 0 {
		options.Conditions = esbuild.Conditions
	}
	r := &resolver{esbuild.ResolveOptions{
		Conditions: options.Conditions,
		MainFields: options.MainFields,
		Extensions: options.Extensions,
	}}
	return &plugin.Plugin{
		Name:      "node-resolve",
		ResolveID: r.resolveID,
	}
}

type resolver struct {
	options esbuild.ResolveOptions
}

func (r *resolver) resolveID(ctx context.Context, pc *plugin.Context, source, importer string) (any, error) {
	if !isBare(source) {
		return nil, nil
	}
	dir := importer
	if filepath.Ext(importer) != "" {
		dir = filepath.Dir(importer)
	}
	resolved, err := esbuild.Resolve(dir, source, r.options)
	if err != nil {
		return nil, pc.Error(err)
	}
	if resolved == "" {
		return nil, nil
	}
	return resolved, nil
}

// isBare is false for relative, absolute, URL and virtual specifiers
func isBare(source string) bool {
	return source != "" &&
		!strings.HasPrefix(source, ".") &&
		!strings.HasPrefix(source, "/") &&
		!strings.Contains(source, ":") &&
		!strings.Contains(source, "\x00")
}
