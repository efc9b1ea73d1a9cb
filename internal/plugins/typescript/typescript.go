// Package typescript strips TypeScript syntax with esbuild
package typescript

import (
	"context"
	"path/filepath"

	"github.com/livebud/devbridge/internal/esbuild"
	"github.com/livebud/devbridge/internal/plugin"
)

type Options struct {
	// JSXFactory for .tsx files, defaults to React.createElement
	JSXFactory  string `yaml:"jsxFactory"`
	JSXFragment string `yaml:"jsxFragment"`
}

func New(options Options) *plugin.Plugin {
	t := &transformer{options}
	return &plugin.Plugin{
		Name:      "typescript",
		Transform: t.transform,
	}
}

type transformer struct {
	options Options
}

func (t *transformer) transform(ctx context.Context, pc *plugin.Context, code, id string) (any, error) {
	ext := filepath.Ext(id)
	if ext != ".ts" && ext != ".tsx" && ext != ".mts" {
		return nil, nil
	}
	loader, _ := esbuild.LoaderFor(ext)
	result, err := esbuild.Transform(code, esbuild.TransformOptions{
		Loader:      loader,
		Format:      esbuild.FormatESModule,
		Target:      esbuild.ESNext,
		Sourcefile:  id,
		JSXFactory:  t.options.JSXFactory,
		JSXFragment: t.options.JSXFragment,
	})
	if err != nil {
		return nil, pc.Error(err)
	}
	return &plugin.SourceDescription{Code: result}, nil
}
