// Package css lets scripts import stylesheets. The import is rewritten to a
// module URL that serves JavaScript injecting a <style> element.
package css

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/livebud/devbridge/internal/esbuild"
	"github.com/livebud/devbridge/internal/plugin"
)

// ModuleParam marks a stylesheet request that expects JavaScript
const ModuleParam = "module"

const template = `const file = %q;
let style = document.querySelector('style[data-file="' + file + '"]');
if (!style) {
  style = document.createElement("style");
  style.dataset.file = file;
  document.head.appendChild(style);
}
style.textContent = %s;
export default style;
`

func New() *plugin.Plugin {
	return &plugin.Plugin{
		Name:      "css",
		ResolveID: resolveID,
		Load:      load,
	}
}

// resolveID marks relative stylesheet imports from scripts so the browser's
// request can be told apart from a <link> tag's
func resolveID(ctx context.Context, pc *plugin.Context, source, importer string) (any, error) {
	if filepath.Ext(source) != ".css" || !strings.HasPrefix(source, ".") {
		return nil, nil
	}
	dir := importer
	if filepath.Ext(importer) != "" {
		dir = filepath.Dir(importer)
	}
	return filepath.Join(dir, filepath.FromSlash(source)) + "?" + ModuleParam, nil
}

func load(ctx context.Context, pc *plugin.Context, id string) (any, error) {
	request := pc.Request()
	if filepath.Ext(id) != ".css" || request == nil || !request.URL.Query().Has(ModuleParam) {
		return nil, nil
	}
	code, err := os.ReadFile(id)
	if err != nil {
		return nil, pc.Error(err)
	}
	err = esbuild.Check(string(code), esbuild.TransformOptions{
		Sourcefile: id,
		Loader:     esbuild.LoaderCSS,
	})
	if err != nil {
		return nil, pc.Error(fmt.Errorf("css: unable to parse %s: %w", id, err))
	}
	if err := pc.AddWatchFile(id); err != nil {
		pc.Warn(err)
	}
	text, err := json.Marshal(string(code))
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf(template, request.Path, text), nil
}
