// Package bridge runs a bundler-protocol plugin inside the dev server. Each
// dev server hook builds a fresh plugin context, calls the matching bundler
// hook and translates ids between the filesystem and the browser.
package bridge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/livebud/devbridge/internal/devserver"
	"github.com/livebud/devbridge/internal/html"
	"github.com/livebud/devbridge/internal/plugin"
)

const nullByte = "\x00"

// Wrap a bundler plugin so it can be installed into the dev server
func Wrap(p *plugin.Plugin, options plugin.InputOptions) *Bridge {
	return &Bridge{
		plugin:  p,
		options: options,
		watcher: nopWatcher{},
		config:  &devserver.Config{},
	}
}

// Bridge is a dev server plugin backed by a bundler plugin. The watcher,
// config and options are written once by ServerStart. transformed only
// grows, and adding the same path twice is harmless, so concurrent requests
// need no further locking.
type Bridge struct {
	plugin      *plugin.Plugin
	options     plugin.InputOptions
	watcher     devserver.FileWatcher
	config      *devserver.Config
	transformed sync.Map // map[string]struct{}
}

var (
	_ devserver.ServerStarter  = (*Bridge)(nil)
	_ devserver.ImportResolver = (*Bridge)(nil)
	_ devserver.FileServer     = (*Bridge)(nil)
	_ devserver.Transformer    = (*Bridge)(nil)
)

func (b *Bridge) Name() string {
	return b.plugin.Name
}

// Options returns the build options after the plugin's options hook ran
func (b *Bridge) Options() plugin.InputOptions {
	return b.options
}

// Transformed reports whether the plugin's transform hook changed urlPath
func (b *Bridge) Transformed(urlPath string) bool {
	_, ok := b.transformed.Load(urlPath)
	return ok
}

func (b *Bridge) markTransformed(urlPath string) {
	b.transformed.Store(urlPath, struct{}{})
}

func (b *Bridge) context(c *devserver.Context) *plugin.Context {
	return plugin.NewContext(b.watcher, b.config, b, c)
}

func (b *Bridge) ServerStart(ctx context.Context, args *devserver.StartArgs) error {
	if args.Watcher != nil {
		b.watcher = args.Watcher
	}
	b.config = args.Config
	pc := b.context(nil)
	if b.plugin.Options != nil {
		options, err := b.plugin.Options(ctx, pc, b.options)
		if err != nil {
			return err
		}
		if options != nil {
			b.options = *options
		}
	}
	if b.plugin.BuildStart != nil {
		if err := b.plugin.BuildStart(ctx, pc, b.options); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) ResolveImport(ctx context.Context, source string, c *devserver.Context) (string, error) {
	root := b.config.Root
	// An absolute path in a body this plugin transformed was most likely
	// injected by the transform and only needs to become a browser path.
	injected := b.Transformed(c.Path) && strings.HasPrefix(source, root)
	if !injected && b.plugin.ResolveID == nil {
		return "", nil
	}
	if isURL(source) {
		return source, nil
	}
	importer := resolveDocumentPath(root, c.Path)
	resolved := source
	if !injected {
		result, err := b.plugin.ResolveID(ctx, b.context(c), source, importer)
		if err != nil {
			return "", err
		}
		resolved = plugin.NormalizeID(result)
	}
	if resolved == "" {
		return "", nil
	}
	hasNullByte := strings.Contains(resolved, nullByte)
	filePath := strings.ReplaceAll(resolved, nullByte, "")
	if strings.HasPrefix(filePath, root) {
		relativeTo := importer
		if filepath.Ext(importer) != "" {
			relativeTo = filepath.Dir(importer)
		}
		rel, err := filepath.Rel(relativeTo, filePath)
		if err != nil {
			return "", fmt.Errorf("bridge: unable to relate %q to %q: %w", filePath, importer, err)
		}
		specifier := toBrowserPath(rel)
		if !strings.HasPrefix(specifier, "/") && !strings.HasPrefix(specifier, ".") {
			specifier = "./" + specifier
		}
		if !hasNullByte {
			return specifier, nil
		}
		return withVirtualParam(specifier, resolved), nil
	}
	// The browser can't request a virtual id, so route it through the
	// virtual file prefix and decode it again in ServeFile.
	if hasNullByte {
		return EncodeVirtual(resolved), nil
	}
	return resolved, nil
}

func (b *Bridge) ServeFile(ctx context.Context, c *devserver.Context) (*devserver.ServeResult, error) {
	if b.plugin.Load == nil {
		return nil, nil
	}
	id, ok := DecodeVirtual(c.URL)
	if !ok {
		id = resolveFilePath(b.config.Root, c.Path)
	}
	result, err := b.plugin.Load(ctx, b.context(c), id)
	if err != nil {
		return nil, err
	}
	code, ok := plugin.NormalizeCode(result)
	if !ok {
		return nil, nil
	}
	return &devserver.ServeResult{Body: code, Type: "js"}, nil
}

func (b *Bridge) TransformResponse(ctx context.Context, c *devserver.Context) (*devserver.TransformResult, error) {
	if b.plugin.Transform == nil {
		return nil, nil
	}
	switch {
	case c.Is("js"):
		return b.transformScript(ctx, c)
	case c.Is("html"):
		return b.transformDocument(ctx, c)
	default:
		return nil, nil
	}
}

func (b *Bridge) transformScript(ctx context.Context, c *devserver.Context) (*devserver.TransformResult, error) {
	filePath := resolveFilePath(b.config.Root, c.Path)
	code, err := b.transform(ctx, c, c.Body, filePath)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, nil
	}
	b.markTransformed(c.Path)
	return &devserver.TransformResult{Body: code}, nil
}

// transformDocument runs the transform hook over each script element in
// document order
func (b *Bridge) transformDocument(ctx context.Context, c *devserver.Context) (*devserver.TransformResult, error) {
	filePath := resolveDocumentPath(b.config.Root, c.Path)
	doc, err := html.Parse(c.Body)
	if err != nil {
		return nil, err
	}
	changed := false
	for _, script := range doc.Scripts() {
		code, err := b.transform(ctx, c, script.Text(), filePath)
		if err != nil {
			return nil, err
		}
		if code == "" {
			continue
		}
		script.SetText(code)
		changed = true
	}
	if !changed {
		return nil, nil
	}
	body, err := doc.Render()
	if err != nil {
		return nil, err
	}
	b.markTransformed(c.Path)
	return &devserver.TransformResult{Body: body}, nil
}

// transform calls the plugin's transform hook, returning "" when the code
// was left alone
func (b *Bridge) transform(ctx context.Context, c *devserver.Context, code, id string) (string, error) {
	result, err := b.plugin.Transform(ctx, b.context(c), code, id)
	if err != nil {
		return "", err
	}
	transformed, ok := plugin.NormalizeCode(result)
	if !ok || transformed == code {
		return "", nil
	}
	return transformed, nil
}

type nopWatcher struct{}

func (nopWatcher) Add(string) error { return nil }
