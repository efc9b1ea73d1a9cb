package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/livebud/devbridge/internal/devserver"
	"github.com/livebud/devbridge/internal/js"
)

// RollupVersion is the version of the bundler plugin protocol being emulated
const RollupVersion = "2.23.0"

// ErrNoRequest is returned by Resolve while no request is being served, for
// example from the Options and BuildStart hooks.
var ErrNoRequest = errors.New("plugin: resolve is unsupported without a live request")

type Meta struct {
	RollupVersion string
	WatchMode     bool
}

type ResolveOptions struct {
	SkipSelf bool
}

// Context is handed to a single hook call and then discarded. It captures the
// server's watcher and config, the dev server plugin wrapping the hook and,
// while serving, the current request.
type Context struct {
	Stubs
	Meta Meta
	Log  *slog.Logger

	watcher devserver.FileWatcher
	config  *devserver.Config
	self    devserver.Plugin
	request *devserver.Context
}

// NewContext creates a hook context. request is nil during server start.
func NewContext(watcher devserver.FileWatcher, config *devserver.Config, self devserver.Plugin, request *devserver.Context) *Context {
	log := config.Log
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Meta: Meta{
			RollupVersion: RollupVersion,
			WatchMode:     true,
		},
		Log:     log,
		watcher: watcher,
		config:  config,
		self:    self,
		request: request,
	}
}

// Request returns the request being served, nil during server start
func (c *Context) Request() *devserver.Context {
	return c.request
}

// AddWatchFile reloads the page when id changes. Relative ids are resolved
// from the working directory.
func (c *Context) AddWatchFile(id string) error {
	filePath := id
	if !filepath.IsAbs(filePath) {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		filePath = filepath.Join(wd, id)
	}
	if err := c.watcher.Add(filePath); err != nil {
		c.Log.Warn("plugin: unable to watch file", "plugin", c.name(), "path", filePath, "err", err)
		return err
	}
	return nil
}

// Resolve replays import resolution through the server's other plugins in
// installation order. The first non-empty result wins.
func (c *Context) Resolve(ctx context.Context, source, importer string, options ResolveOptions) (*ResolvedID, error) {
	if c.request == nil {
		return nil, ErrNoRequest
	}
	for _, candidate := range c.config.Plugins {
		resolver, ok := candidate.(devserver.ImportResolver)
		if !ok {
			continue
		}
		if options.SkipSelf && candidate == c.self {
			continue
		}
		result, err := resolver.ResolveImport(ctx, source, c.request)
		if err != nil {
			return nil, err
		}
		if result == "" {
			continue
		}
		if filepath.IsAbs(result) {
			return &ResolvedID{ID: result}, nil
		}
		return &ResolvedID{ID: filepath.Join(importerDir(importer), filepath.FromSlash(result))}, nil
	}
	return nil, nil
}

// importerDir is the directory relative specifiers are resolved from
func importerDir(importer string) string {
	if filepath.Ext(importer) != "" {
		return filepath.Dir(importer)
	}
	return importer
}

// ResolveID is Resolve returning just the id, or "" if unresolved
func (c *Context) ResolveID(ctx context.Context, source, importer string, options ResolveOptions) (string, error) {
	resolved, err := c.Resolve(ctx, source, importer, options)
	if err != nil {
		return "", err
	}
	if resolved == nil {
		return "", nil
	}
	return resolved.ID, nil
}

// Parse source code into an AST. Caller options are merged over the
// defaults. Parse errors are returned untouched.
func (c *Context) Parse(code string, options js.ParseOptions) (*js.AST, error) {
	base := js.ParseOptions{}
	if c.request != nil {
		base.Path = c.request.Path
	}
	return js.Parse(code, base.Merge(options))
}

// Error attributes err to the plugin. Hooks return it to abort.
func (c *Context) Error(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Plugin: c.name(), Err: err}
}

// Warn logs a non-fatal warning
func (c *Context) Warn(warning any) {
	c.Log.Warn("plugin: warning", "plugin", c.name(), "warning", warning)
}

func (c *Context) name() string {
	if c.self == nil {
		return ""
	}
	return c.self.Name()
}

type Error struct {
	Plugin string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plugin %s: %s", e.Plugin, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
