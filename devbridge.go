// Package devbridge runs rollup-style plugins inside a per-request dev
// server. Plugins are wrapped with Wrap and handed to New.
package devbridge

import (
	"github.com/livebud/devbridge/internal/bridge"
	"github.com/livebud/devbridge/internal/devserver"
	"github.com/livebud/devbridge/internal/js"
	"github.com/livebud/devbridge/internal/plugin"
)

type (
	Plugin            = plugin.Plugin
	PluginContext     = plugin.Context
	InputOptions      = plugin.InputOptions
	ResolveOptions    = plugin.ResolveOptions
	ResolvedID        = plugin.ResolvedID
	SourceDescription = plugin.SourceDescription
	ParseOptions      = js.ParseOptions
	AST               = js.AST

	Bridge         = bridge.Bridge
	Config         = devserver.Config
	Server         = devserver.Server
	ServerPlugin   = devserver.Plugin
	RequestContext = devserver.Context
)

// Wrap a plugin so the dev server can run its hooks
func Wrap(p *Plugin, options InputOptions) *Bridge {
	return bridge.Wrap(p, options)
}

// New dev server
func New(config *Config) (*Server, error) {
	return devserver.New(config)
}
