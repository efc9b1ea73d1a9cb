// Package config loads the devbridge.yaml file
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/livebud/devbridge/internal/bridge"
	"github.com/livebud/devbridge/internal/devserver"
	"github.com/livebud/devbridge/internal/plugin"
	"github.com/livebud/devbridge/internal/plugins/alias"
	"github.com/livebud/devbridge/internal/plugins/css"
	"github.com/livebud/devbridge/internal/plugins/json"
	"github.com/livebud/devbridge/internal/plugins/noderesolve"
	"github.com/livebud/devbridge/internal/plugins/replace"
	"github.com/livebud/devbridge/internal/plugins/typescript"
	"gopkg.in/yaml.v3"
)

// File is the default config file name
const File = "devbridge.yaml"

type Config struct {
	Root   string `yaml:"root"`
	Listen string `yaml:"listen"`
	Live   bool   `yaml:"live"`

	// MimeTypes maps extensions to a response kind, e.g. .csv: js
	MimeTypes map[string]string `yaml:"mimeTypes"`
	Plugins   []Plugin          `yaml:"plugins"`
}

type Plugin struct {
	Name    string    `yaml:"name"`
	Input   []string  `yaml:"input"`
	Options yaml.Node `yaml:"options"`
}

func Default() *Config {
	return &Config{
		Root:   ".",
		Listen: ":3000",
		Live:   true,
	}
}

// Load the config file at path. Relative roots are resolved from the file's
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: unable to parse %s: %w", path, err)
	}
	if !filepath.IsAbs(config.Root) {
		config.Root = filepath.Join(filepath.Dir(path), config.Root)
	}
	return config, nil
}

// Parse a config over the defaults. Unknown fields are an error.
func Parse(data []byte) (*Config, error) {
	config := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for _, p := range config.Plugins {
		if _, ok := builtins[p.Name]; !ok {
			return nil, fmt.Errorf("unknown plugin %q", p.Name)
		}
	}
	return config, nil
}

type builtin struct {
	// mimeTypes served as scripts so the plugin can transform them
	mimeTypes []string
	build     func(options *yaml.Node) (*plugin.Plugin, error)
}

var builtins = map[string]builtin{
	"alias": {build: decode(alias.New)},
	"css":   {build: static(css.New)},
	"json": {
		mimeTypes: []string{".json"},
		build:     static(json.New),
	},
	"node-resolve": {build: decode(noderesolve.New)},
	"replace":      {build: decode(replace.New)},
	"typescript": {
		mimeTypes: []string{".ts", ".tsx", ".mts"},
		build:     decode(typescript.New),
	},
}

func static(fn func() *plugin.Plugin) func(*yaml.Node) (*plugin.Plugin, error) {
	return func(*yaml.Node) (*plugin.Plugin, error) {
		return fn(), nil
	}
}

func decode[Options any](fn func(Options) *plugin.Plugin) func(*yaml.Node) (*plugin.Plugin, error) {
	return func(node *yaml.Node) (*plugin.Plugin, error) {
		var options Options
		if node.Kind != 0 {
			if err := node.Decode(&options); err != nil {
				return nil, err
			}
		}
		return fn(options), nil
	}
}

// DevServer builds the dev server config. Every configured plugin is
// wrapped in a bridge, and extra plugins are installed first.
func (c *Config) DevServer(log *slog.Logger, watcher devserver.FileWatcher, extra ...devserver.Plugin) (*devserver.Config, error) {
	mimeTypes := map[string]string{}
	plugins := append([]devserver.Plugin{}, extra...)
	for i := range c.Plugins {
		p := &c.Plugins[i]
		builtin, ok := builtins[p.Name]
		if !ok {
			return nil, fmt.Errorf("config: unknown plugin %q", p.Name)
		}
		wrapped, err := builtin.build(&p.Options)
		if err != nil {
			return nil, fmt.Errorf("config: invalid options for %s: %w", p.Name, err)
		}
		for _, ext := range builtin.mimeTypes {
			mimeTypes[ext] = "js"
		}
		plugins = append(plugins, bridge.Wrap(wrapped, plugin.InputOptions{Input: p.Input}))
	}
	for ext, kind := range c.MimeTypes {
		mimeTypes[ext] = kind
	}
	return &devserver.Config{
		Root:      c.Root,
		Plugins:   plugins,
		Watcher:   watcher,
		Log:       log,
		MimeTypes: mimeTypes,
	}, nil
}
