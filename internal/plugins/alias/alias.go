// Package alias rewrites import specifiers before they're resolved
package alias

import (
	"context"
	"strings"

	"github.com/livebud/devbridge/internal/plugin"
)

type Entry struct {
	Find        string `yaml:"find"`
	Replacement string `yaml:"replacement"`
}

type Options struct {
	Entries []Entry `yaml:"entries"`
}

func New(options Options) *plugin.Plugin {
	a := &aliaser{options.Entries}
	return &plugin.Plugin{
		Name:      "alias",
		ResolveID: a.resolveID,
	}
}

type aliaser struct {
	entries []Entry
}

// match returns the aliased specifier. Entries match the whole specifier or
// a path prefix of it, so "lib" matches "lib" and "lib/a.js" but not "library".
func (a *aliaser) match(source string) (string, bool) {
	for _, entry := range a.entries {
		if source == entry.Find {
			return entry.Replacement, true
		}
		if rest, ok := strings.CutPrefix(source, entry.Find+"/"); ok {
			return strings.TrimSuffix(entry.Replacement, "/") + "/" + rest, true
		}
	}
	return "", false
}

// resolveID lets the other plugins resolve the aliased specifier, falling
// back to the alias itself.
func (a *aliaser) resolveID(ctx context.Context, pc *plugin.Context, source, importer string) (any, error) {
	updated, ok := a.match(source)
	if !ok {
		return nil, nil
	}
	resolved, err := pc.ResolveID(ctx, updated, importer, plugin.ResolveOptions{SkipSelf: true})
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		return resolved, nil
	}
	return updated, nil
}
