// Package replace swaps configured identifiers for literal code, like
// __buildEnv__ for "production".
package replace

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/livebud/devbridge/internal/plugin"
)

type Options struct {
	// Values maps the text to find to the code that replaces it
	Values map[string]string `yaml:"values"`
	// Include limits replacement to these file extensions. HTML documents
	// have their inline scripts replaced.
	Include []string `yaml:"include"`
}

var defaultInclude = []string{".js", ".mjs", ".jsx", ".ts", ".tsx", ".html"}

func New(options Options) *plugin.Plugin {
	r := &replacer{
		values:  options.Values,
		include: options.Include,
	}
	if len(r.include) == 0 {
		r.include = defaultInclude
	}
	if len(options.Values) > 0 {
		r.pattern = compile(options.Values)
	}
	return &plugin.Plugin{
		Name:      "replace",
		Transform: r.transform,
	}
}

type replacer struct {
	values  map[string]string
	include []string
	pattern *regexp.Regexp
}

// compile a single alternation, longest keys first so overlapping keys like
// process.env and process.env.NODE_ENV match the most specific one
func compile(values map[string]string) *regexp.Regexp {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for i, key := range keys {
		keys[i] = regexp.QuoteMeta(key)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(keys, "|") + `)\b`)
}

func (r *replacer) transform(ctx context.Context, pc *plugin.Context, code, id string) (any, error) {
	if r.pattern == nil || !r.included(id) {
		return nil, nil
	}
	replaced := r.pattern.ReplaceAllStringFunc(code, func(match string) string {
		return r.values[match]
	})
	if replaced == code {
		return nil, nil
	}
	return replaced, nil
}

func (r *replacer) included(id string) bool {
	ext := filepath.Ext(id)
	for _, include := range r.include {
		if include == ext {
			return true
		}
	}
	return false
}
