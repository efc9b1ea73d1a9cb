// Package plugin describes bundler-protocol plugins and the context their
// hooks receive while running inside the dev server.
package plugin

import (
	"context"
)

// Plugin is a bundler-protocol plugin. Every hook is optional: a nil hook
// means the plugin doesn't have that capability.
//
// ResolveID, Load and Transform may return either a string or a descriptor:
// ResolvedID for ResolveID, SourceDescription for Load and Transform
// (values, pointers, or a map[string]any with an "id" or "code" key).
// Anything else is treated as no result.
type Plugin struct {
	Name string

	// Options may replace the input options. Returning nil keeps them.
	Options    func(ctx context.Context, pc *Context, options InputOptions) (*InputOptions, error)
	BuildStart func(ctx context.Context, pc *Context, options InputOptions) error
	ResolveID  func(ctx context.Context, pc *Context, source, importer string) (any, error)
	Load       func(ctx context.Context, pc *Context, id string) (any, error)
	Transform  func(ctx context.Context, pc *Context, code, id string) (any, error)
}

// InputOptions are the build options passed to Options and BuildStart
type InputOptions struct {
	Input            []string
	External         []string
	Context          string
	PreserveSymlinks bool
}

type ResolvedID struct {
	ID       string
	External bool
}

type SourceDescription struct {
	Code string
	Map  string
}

// NormalizeID extracts the resolved id from a ResolveID result. It returns
// "" when the result has no usable id.
func NormalizeID(result any) string {
	switch r := result.(type) {
	case string:
		return r
	case ResolvedID:
		return r.ID
	case *ResolvedID:
		if r == nil {
			return ""
		}
		return r.ID
	case map[string]any:
		id, _ := r["id"].(string)
		return id
	default:
		return ""
	}
}

// NormalizeCode extracts the code from a Load or Transform result
func NormalizeCode(result any) (code string, ok bool) {
	switch r := result.(type) {
	case string:
		return r, true
	case SourceDescription:
		return r.Code, true
	case *SourceDescription:
		if r == nil {
			return "", false
		}
		return r.Code, true
	case map[string]any:
		code, ok := r["code"].(string)
		return code, ok
	default:
		return "", false
	}
}
