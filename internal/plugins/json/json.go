// Package json turns imported .json files into ES modules. Top-level keys
// that are valid identifiers become named exports.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/livebud/devbridge/internal/plugin"
)

func New() *plugin.Plugin {
	return &plugin.Plugin{
		Name:      "json",
		Transform: transform,
	}
}

func transform(ctx context.Context, pc *plugin.Context, code, id string) (any, error) {
	if filepath.Ext(id) != ".json" {
		return nil, nil
	}
	keys, err := topLevelKeys(code)
	if err != nil {
		return nil, pc.Error(fmt.Errorf("json: unable to parse %s: %w", id, err))
	}
	var b strings.Builder
	b.WriteString("const data = ")
	b.WriteString(strings.TrimSpace(code))
	b.WriteString(";\n")
	for _, key := range keys {
		if !isIdentifier(key) {
			continue
		}
		fmt.Fprintf(&b, "export const %s = data[%q];\n", key, key)
	}
	b.WriteString("export default data;\n")
	return b.String(), nil
}

// topLevelKeys validates the document and returns the keys of a top-level
// object in source order. Other documents have no keys.
func topLevelKeys(code string) ([]string, error) {
	var v any
	if err := json.Unmarshal([]byte(code), &v); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(code))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}
	var keys []string
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

var reserved = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true,
	"new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "data": true,
}

func isIdentifier(s string) bool {
	if s == "" || reserved[s] {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
