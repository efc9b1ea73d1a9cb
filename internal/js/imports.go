package js

import (
	"path/filepath"
	"sort"
	"strings"
)

// Import is a module specifier found in the source
type Import struct {
	Specifier string
	Kind      string
	// Start and End are byte offsets of the string literal, quotes included
	Start int
	End   int
}

// Scan a module for its import specifiers. Static imports, re-exports and
// dynamic imports with a string literal are returned in source order.
func Scan(path, code string) ([]Import, error) {
	tree, err := parseTree(code, optionsFor(path))
	if err != nil {
		return nil, err
	}
	imports := make([]Import, 0, len(tree.ImportRecords))
	for _, record := range tree.ImportRecords {
		start := int(record.Range.Loc.Start)
		end := start + int(record.Range.Len)
		// Generated records have no source location
		if record.Range.Len < 2 || end > len(code) {
			continue
		}
		quote := code[start]
		if quote != '"' && quote != '\'' && quote != '`' {
			continue
		}
		imports = append(imports, Import{
			Specifier: record.Path.Text,
			Kind:      record.Kind.StringForMetafile(),
			Start:     start,
			End:       end,
		})
	}
	sort.Slice(imports, func(i, j int) bool {
		return imports[i].Start < imports[j].Start
	})
	return imports, nil
}

// Rewrite every import specifier in code with fn. Returning the original
// specifier or an empty string leaves the import untouched.
func Rewrite(path, code string, fn func(specifier string) (string, error)) (string, error) {
	imports, err := Scan(path, code)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	offset := 0
	for _, imp := range imports {
		rewritten, err := fn(imp.Specifier)
		if err != nil {
			return "", err
		}
		if rewritten == "" || rewritten == imp.Specifier {
			continue
		}
		quote := code[imp.Start]
		out.WriteString(code[offset:imp.Start])
		out.WriteByte(quote)
		out.WriteString(rewritten)
		out.WriteByte(quote)
		offset = imp.End
	}
	if offset == 0 {
		return code, nil
	}
	out.WriteString(code[offset:])
	return out.String(), nil
}

func optionsFor(path string) ParseOptions {
	options := ParseOptions{Path: path}
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		options.TypeScript = true
	case ".tsx":
		options.TypeScript = true
		options.JSX = true
	case ".jsx":
		options.JSX = true
	}
	return options
}
