package js_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/livebud/devbridge/internal/js"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
)

func equalJS(t *testing.T, name, input, expected string) {
	t.Helper()
	if name == "" {
		name = input
	}
	t.Run(name, func(t *testing.T) {
		t.Helper()
		ast, err := js.Parse(input, js.ParseOptions{})
		if err != nil {
			diff.TestString(t, err.Error(), expected)
			return
		}
		actual := js.Print(ast)
		diff.TestString(t, actual, expected)
	})
}

func TestParse(t *testing.T) {
	equalJS(t, "", `const a = 'hello';`, `const a = "hello";`)
	equalJS(t, "", `import Sub from './04-sub.js';`, `import Sub from "./04-sub.js";`)
	equalJS(t, "", `import { Sub } from './04-sub.js';`, `import { Sub } from "./04-sub.js";`)
}

func TestParseModernSyntax(t *testing.T) {
	is := is.New(t)
	ast, err := js.Parse(`
		export class Logger {
			level = "info";
			static #count = 0;
			static { Logger.#count++; }
		}
		const url = import.meta.url;
		await Promise.resolve(url);
	`, js.ParseOptions{})
	is.NoErr(err)
	is.True(ast != nil)
	is.True(len(ast.BlockStmt.List) == 3)
}

func TestParseTypeScript(t *testing.T) {
	is := is.New(t)
	ast, err := js.Parse(`export let props: Props = []`, js.ParseOptions{TypeScript: true})
	is.NoErr(err)
	is.Equal(js.Print(ast), `export let props = [];`)
}

func TestParseError(t *testing.T) {
	is := is.New(t)
	_, err := js.Parse(`const = 1`, js.ParseOptions{Path: "broken.js"})
	is.True(err != nil)
	var parseErr *js.ParseError
	is.True(errors.As(err, &parseErr))
	is.Equal(parseErr.Path, "broken.js")
	is.True(len(parseErr.Messages) > 0)
}

func TestMergeOptions(t *testing.T) {
	is := is.New(t)
	base := js.ParseOptions{Path: "base.js"}
	merged := base.Merge(js.ParseOptions{TypeScript: true})
	is.Equal(merged.Path, "base.js")
	is.True(merged.TypeScript)
	merged = base.Merge(js.ParseOptions{Path: "other.ts"})
	is.Equal(merged.Path, "other.ts")
	is.True(!merged.TypeScript)
}

func TestScan(t *testing.T) {
	is := is.New(t)
	code := `import a from 'module-a';
export * from "./b.js";
const c = import('./c.js');
console.log(a, c);`
	imports, err := js.Scan("app.js", code)
	is.NoErr(err)
	is.Equal(len(imports), 3)
	is.Equal(imports[0].Specifier, "module-a")
	is.Equal(code[imports[0].Start:imports[0].End], `'module-a'`)
	is.Equal(imports[1].Specifier, "./b.js")
	is.Equal(imports[2].Specifier, "./c.js")
	is.Equal(imports[2].Kind, "dynamic-import")
}

func TestScanNullByte(t *testing.T) {
	is := is.New(t)
	imports, err := js.Scan("app.js", "import \"\x00foo.js\";")
	is.NoErr(err)
	is.Equal(len(imports), 1)
	is.Equal(imports[0].Specifier, "\x00foo.js")
}

func TestRewrite(t *testing.T) {
	is := is.New(t)
	code := `import moduleA from 'module-a';
import "./keep.js";
export { b } from "module-b";`
	actual, err := js.Rewrite("app.js", code, func(specifier string) (string, error) {
		if strings.HasPrefix(specifier, "module-") {
			return "./RESOLVED_" + specifier, nil
		}
		return "", nil
	})
	is.NoErr(err)
	diff.TestString(t, actual, `import moduleA from './RESOLVED_module-a';
import "./keep.js";
export { b } from "./RESOLVED_module-b";`)
}

func TestRewriteError(t *testing.T) {
	is := is.New(t)
	_, err := js.Rewrite("app.js", `import "a";`, func(specifier string) (string, error) {
		return "", errors.New("boom")
	})
	is.True(err != nil)
	is.Equal(err.Error(), "boom")
}

func BenchmarkParse(b *testing.B) {
	for n := 0; n < b.N; n++ {
		js.Parse("export let props = []", js.ParseOptions{})
	}
}
