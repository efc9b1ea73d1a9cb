package devserver_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"path"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/livebud/devbridge/internal/devserver"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
	"github.com/matthewmueller/virt"
)

func load(t testing.TB, fsys virt.Map, plugins ...devserver.Plugin) *devserver.Server {
	t.Helper()
	dir := t.TempDir()
	if err := virt.Sync(fsys, dir); err != nil {
		t.Fatal(err)
	}
	server, err := devserver.New(&devserver.Config{
		Root:    dir,
		Plugins: plugins,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := server.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	return server
}

func dump(t testing.TB, handler http.Handler, req *http.Request) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	res := rec.Result()
	defer res.Body.Close()
	actual, err := httputil.DumpResponse(res, true)
	if err != nil {
		t.Fatal(err)
	}
	return string(actual)
}

func contains(t testing.TB, handler http.Handler, req *http.Request, contains ...string) {
	t.Helper()
	actual := dump(t, handler, req)
	for _, contain := range contains {
		if !strings.Contains(actual, contain) {
			t.Fatalf("expected %s to contain %q", actual, contain)
		}
	}
}

func body(t testing.TB, handler http.Handler, target string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	res := rec.Result()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

type named string

func (n named) Name() string { return string(n) }

type resolveFunc struct {
	named
	fn func(source string, c *devserver.Context) string
}

func (r *resolveFunc) ResolveImport(ctx context.Context, source string, c *devserver.Context) (string, error) {
	return r.fn(source, c), nil
}

type serveFunc struct {
	named
	fn func(c *devserver.Context) *devserver.ServeResult
}

func (s *serveFunc) ServeFile(ctx context.Context, c *devserver.Context) (*devserver.ServeResult, error) {
	return s.fn(c), nil
}

type transformFunc struct {
	named
	fn func(c *devserver.Context) (*devserver.TransformResult, error)
}

func (t *transformFunc) TransformResponse(ctx context.Context, c *devserver.Context) (*devserver.TransformResult, error) {
	return t.fn(c)
}

type mimeFunc struct {
	named
	fn func(c *devserver.Context) string
}

func (m *mimeFunc) ResolveMimeType(c *devserver.Context) string {
	return m.fn(c)
}

type startFunc struct {
	named
	fn func(args *devserver.StartArgs) error
}

func (s *startFunc) ServerStart(ctx context.Context, args *devserver.StartArgs) error {
	return s.fn(args)
}

func TestServeFile(t *testing.T) {
	handler := load(t, virt.Map{
		"index.html": `<h1>hello</h1>`,
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	etag := fmt.Sprintf(`W/"%x"`, xxhash.Sum64String(`<h1>hello</h1>`))
	diff.TestHTTP(t, dump(t, handler, req), `
		HTTP/1.1 200 OK
		Connection: close
		Cache-Control: no-cache
		Content-Type: text/html; charset=utf-8
		Etag: `+etag+`

		<h1>hello</h1>
	`)
}

func TestNotModified(t *testing.T) {
	is := is.New(t)
	handler := load(t, virt.Map{
		"app.js": `console.log("hi")`,
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	is.Equal(rec.Code, http.StatusOK)
	etag := rec.Header().Get("ETag")
	is.True(etag != "")
	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	is.Equal(rec.Code, http.StatusNotModified)
	is.Equal(rec.Body.Len(), 0)
}

func TestHead(t *testing.T) {
	is := is.New(t)
	handler := load(t, virt.Map{
		"app.js": `console.log("hi")`,
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/app.js", nil))
	is.Equal(rec.Code, http.StatusOK)
	is.Equal(rec.Header().Get("Content-Type"), "application/javascript")
	is.Equal(rec.Body.Len(), 0)
}

func TestNotFound(t *testing.T) {
	handler := load(t, virt.Map{})
	contains(t, handler, httptest.NewRequest(http.MethodGet, "/missing.js", nil), `HTTP/1.1 404 Not Found`)
	contains(t, handler, httptest.NewRequest(http.MethodGet, devserver.VirtualFilePrefix+"?id=1", nil), `HTTP/1.1 404 Not Found`)
}

func TestFileServer(t *testing.T) {
	handler := load(t, virt.Map{},
		&serveFunc{named: "skip", fn: func(c *devserver.Context) *devserver.ServeResult { return nil }},
		&serveFunc{named: "virtual", fn: func(c *devserver.Context) *devserver.ServeResult {
			if c.Path == devserver.VirtualFilePrefix+"env.js" {
				return &devserver.ServeResult{Body: `export default "development"`, Type: "js"}
			}
			return nil
		}},
	)
	contains(t, handler, httptest.NewRequest(http.MethodGet, devserver.VirtualFilePrefix+"env.js", nil),
		`HTTP/1.1 200 OK`,
		`Content-Type: application/javascript`,
		`export default "development"`,
	)
}

func TestMimeTypes(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	is.NoErr(virt.Sync(virt.Map{
		"app.ts":     `export const a: number = 1`,
		"data.yaml":  `a: 1`,
		"styles.css": `body { color: red }`,
	}, dir))
	server, err := devserver.New(&devserver.Config{
		Root:      dir,
		MimeTypes: map[string]string{".yaml": "text/plain"},
		Plugins: []devserver.Plugin{
			&mimeFunc{named: "typescript", fn: func(c *devserver.Context) string {
				if path.Ext(c.Path) == ".ts" {
					return "js"
				}
				return ""
			}},
		},
	})
	is.NoErr(err)
	contains(t, server, httptest.NewRequest(http.MethodGet, "/app.ts", nil), `Content-Type: application/javascript`)
	contains(t, server, httptest.NewRequest(http.MethodGet, "/data.yaml", nil), `Content-Type: text/plain`)
	contains(t, server, httptest.NewRequest(http.MethodGet, "/styles.css", nil), `Content-Type: text/css; charset=utf-8`)
}

func TestTransformOrder(t *testing.T) {
	handler := load(t, virt.Map{
		"app.js": `console.log("a");`,
	},
		&transformFunc{named: "first", fn: func(c *devserver.Context) (*devserver.TransformResult, error) {
			return &devserver.TransformResult{Body: c.Body + `console.log("b");`}, nil
		}},
		&transformFunc{named: "untouched", fn: func(c *devserver.Context) (*devserver.TransformResult, error) {
			return nil, nil
		}},
		&transformFunc{named: "second", fn: func(c *devserver.Context) (*devserver.TransformResult, error) {
			return &devserver.TransformResult{Body: c.Body + `console.log("c");`}, nil
		}},
	)
	diff.TestString(t, body(t, handler, "/app.js"), `console.log("a");console.log("b");console.log("c");`)
}

func TestTransformError(t *testing.T) {
	handler := load(t, virt.Map{
		"app.js": `console.log("a");`,
	},
		&transformFunc{named: "broken", fn: func(c *devserver.Context) (*devserver.TransformResult, error) {
			return nil, errors.New("oh no")
		}},
	)
	contains(t, handler, httptest.NewRequest(http.MethodGet, "/app.js", nil),
		`HTTP/1.1 500 Internal Server Error`,
		`devserver: broken failed to transform /app.js: oh no`,
	)
}

func TestResolveImports(t *testing.T) {
	handler := load(t, virt.Map{
		"app.js": "import a from 'a';\nimport b from \"b\";\nimport('./c.js');\nconsole.log(a, b);\n",
	},
		&resolveFunc{named: "empty", fn: func(source string, c *devserver.Context) string { return "" }},
		&resolveFunc{named: "prefix", fn: func(source string, c *devserver.Context) string {
			if source == "b" {
				return ""
			}
			return "/node_modules/" + source
		}},
		&resolveFunc{named: "last", fn: func(source string, c *devserver.Context) string { return "./last-" + source }},
	)
	diff.TestString(t, body(t, handler, "/app.js"), "import a from '/node_modules/a';\nimport b from \"./last-b\";\nimport('/node_modules/./c.js');\nconsole.log(a, b);\n")
}

func TestResolveInlineImports(t *testing.T) {
	handler := load(t, virt.Map{
		"index.html": `<html><head></head><body><script type="module">import 'a';</script><script>import 'b';</script><script type="module" src="./app.js"></script></body></html>`,
	},
		&resolveFunc{named: "prefix", fn: func(source string, c *devserver.Context) string { return "/node_modules/" + source }},
	)
	diff.TestString(t, body(t, handler, "/"), `<html><head></head><body><script type="module">import '/node_modules/a';</script><script>import 'b';</script><script type="module" src="./app.js"></script></body></html>`)
}

func TestUnparsableServedAsIs(t *testing.T) {
	handler := load(t, virt.Map{
		"broken.js": `import from from from;`,
	},
		&resolveFunc{named: "prefix", fn: func(source string, c *devserver.Context) string { return "/node_modules/" + source }},
	)
	diff.TestString(t, body(t, handler, "/broken.js"), `import from from from;`)
}

func TestInject(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	is.NoErr(virt.Sync(virt.Map{
		"index.html": `<h1>hi</h1>`,
		"app.js":     `console.log("hi")`,
	}, dir))
	server, err := devserver.New(&devserver.Config{
		Root:   dir,
		Inject: []string{devserver.VirtualFilePrefix + "hot.js"},
	})
	is.NoErr(err)
	diff.TestString(t, body(t, server, "/"), `<html><head></head><body><h1>hi</h1><script type="module" src="/__devbridge__/hot.js"></script></body></html>`)
	diff.TestString(t, body(t, server, "/app.js"), `console.log("hi")`)
}

func TestStart(t *testing.T) {
	is := is.New(t)
	var order []string
	var watcher devserver.FileWatcher
	server, err := devserver.New(&devserver.Config{
		Root: t.TempDir(),
		Plugins: []devserver.Plugin{
			&startFunc{named: "a", fn: func(args *devserver.StartArgs) error {
				order = append(order, "a")
				watcher = args.Watcher
				return nil
			}},
			named("inert"),
			&startFunc{named: "b", fn: func(args *devserver.StartArgs) error {
				order = append(order, "b")
				return errors.New("port taken")
			}},
			&startFunc{named: "c", fn: func(args *devserver.StartArgs) error {
				order = append(order, "c")
				return nil
			}},
		},
	})
	is.NoErr(err)
	err = server.Start(context.Background())
	is.Equal(err.Error(), "devserver: b failed to start: port taken")
	is.Equal(order, []string{"a", "b"})
	is.True(watcher != nil)
	is.NoErr(watcher.Add("/a.js"))
}

func TestContextIs(t *testing.T) {
	is := is.New(t)
	c := &devserver.Context{ContentType: "text/javascript; charset=utf-8"}
	is.True(c.Is("js"))
	is.True(!c.Is("html"))
	c.ContentType = devserver.TypeOf("html")
	is.True(c.Is("html"))
	c.ContentType = ""
	is.True(!c.Is("js"))
	is.Equal(devserver.TypeOf("image/png"), "image/png")
	is.Equal(devserver.TypeOf("unknown"), "")
}
