package json_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/livebud/devbridge/internal/bridge"
	"github.com/livebud/devbridge/internal/devserver"
	"github.com/livebud/devbridge/internal/plugin"
	"github.com/livebud/devbridge/internal/plugins/json"
	"github.com/matryer/is"
	"github.com/matthewmueller/diff"
	"github.com/matthewmueller/virt"
)

func serve(t testing.TB, fsys virt.Map, target string) (int, string) {
	t.Helper()
	dir := t.TempDir()
	if err := virt.Sync(fsys, dir); err != nil {
		t.Fatal(err)
	}
	server, err := devserver.New(&devserver.Config{
		Root:      dir,
		MimeTypes: map[string]string{".json": "js"},
		Plugins:   []devserver.Plugin{bridge.Wrap(json.New(), plugin.InputOptions{})},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := server.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return rec.Code, string(body)
}

func TestNamedExports(t *testing.T) {
	is := is.New(t)
	code, body := serve(t, virt.Map{
		"data.json": `{"name": "devbridge", "version": 1, "nested": {"a": [1, 2]}, "not-valid": true, "default": 1, "name": "again"}` + "\n",
	}, "/data.json")
	is.Equal(code, http.StatusOK)
	diff.TestString(t, body, `const data = {"name": "devbridge", "version": 1, "nested": {"a": [1, 2]}, "not-valid": true, "default": 1, "name": "again"};
export const name = data["name"];
export const version = data["version"];
export const nested = data["nested"];
export default data;
`)
}

func TestArray(t *testing.T) {
	is := is.New(t)
	code, body := serve(t, virt.Map{
		"list.json": `[1, 2, 3]`,
	}, "/list.json")
	is.Equal(code, http.StatusOK)
	diff.TestString(t, body, "const data = [1, 2, 3];\nexport default data;\n")
}

func TestInvalid(t *testing.T) {
	is := is.New(t)
	code, body := serve(t, virt.Map{
		"broken.json": `{"a": }`,
	}, "/broken.json")
	is.Equal(code, http.StatusInternalServerError)
	is.True(strings.Contains(body, "plugin json: json: unable to parse"))
}

func TestIgnoresScripts(t *testing.T) {
	is := is.New(t)
	code, body := serve(t, virt.Map{
		"app.js": `console.log("hi");`,
	}, "/app.js")
	is.Equal(code, http.StatusOK)
	is.Equal(body, `console.log("hi");`)
}
