package devbridge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/livebud/devbridge"
	"github.com/matryer/is"
	"github.com/matthewmueller/virt"
)

func TestWrap(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	is.NoErr(virt.Sync(virt.Map{
		"app.js": "import { greet } from 'greet-virtual';\ngreet();\n",
	}, dir))
	greet := &devbridge.Plugin{
		Name: "greet",
		ResolveID: func(ctx context.Context, pc *devbridge.PluginContext, source, importer string) (any, error) {
			if source == "greet-virtual" {
				return "\x00greet", nil
			}
			return nil, nil
		},
		Load: func(ctx context.Context, pc *devbridge.PluginContext, id string) (any, error) {
			if id == "\x00greet" {
				return "export const greet = () => console.log('hi');", nil
			}
			return nil, nil
		},
	}
	server, err := devbridge.New(&devbridge.Config{
		Root:    dir,
		Plugins: []devbridge.ServerPlugin{devbridge.Wrap(greet, devbridge.InputOptions{})},
	})
	is.NoErr(err)
	is.NoErr(server.Start(context.Background()))

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	is.Equal(rec.Code, http.StatusOK)
	is.True(strings.Contains(rec.Body.String(), "/__devbridge__/?devbridge-null-byte=%00greet"))

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/__devbridge__/?devbridge-null-byte=%00greet", nil))
	is.Equal(rec.Code, http.StatusOK)
	is.Equal(rec.Body.String(), "export const greet = () => console.log('hi');")
}
