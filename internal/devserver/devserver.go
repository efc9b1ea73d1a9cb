package devserver

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// VirtualFilePrefix is reserved for files that don't exist on disk
const VirtualFilePrefix = "/__devbridge__/"

// FileWatcher is notified of files that should trigger a reload on change
type FileWatcher interface {
	Add(path string) error
}

type Config struct {
	// Root is the absolute directory files are served from
	Root    string
	Plugins []Plugin
	Watcher FileWatcher
	Log     *slog.Logger
	// MimeTypes maps file extensions to a response kind ("js", "html", ...)
	MimeTypes map[string]string
	// Inject module scripts into every HTML document, e.g. live reload
	Inject []string
}

// Plugin is installed into the server. Hooks are discovered by asserting
// the optional interfaces below.
type Plugin interface {
	Name() string
}

type StartArgs struct {
	Config  *Config
	Watcher FileWatcher
}

type ServerStarter interface {
	ServerStart(ctx context.Context, args *StartArgs) error
}

// ImportResolver rewrites an import specifier found while serving c.Path.
// An empty string leaves the specifier for the next resolver.
type ImportResolver interface {
	ResolveImport(ctx context.Context, source string, c *Context) (string, error)
}

type ServeResult struct {
	Body string
	// Type is a kind like "js" or a full content type
	Type string
}

// FileServer provides a body for a request, before reading from disk
type FileServer interface {
	ServeFile(ctx context.Context, c *Context) (*ServeResult, error)
}

type TransformResult struct {
	Body string
}

// Transformer rewrites a response body before it's sent
type Transformer interface {
	TransformResponse(ctx context.Context, c *Context) (*TransformResult, error)
}

// MimeResolver overrides the response kind of a request
type MimeResolver interface {
	ResolveMimeType(c *Context) string
}

// Context is the state of a single request
type Context struct {
	Request *http.Request
	// Path is the decoded URL path
	Path        string
	URL         *url.URL
	Body        string
	ContentType string
}

func newContext(r *http.Request) *Context {
	return &Context{
		Request: r,
		Path:    r.URL.Path,
		URL:     r.URL,
	}
}

// Is checks the response content type against a kind like "js" or "html"
func (c *Context) Is(kind string) bool {
	mediaType, _, err := mime.ParseMediaType(c.ContentType)
	if err != nil {
		return false
	}
	for _, accept := range kinds[kind] {
		if strings.EqualFold(mediaType, accept) {
			return true
		}
	}
	return false
}

type nopWatcher struct{}

func (nopWatcher) Add(string) error { return nil }
