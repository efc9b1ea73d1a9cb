package devserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/livebud/devbridge/internal/html"
	"github.com/livebud/devbridge/internal/js"
	"github.com/livebud/devbridge/internal/resolver"
)

func New(config *Config) (*Server, error) {
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("devserver: unable to resolve root %q: %w", config.Root, err)
	}
	config.Root = root
	if config.Watcher == nil {
		config.Watcher = nopWatcher{}
	}
	if config.Log == nil {
		config.Log = slog.Default()
	}
	return &Server{
		config:   config,
		resolver: resolver.New(os.DirFS(root)),
		log:      config.Log,
	}, nil
}

type Server struct {
	config   *Config
	resolver resolver.Interface
	log      *slog.Logger
}

// Start calls every plugin's ServerStart hook in installation order
func (s *Server) Start(ctx context.Context) error {
	args := &StartArgs{
		Config:  s.config,
		Watcher: s.config.Watcher,
	}
	for _, plugin := range s.config.Plugins {
		starter, ok := plugin.(ServerStarter)
		if !ok {
			continue
		}
		if err := starter.ServerStart(ctx, args); err != nil {
			return fmt.Errorf("devserver: %s failed to start: %w", plugin.Name(), err)
		}
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := newContext(r)
	if err := s.respond(r.Context(), c); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		s.log.Error("devserver: unable to serve request", "path", c.Path, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	etag := fmt.Sprintf(`W/"%x"`, xxhash.Sum64String(c.Body))
	headers := w.Header()
	headers.Set("Cache-Control", "no-cache")
	headers.Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	headers.Set("Content-Type", c.ContentType)
	if r.Method == http.MethodHead {
		return
	}
	w.Write([]byte(c.Body))
}

func (s *Server) respond(ctx context.Context, c *Context) error {
	if err := s.serve(ctx, c); err != nil {
		return err
	}
	s.resolveMimeType(c)
	if err := s.transform(ctx, c); err != nil {
		return err
	}
	if err := s.resolveImports(ctx, c); err != nil {
		return err
	}
	if len(s.config.Inject) > 0 && c.Is("html") {
		return s.inject(c)
	}
	return nil
}

func (s *Server) serve(ctx context.Context, c *Context) error {
	for _, plugin := range s.config.Plugins {
		server, ok := plugin.(FileServer)
		if !ok {
			continue
		}
		result, err := server.ServeFile(ctx, c)
		if err != nil {
			return fmt.Errorf("devserver: %s failed to serve %s: %w", plugin.Name(), c.Path, err)
		}
		if result == nil {
			continue
		}
		c.Body = result.Body
		c.ContentType = TypeOf(result.Type)
		if c.ContentType == "" {
			c.ContentType = typeByPath(c.Path)
		}
		return nil
	}
	if strings.HasPrefix(c.Path, VirtualFilePrefix) {
		return fmt.Errorf("devserver: no plugin served %s: %w", c.Path, fs.ErrNotExist)
	}
	file, err := s.resolver.Resolve(&resolver.Resolve{Path: c.Path})
	if err != nil {
		return err
	}
	c.Body = string(file.Code)
	c.ContentType = typeByPath(file.Path)
	return nil
}

func (s *Server) resolveMimeType(c *Context) {
	if kind, ok := s.config.MimeTypes[filepath.Ext(c.Path)]; ok {
		c.ContentType = TypeOf(kind)
	}
	for _, plugin := range s.config.Plugins {
		resolver, ok := plugin.(MimeResolver)
		if !ok {
			continue
		}
		if kind := resolver.ResolveMimeType(c); kind != "" {
			c.ContentType = TypeOf(kind)
			return
		}
	}
}

func (s *Server) transform(ctx context.Context, c *Context) error {
	for _, plugin := range s.config.Plugins {
		transformer, ok := plugin.(Transformer)
		if !ok {
			continue
		}
		result, err := transformer.TransformResponse(ctx, c)
		if err != nil {
			return fmt.Errorf("devserver: %s failed to transform %s: %w", plugin.Name(), c.Path, err)
		}
		if result != nil {
			c.Body = result.Body
		}
	}
	return nil
}

func (s *Server) inject(c *Context) error {
	doc, err := html.Parse(c.Body)
	if err != nil {
		return err
	}
	for _, src := range s.config.Inject {
		doc.InjectScript(src)
	}
	body, err := doc.Render()
	if err != nil {
		return err
	}
	c.Body = body
	return nil
}

func (s *Server) resolveImports(ctx context.Context, c *Context) error {
	switch {
	case c.Is("js"):
		body, err := js.Rewrite(c.Path, c.Body, s.importResolver(ctx, c))
		if err != nil {
			return s.skipUnparsable(c, err)
		}
		c.Body = body
		return nil
	case c.Is("html"):
		return s.resolveInlineImports(ctx, c)
	default:
		return nil
	}
}

// resolveInlineImports rewrites imports of inline module scripts
func (s *Server) resolveInlineImports(ctx context.Context, c *Context) error {
	doc, err := html.Parse(c.Body)
	if err != nil {
		return err
	}
	changed := false
	for _, script := range doc.Scripts() {
		if !script.IsModule() || !script.IsInline() {
			continue
		}
		code := script.Text()
		rewritten, err := js.Rewrite(c.Path, code, s.importResolver(ctx, c))
		if err != nil {
			return s.skipUnparsable(c, err)
		}
		if rewritten != code {
			script.SetText(rewritten)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	body, err := doc.Render()
	if err != nil {
		return err
	}
	c.Body = body
	return nil
}

// importResolver asks each plugin in order to resolve a specifier. The first
// non-empty answer wins.
func (s *Server) importResolver(ctx context.Context, c *Context) func(string) (string, error) {
	return func(source string) (string, error) {
		for _, plugin := range s.config.Plugins {
			resolver, ok := plugin.(ImportResolver)
			if !ok {
				continue
			}
			resolved, err := resolver.ResolveImport(ctx, source, c)
			if err != nil {
				return "", fmt.Errorf("devserver: %s failed to resolve %q in %s: %w", plugin.Name(), source, c.Path, err)
			}
			if resolved != "" {
				return resolved, nil
			}
		}
		return "", nil
	}
}

func (s *Server) skipUnparsable(c *Context, err error) error {
	var parseErr *js.ParseError
	if !errors.As(err, &parseErr) {
		return err
	}
	s.log.Warn("devserver: unable to parse imports, serving as-is", "path", c.Path, "err", err)
	return nil
}
