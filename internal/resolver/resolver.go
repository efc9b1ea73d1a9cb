package resolver

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

type Resolve struct {
	// Path is the URL path of the request
	Path string
}

type File struct {
	// Path is relative to the root, slash-separated
	Path string
	Code []byte
}

type Interface interface {
	Resolve(r *Resolve) (*File, error)
}

func New(fsys fs.FS) *Resolver {
	return &Resolver{fsys}
}

type Resolver struct {
	fsys fs.FS
}

var _ Interface = (*Resolver)(nil)

func (r *Resolver) Resolve(res *Resolve) (*File, error) {
	relPath := toRelative(res.Path)
	info, err := fs.Stat(r.fsys, relPath)
	if err != nil {
		return nil, fmt.Errorf("resolver: %s: %w", relPath, err)
	}
	if info.IsDir() {
		relPath = path.Join(relPath, "index.html")
	}
	code, err := fs.ReadFile(r.fsys, relPath)
	if err != nil {
		return nil, fmt.Errorf("resolver: %s: %w", relPath, err)
	}
	return &File{
		Path: relPath,
		Code: code,
	}, nil
}

type Embedded map[string][]byte

var _ Interface = (*Embedded)(nil)

func (e Embedded) Resolve(res *Resolve) (*File, error) {
	relPath := toRelative(res.Path)
	code, ok := e[relPath]
	if !ok {
		relPath = path.Join(relPath, "index.html")
		code, ok = e[relPath]
	}
	if !ok {
		return nil, fmt.Errorf("resolver: %s: %w", relPath, fs.ErrNotExist)
	}
	return &File{
		Path: relPath,
		Code: code,
	}, nil
}

func toRelative(urlPath string) string {
	relPath := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if relPath == "" {
		return "."
	}
	return relPath
}
