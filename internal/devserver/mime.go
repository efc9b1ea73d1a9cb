package devserver

import (
	"mime"
	"path"
	"strings"
)

// kinds maps a response kind to the media types it matches. The first entry
// is used when responding.
var kinds = map[string][]string{
	"js":   {"application/javascript", "text/javascript"},
	"html": {"text/html"},
	"css":  {"text/css"},
	"json": {"application/json"},
	"svg":  {"image/svg+xml"},
}

var extensions = map[string]string{
	".js":   "js",
	".mjs":  "js",
	".cjs":  "js",
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".json": "json",
	".svg":  "svg",
}

// TypeOf returns the content type for a kind. Strings that already look
// like a content type are returned as-is.
func TypeOf(kind string) string {
	if strings.Contains(kind, "/") {
		return kind
	}
	types, ok := kinds[kind]
	if !ok {
		return ""
	}
	switch kind {
	case "html", "css":
		return types[0] + "; charset=utf-8"
	default:
		return types[0]
	}
}

func typeByPath(urlPath string) string {
	if strings.HasSuffix(urlPath, "/") {
		return TypeOf("html")
	}
	ext := strings.ToLower(path.Ext(urlPath))
	if kind, ok := extensions[ext]; ok {
		return TypeOf(kind)
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
