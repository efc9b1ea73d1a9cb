package bridge

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/livebud/devbridge/internal/devserver"
)

// NullByteParam carries a virtual module id through a browser URL
const NullByteParam = "devbridge-null-byte"

// resolveFilePath maps a URL path to a file under root. Paths can't climb
// above root.
func resolveFilePath(root, urlPath string) string {
	return filepath.Join(root, filepath.FromSlash(path.Clean("/"+urlPath)))
}

// resolveDocumentPath is resolveFilePath with directories mapped to their
// index.html
func resolveDocumentPath(root, urlPath string) string {
	if strings.HasSuffix(urlPath, "/") {
		urlPath += "index.html"
	}
	return resolveFilePath(root, urlPath)
}

func toBrowserPath(filePath string) string {
	return filepath.ToSlash(filePath)
}

// isURL is true for specifiers like https://, data: or blob: that the
// browser loads on its own
func isURL(source string) bool {
	if filepath.IsAbs(source) {
		return false
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme != ""
}

// EncodeVirtual turns a virtual id into a URL the dev server will route back
// to the plugin's load hook
func EncodeVirtual(id string) string {
	return devserver.VirtualFilePrefix + "?" + NullByteParam + "=" + url.QueryEscape(id)
}

// DecodeVirtual returns the virtual id carried by a URL's query, if any
func DecodeVirtual(u *url.URL) (id string, ok bool) {
	if u == nil {
		return "", false
	}
	query := u.Query()
	if !query.Has(NullByteParam) {
		return "", false
	}
	return query.Get(NullByteParam), true
}

// withVirtualParam appends the original id to an already relative specifier
func withVirtualParam(specifier, id string) string {
	separator := "?"
	if strings.Contains(specifier, "?") {
		separator = "&"
	}
	return specifier + separator + NullByteParam + "=" + url.QueryEscape(id)
}
