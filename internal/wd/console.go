package wd

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// consoleWriter forwards the browser's console output from the chromedriver
// log and drops everything else. Lines look like:
//
//	[1.2][INFO]: CONSOLE(3) "hello", source: http://127.0.0.1:1234/app.js (3)
type consoleWriter struct {
	w io.Writer
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		if !bytes.Contains(line, []byte("CONSOLE(")) {
			continue
		}
		message, source := parseConsole(line)
		if _, err := fmt.Fprintf(c.w, "console: %s (%s)\n", message, source); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func parseConsole(line []byte) (message, source string) {
	const sourceSep = ", source: "
	rest := line
	if i := bytes.LastIndex(line, []byte(sourceSep)); i >= 0 {
		rest = line[:i]
		source = sourcePath(string(line[i+len(sourceSep):]))
	}
	if i := bytes.IndexByte(rest, '"'); i >= 0 {
		quoted := string(rest[i:])
		if unquoted, err := strconv.Unquote(quoted); err == nil {
			return unquoted, source
		}
		return quoted, source
	}
	return string(rest), source
}

// sourcePath trims the origin from "http://host/app.js (3)"
func sourcePath(s string) string {
	location, line, _ := strings.Cut(s, " ")
	u, err := url.Parse(location)
	if err != nil || u.Path == "" {
		return s
	}
	if line == "" {
		return u.Path
	}
	return u.Path + " " + line
}
