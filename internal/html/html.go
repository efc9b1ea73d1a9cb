package html

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse an HTML document
func Parse(code string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(code))
	if err != nil {
		return nil, err
	}
	return &Document{doc}, nil
}

type Document struct {
	doc *goquery.Document
}

// Scripts returns every JavaScript script element in document order: classic
// scripts, module scripts, inline and external alike.
func (d *Document) Scripts() (scripts []*Script) {
	d.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		kind, _ := s.Attr("type")
		if !isJavaScript(kind) {
			return
		}
		scripts = append(scripts, &Script{s.Nodes[0]})
	})
	return scripts
}

// InjectScript appends a module script with src to the end of the body
func (d *Document) InjectScript(src string) {
	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr: []html.Attribute{
			{Key: "type", Val: "module"},
			{Key: "src", Val: src},
		},
	}
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return
	}
	body.Nodes[0].AppendChild(script)
}

// Render the document back to HTML
func (d *Document) Render() (string, error) {
	return d.doc.Html()
}

func isJavaScript(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "module", "text/javascript", "application/javascript":
		return true
	default:
		return false
	}
}

type Script struct {
	node *html.Node
}

// Text returns the inline source of the script. External scripts are empty.
func (s *Script) Text() string {
	var sb strings.Builder
	for c := s.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// SetText replaces the script's source. Script contents are raw text, so the
// code is stored as-is without escaping.
func (s *Script) SetText(code string) {
	for c := s.node.FirstChild; c != nil; {
		next := c.NextSibling
		s.node.RemoveChild(c)
		c = next
	}
	s.node.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: code,
	})
}

// Src returns the external source of the script, if any
func (s *Script) Src() (string, bool) {
	return attr(s.node, "src")
}

// IsModule is true for <script type="module">
func (s *Script) IsModule() bool {
	kind, _ := attr(s.node, "type")
	return strings.EqualFold(strings.TrimSpace(kind), "module")
}

// IsInline is true for scripts without a src attribute
func (s *Script) IsInline() bool {
	_, ok := s.Src()
	return !ok
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
