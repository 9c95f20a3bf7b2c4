package browser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

func init() {
	Register("static", func() Automation {
		return NewStatic()
	})
}

// Static is a browserless driver over parsed HTML documents. It answers
// selector queries against a fixed DOM: registered in-memory pages, local
// files, or about:blank. Clicks are accepted but have no effect on the DOM.
//
// It backs `--browser static` for offline runs and the interpreter's
// end-to-end tests.
type Static struct {
	pages   map[string]*html.Node
	history []string
	pos     int
	doc     *html.Node
}

// NewStatic creates a static driver with no preloaded pages; Goto reads
// local files (optionally file:// prefixed) and about:blank.
func NewStatic() *Static {
	return &Static{
		pages: map[string]*html.Node{},
		pos:   -1,
	}
}

// NewStaticFromPages creates a static driver preloaded with url → HTML pages
func NewStaticFromPages(pages map[string]string) (*Static, error) {
	s := NewStatic()
	for url, source := range pages {
		doc, err := html.Parse(strings.NewReader(source))
		if err != nil {
			return nil, fmt.Errorf("parse page %q: %w", url, err)
		}
		s.pages[url] = doc
	}
	return s, nil
}

// Launch is a no-op; the static driver has no process to start
func (s *Static) Launch(ctx context.Context, headless bool) error {
	return nil
}

// Goto loads a registered page, a local file, or about:blank
func (s *Static) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.load(url)
	if err != nil {
		return &Error{Op: "goto", Err: err}
	}

	// Navigating truncates any forward history.
	s.history = append(s.history[:s.pos+1], url)
	s.pos = len(s.history) - 1
	s.doc = doc
	return nil
}

// CurrentURL returns the current page URL
func (s *Static) CurrentURL(ctx context.Context) (string, error) {
	if s.pos < 0 {
		return "", &Error{Op: "current_url", Err: fmt.Errorf("no page loaded")}
	}
	return s.history[s.pos], nil
}

// Query returns the first element matching the selector, or nil
func (s *Static) Query(ctx context.Context, selector string) (Element, error) {
	elements, err := s.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return elements[0], nil
}

// QueryAll returns all elements matching the selector in document scope
func (s *Static) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.doc == nil {
		return nil, nil
	}
	return matchAll(s.doc, selector)
}

// GoBack moves back in the history stack
func (s *Static) GoBack(ctx context.Context) error {
	if s.pos > 0 {
		s.pos--
		s.doc = nil
		doc, err := s.load(s.history[s.pos])
		if err != nil {
			return &Error{Op: "go_back", Err: err}
		}
		s.doc = doc
	}
	return nil
}

// GoForward moves forward in the history stack
func (s *Static) GoForward(ctx context.Context) error {
	if s.pos >= 0 && s.pos < len(s.history)-1 {
		s.pos++
		doc, err := s.load(s.history[s.pos])
		if err != nil {
			return &Error{Op: "go_forward", Err: err}
		}
		s.doc = doc
	}
	return nil
}

// Cleanup drops the current document; loaded pages stay cached. Idempotent.
func (s *Static) Cleanup(ctx context.Context) error {
	s.doc = nil
	return nil
}

// load resolves a URL to a parsed document
func (s *Static) load(url string) (*html.Node, error) {
	if doc, ok := s.pages[url]; ok {
		return doc, nil
	}
	if url == "about:blank" {
		doc, err := html.Parse(strings.NewReader("<html><head></head><body></body></html>"))
		if err != nil {
			return nil, err
		}
		s.pages[url] = doc
		return doc, nil
	}

	path := strings.TrimPrefix(url, "file://")
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(string(source)))
	if err != nil {
		return nil, err
	}
	s.pages[url] = doc
	return doc, nil
}

// matchAll compiles the selector and collects matching descendants of scope.
// The scope node itself is never a match, mirroring querySelectorAll.
func matchAll(scope *html.Node, selector string) ([]Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, &Error{Op: "query", Err: fmt.Errorf("invalid selector %q: %w", selector, err)}
	}

	var elements []Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n != scope && sel.Match(n) {
			elements = append(elements, &staticElement{node: n})
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(scope)

	return elements, nil
}

// staticElement is an element handle over a parsed HTML node
type staticElement struct {
	node *html.Node
}

// Text returns the concatenated text content of the element's subtree
func (e *staticElement) Text(ctx context.Context) (string, error) {
	var builder strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(e.node)
	return builder.String(), nil
}

// Attribute returns the named attribute's value and presence
func (e *staticElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	for _, attr := range e.node.Attr {
		if attr.Key == name {
			return attr.Val, true, nil
		}
	}
	return "", false, nil
}

// Query returns the first descendant matching the selector, or nil
func (e *staticElement) Query(ctx context.Context, selector string) (Element, error) {
	elements, err := e.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return elements[0], nil
}

// QueryAll returns all descendants matching the selector
func (e *staticElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return matchAll(e.node, selector)
}

// Click accepts the click; a static DOM has nothing to do with it
func (e *staticElement) Click(ctx context.Context) error {
	return nil
}
