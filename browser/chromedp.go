package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// DefaultClickTimeout bounds a single click action; exceeding it is reported
// as a click failure, not a fatal error.
const DefaultClickTimeout = 5 * time.Second

func init() {
	Register("chromedp", func() Automation {
		return NewChromedp(DefaultClickTimeout)
	})
}

// Chromedp drives a real Chrome/Chromium instance over the DevTools protocol.
// It is the counterpart of a Playwright/Puppeteer driver: one browser, one page.
type Chromedp struct {
	clickTimeout time.Duration

	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
	browserCtx  context.Context
	cleanupOnce sync.Once
}

// NewChromedp creates an unlaunched chromedp driver
func NewChromedp(clickTimeout time.Duration) *Chromedp {
	if clickTimeout <= 0 {
		clickTimeout = DefaultClickTimeout
	}
	return &Chromedp{clickTimeout: clickTimeout}
}

// Launch starts the browser process and opens the page
func (d *Chromedp) Launch(ctx context.Context, headless bool) error {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", headless),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so later calls fail fast here instead.
	if err := chromedp.Run(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return &Error{Op: "launch", Err: err}
	}

	d.allocCancel = allocCancel
	d.ctxCancel = ctxCancel
	d.browserCtx = browserCtx
	return nil
}

// Goto navigates and waits for the document to be ready
func (d *Chromedp) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := chromedp.Run(d.browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return &Error{Op: "goto", Err: err}
	}
	return nil
}

// CurrentURL returns the page's top-level URL
func (d *Chromedp) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var url string
	if err := chromedp.Run(d.browserCtx, chromedp.Location(&url)); err != nil {
		return "", &Error{Op: "current_url", Err: err}
	}
	return url, nil
}

// Query returns the first element matching the selector, or nil
func (d *Chromedp) Query(ctx context.Context, selector string) (Element, error) {
	elements, err := d.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return elements[0], nil
}

// QueryAll returns all elements matching the selector in page scope
func (d *Chromedp) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.queryNodes(selector, nil)
}

// GoBack navigates back in history
func (d *Chromedp) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(d.browserCtx, chromedp.NavigateBack()); err != nil {
		return &Error{Op: "go_back", Err: err}
	}
	return nil
}

// GoForward navigates forward in history
func (d *Chromedp) GoForward(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(d.browserCtx, chromedp.NavigateForward()); err != nil {
		return &Error{Op: "go_forward", Err: err}
	}
	return nil
}

// Cleanup shuts down the page and browser process. Idempotent.
func (d *Chromedp) Cleanup(ctx context.Context) error {
	d.cleanupOnce.Do(func() {
		if d.browserCtx != nil {
			// Graceful browser shutdown before cancelling the allocator.
			_ = chromedp.Cancel(d.browserCtx)
		}
		if d.ctxCancel != nil {
			d.ctxCancel()
		}
		if d.allocCancel != nil {
			d.allocCancel()
		}
	})
	return nil
}

// queryNodes resolves a selector to element handles, optionally scoped to a node.
// AtLeast(0) keeps zero-match queries from blocking until timeout.
func (d *Chromedp) queryNodes(selector string, scope *cdp.Node) ([]Element, error) {
	var nodes []*cdp.Node

	queryOpts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		queryOpts = append(queryOpts, chromedp.FromNode(scope))
	}

	if err := chromedp.Run(d.browserCtx, chromedp.Nodes(selector, &nodes, queryOpts...)); err != nil {
		return nil, &Error{Op: "query", Err: err}
	}

	elements := make([]Element, len(nodes))
	for i, node := range nodes {
		elements[i] = &chromedpElement{driver: d, node: node}
	}
	return elements, nil
}

// chromedpElement is an element handle backed by a DevTools node ID
type chromedpElement struct {
	driver *Chromedp
	node   *cdp.Node
}

// Text returns the element's rendered text content
func (e *chromedpElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var text string
	err := chromedp.Run(e.driver.browserCtx,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID),
	)
	if err != nil {
		return "", &Error{Op: "text", Err: err}
	}
	return text, nil
}

// Attribute returns the named attribute's value and presence
func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var value string
	var ok bool
	err := chromedp.Run(e.driver.browserCtx,
		chromedp.AttributeValue([]cdp.NodeID{e.node.NodeID}, name, &value, &ok, chromedp.ByNodeID),
	)
	if err != nil {
		return "", false, &Error{Op: "attribute", Err: err}
	}
	return value, ok, nil
}

// Query returns the first descendant matching the selector, or nil
func (e *chromedpElement) Query(ctx context.Context, selector string) (Element, error) {
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
func (e *chromedpElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.driver.queryNodes(selector, e.node)
}

// Click clicks the element, bounded by the driver's click timeout
func (e *chromedpElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clickCtx, cancel := context.WithTimeout(e.driver.browserCtx, e.driver.clickTimeout)
	defer cancel()

	err := chromedp.Run(clickCtx,
		chromedp.Click([]cdp.NodeID{e.node.NodeID}, chromedp.ByNodeID),
	)
	if err != nil {
		return &Error{Op: "click", Err: err}
	}
	return nil
}
