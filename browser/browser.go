// Package browser defines the narrow automation capability the interpreter
// consumes, plus the concrete drivers that satisfy it.
package browser

import (
	"context"
	"fmt"
)

// Element is a handle to a single DOM element.
//
// Text never fails with a null value: a missing text content reads as the
// empty string. Attribute reports presence separately so callers can tell an
// empty attribute from an absent one.
type Element interface {
	// Text returns the element's text content.
	Text(ctx context.Context) (string, error)

	// Attribute returns the value of the named attribute and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Query returns the first descendant matching the selector, or nil.
	Query(ctx context.Context, selector string) (Element, error)

	// QueryAll returns all descendants matching the selector.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Click clicks the element. A non-nil error covers every failure mode,
	// including unexpected navigation and driver timeouts.
	Click(ctx context.Context) error
}

// Automation is the browser capability surface.
//
// Launch must be called before any other operation; Cleanup is idempotent and
// must be safe to call on every exit path.
type Automation interface {
	// Launch initialises the driver. Subsequent calls operate on the active page.
	Launch(ctx context.Context, headless bool) error

	// Goto navigates to a URL and suspends until the page is load-stable.
	Goto(ctx context.Context, url string) error

	// CurrentURL returns the current top-level URL.
	CurrentURL(ctx context.Context) (string, error)

	// Query returns the first element matching the selector in page scope, or nil.
	Query(ctx context.Context, selector string) (Element, error)

	// QueryAll returns all elements matching the selector in page scope.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// GoBack navigates back in browser history.
	GoBack(ctx context.Context) error

	// GoForward navigates forward in browser history.
	GoForward(ctx context.Context) error

	// Cleanup tears down all driver resources. Idempotent.
	Cleanup(ctx context.Context) error
}

// Error represents a driver-level failure with the operation that caused it
type Error struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("browser %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying driver error
func (e *Error) Unwrap() error {
	return e.Err
}
