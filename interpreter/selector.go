package interpreter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/scrapescript-lang/scrapescript/browser"
	"github.com/scrapescript-lang/scrapescript/compiler/parser"
)

// Selector is a resolved query plan built from a raw selector string.
// A chain of parents represents nested queries: resolve the parent to a
// single element, then query within its subtree.
type Selector struct {
	CSS    string    // CSS fragment; empty with a parent means "the parent itself"
	Parent *Selector // nil for page-scoped queries
	Index  int       // nth-of-siblings at the current scope; -1 when unset
}

// resolveSelector translates a raw selector string into a Selector.
//
//	"@name"      — dereference the stored raw selector, recursively; if the
//	               name is a live foreach variable, pin its iteration index.
//	"@name rest" — as above, wrapped with a child selector for "rest".
//	anything else — a plain page-scoped CSS selector.
func (in *Interpreter) resolveSelector(raw string, loc parser.SourceLocation) (*Selector, error) {
	if !strings.HasPrefix(raw, "@") {
		return &Selector{CSS: raw, Index: -1}, nil
	}

	name, rest, _ := strings.Cut(raw, " ")

	stored, ok := in.references[name]
	if !ok {
		return nil, &ReferenceError{Name: name, Line: loc.Line, Column: loc.Column}
	}

	base, err := in.resolveSelector(stored, loc)
	if err != nil {
		return nil, err
	}
	if index, live := in.foreachIndexes[name]; live {
		base.Index = index
	}

	if rest == "" {
		return base, nil
	}
	return &Selector{CSS: rest, Parent: base, Index: -1}, nil
}

// resolveScope resolves the parent chain down to a concrete element scope.
// A nil element with a nil error means the scope did not match.
func (in *Interpreter) resolveScope(ctx context.Context, sel *Selector) (browser.Element, error) {
	parent := sel.Parent

	element, err := in.resolveFirst(ctx, parent)
	if err != nil || element == nil {
		return nil, err
	}
	return element, nil
}

// resolveFirst resolves a Selector to its single element, or nil if no match
func (in *Interpreter) resolveFirst(ctx context.Context, sel *Selector) (browser.Element, error) {
	elements, err := in.resolveAll(ctx, sel)
	if err != nil || len(elements) == 0 {
		return nil, err
	}
	return elements[0], nil
}

// resolveAll resolves a Selector to all matching elements.
// An index pins the result to the n-th match (empty when out of range).
func (in *Interpreter) resolveAll(ctx context.Context, sel *Selector) ([]browser.Element, error) {
	var elements []browser.Element

	if sel.Parent == nil {
		found, err := in.browser.QueryAll(ctx, sel.CSS)
		if err != nil {
			return nil, err
		}
		elements = found
	} else {
		scope, err := in.resolveScope(ctx, sel)
		if err != nil {
			return nil, err
		}
		if scope == nil {
			return nil, nil
		}
		if sel.CSS == "" {
			elements = []browser.Element{scope}
		} else {
			found, err := scope.QueryAll(ctx, sel.CSS)
			if err != nil {
				return nil, err
			}
			elements = found
		}
	}

	if sel.Index >= 0 {
		if sel.Index >= len(elements) {
			return nil, nil
		}
		return elements[sel.Index : sel.Index+1], nil
	}
	return elements, nil
}

// firstWorking implements first-working-selector semantics: try each raw
// selector in order and take the first that yields at least one element.
// Unknown references are fatal; driver-level query failures are logged and
// treated as a non-match for that selector.
func (in *Interpreter) firstWorking(ctx context.Context, selectors []string, loc parser.SourceLocation) ([]browser.Element, string, error) {
	for _, raw := range selectors {
		substituted := in.substitute(raw)

		sel, err := in.resolveSelector(substituted, loc)
		if err != nil {
			return nil, "", err
		}

		elements, err := in.resolveAll(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", err
			}
			in.logger.Warn("selector query failed",
				zap.String("selector", substituted),
				zap.Int("line", loc.Line),
				zap.Error(err))
			continue
		}
		if len(elements) > 0 {
			return elements, raw, nil
		}
	}
	return nil, "", nil
}
