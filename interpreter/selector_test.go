package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrapescript-lang/scrapescript/browser"
	"github.com/scrapescript-lang/scrapescript/compiler/parser"
)

func selectorFixture(t *testing.T) *Interpreter {
	t.Helper()

	driver, err := browser.NewStaticFromPages(map[string]string{
		"https://fixture.test": `<html><body>
			<ul>
				<li class="row"><a href="/a">A</a></li>
				<li class="row"><a href="/b">B</a></li>
				<li class="row"><a href="/c">C</a></li>
			</ul>
		</body></html>`,
	})
	require.NoError(t, err)
	require.NoError(t, driver.Launch(context.Background(), true))
	require.NoError(t, driver.Goto(context.Background(), "https://fixture.test"))

	in := New(&parser.Program{}, driver, zap.NewNop(), Options{})
	return in
}

func TestResolvePlainSelector(t *testing.T) {
	in := selectorFixture(t)

	sel, err := in.resolveSelector("li.row", parser.SourceLocation{Line: 1, Column: 1})
	require.NoError(t, err)
	assert.Equal(t, "li.row", sel.CSS)
	assert.Nil(t, sel.Parent)
	assert.Equal(t, -1, sel.Index)

	elements, err := in.resolveAll(context.Background(), sel)
	require.NoError(t, err)
	assert.Len(t, elements, 3)
}

func TestResolveReference(t *testing.T) {
	in := selectorFixture(t)
	in.references["@row"] = "li.row"

	sel, err := in.resolveSelector("@row", parser.SourceLocation{})
	require.NoError(t, err)
	assert.Equal(t, "li.row", sel.CSS)
	assert.Equal(t, -1, sel.Index, "no live foreach index")
}

func TestResolveReferenceWithIndex(t *testing.T) {
	in := selectorFixture(t)
	in.references["@row"] = "li.row"
	in.foreachIndexes["@row"] = 1

	sel, err := in.resolveSelector("@row", parser.SourceLocation{})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)

	elements, err := in.resolveAll(context.Background(), sel)
	require.NoError(t, err)
	require.Len(t, elements, 1)

	text, err := elements[0].Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B", text)
}

func TestResolveDescendantReference(t *testing.T) {
	in := selectorFixture(t)
	in.references["@row"] = "li.row"
	in.foreachIndexes["@row"] = 2

	sel, err := in.resolveSelector("@row a", parser.SourceLocation{})
	require.NoError(t, err)
	assert.Equal(t, "a", sel.CSS)
	require.NotNil(t, sel.Parent)
	assert.Equal(t, 2, sel.Parent.Index)

	element, err := in.resolveFirst(context.Background(), sel)
	require.NoError(t, err)
	require.NotNil(t, element)

	href, ok, err := element.Attribute(context.Background(), "href")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/c", href)
}

func TestResolveChainedReferences(t *testing.T) {
	in := selectorFixture(t)
	in.references["@row"] = "li.row"
	in.references["@link"] = "@row a"
	in.foreachIndexes["@row"] = 0

	element, err := in.resolveRawFirst(context.Background(), "@link")
	require.NoError(t, err)
	require.NotNil(t, element)

	text, err := element.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", text)
}

func TestResolveUnknownReference(t *testing.T) {
	in := selectorFixture(t)

	_, err := in.resolveSelector("@ghost", parser.SourceLocation{Line: 4, Column: 9})
	require.Error(t, err)

	refErr, ok := AsReferenceError(err)
	require.True(t, ok)
	assert.Equal(t, "@ghost", refErr.Name)
	assert.Equal(t, 4, refErr.Line)
	assert.Equal(t, 9, refErr.Column)
}

func TestIndexOutOfRange(t *testing.T) {
	in := selectorFixture(t)
	in.references["@row"] = "li.row"
	in.foreachIndexes["@row"] = 99

	sel, err := in.resolveSelector("@row", parser.SourceLocation{})
	require.NoError(t, err)

	elements, err := in.resolveAll(context.Background(), sel)
	require.NoError(t, err)
	assert.Empty(t, elements)
}

// resolveRawFirst is a test convenience over resolveSelector + resolveFirst
func (in *Interpreter) resolveRawFirst(ctx context.Context, raw string) (browser.Element, error) {
	sel, err := in.resolveSelector(raw, parser.SourceLocation{})
	if err != nil {
		return nil, err
	}
	return in.resolveFirst(ctx, sel)
}
