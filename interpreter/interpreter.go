package interpreter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrapescript-lang/scrapescript/browser"
	"github.com/scrapescript-lang/scrapescript/compiler/parser"
)

// DefaultWhileCap is the hard safety cap on while-loop iterations
const DefaultWhileCap = 1000

// runState tracks the interpreter's run loop state
type runState int

const (
	stateIdle runState = iota
	stateLaunched
	stateExecuting
	stateTerminating
)

// Options configures a run
type Options struct {
	// Headless controls the browser launch mode
	Headless bool

	// WhileCap overrides the while-loop iteration cap (default 1000)
	WhileCap int

	// Feed holds the optional tabular input records; when non-empty the
	// program body executes once per record with $var substitution bound
	// to that record.
	Feed []map[string]string
}

// Interpreter walks a parsed program and drives the browser capability.
// One interpreter owns one browser session for its lifetime; it is not safe
// for concurrent use.
type Interpreter struct {
	program *parser.Program
	browser browser.Automation
	logger  *zap.Logger
	opts    Options

	state      runState
	currentRow *Row
	rows       []*Row

	references     map[string]string
	foreachIndexes map[string]int
	rowStateStack  []*Row

	dataVars map[string]string // $variable -> feed column name
	record   map[string]string // current feed record
}

// New creates an interpreter for the given program and browser driver
func New(program *parser.Program, driver browser.Automation, logger *zap.Logger, opts Options) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WhileCap <= 0 {
		opts.WhileCap = DefaultWhileCap
	}

	return &Interpreter{
		program:        program,
		browser:        driver,
		logger:         logger.With(zap.String("run_id", uuid.NewString())),
		opts:           opts,
		state:          stateIdle,
		currentRow:     NewRow(),
		rows:           []*Row{},
		references:     map[string]string{},
		foreachIndexes: map[string]int{},
		rowStateStack:  []*Row{},
		dataVars:       map[string]string{},
	}
}

// Rows returns the rows committed so far, in save order
func (in *Interpreter) Rows() []*Row {
	return in.rows
}

// Execute runs the program. The accumulated rows are returned even when the
// run fails; browser resources are released on every exit path.
func (in *Interpreter) Execute(ctx context.Context) ([]*Row, error) {
	if err := in.browser.Launch(ctx, in.opts.Headless); err != nil {
		return in.rows, fmt.Errorf("browser launch: %w", err)
	}
	in.state = stateLaunched

	defer func() {
		in.state = stateTerminating
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := in.browser.Cleanup(cleanupCtx); err != nil {
			in.logger.Warn("browser cleanup failed", zap.Error(err))
		}
	}()

	in.state = stateExecuting
	err := in.run(ctx)
	if errors.Is(err, errExit) {
		err = nil
	}
	return in.rows, err
}

// run executes the program body, once per feed record when a feed is bound
func (in *Interpreter) run(ctx context.Context) error {
	if len(in.opts.Feed) == 0 {
		return in.execStatements(ctx, in.program.Statements)
	}

	for i, record := range in.opts.Feed {
		in.record = record
		in.resetRecordState()
		in.logger.Info("feed record", zap.Int("index", i))

		// exit and errors stop the whole run, not just the current record.
		if err := in.execStatements(ctx, in.program.Statements); err != nil {
			return err
		}
	}
	return nil
}

// resetRecordState clears per-record runtime state between feed records
func (in *Interpreter) resetRecordState() {
	in.currentRow = NewRow()
	in.references = map[string]string{}
	in.foreachIndexes = map[string]int{}
	in.rowStateStack = []*Row{}
}

// execStatements executes a statement list in source order
func (in *Interpreter) execStatements(ctx context.Context, statements []parser.StmtNode) error {
	for _, stmt := range statements {
		if err := in.execStatement(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// execStatement dispatches a single statement by node type
func (in *Interpreter) execStatement(ctx context.Context, stmt parser.StmtNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch node := stmt.(type) {
	case *parser.GotoURLStmt:
		return in.execGotoURL(ctx, node)
	case *parser.GotoHrefStmt:
		return in.execGotoHref(ctx, node)
	case *parser.ExtractStmt:
		return in.execExtract(ctx, node)
	case *parser.ExtractListStmt:
		return in.execExtractList(ctx, node)
	case *parser.ExtractAttributeStmt:
		return in.execExtractAttribute(ctx, node)
	case *parser.ExtractAttributeListStmt:
		return in.execExtractAttributeList(ctx, node)
	case *parser.SaveRowStmt:
		return in.execSaveRow(node)
	case *parser.ClearRowStmt:
		in.currentRow = NewRow()
		return nil
	case *parser.SetFieldStmt:
		in.currentRow.Set(in.substitute(node.Column), in.substitute(node.Value))
		return nil
	case *parser.TimestampStmt:
		in.currentRow.Set(node.Column, time.Now().Format(time.RFC3339))
		return nil
	case *parser.ClickStmt:
		return in.execClick(ctx, node)
	case *parser.HistoryBackStmt:
		if err := in.browser.GoBack(ctx); err != nil {
			return in.browserFailure(ctx, "history_back", node.Location, err)
		}
		return nil
	case *parser.HistoryForwardStmt:
		if err := in.browser.GoForward(ctx); err != nil {
			return in.browserFailure(ctx, "history_forward", node.Location, err)
		}
		return nil
	case *parser.LogStmt:
		in.logger.Info(in.substitute(node.Message))
		return nil
	case *parser.ThrowStmt:
		return &ScriptError{Message: in.substitute(node.Message), Line: node.Location.Line}
	case *parser.ExitStmt:
		return errExit
	case *parser.IfStmt:
		return in.execIf(ctx, node)
	case *parser.ForeachStmt:
		return in.execForeach(ctx, node)
	case *parser.WhileStmt:
		return in.execWhile(ctx, node)
	case *parser.SelectStmt:
		return in.execSelect(ctx, node)
	case *parser.DataSchemaStmt:
		in.execDataSchema(node)
		return nil
	default:
		return fmt.Errorf("%d:%d: unknown statement type %T",
			stmt.GetLocation().Line, stmt.GetLocation().Column, stmt)
	}
}

func (in *Interpreter) execGotoURL(ctx context.Context, node *parser.GotoURLStmt) error {
	target := in.substitute(node.URL)
	if err := in.browser.Goto(ctx, target); err != nil {
		return fmt.Errorf("%d:%d: goto_url %q: %w", node.Location.Line, node.Location.Column, target, err)
	}
	in.logger.Info("navigated", zap.String("url", target))
	return nil
}

func (in *Interpreter) execGotoHref(ctx context.Context, node *parser.GotoHrefStmt) error {
	elements, used, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		in.logger.Warn("goto_href: no selector matched",
			zap.Strings("selectors", node.Selectors),
			zap.Int("line", node.Location.Line))
		return nil
	}

	href, ok, err := elements[0].Attribute(ctx, "href")
	if err != nil {
		return in.browserFailure(ctx, "goto_href", node.Location, err)
	}
	if !ok || href == "" {
		in.logger.Warn("goto_href: element has no href",
			zap.String("selector", used),
			zap.Int("line", node.Location.Line))
		return nil
	}

	if strings.HasPrefix(href, "/") {
		base, err := in.browser.CurrentURL(ctx)
		if err != nil {
			return in.browserFailure(ctx, "goto_href", node.Location, err)
		}
		if parsed, err := url.Parse(base); err == nil {
			href = parsed.Scheme + "://" + parsed.Host + href
		}
	}

	if err := in.browser.Goto(ctx, href); err != nil {
		return fmt.Errorf("%d:%d: goto_href %q: %w", node.Location.Line, node.Location.Column, href, err)
	}
	in.logger.Info("navigated via href", zap.String("url", href))
	return nil
}

func (in *Interpreter) execExtract(ctx context.Context, node *parser.ExtractStmt) error {
	column := in.substitute(node.Column)

	elements, used, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		in.logger.Debug("extract: no selector matched",
			zap.String("column", column),
			zap.Int("line", node.Location.Line))
		in.currentRow.Set(column, nil)
		return nil
	}

	text, err := elements[0].Text(ctx)
	if err != nil {
		if softErr := in.browserFailure(ctx, "extract", node.Location, err); softErr != nil {
			return softErr
		}
		in.currentRow.Set(column, nil)
		return nil
	}

	in.currentRow.Set(column, strings.TrimSpace(text))
	in.logger.Debug("extracted",
		zap.String("column", column),
		zap.String("selector", used))
	return nil
}

func (in *Interpreter) execExtractList(ctx context.Context, node *parser.ExtractListStmt) error {
	column := in.substitute(node.Column)

	elements, used, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}

	texts := []string{}
	for _, element := range elements {
		text, err := element.Text(ctx)
		if err != nil {
			if softErr := in.browserFailure(ctx, "extract_list", node.Location, err); softErr != nil {
				return softErr
			}
			continue
		}
		texts = append(texts, strings.TrimSpace(text))
	}

	in.currentRow.Set(column, texts)
	in.logger.Debug("extracted list",
		zap.String("column", column),
		zap.String("selector", used),
		zap.Int("count", len(texts)))
	return nil
}

func (in *Interpreter) execExtractAttribute(ctx context.Context, node *parser.ExtractAttributeStmt) error {
	column := in.substitute(node.Column)

	elements, _, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		in.currentRow.Set(column, nil)
		return nil
	}

	value, ok, err := elements[0].Attribute(ctx, in.substitute(node.Attribute))
	if err != nil {
		if softErr := in.browserFailure(ctx, "extract_attribute", node.Location, err); softErr != nil {
			return softErr
		}
		in.currentRow.Set(column, nil)
		return nil
	}
	if !ok {
		// Missing attribute stores null, not empty string.
		in.currentRow.Set(column, nil)
		return nil
	}

	in.currentRow.Set(column, value)
	return nil
}

func (in *Interpreter) execExtractAttributeList(ctx context.Context, node *parser.ExtractAttributeListStmt) error {
	column := in.substitute(node.Column)
	attribute := in.substitute(node.Attribute)

	elements, _, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}

	values := []string{}
	for _, element := range elements {
		value, ok, err := element.Attribute(ctx, attribute)
		if err != nil {
			if softErr := in.browserFailure(ctx, "extract_attribute_list", node.Location, err); softErr != nil {
				return softErr
			}
			continue
		}
		if !ok {
			// Elements without the attribute are omitted from the list.
			continue
		}
		values = append(values, strings.TrimSpace(value))
	}

	in.currentRow.Set(column, values)
	return nil
}

// execSaveRow commits a deep copy of the current row. Inside a loop the
// current row is restored from the loop-entry snapshot, so fields set before
// the loop persist across iterations while per-iteration additions drop.
func (in *Interpreter) execSaveRow(node *parser.SaveRowStmt) error {
	if in.currentRow.Len() == 0 {
		in.logger.Warn("saving empty row", zap.Int("line", node.Location.Line))
	}
	in.rows = append(in.rows, in.currentRow.Clone())

	if len(in.rowStateStack) > 0 {
		in.currentRow = in.rowStateStack[len(in.rowStateStack)-1].Clone()
	} else {
		in.currentRow = NewRow()
	}
	return nil
}

func (in *Interpreter) execClick(ctx context.Context, node *parser.ClickStmt) error {
	elements, used, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		in.logger.Warn("click: no selector matched",
			zap.Strings("selectors", node.Selectors),
			zap.Int("line", node.Location.Line))
		return nil
	}

	if err := elements[0].Click(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		// A failed click is not fatal; the script continues.
		in.logger.Warn("click failed",
			zap.String("selector", used),
			zap.Int("line", node.Location.Line),
			zap.Error(err))
		return nil
	}

	in.logger.Debug("clicked", zap.String("selector", used))
	return nil
}

func (in *Interpreter) execIf(ctx context.Context, node *parser.IfStmt) error {
	result, err := in.evalCondition(ctx, node.Condition)
	if err != nil {
		return err
	}
	if result {
		return in.execStatements(ctx, node.TrueBranch)
	}

	for _, branch := range node.ElseIfBranches {
		result, err := in.evalCondition(ctx, branch.Condition)
		if err != nil {
			return err
		}
		if result {
			return in.execStatements(ctx, branch.Body)
		}
	}

	if node.FalseBranch != nil {
		return in.execStatements(ctx, node.FalseBranch)
	}
	return nil
}

// execForeach iterates the body once per element matched by the first working
// selector. The element variable is bound to the working selector's raw string
// and the iteration index, so "@name" selectors inside the body re-resolve to
// the current element. Cleanup runs on every exit path.
func (in *Interpreter) execForeach(ctx context.Context, node *parser.ForeachStmt) error {
	elements, working, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		in.logger.Debug("foreach: no selector matched",
			zap.Strings("selectors", node.Selectors),
			zap.Int("line", node.Location.Line))
		return nil
	}

	cleanup := in.enterLoop(node.ElementVar, working)
	defer cleanup()

	for i := 0; i < len(elements); i++ {
		in.foreachIndexes[node.ElementVar] = i
		if err := in.execStatements(ctx, node.Body); err != nil {
			return err
		}
	}
	return nil
}

// execWhile repeats the body while the condition holds, bounded by the
// iteration cap. Hitting the cap logs a warning and ends the loop as if the
// condition had become false.
func (in *Interpreter) execWhile(ctx context.Context, node *parser.WhileStmt) error {
	cleanup := in.enterLoop("", "")
	defer cleanup()

	for iteration := 0; ; iteration++ {
		if iteration >= in.opts.WhileCap {
			in.logger.Warn("while loop hit iteration cap",
				zap.Int("cap", in.opts.WhileCap),
				zap.Int("line", node.Location.Line))
			return nil
		}

		result, err := in.evalCondition(ctx, node.Condition)
		if err != nil {
			return err
		}
		if !result {
			return nil
		}

		if err := in.execStatements(ctx, node.Body); err != nil {
			return err
		}
	}
}

// execSelect binds the first working selector's raw string to the variable
func (in *Interpreter) execSelect(ctx context.Context, node *parser.SelectStmt) error {
	elements, working, err := in.firstWorking(ctx, node.Selectors, node.Location)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		in.logger.Warn("select: no selector matched",
			zap.Strings("selectors", node.Selectors),
			zap.Int("line", node.Location.Line))
		return nil
	}

	in.references[node.ElementVar] = working
	in.logger.Debug("selected",
		zap.String("variable", node.ElementVar),
		zap.String("selector", working))
	return nil
}

// execDataSchema registers the feed variable bindings
func (in *Interpreter) execDataSchema(node *parser.DataSchemaStmt) {
	for _, decl := range node.Declarations {
		in.dataVars[decl.Variable] = decl.Column
	}
}

// enterLoop pushes the row snapshot and binds the element variable (if any),
// returning a cleanup that restores everything: the variable bindings go away
// unconditionally and the row state stack returns to its pre-loop depth.
// Inner loops shadow outer bindings on a name clash; cleanup restores the
// outer binding.
func (in *Interpreter) enterLoop(elementVar, workingSelector string) func() {
	in.rowStateStack = append(in.rowStateStack, in.currentRow.Clone())

	var prevRef string
	var hadRef bool
	var prevIndex int
	var hadIndex bool

	if elementVar != "" {
		prevRef, hadRef = in.references[elementVar]
		prevIndex, hadIndex = in.foreachIndexes[elementVar]
		in.references[elementVar] = workingSelector
	}

	return func() {
		in.rowStateStack = in.rowStateStack[:len(in.rowStateStack)-1]

		if elementVar == "" {
			return
		}
		if hadRef {
			in.references[elementVar] = prevRef
		} else {
			delete(in.references, elementVar)
		}
		if hadIndex {
			in.foreachIndexes[elementVar] = prevIndex
		} else {
			delete(in.foreachIndexes, elementVar)
		}
	}
}

// browserFailure classifies a driver error mid-statement: cancellation is
// always fatal, anything else is logged and execution continues.
func (in *Interpreter) browserFailure(ctx context.Context, op string, loc parser.SourceLocation, err error) error {
	if ctx.Err() != nil {
		return err
	}
	in.logger.Warn("browser operation failed",
		zap.String("op", op),
		zap.Int("line", loc.Line),
		zap.Error(err))
	return nil
}

// substitute replaces $variable tokens with the current feed record's values.
// Without a bound feed record this is a no-op.
func (in *Interpreter) substitute(s string) string {
	if len(in.dataVars) == 0 || in.record == nil || !strings.Contains(s, "$") {
		return s
	}

	// Longer names first so $product_url never loses its tail to $product.
	out := s
	for _, variable := range in.sortedVars() {
		column := in.dataVars[variable]
		out = strings.ReplaceAll(out, variable, in.record[column])
	}
	return out
}

// sortedVars returns the feed variables longest-first
func (in *Interpreter) sortedVars() []string {
	vars := make([]string, 0, len(in.dataVars))
	for variable := range in.dataVars {
		vars = append(vars, variable)
	}
	sort.Slice(vars, func(i, j int) bool {
		return len(vars[i]) > len(vars[j])
	})
	return vars
}
