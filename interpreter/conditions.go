package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrapescript-lang/scrapescript/compiler/parser"
)

// evalCondition evaluates a condition tree. 'and'/'or' short-circuit left to
// right: the right operand's selectors are never queried when the left
// operand already determines the result.
func (in *Interpreter) evalCondition(ctx context.Context, cond parser.CondNode) (bool, error) {
	switch node := cond.(type) {
	case *parser.ExistsCond:
		elements, _, err := in.firstWorking(ctx, node.Selectors, node.Location)
		if err != nil {
			return false, err
		}
		return len(elements) > 0, nil

	case *parser.AndCond:
		left, err := in.evalCondition(ctx, node.Left)
		if err != nil || !left {
			return false, err
		}
		return in.evalCondition(ctx, node.Right)

	case *parser.OrCond:
		left, err := in.evalCondition(ctx, node.Left)
		if err != nil || left {
			return left, err
		}
		return in.evalCondition(ctx, node.Right)

	case *parser.NotCond:
		result, err := in.evalCondition(ctx, node.Operand)
		if err != nil {
			return false, err
		}
		return !result, nil

	case *parser.IsEmptyCond:
		value := node.Value
		if strings.HasPrefix(value, "$") {
			if column, ok := in.dataVars[value]; ok && in.record != nil {
				value = in.record[column]
			} else {
				value = ""
			}
		} else {
			value = in.substitute(value)
		}
		return strings.TrimSpace(value) == "", nil

	default:
		return false, fmt.Errorf("%d:%d: unknown condition type %T",
			cond.GetLocation().Line, cond.GetLocation().Column, cond)
	}
}
