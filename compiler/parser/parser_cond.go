package parser

import (
	"fmt"

	"github.com/scrapescript-lang/scrapescript/compiler/lexer"
)

// Condition precedence, lowest to highest: or, and, not, atom.
// 'and'/'or' are left-associative; 'not' is right-associative.

// parseCondition parses OR expressions
func (p *Parser) parseCondition() CondNode {
	node := p.parseConditionTerm()

	for p.check(lexer.TOKEN_OR) {
		token := p.advance()
		node = &OrCond{
			Left:     node,
			Right:    p.parseConditionTerm(),
			Location: TokenToLocation(token),
		}
	}

	return node
}

// parseConditionTerm parses AND expressions
func (p *Parser) parseConditionTerm() CondNode {
	node := p.parseConditionFactor()

	for p.check(lexer.TOKEN_AND) {
		token := p.advance()
		node = &AndCond{
			Left:     node,
			Right:    p.parseConditionFactor(),
			Location: TokenToLocation(token),
		}
	}

	return node
}

// parseConditionFactor parses 'not', grouped conditions, and atoms
func (p *Parser) parseConditionFactor() CondNode {
	switch {
	case p.check(lexer.TOKEN_NOT):
		token := p.advance()
		return &NotCond{
			Operand:  p.parseConditionFactor(),
			Location: TokenToLocation(token),
		}

	case p.check(lexer.TOKEN_LPAREN):
		p.advance()
		node := p.parseCondition()
		p.consume(lexer.TOKEN_RPAREN, "expected ')' to close condition group")
		return node

	case p.check(lexer.TOKEN_IDENTIFIER) && p.peek().Lexeme == "exists":
		token := p.advance()
		return &ExistsCond{
			Selectors: p.parseSelectorList(),
			Location:  TokenToLocation(token),
		}

	case p.check(lexer.TOKEN_IS_EMPTY):
		return p.parseIsEmptyCondition()

	default:
		p.fail(fmt.Sprintf("unexpected token %q in condition, expected 'exists', 'is_empty', 'not' or '('", p.peek().Lexeme))
		return nil
	}
}

// parseIsEmptyCondition parses: is_empty ($var | STRING)
func (p *Parser) parseIsEmptyCondition() CondNode {
	token := p.advance() // consume 'is_empty'

	var value string
	switch {
	case p.check(lexer.TOKEN_VARIABLE):
		value = p.advance().Lexeme
	case p.check(lexer.TOKEN_STRING):
		value = p.advance().Lexeme
	default:
		p.fail("expected $variable or string after 'is_empty'")
	}

	return &IsEmptyCond{
		Value:    value,
		Location: TokenToLocation(token),
	}
}
