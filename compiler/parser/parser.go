package parser

import (
	"fmt"

	"github.com/scrapescript-lang/scrapescript/compiler/lexer"
)

// Parser transforms token streams into an Abstract Syntax Tree.
//
// ScrapeScript has no error recovery: the first syntax error aborts the parse,
// so helpers panic with a ParseError that Parse recovers at the top.
type Parser struct {
	tokens  []lexer.Token
	current int
}

// New creates a new Parser from a token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
	}
}

// Parse parses the token stream and returns the AST or the first syntax error
func (p *Parser) Parse() (program *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if parseErr, ok := r.(ParseError); ok {
				program = nil
				err = parseErr
				return
			}
			panic(r)
		}
	}()

	startToken := p.peek()
	statements := []StmtNode{}

	for !p.isAtEnd() {
		if p.match(lexer.TOKEN_NEWLINE) {
			continue
		}
		statements = append(statements, p.parseStatement())
	}

	return &Program{
		Statements: statements,
		Location:   TokenToLocation(startToken),
	}, nil
}

// Helper methods for token manipulation

// isAtEnd checks if we're at the end of the token stream
func (p *Parser) isAtEnd() bool {
	if p.current >= len(p.tokens) {
		return true
	}
	return p.tokens[p.current].Type == lexer.TOKEN_EOF
}

// peek returns the current token without consuming it
func (p *Parser) peek() lexer.Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // Return EOF
	}
	return p.tokens[p.current]
}

// previous returns the previous token
func (p *Parser) previous() lexer.Token {
	if p.current > 0 {
		return p.tokens[p.current-1]
	}
	return p.tokens[0]
}

// advance consumes and returns the current token
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check checks if the current token is of the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.current >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current].Type == tokenType
}

// match checks if the current token matches any of the given types.
// If it matches, consumes the token and returns true.
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, tokenType := range types {
		if p.check(tokenType) {
			p.advance()
			return true
		}
	}
	return false
}

// consume consumes a token of the given type or aborts the parse
func (p *Parser) consume(tokenType lexer.TokenType, message string) lexer.Token {
	if p.check(tokenType) {
		return p.advance()
	}
	p.fail(message)
	return lexer.Token{}
}

// skipNewlines skips any newline tokens
func (p *Parser) skipNewlines() {
	for p.match(lexer.TOKEN_NEWLINE) {
		// Keep skipping
	}
}

// expectStatementEnd enforces the statement-terminator rule: every simple
// statement must be followed by a newline or end-of-input, so two statements
// never share a line.
func (p *Parser) expectStatementEnd() {
	if p.isAtEnd() {
		return
	}
	if p.check(lexer.TOKEN_NEWLINE) {
		p.advance()
		return
	}
	p.fail(fmt.Sprintf("expected newline after statement, got %q", p.peek().Lexeme))
}

// fail aborts the parse at the current token
func (p *Parser) fail(message string) {
	panic(ParseError{
		Message:  message,
		Location: TokenToLocation(p.peek()),
	})
}

// failAt aborts the parse at a specific token
func (p *Parser) failAt(token lexer.Token, message string) {
	panic(ParseError{
		Message:  message,
		Location: TokenToLocation(token),
	})
}
