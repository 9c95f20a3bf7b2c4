package parser

import (
	"fmt"
	"strings"

	"github.com/scrapescript-lang/scrapescript/compiler/lexer"
)

// parseBlockBody parses statements until one of the given terminator tokens.
// The terminator itself is left for the caller to consume.
func (p *Parser) parseBlockBody(terminators ...lexer.TokenType) []StmtNode {
	body := []StmtNode{}

	for {
		p.skipNewlines()
		if p.isAtEnd() {
			p.fail("unexpected end of input inside block")
		}
		for _, terminator := range terminators {
			if p.check(terminator) {
				return body
			}
		}
		body = append(body, p.parseStatement())
	}
}

// parseIfStatement parses:
//
//	if <cond> NL <stmts> (else_if <cond> NL <stmts>)* (else NL <stmts>)? end_if
func (p *Parser) parseIfStatement() StmtNode {
	token := p.advance() // consume 'if'

	condition := p.parseCondition()
	p.expectBlockHeaderEnd("if condition")

	trueBranch := p.parseBlockBody(lexer.TOKEN_END_IF, lexer.TOKEN_ELSE_IF, lexer.TOKEN_ELSE)

	elseIfBranches := []ElseIfBranch{}
	for p.check(lexer.TOKEN_ELSE_IF) {
		p.advance()
		elseIfCondition := p.parseCondition()
		p.expectBlockHeaderEnd("else_if condition")

		elseIfBody := p.parseBlockBody(lexer.TOKEN_END_IF, lexer.TOKEN_ELSE_IF, lexer.TOKEN_ELSE)
		elseIfBranches = append(elseIfBranches, ElseIfBranch{
			Condition: elseIfCondition,
			Body:      elseIfBody,
		})
	}

	var falseBranch []StmtNode
	if p.match(lexer.TOKEN_ELSE) {
		falseBranch = p.parseBlockBody(lexer.TOKEN_END_IF)
	}

	p.consume(lexer.TOKEN_END_IF, "expected 'end_if' to close if statement")
	p.expectStatementEnd()

	return &IfStmt{
		Condition:      condition,
		TrueBranch:     trueBranch,
		ElseIfBranches: elseIfBranches,
		FalseBranch:    falseBranch,
		Location:       TokenToLocation(token),
	}
}

// parseForeachStatement parses:
//
//	foreach <selectors> as @name NL <body> end_foreach
func (p *Parser) parseForeachStatement() StmtNode {
	token := p.advance() // consume 'foreach'

	selectors := p.parseSelectorList()
	elementVar := p.parseElementVar()
	p.expectBlockHeaderEnd("foreach declaration")

	body := p.parseBlockBody(lexer.TOKEN_END_FOREACH)

	p.consume(lexer.TOKEN_END_FOREACH, "expected 'end_foreach' to close foreach loop")
	p.expectStatementEnd()

	return &ForeachStmt{
		Selectors:  selectors,
		ElementVar: elementVar,
		Body:       body,
		Location:   TokenToLocation(token),
	}
}

// parseWhileStatement parses:
//
//	while <cond> NL <body> end_while
func (p *Parser) parseWhileStatement() StmtNode {
	token := p.advance() // consume 'while'

	condition := p.parseCondition()
	p.expectBlockHeaderEnd("while condition")

	body := p.parseBlockBody(lexer.TOKEN_END_WHILE)

	p.consume(lexer.TOKEN_END_WHILE, "expected 'end_while' to close while loop")
	p.expectStatementEnd()

	return &WhileStmt{
		Condition: condition,
		Body:      body,
		Location:  TokenToLocation(token),
	}
}

// parseSelectStatement parses: select <selectors> as @name
func (p *Parser) parseSelectStatement() StmtNode {
	token := p.advance() // consume 'select'

	selectors := p.parseSelectorList()
	elementVar := p.parseElementVar()
	p.expectStatementEnd()

	return &SelectStmt{
		Selectors:  selectors,
		ElementVar: elementVar,
		Location:   TokenToLocation(token),
	}
}

// parseDataSchema parses:
//
//	data_schema NL (STRING ('as' $var)? NL)* end_schema
//
// A declaration without an 'as' clause defaults its variable to the column
// name lowercased with spaces replaced by underscores.
func (p *Parser) parseDataSchema() StmtNode {
	token := p.advance() // consume 'data_schema'
	p.skipNewlines()

	declarations := []*VariableDecl{}

	for !p.check(lexer.TOKEN_END_SCHEMA) {
		if p.isAtEnd() {
			p.fail("unexpected end of input inside data_schema block")
		}

		columnToken := p.consume(lexer.TOKEN_STRING, "expected column name string in data_schema")

		variable := "$" + strings.ReplaceAll(strings.ToLower(columnToken.Lexeme), " ", "_")
		if p.match(lexer.TOKEN_AS) {
			varToken := p.consume(lexer.TOKEN_VARIABLE, "expected $variable after 'as'")
			variable = varToken.Lexeme
		}

		declarations = append(declarations, &VariableDecl{
			Column:   columnToken.Lexeme,
			Variable: variable,
			Location: TokenToLocation(columnToken),
		})

		if !p.check(lexer.TOKEN_END_SCHEMA) && !p.check(lexer.TOKEN_NEWLINE) {
			p.fail(fmt.Sprintf("expected newline after declaration of %q", columnToken.Lexeme))
		}
		p.skipNewlines()
	}

	p.consume(lexer.TOKEN_END_SCHEMA, "expected 'end_schema' to close data_schema block")
	p.expectStatementEnd()

	return &DataSchemaStmt{
		Declarations: declarations,
		Location:     TokenToLocation(token),
	}
}

// expectBlockHeaderEnd requires a newline after a block header line
func (p *Parser) expectBlockHeaderEnd(what string) {
	if !p.check(lexer.TOKEN_NEWLINE) {
		p.fail(fmt.Sprintf("expected newline after %s", what))
	}
	p.skipNewlines()
}
