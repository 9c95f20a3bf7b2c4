package parser

import (
	"fmt"
	"strings"

	"github.com/scrapescript-lang/scrapescript/compiler/lexer"
)

// parseStatement parses a single statement, selecting the rule by head token
func (p *Parser) parseStatement() StmtNode {
	switch p.peek().Type {
	case lexer.TOKEN_IF:
		return p.parseIfStatement()
	case lexer.TOKEN_FOREACH:
		return p.parseForeachStatement()
	case lexer.TOKEN_WHILE:
		return p.parseWhileStatement()
	case lexer.TOKEN_SELECT:
		return p.parseSelectStatement()
	case lexer.TOKEN_DATA_SCHEMA:
		return p.parseDataSchema()
	case lexer.TOKEN_IDENTIFIER:
		return p.parseCommand()
	default:
		p.fail(fmt.Sprintf("unexpected token %q, expected a statement", p.peek().Lexeme))
		return nil
	}
}

// parseCommand dispatches identifier-introduced statements through the command table
func (p *Parser) parseCommand() StmtNode {
	token := p.peek()

	var stmt StmtNode
	switch token.Lexeme {
	case "goto_url":
		stmt = p.parseGotoURL()
	case "goto_href":
		stmt = p.parseGotoHref()
	case "extract":
		stmt = p.parseExtract()
	case "extract_list":
		stmt = p.parseExtractList()
	case "extract_attribute":
		stmt = p.parseExtractAttribute()
	case "extract_attribute_list":
		stmt = p.parseExtractAttributeList()
	case "save_row":
		p.advance()
		stmt = &SaveRowStmt{Location: TokenToLocation(token)}
	case "clear_row":
		p.advance()
		stmt = &ClearRowStmt{Location: TokenToLocation(token)}
	case "set_field":
		stmt = p.parseSetField()
	case "timestamp":
		stmt = p.parseTimestamp()
	case "click":
		stmt = p.parseClick()
	case "log":
		stmt = p.parseLog()
	case "throw":
		stmt = p.parseThrow()
	case "history_back":
		p.advance()
		stmt = &HistoryBackStmt{Location: TokenToLocation(token)}
	case "history_forward":
		p.advance()
		stmt = &HistoryForwardStmt{Location: TokenToLocation(token)}
	case "exit":
		p.advance()
		stmt = &ExitStmt{Location: TokenToLocation(token)}
	default:
		p.failAt(token, fmt.Sprintf("unknown command %q", token.Lexeme))
		return nil
	}

	p.expectStatementEnd()
	return stmt
}

// parseSelectorList parses STRING (',' STRING)*. At least one selector is required.
func (p *Parser) parseSelectorList() []string {
	selectors := []string{}

	first := p.consume(lexer.TOKEN_STRING, "expected a selector string")
	selectors = append(selectors, first.Lexeme)

	for p.match(lexer.TOKEN_COMMA) {
		next := p.consume(lexer.TOKEN_STRING, "expected a selector string after ','")
		selectors = append(selectors, next.Lexeme)
	}

	return selectors
}

// parseElementVar parses the '@name' variable after 'as' and enforces the prefix
func (p *Parser) parseElementVar() string {
	p.consume(lexer.TOKEN_AS, "expected 'as' before element variable")
	varToken := p.consume(lexer.TOKEN_IDENTIFIER, "expected element variable after 'as'")

	if !strings.HasPrefix(varToken.Lexeme, "@") {
		p.failAt(varToken, fmt.Sprintf("element variable %q must start with '@'", varToken.Lexeme))
	}

	return varToken.Lexeme
}

func (p *Parser) parseGotoURL() StmtNode {
	token := p.advance()
	url := p.consume(lexer.TOKEN_STRING, "expected URL string after 'goto_url'")
	return &GotoURLStmt{
		URL:      url.Lexeme,
		Location: TokenToLocation(token),
	}
}

func (p *Parser) parseGotoHref() StmtNode {
	token := p.advance()
	return &GotoHrefStmt{
		Selectors: p.parseSelectorList(),
		Location:  TokenToLocation(token),
	}
}

func (p *Parser) parseExtract() StmtNode {
	token := p.advance()
	column := p.consume(lexer.TOKEN_STRING, "expected column name after 'extract'")
	return &ExtractStmt{
		Column:    column.Lexeme,
		Selectors: p.parseSelectorList(),
		Location:  TokenToLocation(token),
	}
}

func (p *Parser) parseExtractList() StmtNode {
	token := p.advance()
	column := p.consume(lexer.TOKEN_STRING, "expected column name after 'extract_list'")
	return &ExtractListStmt{
		Column:    column.Lexeme,
		Selectors: p.parseSelectorList(),
		Location:  TokenToLocation(token),
	}
}

func (p *Parser) parseExtractAttribute() StmtNode {
	token := p.advance()
	column := p.consume(lexer.TOKEN_STRING, "expected column name after 'extract_attribute'")
	attribute := p.consume(lexer.TOKEN_STRING, "expected attribute name after column name")
	return &ExtractAttributeStmt{
		Column:    column.Lexeme,
		Attribute: attribute.Lexeme,
		Selectors: p.parseSelectorList(),
		Location:  TokenToLocation(token),
	}
}

func (p *Parser) parseExtractAttributeList() StmtNode {
	token := p.advance()
	column := p.consume(lexer.TOKEN_STRING, "expected column name after 'extract_attribute_list'")
	attribute := p.consume(lexer.TOKEN_STRING, "expected attribute name after column name")
	return &ExtractAttributeListStmt{
		Column:    column.Lexeme,
		Attribute: attribute.Lexeme,
		Selectors: p.parseSelectorList(),
		Location:  TokenToLocation(token),
	}
}

func (p *Parser) parseSetField() StmtNode {
	token := p.advance()
	column := p.consume(lexer.TOKEN_STRING, "expected column name after 'set_field'")
	value := p.consume(lexer.TOKEN_STRING, "expected value after column name")
	return &SetFieldStmt{
		Column:   column.Lexeme,
		Value:    value.Lexeme,
		Location: TokenToLocation(token),
	}
}

func (p *Parser) parseTimestamp() StmtNode {
	token := p.advance()
	column := p.consume(lexer.TOKEN_STRING, "expected column name after 'timestamp'")
	return &TimestampStmt{
		Column:   column.Lexeme,
		Location: TokenToLocation(token),
	}
}

func (p *Parser) parseClick() StmtNode {
	token := p.advance()
	return &ClickStmt{
		Selectors: p.parseSelectorList(),
		Location:  TokenToLocation(token),
	}
}

func (p *Parser) parseLog() StmtNode {
	token := p.advance()
	message := p.consume(lexer.TOKEN_STRING, "expected message string after 'log'")
	return &LogStmt{
		Message:  message.Lexeme,
		Location: TokenToLocation(token),
	}
}

func (p *Parser) parseThrow() StmtNode {
	token := p.advance()
	message := p.consume(lexer.TOKEN_STRING, "expected message string after 'throw'")
	return &ThrowStmt{
		Message:  message.Lexeme,
		Location: TokenToLocation(token),
	}
}
