package lexer

// keywords maps keyword strings to their token types for O(1) lookup.
// Command names (goto_url, extract, ...) are deliberately absent: they lex as
// identifiers and the parser's statement table gives them meaning, so new
// commands never collide with user column names.
var keywords = map[string]TokenType{
	// Control flow
	"if":          TOKEN_IF,
	"else_if":     TOKEN_ELSE_IF,
	"else":        TOKEN_ELSE,
	"end_if":      TOKEN_END_IF,
	"foreach":     TOKEN_FOREACH,
	"end_foreach": TOKEN_END_FOREACH,
	"while":       TOKEN_WHILE,
	"end_while":   TOKEN_END_WHILE,

	// Element capture
	"as":     TOKEN_AS,
	"select": TOKEN_SELECT,

	// Logical operators
	"and": TOKEN_AND,
	"or":  TOKEN_OR,
	"not": TOKEN_NOT,

	// Data schema
	"data_schema": TOKEN_DATA_SCHEMA,
	"end_schema":  TOKEN_END_SCHEMA,
	"is_empty":    TOKEN_IS_EMPTY,
}

// lookupKeyword checks if an identifier is a keyword.
// Returns the token type and true if it's a keyword, TOKEN_IDENTIFIER and false otherwise.
func lookupKeyword(identifier string) (TokenType, bool) {
	if tokenType, ok := keywords[identifier]; ok {
		return tokenType, true
	}
	return TOKEN_IDENTIFIER, false
}
