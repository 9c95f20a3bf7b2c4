package lexer

import (
	"testing"
)

// TestKeywords tests tokenization of all reserved keywords
func TestKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"if", TOKEN_IF},
		{"else_if", TOKEN_ELSE_IF},
		{"else", TOKEN_ELSE},
		{"end_if", TOKEN_END_IF},
		{"foreach", TOKEN_FOREACH},
		{"end_foreach", TOKEN_END_FOREACH},
		{"while", TOKEN_WHILE},
		{"end_while", TOKEN_END_WHILE},
		{"as", TOKEN_AS},
		{"select", TOKEN_SELECT},
		{"and", TOKEN_AND},
		{"or", TOKEN_OR},
		{"not", TOKEN_NOT},
		{"data_schema", TOKEN_DATA_SCHEMA},
		{"end_schema", TOKEN_END_SCHEMA},
		{"is_empty", TOKEN_IS_EMPTY},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := New(tt.input)
			tokens, errors := lexer.ScanTokens()

			if len(errors) > 0 {
				t.Fatalf("Unexpected errors: %v", errors)
			}

			if len(tokens) != 2 { // keyword + EOF
				t.Fatalf("Expected 2 tokens, got %d", len(tokens))
			}

			if tokens[0].Type != tt.expected {
				t.Errorf("Expected token type %v, got %v", tt.expected, tokens[0].Type)
			}
		})
	}
}

// TestIdentifiers tests identifier tokenization including element references
func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected TokenType
		lexeme   string
	}{
		{"command", "goto_url", TOKEN_IDENTIFIER, "goto_url"},
		{"underscore", "extract_attribute_list", TOKEN_IDENTIFIER, "extract_attribute_list"},
		{"numbers", "row2", TOKEN_IDENTIFIER, "row2"},
		{"reference", "@item", TOKEN_IDENTIFIER, "@item"},
		{"reference_keyword_collision", "@select", TOKEN_IDENTIFIER, "@select"},
		{"reference_keyword_collision_while", "@while", TOKEN_IDENTIFIER, "@while"},
		{"feed_variable", "$price", TOKEN_VARIABLE, "$price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := New(tt.input)
			tokens, errors := lexer.ScanTokens()

			if len(errors) > 0 {
				t.Fatalf("Unexpected errors: %v", errors)
			}

			if len(tokens) != 2 {
				t.Fatalf("Expected 2 tokens, got %d", len(tokens))
			}

			if tokens[0].Type != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tokens[0].Type)
			}

			if tokens[0].Lexeme != tt.lexeme {
				t.Errorf("Expected lexeme %q, got %q", tt.lexeme, tokens[0].Lexeme)
			}
		})
	}
}

// TestStrings tests string literal scanning with both quote styles and escapes
func TestStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single_quoted", `'hello'`, "hello"},
		{"double_quoted", `"hello"`, "hello"},
		{"escaped_newline", `"a\nb"`, "a\nb"},
		{"escaped_tab", `"a\tb"`, "a\tb"},
		{"escaped_backslash", `"a\\b"`, `a\b`},
		{"escaped_quote_single", `'it\'s'`, "it's"},
		{"escaped_quote_double", `"say \"hi\""`, `say "hi"`},
		{"unknown_escape_passthrough", `"a\qb"`, `a\qb`},
		{"other_quote_unescaped", `"it's"`, "it's"},
		{"css_selector", `'div.results > a[href]'`, "div.results > a[href]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := New(tt.input)
			tokens, errors := lexer.ScanTokens()

			if len(errors) > 0 {
				t.Fatalf("Unexpected errors: %v", errors)
			}

			if tokens[0].Type != TOKEN_STRING {
				t.Fatalf("Expected STRING, got %v", tokens[0].Type)
			}

			if tokens[0].Lexeme != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tokens[0].Lexeme)
			}
		})
	}
}

// TestUnterminatedString tests that an unclosed string reports the open quote position
func TestUnterminatedString(t *testing.T) {
	lexer := New("extract 'title")
	_, errors := lexer.ScanTokens()

	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errors))
	}

	if errors[0].Line != 1 || errors[0].Column != 9 {
		t.Errorf("Expected error at 1:9, got %d:%d", errors[0].Line, errors[0].Column)
	}
}

// TestInvalidCharacter tests that stray punctuation is rejected with position
func TestInvalidCharacter(t *testing.T) {
	lexer := New("save_row\n  extract 'a' 'b' ;")
	_, errors := lexer.ScanTokens()

	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errors))
	}

	if errors[0].Line != 2 {
		t.Errorf("Expected error on line 2, got line %d", errors[0].Line)
	}
}

// TestNewlinesAndComments tests that newlines are tokens and comments are not
func TestNewlinesAndComments(t *testing.T) {
	input := "goto_url 'https://example.com' # navigate\nsave_row\n"
	lexer := New(input)
	tokens, errors := lexer.ScanTokens()

	if len(errors) > 0 {
		t.Fatalf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_IDENTIFIER, TOKEN_STRING, TOKEN_NEWLINE,
		TOKEN_IDENTIFIER, TOKEN_NEWLINE,
		TOKEN_EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}

	for i, typ := range expected {
		if tokens[i].Type != typ {
			t.Errorf("Token %d: expected %v, got %v", i, typ, tokens[i].Type)
		}
	}
}

// TestPositions tests line and column tracking across lines
func TestPositions(t *testing.T) {
	input := "save_row\n  click 'a.next'\n"
	lexer := New(input)
	tokens, errors := lexer.ScanTokens()

	if len(errors) > 0 {
		t.Fatalf("Unexpected errors: %v", errors)
	}

	// tokens: save_row NL click 'a.next' NL EOF
	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("save_row: expected 1:1, got %d:%d", tokens[0].Line, tokens[0].Column)
	}
	if tokens[2].Line != 2 || tokens[2].Column != 3 {
		t.Errorf("click: expected 2:3, got %d:%d", tokens[2].Line, tokens[2].Column)
	}
	if tokens[3].Line != 2 || tokens[3].Column != 9 {
		t.Errorf("selector: expected 2:9, got %d:%d", tokens[3].Line, tokens[3].Column)
	}
}

// TestSelectorList tests comma-separated selector lists
func TestSelectorList(t *testing.T) {
	input := "extract 'name' '.primary', '.fallback'"
	lexer := New(input)
	tokens, errors := lexer.ScanTokens()

	if len(errors) > 0 {
		t.Fatalf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_IDENTIFIER, TOKEN_STRING, TOKEN_STRING, TOKEN_COMMA, TOKEN_STRING, TOKEN_EOF,
	}

	for i, typ := range expected {
		if tokens[i].Type != typ {
			t.Errorf("Token %d: expected %v, got %v", i, typ, tokens[i].Type)
		}
	}
}

// TestParenthesizedCondition tests lexing of grouped conditions
func TestParenthesizedCondition(t *testing.T) {
	input := "if not (exists '#a' or exists '#b')"
	lexer := New(input)
	tokens, errors := lexer.ScanTokens()

	if len(errors) > 0 {
		t.Fatalf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{
		TOKEN_IF, TOKEN_NOT, TOKEN_LPAREN,
		TOKEN_IDENTIFIER, TOKEN_STRING,
		TOKEN_OR,
		TOKEN_IDENTIFIER, TOKEN_STRING,
		TOKEN_RPAREN, TOKEN_EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}

	for i, typ := range expected {
		if tokens[i].Type != typ {
			t.Errorf("Token %d: expected %v, got %v", i, typ, tokens[i].Type)
		}
	}
}

// TestCommentOnlyLine tests that a comment line still yields its newline token
func TestCommentOnlyLine(t *testing.T) {
	input := "# header comment\nexit\n"
	lexer := New(input)
	tokens, errors := lexer.ScanTokens()

	if len(errors) > 0 {
		t.Fatalf("Unexpected errors: %v", errors)
	}

	expected := []TokenType{TOKEN_NEWLINE, TOKEN_IDENTIFIER, TOKEN_NEWLINE, TOKEN_EOF}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, typ := range expected {
		if tokens[i].Type != typ {
			t.Errorf("Token %d: expected %v, got %v", i, typ, tokens[i].Type)
		}
	}
}
