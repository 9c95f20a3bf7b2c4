package errors

import (
	"encoding/json"
	"fmt"

	"github.com/scrapescript-lang/scrapescript/compiler/lexer"
	"github.com/scrapescript-lang/scrapescript/compiler/parser"
)

// Severity represents the severity level of an error
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// SourceLocation represents a location in source code
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// CompilerError is the error surfaced for any front-end failure.
// Phase is "lexer" or "parser"; codes are stable for tooling.
type CompilerError struct {
	Phase    string         `json:"phase"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Location SourceLocation `json:"location"`
	Severity Severity       `json:"severity"`
}

// Error implements the error interface
func (e CompilerError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Location.File,
		e.Location.Line,
		e.Location.Column,
		e.Code,
		e.Message)
}

// FromLexError converts a lexer error into a CompilerError
func FromLexError(err lexer.LexError, file string) CompilerError {
	return CompilerError{
		Phase:   "lexer",
		Code:    "E001",
		Message: err.Message,
		Location: SourceLocation{
			File:   file,
			Line:   err.Line,
			Column: err.Column,
		},
		Severity: Error,
	}
}

// FromParseError converts a parser error into a CompilerError
func FromParseError(err parser.ParseError, file string) CompilerError {
	return CompilerError{
		Phase:   "parser",
		Code:    "E002",
		Message: err.Message,
		Location: SourceLocation{
			File:   file,
			Line:   err.Location.Line,
			Column: err.Location.Column,
		},
		Severity: Error,
	}
}

// ErrorList is a collection of compiler errors
type ErrorList []CompilerError

// Error implements the error interface for error lists
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// HasErrors returns true if there are any errors
func (el ErrorList) HasErrors() bool {
	return len(el) > 0
}

// ToJSON renders the error list as machine-readable JSON
func (el ErrorList) ToJSON() ([]byte, error) {
	return json.MarshalIndent(map[string]interface{}{
		"status": "error",
		"errors": el,
	}, "", "  ")
}
