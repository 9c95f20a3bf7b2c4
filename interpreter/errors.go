package interpreter

import (
	"errors"
	"fmt"
)

// errExit signals a clean stop requested by the 'exit' statement. It unwinds
// through loop cleanup like an error but Execute reports it as success.
var errExit = errors.New("exit requested")

// ScriptError is raised by the 'throw' statement. The message is always
// surfaced to the caller verbatim.
type ScriptError struct {
	Message string
	Line    int
}

// Error implements the error interface
func (e *ScriptError) Error() string {
	return e.Message
}

// ReferenceError reports an unknown @name in a selector
type ReferenceError struct {
	Name   string
	Line   int
	Column int
}

// Error implements the error interface
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%d:%d: unknown element reference %q", e.Line, e.Column, e.Name)
}

// AsReferenceError reports whether err is (or wraps) a ReferenceError
func AsReferenceError(err error) (*ReferenceError, bool) {
	var refErr *ReferenceError
	if errors.As(err, &refErr) {
		return refErr, true
	}
	return nil, false
}
