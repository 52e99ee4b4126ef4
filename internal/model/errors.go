package model

import "fmt"

// ParseError reports malformed IR or native-file content. It carries the
// source location when one is available.
type ParseError struct {
	// Path is the file the content came from, if known.
	Path string
	// Line is the 1-based source line, or 0 when unknown.
	Line int
	// Message describes what failed to parse.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error returns a formatted parse error message.
func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if loc == "" {
		loc = "<input>"
	}
	if e.Err != nil {
		return fmt.Sprintf("parse error at %s: %s: %v", loc, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at %s: %s", loc, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaValidationError reports a structurally invalid document field.
type SchemaValidationError struct {
	// Field names the offending field, e.g. "sections[3].heading".
	Field string
	// Message describes the violation.
	Message string
}

// Error returns a formatted schema validation message.
func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("invalid document: %s: %s", e.Field, e.Message)
}
