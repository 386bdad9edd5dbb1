// Package diag defines the terminal diagnostic reported by every compile stage.
package diag

import (
	"errors"
	"fmt"
)

// Kind classifies a diagnostic by the stage that raised it.
type Kind uint8

// Diagnostic kinds.
const (
	// Lex is a malformed number, unterminated string or unknown character.
	Lex Kind = iota + 1
	// Parse is an unexpected or missing token.
	Parse
	// Semantic is a construct that parses but is not allowed where it appears.
	Semantic
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "LexError"
	case Parse:
		return "ParseError"
	case Semantic:
		return "SemanticError"
	default:
		return "Error"
	}
}

// Diagnostic is a positioned compile error. Line and Column are 1-based,
// ByteIndex is the 0-based offset into the source text.
type Diagnostic struct {
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	ByteIndex int    `json:"byte_index"`
}

// New creates a diagnostic.
func New(kind Kind, msg string, line, column, byteIndex int) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: msg, Line: line, Column: column, ByteIndex: byteIndex}
}

// Newf creates a diagnostic with a formatted message.
func Newf(kind Kind, line, column, byteIndex int, format string, args ...any) *Diagnostic {
	return New(kind, fmt.Sprintf(format, args...), line, column, byteIndex)
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.Kind, d.Line, d.Column, d.Message)
}

// As extracts the diagnostic from a wrapped error chain.
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}

	return nil, false
}
