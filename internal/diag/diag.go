// Package diag defines the structured diagnostics the toolchain reports:
// lexical, syntax and semantic errors, each carrying a source position.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Position identifies a point in a source file by line and column, both
// 1-based. A zero Line or Column means that part is not known (for example,
// an unterminated comment or string is reported by line only).
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// LexicalError reports an unrecognized character, an unterminated string or
// block comment, or an out-of-range integer literal.
type LexicalError struct {
	Pos Position
	Msg string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("%s: lexical error: %s", e.Pos, e.Msg)
}

// NewLexicalError wraps msg with position context.
func NewLexicalError(pos Position, msg string) error {
	return errors.WithStack(&LexicalError{Pos: pos, Msg: msg})
}

// SyntaxError reports a grammar violation: the production the parser was
// attempting and the offending token's text.
type SyntaxError struct {
	Pos      Position
	Expected string
	Got      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: expected %s, got %q", e.Pos, e.Expected, e.Got)
}

// NewSyntaxError builds a SyntaxError naming the expected production.
func NewSyntaxError(pos Position, expected, got string) error {
	return errors.WithStack(&SyntaxError{Pos: pos, Expected: expected, Got: got})
}

// SemanticError reports an undefined identifier or a constructor whose
// declared type is not its own class name. Definitions are not checked: a
// name's kind follows from the declaration form it appears in.
type SemanticError struct {
	Pos Position
	Msg string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: semantic error: %s", e.Pos, e.Msg)
}

// NewSemanticError wraps msg with position context.
func NewSemanticError(pos Position, msg string) error {
	return errors.WithStack(&SemanticError{Pos: pos, Msg: msg})
}
