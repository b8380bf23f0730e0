package lexer

import "github.com/libklein/jackc/internal/token"

// Stream is the finite ordered token sequence with an index cursor
// described by spec.md §3: current, peek-next and advance, with no
// backtracking. It implements the compiler's TokenScanner contract in the
// teacher's own Scan()/Token()/Err() shape.
type Stream struct {
	tokens []token.Token
	pos    int
}

// NewStream wraps an already-tokenized sequence in a cursor. No token is
// current until the first Scan.
func NewStream(tokens []token.Token) *Stream {
	return &Stream{tokens: tokens, pos: -1}
}

// HasMore reports whether a further token is available to Scan into.
func (s *Stream) HasMore() bool {
	return s.pos+1 < len(s.tokens)
}

// Scan advances the cursor onto the next token, returning false at the end
// of the stream (mirrors bufio.Scanner.Scan, and the teacher's Tokenizer).
func (s *Stream) Scan() bool {
	if !s.HasMore() {
		return false
	}
	s.pos++
	return true
}

// Current returns the token under the cursor. Calling it before the first
// Scan is a programmer error (spec.md §4.1) and returns the zero Token.
func (s *Stream) Current() token.Token {
	if s.pos < 0 || s.pos >= len(s.tokens) {
		return token.Token{}
	}
	return s.tokens[s.pos]
}

// Token is an alias for Current, satisfying the compiler's TokenScanner
// interface.
func (s *Stream) Token() token.Token { return s.Current() }

// Err always returns nil: any lexical error already aborted Tokenize before
// a Stream was constructed.
func (s *Stream) Err() error { return nil }

// PeekNext returns the token one past the cursor, and whether it exists.
func (s *Stream) PeekNext() (token.Token, bool) {
	if s.pos+1 >= len(s.tokens) {
		return token.Token{}, false
	}
	return s.tokens[s.pos+1], true
}
