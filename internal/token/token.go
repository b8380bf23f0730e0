// Package token defines the lexical categories of the source language: the
// five token classes, the fixed keyword and symbol sets, and the 16-bit
// machine word type integer constants are validated against.
package token

import (
	"strconv"

	"github.com/libklein/jackc/internal/diag"
)

// MachineWord is the 16-bit signed word the target machine operates on.
// Integer constants must fit 0..32767 (spec.md §3).
type MachineWord int16

// Type classifies a Token into one of the five lexical categories.
type Type string

const (
	Invalid         Type = ""
	Keyword         Type = "keyword"
	Symbol          Type = "symbol"
	IntegerConstant Type = "integerConstant"
	StringConstant  Type = "stringConstant"
	Identifier      Type = "identifier"
)

// Keywords is the fixed keyword set of the source language.
var Keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true, "int": true, "char": true,
	"boolean": true, "void": true, "true": true, "false": true, "null": true,
	"this": true, "let": true, "do": true, "if": true, "else": true,
	"while": true, "return": true,
}

// Symbols is the fixed symbol set of the source language.
var Symbols = map[byte]bool{
	'{': true, '}': true, '[': true, ']': true, '(': true, ')': true,
	'.': true, ',': true, ';': true, '+': true, '-': true, '*': true,
	'/': true, '&': true, '|': true, '<': true, '>': true, '=': true,
	'~': true,
}

// Token is a classified lexeme with its source position.
type Token struct {
	Type     Type
	Terminal string
	Pos      diag.Position
}

// AsInt parses the token's terminal as a non-negative 16-bit machine word,
// returning a LexicalError if it does not fit 0..32767.
func (t Token) AsInt() (MachineWord, error) {
	n, err := strconv.Atoi(t.Terminal)
	if err != nil || n < 0 || n > 32767 {
		return 0, diag.NewLexicalError(t.Pos, "integer constant \""+t.Terminal+"\" out of range 0..32767")
	}
	return MachineWord(n), nil
}

// Is reports whether the token's terminal matches one of the given strings.
func (t Token) Is(terminals ...string) bool {
	for _, term := range terminals {
		if t.Terminal == term {
			return true
		}
	}
	return false
}

// IsType reports whether the token belongs to the given lexical category.
func (t Token) IsType(typ Type) bool {
	return t.Type == typ
}
