package compiler_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libklein/jackc/internal/compiler"
	"github.com/libklein/jackc/internal/lexer"
	"github.com/libklein/jackc/internal/vmir"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	tokens, err := lexer.Tokenize(strings.NewReader(src), "t.jack")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := vmir.NewWriter(&buf)
	c := compiler.New(lexer.NewStream(tokens), w)
	require.NoError(t, c.Compile())
	require.NoError(t, w.Close())
	return buf.String()
}

func linesOf(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestVoidMethodReturn(t *testing.T) {
	out := compile(t, `class A { function void m() { return; } }`)
	assert.Equal(t, []string{
		"function A.m 0",
		"push constant 0",
		"return",
	}, linesOf(out))
}

func TestStaticFieldRead(t *testing.T) {
	out := compile(t, `class A { static int s; function int g() { return s; } }`)
	assert.Equal(t, []string{
		"function A.g 0",
		"push static 0",
		"return",
	}, linesOf(out))
}

func TestConstructorAllocatesAndReturnsThis(t *testing.T) {
	out := compile(t, `class A { field int x; constructor A new() { let x = 0; return this; } }`)
	assert.Equal(t, []string{
		"function A.new 0",
		"push constant 1",
		"call Memory.alloc 1",
		"pop pointer 0",
		"push constant 0",
		"pop this 0",
		"push pointer 0",
		"return",
	}, linesOf(out))
}

func TestMethodUsesImplicitReceiver(t *testing.T) {
	out := compile(t, `class A { method int f(int n) { return n + 1; } }`)
	assert.Equal(t, []string{
		"function A.f 0",
		"push argument 0",
		"pop pointer 0",
		"push argument 1",
		"push constant 1",
		"add",
		"return",
	}, linesOf(out))
}

func TestWhileLoopEmitsExactlyOneLabelPair(t *testing.T) {
	out := compile(t, `class A {
		function void t() {
			var int i;
			let i = 0;
			while (i < 10) {
				let i = i + 1;
			}
			return;
		}
	}`)
	assert.Equal(t, 1, strings.Count(out, "label WHILE_EXP_0\n"))
	assert.Equal(t, 1, strings.Count(out, "label WHILE_END_0\n"))
	assert.Contains(t, out, "lt\nnot\nif-goto WHILE_END_0\n")
}

func TestArrayAssignmentOrdering(t *testing.T) {
	out := compile(t, `class A {
		function void f(Array a, int i, int j, int k) {
			let a[i] = a[j] + a[k];
			return;
		}
	}`)
	lines := linesOf(out)
	// The destination address (a+i) must be computed, then both array
	// reads (a[j], a[k]) evaluated, and only then the canonical
	// pop temp 0 / pop pointer 1 / push temp 0 / pop that 0 sequence.
	tail := lines[len(lines)-6:]
	assert.Equal(t, []string{
		"pop temp 0",
		"pop pointer 1",
		"push temp 0",
		"pop that 0",
		"push constant 0",
		"return",
	}, tail)
}

func TestNestedIfWhileLabelsDoNotCollide(t *testing.T) {
	out := compile(t, `class A {
		function void f(int n) {
			if (n) {
				while (n) {
					if (n) {
						let n = 0;
					}
				}
			}
			return;
		}
	}`)
	for _, want := range []string{"IF_FALSE_0", "IF_FALSE_1", "WHILE_EXP_0", "IF_END_0", "IF_END_1", "WHILE_END_0"} {
		assert.Contains(t, out, want)
	}
}

func TestLabelCountersDoNotResetAcrossSubroutines(t *testing.T) {
	out := compile(t, `class A {
		function void f(int n) { if (n) { let n = 0; } return; }
		function void g(int n) { if (n) { let n = 0; } return; }
	}`)
	assert.Contains(t, out, "IF_FALSE_0")
	assert.Contains(t, out, "IF_FALSE_1")
	assert.NotContains(t, out, "IF_FALSE_2")
}

func TestStringConstantTerm(t *testing.T) {
	out := compile(t, `class A { function void f() { do g("Hi"); return; } }`)
	assert.Equal(t, []string{
		"function A.f 0",
		"push pointer 0",
		"push constant 2",
		"call String.new 1",
		"push constant 72",
		"call String.appendChar 2",
		"push constant 105",
		"call String.appendChar 2",
		"call A.g 2",
		"pop temp 0",
		"push constant 0",
		"return",
	}, linesOf(out))
}

func TestUndefinedIdentifierIsSemanticError(t *testing.T) {
	tokens, err := lexer.Tokenize(strings.NewReader(`class A { function void f() { let n = 1; return; } }`), "t.jack")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := vmir.NewWriter(&buf)
	c := compiler.New(lexer.NewStream(tokens), w)
	err = c.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "semantic error")
}

func TestMethodCallOnVariableReceiver(t *testing.T) {
	out := compile(t, `class A {
		field int x;
		method void dispose() { return; }
		method void run(A other) { do other.dispose(); return; }
	}`)
	assert.Contains(t, out, "push argument 1\ncall A.dispose 1\n")
}

func TestStaticCallOnClassName(t *testing.T) {
	out := compile(t, `class A { function void f() { do Math.init(); return; } }`)
	assert.Contains(t, out, "call Math.init 0\n")
}

func TestEmptyParameterListAndEmptyBody(t *testing.T) {
	// Empty body edge case: empty parameter list, empty statement list.
	out := compile(t, `class A { function void f() { } }`)
	assert.Equal(t, []string{"function A.f 0"}, linesOf(out))
}
