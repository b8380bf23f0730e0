package vmir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterEmitsCanonicalLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WritePush(Constant, 7)
	w.WriteArithmetic(Add)
	w.WriteCall("Math.multiply", 2)
	w.WriteFunction("Main.main", 1)
	w.WriteReturn()
	require.NoError(t, w.Close())

	want := "push constant 7\nadd\ncall Math.multiply 2\nfunction Main.main 1\nreturn\n"
	assert.Equal(t, want, buf.String())
}

func TestWriterStringConstant(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteStringConstant("Hi")
	require.NoError(t, w.Close())

	want := "push constant 2\ncall String.new 1\n" +
		"push constant 72\ncall String.appendChar 2\n" +
		"push constant 105\ncall String.appendChar 2\n"
	assert.Equal(t, want, buf.String())
}

func TestReaderRoundTrip(t *testing.T) {
	src := "// header comment\n" +
		"push constant 7\n" +
		"\n" +
		"push constant 8\n" +
		"add // inline comment\n" +
		"pop local 0\n" +
		"label LOOP\n" +
		"goto LOOP\n" +
		"if-goto LOOP\n" +
		"call Foo.bar 2\n" +
		"function Foo.baz 3\n" +
		"return\n"

	r := NewReader(strings.NewReader(src))
	var got []Command
	for r.Scan() {
		got = append(got, r.Command())
	}
	require.NoError(t, r.Err())

	want := []Command{
		{Kind: KindPush, Segment: Constant, Index: 7},
		{Kind: KindPush, Segment: Constant, Index: 8},
		{Kind: KindArithmetic, Op: Add},
		{Kind: KindPop, Segment: Local, Index: 0},
		{Kind: KindLabel, Label: "LOOP"},
		{Kind: KindGoto, Label: "LOOP"},
		{Kind: KindIfGoto, Label: "LOOP"},
		{Kind: KindCall, Name: "Foo.bar", NArgs: 2},
		{Kind: KindFunction, Name: "Foo.baz", NLocal: 3},
		{Kind: KindReturn},
	}
	assert.Equal(t, want, got)
}

func TestBinaryOperatorMapsMulDivToMathCalls(t *testing.T) {
	cmd, ok := BinaryOperator('*')
	require.True(t, ok)
	assert.Equal(t, Command{Kind: KindCall, Name: "Math.multiply", NArgs: 2}, cmd)

	cmd, ok = BinaryOperator('/')
	require.True(t, ok)
	assert.Equal(t, Command{Kind: KindCall, Name: "Math.divide", NArgs: 2}, cmd)

	cmd, ok = BinaryOperator('+')
	require.True(t, ok)
	assert.Equal(t, Command{Kind: KindArithmetic, Op: Add}, cmd)

	_, ok = BinaryOperator('!')
	assert.False(t, ok)
}
