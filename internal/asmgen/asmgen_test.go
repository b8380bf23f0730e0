package asmgen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libklein/jackc/internal/vmir"
)

func render(t *testing.T, instrs []Instruction) string {
	t.Helper()
	var buf bytes.Buffer
	g := NewGenerator(&buf)
	require.NoError(t, g.Write(instrs))
	require.NoError(t, g.Close())
	return buf.String()
}

func TestBootstrapInitializesStackAndCallsSysInit(t *testing.T) {
	tr := NewTranslator()
	out := render(t, tr.Bootstrap())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, []string{"@256", "D=A", "@SP", "M=D"}, lines[:4])
	assert.Contains(t, out, "@Sys.init\n0;JMP\n")
	assert.Contains(t, out, "(RET_0)\n")
}

func TestPushConstantAddPushConstantEq(t *testing.T) {
	tr := NewTranslator()
	var all []Instruction
	for _, cmd := range []vmir.Command{
		{Kind: vmir.KindPush, Segment: vmir.Constant, Index: 7},
		{Kind: vmir.KindPush, Segment: vmir.Constant, Index: 8},
		{Kind: vmir.KindArithmetic, Op: vmir.Add},
		{Kind: vmir.KindPush, Segment: vmir.Constant, Index: 5},
		{Kind: vmir.KindArithmetic, Op: vmir.Eq},
	} {
		instrs, err := tr.Translate(cmd)
		require.NoError(t, err)
		all = append(all, instrs...)
	}

	out := render(t, all)
	assert.Contains(t, out, "@7\nD=A\n@SP\nA=M\nM=D\n@SP\nM=M+1\n")
	assert.Contains(t, out, "@8\nD=A\n@SP\nA=M\nM=D\n@SP\nM=M+1\n")
	assert.Contains(t, out, "M=M+D\n")
	assert.Contains(t, out, "(TRUE_0)\n")
	assert.Contains(t, out, "(END_0)\n")
}

func TestComparisonCountersAreUniquePerTranslation(t *testing.T) {
	tr := NewTranslator()
	first, err := tr.Translate(vmir.Command{Kind: vmir.KindArithmetic, Op: vmir.Lt})
	require.NoError(t, err)
	second, err := tr.Translate(vmir.Command{Kind: vmir.KindArithmetic, Op: vmir.Gt})
	require.NoError(t, err)

	firstOut := render(t, first)
	secondOut := render(t, second)
	assert.Contains(t, firstOut, "TRUE_0")
	assert.Contains(t, firstOut, "END_0")
	assert.NotContains(t, firstOut, "TRUE_1")
	assert.Contains(t, secondOut, "TRUE_1")
	assert.Contains(t, secondOut, "END_1")
}

func TestStaticSegmentUsesFilePrefix(t *testing.T) {
	tr := NewTranslator()
	tr.SetFile("Foo")
	instrs, err := tr.Translate(vmir.Command{Kind: vmir.KindPush, Segment: vmir.Static, Index: 3})
	require.NoError(t, err)
	assert.Contains(t, render(t, instrs), "@Foo.3\n")

	tr.SetFile("Bar")
	instrs, err = tr.Translate(vmir.Command{Kind: vmir.KindPop, Segment: vmir.Static, Index: 3})
	require.NoError(t, err)
	assert.Contains(t, render(t, instrs), "@Bar.3\n")
}

func TestStaticWithoutSetFileIsAnError(t *testing.T) {
	tr := NewTranslator()
	_, err := tr.Translate(vmir.Command{Kind: vmir.KindPush, Segment: vmir.Static, Index: 0})
	assert.Error(t, err)
}

func TestPointerAndTempAreDirectOffsetsFromFixedBases(t *testing.T) {
	tr := NewTranslator()
	instrs, err := tr.Translate(vmir.Command{Kind: vmir.KindPush, Segment: vmir.Pointer, Index: 1})
	require.NoError(t, err)
	assert.Contains(t, render(t, instrs), "@3\nA=D+A\n")

	instrs, err = tr.Translate(vmir.Command{Kind: vmir.KindPush, Segment: vmir.Temp, Index: 2})
	require.NoError(t, err)
	assert.Contains(t, render(t, instrs), "@5\nA=D+A\n")
}

func TestCallCounterIsClassGlobalAcrossCallSites(t *testing.T) {
	tr := NewTranslator()
	_ = tr.translateCall("Foo.bar", 0)
	second := tr.translateCall("Foo.baz", 1)
	out := render(t, second)
	assert.Contains(t, out, "(RET_1)")
	assert.NotContains(t, out, "(RET_0)")
}

func TestReturnCapturesRetBeforeRestoringLCL(t *testing.T) {
	tr := NewTranslator()
	instrs := tr.translateReturn()
	out := render(t, instrs)
	// FRAME (a copy of LCL) must be taken before ARG/LCL are touched, and
	// RET (FRAME-5) read out before the ARG-relative pop target is used
	// to overwrite the caller's stack — required when nArgs == 0, where
	// that slot aliases the saved return address.
	frameIdx := strings.Index(out, "@FRAME\nM=D")
	retIdx := strings.Index(out, "@RET\nM=D")
	argWriteIdx := strings.Index(out, "@ARG\nA=M\nM=D")
	require.True(t, frameIdx >= 0 && retIdx >= 0 && argWriteIdx >= 0)
	assert.Less(t, frameIdx, retIdx)
	assert.Less(t, retIdx, argWriteIdx)
}

func TestFunctionPushesNLocalsInitializedToZero(t *testing.T) {
	tr := NewTranslator()
	instrs := tr.translateFunction("Foo.bar", 2)
	out := render(t, instrs)
	assert.True(t, strings.HasPrefix(out, "(Foo.bar)\n"))
	assert.Equal(t, 2, strings.Count(out, "@0\nD=A\n"))
}

func TestUnrecognizedPushSegmentIsAnError(t *testing.T) {
	tr := NewTranslator()
	_, err := tr.Translate(vmir.Command{Kind: vmir.KindPush, Segment: vmir.Segment("bogus"), Index: 0})
	assert.Error(t, err)
}
