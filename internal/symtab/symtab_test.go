package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldCounterSurvivesAcrossSubroutines(t *testing.T) {
	table := New()
	table.Define("x", "int", Field)
	table.Define("y", "int", Field)

	table.StartSubroutine()
	table.Define("n", "int", Argument)
	require.Equal(t, 2, table.Count(Field), "class scope must survive StartSubroutine")

	table.StartSubroutine()
	require.Equal(t, 2, table.Count(Field))
	require.Equal(t, 0, table.Count(Argument), "subroutine scope must reset on StartSubroutine")
}

func TestSubroutineShadowsClass(t *testing.T) {
	table := New()
	table.Define("n", "int", Field)

	table.StartSubroutine()
	table.Define("n", "int", Local)

	assert.Equal(t, Local, table.KindOf("n"), "subroutine scope must shadow class scope")
	assert.Equal(t, 0, table.IndexOf("n"))
}

func TestDefinedAcrossScopes(t *testing.T) {
	table := New()
	table.Define("s", "int", Static)
	table.StartSubroutine()

	assert.True(t, table.Defined("s"))
	assert.False(t, table.Defined("nope"))
}

func TestRedefinitionLastWriteWins(t *testing.T) {
	table := New()
	table.StartSubroutine()
	table.Define("a", "int", Local)
	table.Define("a", "char", Local)

	entry, ok := table.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "char", entry.Type)
	assert.Equal(t, 1, table.Count(Local), "redefinition must not grow the running index twice")
}

func TestIndicesAreSequentialPerKind(t *testing.T) {
	table := New()
	table.StartSubroutine()
	a := table.Define("a", "int", Argument)
	b := table.Define("b", "int", Argument)
	l := table.Define("x", "int", Local)

	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 1, b.Index)
	assert.Equal(t, 0, l.Index, "local index counter is independent of argument's")
}
