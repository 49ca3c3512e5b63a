package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	require.False(t, Nil.Truthy())
	require.False(t, Bool(false).Truthy())
	require.True(t, Bool(true).Truthy())
	require.True(t, Number(0).Truthy())
	require.True(t, Obj(intern("")).Truthy())
}

func TestEqualNumbersAndBooleans(t *testing.T) {
	require.True(t, Equal(Number(1), Number(1)))
	require.False(t, Equal(Number(1), Number(2)))
	require.True(t, Equal(Bool(true), Bool(true)))
	require.False(t, Equal(Bool(true), Bool(false)))
	require.True(t, Equal(Nil, Nil))
	require.False(t, Equal(Nil, Number(0)))
}

func TestEqualObjectsByIdentity(t *testing.T) {
	a := intern("same")
	b := intern("same")
	// Two distinct *String objects with identical content are NOT equal
	// under Value.Equal unless they are the same pointer: interning is
	// what collapses content equality into pointer equality at runtime,
	// not Equal itself.
	require.False(t, Equal(Obj(a), Obj(b)))
	require.True(t, Equal(Obj(a), Obj(a)))
}

func TestPrintNumberFormatting(t *testing.T) {
	require.Equal(t, "7", Print(Number(7)))
	require.Equal(t, "7.5", Print(Number(7.5)))
	require.Equal(t, "0", Print(Number(0)))
	require.Equal(t, "-3", Print(Number(-3)))
}

func TestPrintLiterals(t *testing.T) {
	require.Equal(t, "nil", Print(Nil))
	require.Equal(t, "true", Print(Bool(true)))
	require.Equal(t, "false", Print(Bool(false)))
}
