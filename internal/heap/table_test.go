package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intern(s string) *String {
	return &String{Chars: s, Hash: hashString(s)}
}

func TestTableSetGet(t *testing.T) {
	var tbl Table
	key := intern("name")

	isNew := tbl.Set(key, Number(42))
	require.True(t, isNew)

	value, ok := tbl.Get(key)
	require.True(t, ok)
	require.Equal(t, Number(42), value)
}

func TestTableSetOverwriteReportsNotNew(t *testing.T) {
	var tbl Table
	key := intern("x")

	tbl.Set(key, Number(1))
	isNew := tbl.Set(key, Number(2))
	require.False(t, isNew)

	value, _ := tbl.Get(key)
	require.Equal(t, Number(2), value)
}

func TestTableGetMissing(t *testing.T) {
	var tbl Table
	_, ok := tbl.Get(intern("missing"))
	require.False(t, ok)
}

func TestTableDeleteLeavesTombstoneUsableForProbing(t *testing.T) {
	var tbl Table
	a := intern("a")
	b := intern("b")
	tbl.Set(a, Number(1))
	tbl.Set(b, Number(2))

	require.True(t, tbl.Delete(a))

	// b must still be reachable even though deleting a may have left a
	// tombstone on its probe path.
	value, ok := tbl.Get(b)
	require.True(t, ok)
	require.Equal(t, Number(2), value)

	_, ok = tbl.Get(a)
	require.False(t, ok)
}

func TestTableGrowsPastLoadFactor(t *testing.T) {
	var tbl Table
	for i := 0; i < 20; i++ {
		tbl.Set(intern(string(rune('a'+i))), Number(float64(i)))
	}
	require.Equal(t, 20, tbl.Len())
	for i := 0; i < 20; i++ {
		value, ok := tbl.Get(intern(string(rune('a' + i))))
		require.True(t, ok)
		require.Equal(t, Number(float64(i)), value)
	}
}

func TestTableFindStringByContent(t *testing.T) {
	var tbl Table
	s := intern("hello")
	tbl.Set(s, Nil)

	found := tbl.FindString("hello", hashString("hello"))
	require.Same(t, s, found)

	require.Nil(t, tbl.FindString("goodbye", hashString("goodbye")))
}

func TestTableRemoveWeakDropsUnkept(t *testing.T) {
	var tbl Table
	keep := intern("keep")
	drop := intern("drop")
	tbl.Set(keep, Nil)
	tbl.Set(drop, Nil)

	tbl.RemoveWeak(func(key *String) bool { return key == keep })

	_, ok := tbl.Get(keep)
	require.True(t, ok)
	_, ok = tbl.Get(drop)
	require.False(t, ok)
}
