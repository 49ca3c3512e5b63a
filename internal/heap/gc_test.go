package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRoots lets a test control exactly what the collector treats as
// live, without needing a real compiler/VM.
type fakeRoots struct {
	objects []Object
	values  []Value
}

func (f *fakeRoots) MarkRoots(h *Heap) {
	for _, o := range f.objects {
		h.MarkObject(o)
	}
	for _, v := range f.values {
		h.MarkValue(v)
	}
}

func TestCollectSweepsUnreachableObjects(t *testing.T) {
	h := NewHeap(Options{})
	roots := &fakeRoots{}
	h.SetRoots(roots)

	kept := h.InternString("kept")
	_ = h.InternString("discarded")
	roots.objects = []Object{kept}

	require.Equal(t, 2, h.ObjectCount())
	h.Collect()
	require.Equal(t, 1, h.ObjectCount())

	// The survivor is still reachable by content through InternString.
	require.Same(t, kept, h.InternString("kept"))
}

func TestCollectRemovesUnmarkedStringsFromInternTable(t *testing.T) {
	h := NewHeap(Options{})
	roots := &fakeRoots{}
	h.SetRoots(roots)

	first := h.InternString("once")
	h.Collect() // nothing rooted; "once" is swept and untabled

	second := h.InternString("once")
	require.NotSame(t, first, second, "a swept string must be re-interned, not returned stale")
}

func TestCollectTracesThroughClosureAndUpvalue(t *testing.T) {
	h := NewHeap(Options{})
	roots := &fakeRoots{}
	h.SetRoots(roots)

	fn := h.NewFunction(h.InternString("f"), FuncFunction)
	slot := Number(7)
	up := h.NewUpvalue(&slot)
	closure := h.NewClosure(fn, []*Upvalue{up})
	roots.objects = []Object{closure}

	h.Collect()

	require.False(t, fn.marked()) // sweep clears mark bits on survivors
	require.Equal(t, 4, h.ObjectCount()) // fn's name string, fn, closure, up all survive
}

func TestCollectTracesClassMethodsAndInstanceFields(t *testing.T) {
	h := NewHeap(Options{})
	roots := &fakeRoots{}
	h.SetRoots(roots)

	class := h.NewClass(h.InternString("Point"))
	methodFn := h.NewFunction(h.InternString("dist"), FuncMethod)
	methodClosure := h.NewClosure(methodFn, nil)
	class.Methods.Set(h.InternString("dist"), Obj(methodClosure))

	instance := h.NewInstance(class)
	instance.Fields.Set(h.InternString("x"), Number(1))

	roots.objects = []Object{instance}
	before := h.ObjectCount()
	h.Collect()
	require.Equal(t, before, h.ObjectCount(), "nothing reachable from instance should be swept")
}

func TestMaybeCollectHonorsStressMode(t *testing.T) {
	h := NewHeap(Options{Stress: true})
	roots := &fakeRoots{}
	h.SetRoots(roots)

	h.InternString("a")
	require.Equal(t, 1, h.ObjectCount(), "unrooted string must be swept on the very next allocation under stress mode")
	h.InternString("b")
	require.Equal(t, 1, h.ObjectCount())
}

func TestCollectLogsWhenEnabled(t *testing.T) {
	var lines []string
	h := NewHeap(Options{
		LogCollections: true,
		Logf: func(format string, args ...any) {
			lines = append(lines, format)
		},
	})
	h.SetRoots(&fakeRoots{})
	h.InternString("x")
	h.Collect()
	require.Len(t, lines, 1)
}

func TestNextGCNeverDropsBelowInitialThreshold(t *testing.T) {
	h := NewHeap(Options{InitialThreshold: 1024, HeapGrowFactor: 2})
	h.SetRoots(&fakeRoots{})
	h.Collect()
	require.GreaterOrEqual(t, h.nextGC, int64(1024))
}
