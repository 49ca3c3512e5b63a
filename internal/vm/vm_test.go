package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ahadu/internal/compiler"
	"github.com/kristofer/ahadu/internal/heap"
)

// run compiles and executes source against a fresh VM, returning
// everything OP_PRINT wrote.
func run(t *testing.T, source string) string {
	t.Helper()
	h := heap.NewHeap(heap.Options{})
	var out bytes.Buffer
	machine := New(h, Options{Out: &out})

	var compileErrs []string
	fn, ok := compiler.Compile(source, h, func(line int, where, message string) {
		compileErrs = append(compileErrs, message)
	}, compiler.Options{})
	require.True(t, ok, "compile errors: %v", compileErrs)

	err := machine.Interpret(fn)
	require.NoError(t, err)
	return out.String()
}

func runExpectError(t *testing.T, source string) error {
	t.Helper()
	h := heap.NewHeap(heap.Options{})
	var out bytes.Buffer
	machine := New(h, Options{Out: &out})

	fn, ok := compiler.Compile(source, h, func(int, string, string) {}, compiler.Options{})
	require.True(t, ok)

	return machine.Interpret(fn)
}

func TestArithmetic(t *testing.T) {
	out := run(t, `አውጣ 1 + 2 * 3;`)
	require.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out := run(t, `አውጣ "foo" + "bar";`)
	require.Equal(t, "foobar\n", out)
}

func TestGlobalVariables(t *testing.T) {
	out := run(t, `መለያ x = 10; x = x + 5; አውጣ x;`)
	require.Equal(t, "15\n", out)
}

func TestLocalVariablesAndBlocks(t *testing.T) {
	out := run(t, `{ መለያ x = 1; { መለያ x = 2; አውጣ x; } አውጣ x; }`)
	require.Equal(t, "2\n1\n", out)
}

func TestIfElse(t *testing.T) {
	out := run(t, `ከሆነ (ሀሰት) { አውጣ 1; } ካልሆነ { አውጣ 2; }`)
	require.Equal(t, "2\n", out)
}

func TestWhileLoop(t *testing.T) {
	out := run(t, `መለያ i = 0; እስከ (i < 3) { አውጣ i; i = i + 1; }`)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestForLoop(t *testing.T) {
	out := run(t, `ለዚህ (መለያ i = 0; i < 3; i = i + 1) { አውጣ i; }`)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestFunctionCallAndReturn(t *testing.T) {
	out := run(t, `ተግባር add(a, b) { መልስ a + b; } አውጣ add(2, 3);`)
	require.Equal(t, "5\n", out)
}

func TestClosureCapturesUpvalue(t *testing.T) {
	out := run(t, `
		ተግባር makeCounter() {
			መለያ count = 0;
			ተግባር counter() {
				count = count + 1;
				መልስ count;
			}
			መልስ counter;
		}
		መለያ counter = makeCounter();
		አውጣ counter();
		አውጣ counter();
		አውጣ counter();
	`)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestClassInstanceFieldsAndMethods(t *testing.T) {
	out := run(t, `
		ክፍል Counter {
			ማስጀመሪያ() {
				ይህ.count = 0;
			}
			increment() {
				ይህ.count = ይህ.count + 1;
				መልስ ይህ.count;
			}
		}
		መለያ c = Counter();
		አውጣ c.increment();
		አውጣ c.increment();
	`)
	require.Equal(t, "1\n2\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	out := run(t, `
		ክፍል Animal {
			speak() {
				መልስ "...";
			}
		}
		ክፍል Dog < Animal {
			speak() {
				መልስ ታላቅ.speak() + "woof";
			}
		}
		አውጣ Dog().speak();
	`)
	require.Equal(t, "...woof\n", out)
}

func TestRuntimeErrorUndefinedVariable(t *testing.T) {
	err := runExpectError(t, `አውጣ missing;`)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "Undefined variable"))
}

func TestRuntimeErrorTypeMismatch(t *testing.T) {
	err := runExpectError(t, `አውጣ 1 + ሀሰት;`)
	require.Error(t, err)
}

func TestRuntimeErrorCallingNonCallable(t *testing.T) {
	err := runExpectError(t, `መለያ x = 1; x();`)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "Can only call"))
}
