// Package test runs whole ahadu source snippets through the full
// pipeline (scan -> compile -> run) and asserts on observable output,
// the same shape as kristofer-smog's test package (source snippet in,
// printed output out, asserted with testify instead of t.Fatalf) but
// retargeted at ahadu's language surface end to end instead of smog's
// message-passing one.
package test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ahadu/internal/diag"
	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/interp"
)

// runSource compiles and runs source against a fresh interpreter,
// returning everything it printed and the result code.
func runSource(t *testing.T, source string) (string, interp.Result) {
	t.Helper()
	var out, errOut bytes.Buffer
	reporter := diag.New(&out, &errOut)
	it := interp.New(reporter, interp.Options{})
	result := it.Run(source)
	if result != interp.ResultOK {
		t.Logf("stderr: %s", errOut.String())
	}
	return out.String(), result
}

func TestFibonacciRecursion(t *testing.T) {
	out, result := runSource(t, `
		ተግባር fib(n) {
			ከሆነ (n < 2) መልስ n;
			መልስ fib(n - 1) + fib(n - 2);
		}
		አውጣ fib(10);
	`)
	require.Equal(t, interp.ResultOK, result)
	require.Equal(t, "55\n", out)
}

func TestClosureCounterFactory(t *testing.T) {
	out, result := runSource(t, `
		ተግባር makeCounter() {
			መለያ count = 0;
			ተግባር increment() {
				count = count + 1;
				መልስ count;
			}
			መልስ increment;
		}
		መለያ c1 = makeCounter();
		መለያ c2 = makeCounter();
		አውጣ c1();
		አውጣ c1();
		አውጣ c2();
	`)
	require.Equal(t, interp.ResultOK, result)
	require.Equal(t, "1\n2\n1\n", out)
}

func TestClassHierarchyWithSuperAndInit(t *testing.T) {
	out, result := runSource(t, `
		ክፍል Shape {
			ማስጀመሪያ(name) {
				ይህ.name = name;
			}
			describe() {
				መልስ ይህ.name;
			}
		}
		ክፍል Circle < Shape {
			ማስጀመሪያ(radius) {
				ታላቅ.ማስጀመሪያ("circle");
				ይህ.radius = radius;
			}
			area() {
				መልስ 3 * ይህ.radius * ይህ.radius;
			}
		}
		መለያ c = Circle(2);
		አውጣ c.describe();
		አውጣ c.area();
	`)
	require.Equal(t, interp.ResultOK, result)
	require.Equal(t, "circle\n12\n", out)
}

func TestForLoopAccumulation(t *testing.T) {
	out, result := runSource(t, `
		መለያ total = 0;
		ለዚህ (መለያ i = 1; i <= 5; i = i + 1) {
			total = total + i;
		}
		አውጣ total;
	`)
	require.Equal(t, interp.ResultOK, result)
	require.Equal(t, "15\n", out)
}

func TestStringConcatenationAndTruthiness(t *testing.T) {
	out, result := runSource(t, `
		መለያ greeting = "ሰላም" + " " + "ዓለም";
		አውጣ greeting;
		አውጣ ባዶ ወይም "fallback";
	`)
	require.Equal(t, interp.ResultOK, result)
	require.Equal(t, "ሰላም ዓለም\nfallback\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, result := runSource(t, `አውጣ missingVariable;`)
	require.Equal(t, interp.ResultRuntimeError, result)
}

func TestParseErrorIsCompileError(t *testing.T) {
	_, result := runSource(t, `መለያ = 1;`)
	require.Equal(t, interp.ResultCompileError, result)
}

func TestNativeClockIsCallable(t *testing.T) {
	out, result := runSource(t, `
		መለያ t = ሰዓት();
		አውጣ t >= 0;
	`)
	require.Equal(t, interp.ResultOK, result)
	require.Equal(t, "true\n", out)
}

func TestGCStressDoesNotCorruptLiveValues(t *testing.T) {
	var out, errOut bytes.Buffer
	reporter := diag.New(&out, &errOut)
	it := interp.New(reporter, interp.Options{Heap: heap.Options{Stress: true}})
	result := it.Run(`
		ተግባር makeList(n) {
			መለያ i = 0;
			መለያ s = "";
			እስከ (i < n) {
				s = s + "x";
				i = i + 1;
			}
			መልስ s;
		}
		አውጣ makeList(50);
	`)
	require.Equal(t, interp.ResultOK, result)
	require.Equal(t, 50+1, len(out.String()))
}
