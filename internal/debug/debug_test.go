package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ahadu/internal/heap"
)

func TestDisassembleChunkPrintsBannerAndSimpleInstruction(t *testing.T) {
	var chunk heap.Chunk
	chunk.Write(byte(heap.OpReturn), 1)

	var out bytes.Buffer
	DisassembleChunk(&out, &chunk, "test chunk")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, "== test chunk ==", lines[0])
	require.Contains(t, lines[1], "OP_RETURN")
}

func TestDisassembleConstantInstructionPrintsValue(t *testing.T) {
	var chunk heap.Chunk
	idx, err := chunk.AddConstant(heap.Number(42))
	require.NoError(t, err)
	chunk.Write(byte(heap.OpConstant), 1)
	chunk.Write(byte(idx), 1)

	var out bytes.Buffer
	DisassembleInstruction(&out, &chunk, 0)
	require.Contains(t, out.String(), "OP_CONSTANT")
	require.Contains(t, out.String(), "42")
}

func TestDisassembleRepeatsLineMarkerForSameSourceLine(t *testing.T) {
	var chunk heap.Chunk
	chunk.Write(byte(heap.OpNil), 5)
	chunk.Write(byte(heap.OpPop), 5)

	var out bytes.Buffer
	DisassembleChunk(&out, &chunk, "c")
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Contains(t, lines[1], "5")
	require.Contains(t, lines[2], "|")
}

func TestDisassembleJumpInstructionPrintsOriginAndTarget(t *testing.T) {
	var chunk heap.Chunk
	chunk.Write(byte(heap.OpJump), 1)
	chunk.Write(0, 1)
	chunk.Write(2, 1)
	chunk.Write(byte(heap.OpNil), 1)

	var out bytes.Buffer
	DisassembleInstruction(&out, &chunk, 0)
	require.Contains(t, out.String(), "OP_JUMP")
	require.Contains(t, out.String(), "-> 5")
}
