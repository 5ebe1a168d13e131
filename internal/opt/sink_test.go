package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// TestSinkRelocatesToDeepestLegalDominator builds the spec §8 "Sink"
// boundary test: x = get_tuple_element(T, 0) defined in B0, used only in
// B5 at the end of a straight-line chain. With no unsuitable blocks in the
// way, x sinks all the way down to its use site.
func TestSinkRelocatesToDeepestLegalDominator(t *testing.T) {
	fb := ir.NewFuncBuilder("sink_simple", 1)
	tup := fb.Arg("T")
	x := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(x, ir.Simple(ir.OpGetTupleElement), ir.VarOp(tup), ir.LitOp(int64(0)))).
		Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 1, Fail: 1})
	fb.Block(1).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 2, Fail: 2})
	fb.Block(2).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 3, Fail: 3})
	fb.Block(3).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 4, Fail: 4})
	fb.Block(4).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 5, Fail: 5})
	fb.Block(5).Terminate(&ir.Ret{Arg: ir.VarOp(x)})

	fn := fb.Func()
	Sink(fn)

	assert.Empty(t, fn.Blocks[0].Insts, "the read should have left its original block")
	require.Len(t, fn.Blocks[5].Insts, 1)
	assert.True(t, fn.Blocks[5].Insts[0].Op.Is(ir.OpGetTupleElement))
	assert.Same(t, x, fn.Blocks[5].Insts[0].Dst)
}

// TestSinkStopsBeforeUnsuitableBlock confirms a block whose first
// instruction can't tolerate a sunk read ahead of it (here, peek_message)
// blocks the sink from landing there or anywhere past it; the read stops at
// the deepest still-legal ancestor.
func TestSinkStopsBeforeUnsuitableBlock(t *testing.T) {
	fb := ir.NewFuncBuilder("sink_boundary", 1)
	tup := fb.Arg("T")
	x := &ir.Var{Tag: "X", N: 1, Generated: true}
	msg := &ir.Var{Tag: "X", N: 2, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(x, ir.Simple(ir.OpGetTupleElement), ir.VarOp(tup), ir.LitOp(int64(0)))).
		Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 1, Fail: 1})
	fb.Block(1).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 2, Fail: 2})
	fb.Block(2).
		Inst(ir.NewSet(msg, ir.Simple(ir.OpPeekMessage))).
		Terminate(&ir.Ret{Arg: ir.VarOp(x)})

	fn := fb.Func()
	Sink(fn)

	require.Len(t, fn.Blocks[2].Insts, 1)
	assert.True(t, fn.Blocks[2].Insts[0].Op.Is(ir.OpPeekMessage))
	require.Len(t, fn.Blocks[1].Insts, 1)
	assert.True(t, fn.Blocks[1].Insts[0].Op.Is(ir.OpGetTupleElement))
	assert.Same(t, x, fn.Blocks[1].Insts[0].Dst)
}
