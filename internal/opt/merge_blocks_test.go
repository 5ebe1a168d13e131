package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// TestMergeBlocksFoldsUniquePredecessorJump builds the spec §8 "Merge"
// boundary test: P ends in the unconditional br(true, L, L) form and L has
// no other predecessor and doesn't begin with peek_message, so L's content
// folds into P.
func TestMergeBlocksFoldsUniquePredecessorJump(t *testing.T) {
	fb := ir.NewFuncBuilder("merge", 1)
	arg := fb.Arg("A")
	x := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 1, Fail: 1})
	fb.Block(1).
		Inst(ir.NewSet(x, ir.Simple(ir.OpGetHd), ir.VarOp(arg))).
		Terminate(&ir.Ret{Arg: ir.VarOp(x)})

	fn := fb.Func()
	MergeBlocks(fn)

	require.Len(t, fn.Blocks, 1)
	entry := fn.Blocks[fn.Entry]
	require.Len(t, entry.Insts, 1)
	assert.True(t, entry.Insts[0].Op.Is(ir.OpGetHd))

	ret, ok := entry.Term.(*ir.Ret)
	require.True(t, ok)
	assert.Same(t, x, ret.Arg.Var)
}

// TestMergeBlocksSkipsPeekMessageBoundary confirms a block beginning with
// peek_message is never merged into its predecessor, since that boundary is
// required by the VM's receive-loop semantics.
func TestMergeBlocksSkipsPeekMessageBoundary(t *testing.T) {
	fb := ir.NewFuncBuilder("recv", 0)
	msg := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 1, Fail: 1})
	fb.Block(1).
		Inst(ir.NewSet(msg, ir.Simple(ir.OpPeekMessage))).
		Terminate(&ir.Ret{Arg: ir.VarOp(msg)})

	fn := fb.Func()
	MergeBlocks(fn)

	require.Len(t, fn.Blocks, 2)
}
