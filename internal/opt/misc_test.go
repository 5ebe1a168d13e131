package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// TestMiscCollapsesAgreeingPhi confirms a phi whose incoming values all agree
// becomes a plain substitution, per spec §4.10.
func TestMiscCollapsesAgreeingPhi(t *testing.T) {
	fb := ir.NewFuncBuilder("collapse", 1)
	c := fb.Arg("C")
	p := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).Terminate(&ir.Br{Bool: ir.VarOp(c), Succ: 1, Fail: 2})
	fb.Block(1).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 2, Fail: 2})
	fb.Block(2).
		Phi(ir.NewPhi(p, ir.PhiArg{Value: ir.LitOp("ok"), Pred: 0}, ir.PhiArg{Value: ir.LitOp("ok"), Pred: 1})).
		Terminate(&ir.Ret{Arg: ir.VarOp(p)})

	fn := fb.Func()
	Misc(fn)

	assert.Empty(t, fn.Blocks[2].Phis)
	ret, ok := fn.Blocks[2].Term.(*ir.Ret)
	require.True(t, ok)
	assert.Equal(t, "ok", ret.Arg.Value())
}

// TestMiscFoldsLiteralTuple confirms a put_tuple of all-literal operands
// folds to a literal tuple value, propagated to its uses.
func TestMiscFoldsLiteralTuple(t *testing.T) {
	fb := ir.NewFuncBuilder("fold", 0)
	tup := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(tup, ir.Simple(ir.OpPutTuple), ir.LitOp(int64(1)), ir.LitOp(int64(2)), ir.LitOp(int64(3)))).
		Terminate(&ir.Ret{Arg: ir.VarOp(tup)})

	fn := fb.Func()
	Misc(fn)

	assert.Empty(t, fn.Blocks[0].Insts)
	ret, ok := fn.Blocks[0].Term.(*ir.Ret)
	require.True(t, ok)
	assert.Equal(t, ir.TupleLiteral{int64(1), int64(2), int64(3)}, ret.Arg.Value())
}
