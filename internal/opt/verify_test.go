package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

func wellFormedFunc() *ir.Function {
	fb := ir.NewFuncBuilder("ok", 1)
	arg := fb.Arg("X")
	x := &ir.Var{Tag: "X", N: 1, Generated: true}
	fb.Block(0).
		Inst(ir.NewSet(x, ir.Simple(ir.OpGetHd), ir.VarOp(arg))).
		Terminate(&ir.Ret{Arg: ir.VarOp(x)})
	return fb.Func()
}

func TestVerifyAcceptsWellFormedFunction(t *testing.T) {
	assert.NoError(t, Verify(wellFormedFunc()))
}

func TestVerifyRejectsDoubleDefinition(t *testing.T) {
	fn := wellFormedFunc()
	x := fn.Blocks[0].Insts[0].Dst
	fn.Blocks[0].Insts = append(fn.Blocks[0].Insts, ir.NewSet(x, ir.Simple(ir.OpGetTl), ir.VarOp(fn.Args[0])))
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined more than once")
}

func TestVerifyRejectsBranchToUndefinedBlock(t *testing.T) {
	fn := wellFormedFunc()
	fn.Blocks[0].Term = &ir.Br{Bool: ir.LitOp(true), Succ: 7, Fail: 7}
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined block")
}

func TestVerifyRejectsPhiWithWrongPredecessorSet(t *testing.T) {
	fb := ir.NewFuncBuilder("bad_phi", 1)
	c := fb.Arg("C")
	p := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).Terminate(&ir.Br{Bool: ir.VarOp(c), Succ: 1, Fail: 2})
	fb.Block(1).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 2, Fail: 2})
	fb.Block(2).
		Phi(ir.NewPhi(p, ir.PhiArg{Value: ir.LitOp(1), Pred: 0})).
		Terminate(&ir.Ret{Arg: ir.VarOp(p)})

	fn := fb.Func()
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predecessor set")
}

func TestVerifyRejectsNonLocalSucceeded(t *testing.T) {
	fb := ir.NewFuncBuilder("bad_succ", 1)
	arg := fb.Arg("X")
	x := &ir.Var{Tag: "X", N: 1, Generated: true}
	y := &ir.Var{Tag: "X", N: 2, Generated: true}
	s := &ir.Var{Tag: "B", N: 1, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(x, ir.Simple(ir.OpGetHd), ir.VarOp(arg))).
		Inst(ir.NewSet(y, ir.Simple(ir.OpGetTl), ir.VarOp(arg))).
		Inst(ir.NewSet(s, ir.Simple(ir.OpSucceeded), ir.VarOp(x))). // refers to x, not the immediately preceding y
		Terminate(&ir.Ret{Arg: ir.VarOp(s)})

	fn := fb.Func()
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "immediately preceding")
}
