package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// diamond builds bb0 -> {bb1, bb2} -> bb3, a minimal diamond CFG.
func diamond() *ir.Function {
	fb := ir.NewFuncBuilder("diamond", 1)
	t := fb.Arg("T")

	fb.Block(0).Terminate(&ir.Br{Bool: ir.VarOp(t), Succ: 1, Fail: 2})
	fb.Block(1).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 3, Fail: 3})
	fb.Block(2).Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 3, Fail: 3})
	fb.Block(3).Terminate(&ir.Ret{Arg: ir.VarOp(t)})

	return fb.Func()
}

func TestRPOEntryFirstReachableOnly(t *testing.T) {
	fn := diamond()
	fn.Blocks[99] = &ir.Block{Label: 99, Term: &ir.Ret{}} // unreachable

	order := RPO(fn)
	require.NotEmpty(t, order)
	assert.Equal(t, ir.Label(0), order[0])
	assert.NotContains(t, order, ir.Label(99))
	assert.Len(t, order, 4)
}

func TestPredecessors(t *testing.T) {
	fn := diamond()
	preds := Predecessors(fn)

	assert.ElementsMatch(t, []ir.Label{0}, preds[1])
	assert.ElementsMatch(t, []ir.Label{0}, preds[2])
	assert.ElementsMatch(t, []ir.Label{1, 2}, preds[3])
}

func TestDominators(t *testing.T) {
	fn := diamond()
	doms := Dominators(fn)

	assert.Equal(t, []ir.Label{0}, doms[0])
	assert.Equal(t, []ir.Label{0, 1}, doms[1])
	assert.Equal(t, []ir.Label{0, 2}, doms[2])
	// bb3 is reached via both branches, so only bb0 strictly dominates it.
	assert.Equal(t, []ir.Label{0, 3}, doms[3])
	assert.True(t, Dominates(doms, 0, 3))
	assert.False(t, Dominates(doms, 1, 3))
}

func TestLabelSetOps(t *testing.T) {
	a := NewLabelSet(3, 1, 2, 1)
	b := NewLabelSet(2, 3, 4)

	assert.Equal(t, LabelSet{1, 2, 3}, a)
	assert.Equal(t, LabelSet{2, 3}, a.Intersect(b))
	assert.Equal(t, LabelSet{1}, a.Subtract(b))
	assert.Equal(t, LabelSet{1, 2, 3, 4}, a.Union(b))
	assert.True(t, a.Contains(2))
	assert.False(t, a.Contains(9))
}

func TestUsedSkipsDstAndLabels(t *testing.T) {
	x := &ir.Var{Name: "X"}
	y := &ir.Var{Name: "Y"}
	inst := ir.NewSet(&ir.Var{Name: "Z"}, ir.Bif("+"), ir.VarOp(x), ir.VarOp(y))

	used := Used(inst)
	assert.ElementsMatch(t, []*ir.Var{x, y}, used)

	phi := ir.NewPhi(&ir.Var{Name: "P"}, ir.PhiArg{Value: ir.VarOp(x), Pred: 0}, ir.PhiArg{Value: ir.LitOp(int64(1)), Pred: 1})
	assert.ElementsMatch(t, []*ir.Var{x}, Used(phi))
}

func TestClobbersXregs(t *testing.T) {
	call := ir.NewSet(&ir.Var{Name: "R"}, ir.Simple(ir.OpCall))
	pure := ir.NewSet(&ir.Var{Name: "R"}, ir.Bif("+"))

	assert.True(t, ClobbersXregs(call))
	assert.False(t, ClobbersXregs(pure))
}

func TestSplitBlocksSplitsAtMatchingNonFirstInstruction(t *testing.T) {
	fb := ir.NewFuncBuilder("f", 1)
	tup := fb.Arg("T")

	a := &ir.Var{Tag: "X", N: 1, Generated: true}
	b := &ir.Var{Tag: "X", N: 2, Generated: true}
	fb.Block(0).
		Inst(ir.NewSet(a, ir.Bif("+"), ir.VarOp(tup), ir.LitOp(int64(1)))).
		Inst(ir.NewSet(b, ir.Simple(ir.OpCall))).
		Terminate(&ir.Ret{Arg: ir.VarOp(b)})
	fn := fb.Func()

	n := SplitBlocks(fn, func(s *ir.Set) bool { return s.Op.Is(ir.OpCall) })
	require.Equal(t, 1, n)

	entry := fn.Blocks[0]
	assert.Len(t, entry.Insts, 1)
	require.IsType(t, &ir.Br{}, entry.Term)

	tailLabel := entry.Term.(*ir.Br).Succ
	tail := fn.Blocks[tailLabel]
	require.NotNil(t, tail)
	assert.Len(t, tail.Insts, 1)
	assert.True(t, tail.Insts[0].Op.Is(ir.OpCall))
}

func TestUpdatePhiLabels(t *testing.T) {
	x := &ir.Var{Name: "X"}
	phi := ir.NewPhi(&ir.Var{Name: "P"}, ir.PhiArg{Value: ir.VarOp(x), Pred: 0})
	fn := ir.NewFunction("f", 0)
	fn.Blocks[1] = &ir.Block{Label: 1, Phis: []*ir.Set{phi}}

	UpdatePhiLabels(fn, []ir.Label{1}, 0, 7)

	args := ir.PhiArgs(phi)
	require.Len(t, args, 1)
	assert.Equal(t, ir.Label(7), args[0].Pred)
}
