package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// TestLiveDowngradesUnusedMapValue covers spec §4.7's sole downgrade rule:
// get_map_element whose value and succeeded check are both dead becomes
// has_map_field, bound to the succeeded check's destination.
func TestLiveDowngradesUnusedMapValue(t *testing.T) {
	fb := ir.NewFuncBuilder("downgrade", 2)
	m := fb.Arg("Map")
	k := fb.Arg("Key")

	val := &ir.Var{Tag: "X", N: 1, Generated: true}
	ok := &ir.Var{Tag: "B", N: 1, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(val, ir.Simple(ir.OpGetMapElement), ir.VarOp(m), ir.VarOp(k))).
		Inst(ir.NewSet(ok, ir.Simple(ir.OpSucceeded), ir.VarOp(val))).
		Terminate(&ir.Br{Bool: ir.LitOp(true), Succ: 1, Fail: 1})
	fb.Block(1).Terminate(&ir.Ret{Arg: ir.LitOp("found")})
	fb.Block(2).Terminate(&ir.Ret{Arg: ir.LitOp("missing")})

	fn := fb.Func()
	Live(fn)

	entry := fn.Blocks[0]
	require.Len(t, entry.Insts, 1)
	got := entry.Insts[0]
	assert.True(t, got.Op.Is(ir.OpHasMapField))
	assert.Same(t, ok, got.Dst)
	require.Len(t, got.Args, 2)
	assert.Equal(t, m, got.Args[0].Var)
	assert.Equal(t, k, got.Args[1].Var)
}

// TestLiveDropsDeadPureInstruction confirms a pure op whose result is never
// used anywhere is removed outright.
func TestLiveDropsDeadPureInstruction(t *testing.T) {
	fb := ir.NewFuncBuilder("dead_pure", 1)
	list := fb.Arg("L")

	dead := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(dead, ir.Simple(ir.OpGetHd), ir.VarOp(list))).
		Terminate(&ir.Ret{Arg: ir.VarOp(list)})

	fn := fb.Func()
	Live(fn)

	assert.Empty(t, fn.Blocks[0].Insts)
}
