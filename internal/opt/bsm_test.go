package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// TestBSMMarksSkipOnlyWhenNeverExtracted builds the spec §8 "Bsm skip"
// boundary test: ctx1 = bs_match(integer, ctx0, 8, 1) is later bs_extract'd,
// ctx2 = bs_match(integer, ctx1, 8, 1) never is. Only ctx2's match should be
// marked skip.
func TestBSMMarksSkipOnlyWhenNeverExtracted(t *testing.T) {
	fb := ir.NewFuncBuilder("skip", 1)
	bin := fb.Arg("Bin")

	ctx0 := &ir.Var{Tag: "Ctx", N: 0, Generated: true}
	ctx1 := &ir.Var{Tag: "Ctx", N: 1, Generated: true}
	ctx2 := &ir.Var{Tag: "Ctx", N: 2, Generated: true}
	val := &ir.Var{Tag: "X", N: 1, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(ctx0, ir.Simple(ir.OpBSStartMatch), ir.VarOp(bin))).
		Inst(ir.NewSet(ctx1, ir.Simple(ir.OpBSMatch), ir.LitOp("integer"), ir.VarOp(ctx0), ir.LitOp(int64(8)), ir.LitOp(int64(1)))).
		Inst(ir.NewSet(ctx2, ir.Simple(ir.OpBSMatch), ir.LitOp("integer"), ir.VarOp(ctx1), ir.LitOp(int64(8)), ir.LitOp(int64(1)))).
		Inst(ir.NewSet(val, ir.Simple(ir.OpBSExtract), ir.VarOp(ctx1))).
		Terminate(&ir.Ret{Arg: ir.VarOp(val)})

	fn := fb.Func()
	BSM(fn)

	entry := fn.Blocks[0]
	matchCtx1 := entry.Insts[1]
	matchCtx2 := entry.Insts[2]

	require.Same(t, ctx1, matchCtx1.Dst)
	require.Same(t, ctx2, matchCtx2.Dst)

	assert.Nil(t, matchCtx1.Anno)
	assert.Equal(t, true, matchCtx2.Anno["bs_skip"])

	// Args stay intact so bsm_shortcut can still read Type/Size/Unit.
	assert.Equal(t, "integer", matchCtx2.Args[0].Value())
	assert.Equal(t, int64(8), matchCtx2.Args[2].Value())
}

// TestBSMNeverSkipsLiteralStringMatch confirms literal binary string
// patterns are left alone even when unextracted.
func TestBSMNeverSkipsLiteralStringMatch(t *testing.T) {
	fb := ir.NewFuncBuilder("string_match", 1)
	bin := fb.Arg("Bin")

	ctx0 := &ir.Var{Tag: "Ctx", N: 0, Generated: true}
	ctx1 := &ir.Var{Tag: "Ctx", N: 1, Generated: true}

	fb.Block(0).
		Inst(ir.NewSet(ctx0, ir.Simple(ir.OpBSStartMatch), ir.VarOp(bin))).
		Inst(ir.NewSet(ctx1, ir.Simple(ir.OpBSMatch), ir.LitOp("string"), ir.VarOp(ctx0), ir.LitOp("ok"))).
		Terminate(&ir.Ret{Arg: ir.VarOp(ctx1)})

	fn := fb.Func()
	BSM(fn)

	assert.Nil(t, fn.Blocks[0].Insts[1].Anno)
}
