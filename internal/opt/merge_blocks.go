package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// MergeBlocks implements spec §4.11: a block with a unique predecessor whose
// terminator is the unconditional br(true, L, L) form is merged into that
// predecessor, unless the block begins with peek_message (a VM-required
// block boundary). Merges cascade until none remain.
func MergeBlocks(fn *ir.Function) *ir.Function {
	changed := true
	for changed {
		changed = false
		for _, l := range cfg.RPO(fn) {
			if tryMergeBlock(fn, l) {
				changed = true
			}
		}
	}
	return fn
}

func tryMergeBlock(fn *ir.Function, l ir.Label) bool {
	b := fn.Block(l)
	if b == nil || l == fn.Entry {
		return false
	}
	if len(b.Insts) > 0 && b.Insts[0].Op.Is(ir.OpPeekMessage) {
		return false
	}

	preds := cfg.Predecessors(fn)[l]
	if len(preds) != 1 {
		return false
	}
	p := preds[0]
	if p == l {
		return false
	}

	pBlock := fn.Block(p)
	pBr, ok := pBlock.Term.(*ir.Br)
	if !ok || pBr.Succ != l || pBr.Fail != l {
		return false
	}

	pBlock.Insts = append(pBlock.Insts, b.Insts...)
	pBlock.Term = b.Term

	cfg.UpdatePhiLabels(fn, b.Successors(), l, p)
	delete(fn.Blocks, l)
	return true
}
