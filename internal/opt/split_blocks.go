package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// SplitBlocks implements spec §4.1: whenever {bif,element}, call or make_fun
// appears anywhere but first in its block, the block is split so that
// instruction begins a fresh block. This exposes later reorderings and sinks.
func SplitBlocks(fn *ir.Function) *ir.Function {
	cfg.SplitBlocks(fn, isSplitPoint)
	return fn
}

func isSplitPoint(s *ir.Set) bool {
	return s.Op.Is(ir.OpBif, "element") || s.Op.Is(ir.OpCall) || s.Op.Is(ir.OpMakeFun)
}
