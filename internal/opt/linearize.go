package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// LinearizePass wraps the cfg utility's Linearize for pipeline step 3.
func LinearizePass(fn *ir.Function) *ir.Function {
	cfg.Linearize(fn)
	return fn
}

// BlockifyPass wraps the cfg utility's Blockify for pipeline step 12.
func BlockifyPass(fn *ir.Function) *ir.Function {
	cfg.Blockify(fn)
	return fn
}
