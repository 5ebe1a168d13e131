package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// floatState is the per-traversal "fs" record from spec §4.6: a phase, a
// register map from boxed variable to float register, the region's current
// fail label, and the precomputed non-guard set.
//
// regs and results serve different purposes and must stay distinct: regs is
// a reuse cache keyed by every boxed variable seen as an *operand* (so the
// same already-converted or already-produced value isn't re-converted), while
// results holds only the float-capable ops' own destinations — the
// variables that have no boxed definition yet and so are the ones a flush's
// `get` phase must materialize. An operand that happens to be a prior
// instruction's result (or a function argument) already has a valid boxed
// form and must never be rebound by flush.
type floatState struct {
	phase    string // "undefined" | "cleared"
	regs     map[*ir.Var]*ir.Var
	results  map[*ir.Var]*ir.Var
	fail     ir.Label
	nonGuard map[ir.Label]bool
}

// Float implements spec §4.6: it rewrites float_op-annotated boxed-float
// arithmetic into a flush-protected unboxed region, isolates fallible
// convert instructions into their own blocks, and fast-paths literal
// conversions at compile time.
func Float(fn *ir.Function) *ir.Function {
	fs := &floatState{phase: "undefined", regs: map[*ir.Var]*ir.Var{}, results: map[*ir.Var]*ir.Var{}, nonGuard: nonGuardBlocks(fn)}

	order := fn.Order
	if !fn.IsLinear || len(order) == 0 {
		order = cfg.RPO(fn)
	}
	for _, l := range order {
		visitFloatBlock(fn, fs, l)
	}

	if fs.phase != "undefined" {
		fail(fn.NameArity(), "float", "float pass ended with an unflushed float region")
	}

	splitFloatConversions(fn)
	return fn
}

func visitFloatBlock(fn *ir.Function, fs *floatState, l ir.Label) {
	b := fn.Block(l)
	if b == nil {
		return
	}

	if isGuardBlock(b, fs.nonGuard) {
		if fs.phase == "cleared" {
			next := flushRegion(fn, fs, l)
			visitFloatBlock(fn, fs, next)
		}
		return
	}

	firstIsFloat := len(b.Insts) > 0 && isFloatAnnotated(b.Insts[0])
	if fs.phase == "cleared" && !firstIsFloat && !isPureConversionSplit(b) {
		next := flushRegion(fn, fs, l)
		visitFloatBlock(fn, fs, next)
		return
	}

	var blockFail ir.Label
	if br, ok := b.Term.(*ir.Br); ok {
		blockFail = br.Fail
	} else {
		blockFail = l
	}

	kept := make([]*ir.Set, 0, len(b.Insts))
	for _, inst := range b.Insts {
		if isFloatAnnotated(inst) {
			kept = append(kept, lowerFloatInst(fn, fs, inst, blockFail)...)
			continue
		}
		kept = append(kept, inst)
	}
	b.Insts = kept
}

// lowerFloatInst rewrites one float_op-annotated instruction into its
// unboxed-float form, opening the region (clearerror) if this is the first
// float op since the last flush.
func lowerFloatInst(fn *ir.Function, fs *floatState, inst *ir.Set, blockFail ir.Label) []*ir.Set {
	var out []*ir.Set
	if fs.phase == "undefined" {
		out = append(out, ir.NewSet(nil, ir.FloatOp("clearerror")))
		fs.phase = "cleared"
		fs.fail = blockFail
	}

	fregArgs := make([]ir.Operand, len(inst.Args))
	for i, a := range inst.Args {
		fregArgs[i] = floatOperand(fn, fs, a, &out)
	}

	fresh := fn.Counter.NextVar("Float")
	out = append(out, ir.NewSet(fresh, ir.FloatOp(inst.Op.Name), fregArgs...))
	// fresh is recorded in both maps: regs so a later float op that takes
	// inst.Dst as an operand reuses the register instead of re-converting,
	// and results so flush knows inst.Dst itself needs a `get` to regain a
	// boxed definition (it has none yet — the float op is its only def).
	fs.regs[inst.Dst] = fresh
	fs.results[inst.Dst] = fresh
	return out
}

// floatOperand returns the float-register operand to use for o, materializing
// a put (literal fast path) or convert (runtime value, or a literal that
// fails to convert at compile time) the first time o is seen.
func floatOperand(fn *ir.Function, fs *floatState, o ir.Operand, out *[]*ir.Set) ir.Operand {
	if o.IsVar() {
		if reg, ok := fs.regs[o.Var]; ok {
			return ir.VarOp(reg)
		}
		reg := fn.Counter.NextVar("Float")
		emitConvert(fn, fs, reg, o, out)
		fs.regs[o.Var] = reg
		return ir.VarOp(reg)
	}
	if o.IsLit() {
		reg := fn.Counter.NextVar("Float")
		if f, ok := convertibleFloatLiteral(o.Value()); ok {
			*out = append(*out, ir.NewSet(reg, ir.FloatOp("put"), ir.LitOp(f)))
		} else {
			// Reproduces the runtime exception faithfully: a literal that
			// cannot convert at compile time still goes through `convert`.
			emitConvert(fn, fs, reg, o, out)
		}
		return ir.VarOp(reg)
	}
	return o
}

func emitConvert(fn *ir.Function, fs *floatState, reg *ir.Var, o ir.Operand, out *[]*ir.Set) {
	conv := ir.NewSet(reg, ir.FloatOp("convert"), o)
	succ := ir.NewSet(fn.Counter.NextVar("B"), ir.Simple(ir.OpSucceeded), ir.VarOp(reg))
	succ.Anno = map[string]interface{}{"float_fail": fs.fail}
	*out = append(*out, conv, succ)
}

func convertibleFloatLiteral(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// flushRegion closes the currently open float region: it reuses l for a
// checkerror block (so existing predecessors need no rewiring), inserts a
// get block that reboxes the destination of every float op in the region
// (fs.results; operand registers are not reboxed), and relocates l's
// original content to a fresh landing label, recording the rename in
// successor phis. Returns the landing label so the caller can continue the
// traversal there.
func flushRegion(fn *ir.Function, fs *floatState, l ir.Label) ir.Label {
	orig := fn.Block(l)

	getLabel := fn.Counter.NextLabel()
	finalLabel := fn.Counter.NextLabel()

	checkDst := fn.Counter.NextVar("B")
	checkBlock := &ir.Block{
		Label: l,
		Phis:  orig.Phis,
		Insts: []*ir.Set{ir.NewSet(checkDst, ir.FloatOp("checkerror"))},
		Term:  &ir.Br{Bool: ir.VarOp(checkDst), Succ: getLabel, Fail: fs.fail},
	}

	getInsts := make([]*ir.Set, 0, len(fs.results))
	for boxed, reg := range fs.results {
		getInsts = append(getInsts, ir.NewSet(boxed, ir.FloatOp("get"), ir.VarOp(reg)))
	}
	getBlock := &ir.Block{
		Label: getLabel,
		Insts: getInsts,
		Term:  &ir.Br{Bool: ir.LitOp(true), Succ: finalLabel, Fail: finalLabel},
	}

	finalBlock := &ir.Block{
		Label: finalLabel,
		Insts: orig.Insts,
		Term:  orig.Term,
	}

	fn.Blocks[l] = checkBlock
	fn.Blocks[getLabel] = getBlock
	fn.Blocks[finalLabel] = finalBlock

	cfg.UpdatePhiLabels(fn, finalBlock.Successors(), l, finalLabel)

	fs.phase = "undefined"
	fs.regs = map[*ir.Var]*ir.Var{}
	fs.results = map[*ir.Var]*ir.Var{}
	return finalLabel
}

// splitFloatConversions is the post-rewrite pass described in spec §4.6: it
// isolates every {float,convert} (with its succeeded) into its own block, so
// each can branch to its region's fail label independently.
func splitFloatConversions(fn *ir.Function) {
	for {
		if !splitOneFloatConversion(fn) {
			return
		}
	}
}

func splitOneFloatConversion(fn *ir.Function) bool {
	for l, b := range fn.Blocks {
		for i, inst := range b.Insts {
			if !inst.Op.Is(ir.OpFloat, "convert") {
				continue
			}
			if i+1 >= len(b.Insts) || !b.Insts[i+1].Op.Is(ir.OpSucceeded) {
				continue
			}
			if i == 0 && len(b.Insts) == 2 {
				continue // already isolated
			}
			succ := b.Insts[i+1]
			failLabel, _ := succ.Anno["float_fail"].(ir.Label)

			headLabel := l
			if i != 0 {
				headLabel = fn.Counter.NextLabel()
			}
			nextLabel := fn.Counter.NextLabel()

			tail := &ir.Block{
				Label: nextLabel,
				Insts: append([]*ir.Set{}, b.Insts[i+2:]...),
				Term:  b.Term,
			}
			head := &ir.Block{
				Label: headLabel,
				Insts: []*ir.Set{inst, succ},
				Term:  &ir.Br{Bool: ir.VarOp(succ.Dst), Succ: nextLabel, Fail: failLabel},
			}

			if i == 0 {
				b.Insts = head.Insts
				b.Term = head.Term
			} else {
				b.Insts = b.Insts[:i]
				b.Term = &ir.Br{Bool: ir.LitOp(true), Succ: headLabel, Fail: headLabel}
				fn.Blocks[headLabel] = head
			}
			fn.Blocks[nextLabel] = tail
			cfg.UpdatePhiLabels(fn, tail.Successors(), l, nextLabel)
			return true
		}
	}
	return false
}

func nonGuardBlocks(fn *ir.Function) map[ir.Label]bool {
	out := map[ir.Label]bool{}
	if fn.HasBadArgBlock {
		out[fn.BadArgBlock] = true
	}
	for l, b := range fn.Blocks {
		if len(b.Insts) > 0 && b.Insts[0].Op.Is(ir.OpLandingPad) {
			out[l] = true
		}
	}
	return out
}

func isGuardBlock(b *ir.Block, nonGuard map[ir.Label]bool) bool {
	br, ok := b.Term.(*ir.Br)
	if !ok {
		return false
	}
	return !nonGuard[br.Fail]
}

func isFloatAnnotated(inst *ir.Set) bool {
	if inst.Anno == nil {
		return false
	}
	_, ok := inst.Anno["float_op"]
	return ok
}

func isPureConversionSplit(b *ir.Block) bool {
	return len(b.Insts) == 2 && b.Insts[0].Op.Is(ir.OpFloat, "convert") && b.Insts[1].Op.Is(ir.OpSucceeded)
}
