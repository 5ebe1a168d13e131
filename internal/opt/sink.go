package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// Sink implements spec §4.12: get_tuple_element reads are relocated to the
// deepest block that dominates every use but not the original definition,
// skipping blocks the unsuitable set excludes. A relocation that cannot find
// a legal insertion point is abandoned (not_possible) and optimization
// continues with that variable untouched.
func Sink(fn *ir.Function) *ir.Function {
	defs := map[*ir.Var]ir.Label{}
	for l, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if inst.Op.Is(ir.OpGetTupleElement) && inst.Dst != nil {
				defs[inst.Dst] = l
			}
		}
	}
	if len(defs) == 0 {
		return fn
	}

	uses := map[*ir.Var][]ir.Label{}
	for l, b := range fn.Blocks {
		for _, inst := range b.AllInstructions() {
			for _, v := range cfg.Used(inst) {
				if _, ok := defs[v]; ok {
					uses[v] = append(uses[v], l)
				}
			}
		}
		for _, v := range cfg.Used(b.Term) {
			if _, ok := defs[v]; ok {
				uses[v] = append(uses[v], l)
			}
		}
	}

	doms := cfg.Dominators(fn)
	unsuitable := cfg.NewLabelSet(unsuitableBlocks(fn)...)

	domPrime := map[ir.Label]cfg.LabelSet{}
	domSet := func(l ir.Label) cfg.LabelSet {
		if s, ok := domPrime[l]; ok {
			return s
		}
		s := cfg.DomSet(doms, l).Subtract(unsuitable)
		domPrime[l] = s
		return s
	}

	for v, useLabels := range uses {
		d := defs[v]
		useSet := cfg.NewLabelSet(useLabels...)
		if len(useSet) == 0 {
			continue
		}

		common := domSet(useSet[0])
		for _, u := range useSet[1:] {
			common = common.Intersect(domSet(u))
		}
		common = common.Subtract(domSet(d))
		if len(common) == 0 {
			continue
		}

		target := mostDominated(common, doms)
		if target == d {
			continue
		}
		relocateGetTupleElement(fn, v, d, target)
	}

	return fn
}

func mostDominated(set cfg.LabelSet, doms map[ir.Label][]ir.Label) ir.Label {
	best := set[0]
	for _, c := range set[1:] {
		if len(doms[c]) > len(doms[best]) {
			best = c
		}
	}
	return best
}

// unsuitableBlocks computes spec §4.12 step 4's U set: blocks whose first
// instruction can't tolerate a sunk pure read ahead of it, plus the body of
// every receive loop (backward-reachable from remove_message/recv_next,
// stopped at peek_message boundaries).
func unsuitableBlocks(fn *ir.Function) []ir.Label {
	var out []ir.Label
	for l, b := range fn.Blocks {
		if len(b.Insts) == 0 {
			continue
		}
		first := b.Insts[0]
		switch {
		case first.Op.Is(ir.OpBSExtract), first.Op.Is(ir.OpBSPut), first.Op.Kind == ir.OpFloat,
			first.Op.Is(ir.OpLandingPad), first.Op.Is(ir.OpPeekMessage), first.Op.Is(ir.OpWaitTimeout):
			out = append(out, l)
		}
	}

	preds := cfg.Predecessors(fn)
	visited := map[ir.Label]bool{}
	var work []ir.Label
	for l, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if inst.Op.Is(ir.OpRemoveMessage) || inst.Op.Is(ir.OpRecvNext) {
				work = append(work, l)
				break
			}
		}
	}
	for len(work) > 0 {
		l := work[len(work)-1]
		work = work[:len(work)-1]
		if visited[l] {
			continue
		}
		visited[l] = true
		out = append(out, l)

		b := fn.Block(l)
		if len(b.Insts) > 0 && b.Insts[0].Op.Is(ir.OpPeekMessage) {
			continue
		}
		for _, p := range preds[l] {
			if !visited[p] {
				work = append(work, p)
			}
		}
	}

	return out
}

// relocateGetTupleElement moves V's defining instruction from block `from`
// into block `to`, scanning from the top of `to` for a legal insertion
// point. If none exists, the move is abandoned and the CFG is left
// untouched (spec §4.12's recoverable not_possible).
func relocateGetTupleElement(fn *ir.Function, v *ir.Var, from, to ir.Label) {
	fromBlock := fn.Block(from)
	idx := -1
	for i, inst := range fromBlock.Insts {
		if inst.Dst == v {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	inst := fromBlock.Insts[idx]

	toBlock := fn.Block(to)
	insertAt, ok := findSinkInsertionPoint(toBlock, v)
	if !ok {
		return
	}

	fromBlock.Insts = append(fromBlock.Insts[:idx], fromBlock.Insts[idx+1:]...)

	newInsts := make([]*ir.Set, 0, len(toBlock.Insts)+1)
	newInsts = append(newInsts, toBlock.Insts[:insertAt]...)
	newInsts = append(newInsts, inst)
	newInsts = append(newInsts, toBlock.Insts[insertAt:]...)
	toBlock.Insts = newInsts
}

// findSinkInsertionPoint implements spec §4.12 step 6's scan: never before a
// phi using V (not_possible), past call/catch_end/set_tuple_element/timeout
// unless they use V, and landing immediately before a [I; succeeded(I)]
// pair.
func findSinkInsertionPoint(b *ir.Block, v *ir.Var) (int, bool) {
	for _, phi := range b.Phis {
		for _, a := range ir.PhiArgs(phi) {
			if a.Value.Var == v {
				return 0, false
			}
		}
	}

	i := 0
	for i < len(b.Insts) {
		inst := b.Insts[i]
		usesV := usesVar(inst, v)

		switch inst.Op.Kind {
		case ir.OpCall, ir.OpCatchEnd, ir.OpSetTupleElement, ir.OpTimeout:
			if usesV {
				return i, true
			}
			i++
			continue
		}

		if i+1 < len(b.Insts) && b.Insts[i+1].Op.Is(ir.OpSucceeded) {
			return i, true
		}
		return i, true
	}
	return len(b.Insts), true
}

func usesVar(inst *ir.Set, v *ir.Var) bool {
	for _, u := range cfg.Used(inst) {
		if u == v {
			return true
		}
	}
	return false
}
