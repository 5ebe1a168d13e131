package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// Live implements spec §4.7: a single backward pass over the linearized CFG
// computing liveness and eliminating dead pure instructions, including the
// get_map_element -> has_map_field downgrade when neither the read's value
// nor its succeeded check is used. A read whose succeeded check is used is
// kept as is.
func Live(fn *ir.Function) *ir.Function {
	order := fn.Order
	if !fn.IsLinear || len(order) == 0 {
		order = cfg.RPO(fn)
	}

	baseLive := map[ir.Label]map[*ir.Var]bool{}

	for i := len(order) - 1; i >= 0; i-- {
		l := order[i]
		b := fn.Block(l)

		live := map[*ir.Var]bool{}
		for _, s := range b.Successors() {
			sb := fn.Block(s)
			if sb == nil {
				continue
			}
			for v := range baseLive[s] {
				live[v] = true
			}
			for _, phi := range sb.Phis {
				for _, a := range ir.PhiArgs(phi) {
					if a.Pred == l && a.Value.IsVar() {
						live[a.Value.Var] = true
					}
				}
			}
		}
		for _, v := range cfg.Used(b.Term) {
			live[v] = true
		}

		var kept []*ir.Set
		insts := b.Insts
		idx := len(insts) - 1
		for idx >= 0 {
			inst := insts[idx]
			if idx > 0 && inst.Op.Is(ir.OpSucceeded) && inst.Args[0].Equal(ir.VarOp(insts[idx-1].Dst)) {
				prev := insts[idx-1]
				rewritten := livePair(prev, inst, live)
				kept = prependAll(kept, rewritten)
				idx -= 2
				continue
			}
			if inst.Dst != nil && !live[inst.Dst] && isPureOp(inst.Op) {
				idx--
				continue
			}
			if inst.Dst != nil {
				delete(live, inst.Dst)
			}
			for _, v := range cfg.Used(inst) {
				live[v] = true
			}
			kept = prependAll(kept, []*ir.Set{inst})
			idx--
		}
		b.Insts = kept

		var keptPhis []*ir.Set
		for _, phi := range b.Phis {
			if phi.Dst != nil && live[phi.Dst] {
				keptPhis = append(keptPhis, phi)
				delete(live, phi.Dst)
			}
		}
		b.Phis = keptPhis

		baseLive[l] = live
	}

	return fn
}

// prependAll inserts elems (already in forward order) before kept, which is
// being built back-to-front as the block is walked in reverse.
func prependAll(kept []*ir.Set, elems []*ir.Set) []*ir.Set {
	return append(append([]*ir.Set{}, elems...), kept...)
}

// livePair decides the fate of a fallible instruction and its immediately
// following succeeded check, per spec §4.7's four-way rule, mutating live in
// place and returning the (possibly rewritten, possibly empty) replacement
// instructions in forward order.
func livePair(prev, succ *ir.Set, live map[*ir.Var]bool) []*ir.Set {
	prevLive := prev.Dst != nil && live[prev.Dst]
	succLive := succ.Dst != nil && live[succ.Dst]

	switch {
	case prevLive:
		delete(live, prev.Dst)
		delete(live, succ.Dst)
		for _, v := range cfg.Used(prev) {
			live[v] = true
		}
		return []*ir.Set{prev, succ}
	case succLive:
		delete(live, succ.Dst)
		for _, v := range cfg.Used(prev) {
			live[v] = true
		}
		return []*ir.Set{prev, succ}
	default:
		if repl, ok := downgradeOp(prev); ok {
			repl.Dst = succ.Dst
			if isPureOp(repl.Op) {
				return nil
			}
			for _, v := range cfg.Used(repl) {
				live[v] = true
			}
			return []*ir.Set{repl}
		}
		if isPureOp(prev.Op) {
			return nil
		}
		for _, v := range cfg.Used(prev) {
			live[v] = true
		}
		return []*ir.Set{prev, succ}
	}
}

// downgradeOp is spec §4.7's sole downgrade rule: get_map_element becomes
// has_map_field. livePair applies it only when both the read's value and its
// succeeded check are unused.
func downgradeOp(prev *ir.Set) (*ir.Set, bool) {
	if prev.Op.Is(ir.OpGetMapElement) {
		return ir.NewSet(nil, ir.Simple(ir.OpHasMapField), prev.Args...), true
	}
	return nil, false
}

func isPureOp(op ir.Op) bool {
	switch op.Kind {
	case ir.OpBif, ir.OpBSExtract, ir.OpExtract, ir.OpGetHd, ir.OpGetTl,
		ir.OpGetTupleElement, ir.OpIsNonemptyList, ir.OpIsTaggedTuple,
		ir.OpPutList, ir.OpPutTuple:
		return true
	case ir.OpFloat:
		return op.Name == "get"
	default:
		return false
	}
}
