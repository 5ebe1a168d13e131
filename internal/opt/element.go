package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// Element implements spec §4.2: it reorders chains of tuple-index reads so
// the highest index is read first, letting later passes fold the remaining
// accesses into raw get_tuple_element. Convention: element's Args are
// (N literal, T var), matching the `element(N, T)` reading in spec prose.
func Element(fn *ir.Function) *ir.Function {
	order := cfg.RPO(fn)

	var chains [][]ir.Label
	var current []ir.Label
	for _, l := range order {
		elem, _, br, ok := matchElementBlock(fn.Block(l))
		if !ok {
			if len(current) >= 2 {
				chains = append(chains, current)
			}
			current = nil
			continue
		}
		if len(current) == 0 {
			current = []ir.Label{l}
			continue
		}
		prevElem, _, prevBr, _ := matchElementBlock(fn.Block(current[len(current)-1]))
		if prevBr.Succ == l && prevElem.Args[1].Equal(elem.Args[1]) && prevBr.Fail == br.Fail {
			current = append(current, l)
		} else {
			if len(current) >= 2 {
				chains = append(chains, current)
			}
			current = []ir.Label{l}
		}
	}
	if len(current) >= 2 {
		chains = append(chains, current)
	}

	for _, chain := range chains {
		reorderElementChain(fn, chain)
	}
	return fn
}

// matchElementBlock reports whether b is exactly
// `[element(N, T); succeeded(Bool)] ; br(Bool, succ, fail)`.
func matchElementBlock(b *ir.Block) (elem, succ *ir.Set, br *ir.Br, ok bool) {
	if b == nil || len(b.Insts) != 2 {
		return nil, nil, nil, false
	}
	elem, succ = b.Insts[0], b.Insts[1]
	if !elem.Op.Is(ir.OpBif, "element") || len(elem.Args) != 2 {
		return nil, nil, nil, false
	}
	if !succ.Op.Is(ir.OpSucceeded) || len(succ.Args) != 1 {
		return nil, nil, nil, false
	}
	if !succ.Args[0].Equal(ir.VarOp(elem.Dst)) {
		return nil, nil, nil, false
	}
	term, ok := b.Term.(*ir.Br)
	if !ok || !term.Bool.Equal(ir.VarOp(succ.Dst)) {
		return nil, nil, nil, false
	}
	return elem, succ, term, true
}

func reorderElementChain(fn *ir.Function, chain []ir.Label) {
	maxIdx := 0
	maxN, _ := literalInt(fn.Block(chain[0]).Insts[0].Args[0])
	for i := 1; i < len(chain); i++ {
		n, _ := literalInt(fn.Block(chain[i]).Insts[0].Args[0])
		if n > maxN {
			maxN = n
			maxIdx = i
		}
	}
	if maxIdx == 0 {
		return
	}

	first := fn.Block(chain[0])
	maxBlock := fn.Block(chain[maxIdx])

	first.Insts[0], maxBlock.Insts[0] = maxBlock.Insts[0], first.Insts[0]
	first.Insts[1].Args[0] = ir.VarOp(first.Insts[0].Dst)
	maxBlock.Insts[1].Args[0] = ir.VarOp(maxBlock.Insts[0].Dst)
}

func literalInt(o ir.Operand) (int, bool) {
	switch v := o.Value().(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
