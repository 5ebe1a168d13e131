package cfg

import "ssaopt/internal/ir"

// Dominators computes, for every block reachable from fn's entry, its
// dominator chain ordered entry-first (including itself last), per the
// specification's §6 `dominators(blocks) -> {label -> [label]}` contract.
// The algorithm is the classic iterative Cooper/Harvey/Kennedy
// postorder-and-intersect fixpoint, the same shape as the Go compiler's own
// SSA dominator computation (see the reference `intersect` helper this is
// grounded on).
func Dominators(fn *ir.Function) map[ir.Label][]ir.Label {
	rpo := RPO(fn)
	if len(rpo) == 0 {
		return map[ir.Label][]ir.Label{}
	}

	postIndex := make(map[ir.Label]int, len(rpo))
	for i, l := range rpo {
		postIndex[l] = len(rpo) - 1 - i // higher postIndex = earlier in RPO = "more important"
	}

	preds := Predecessors(fn)

	idom := make(map[ir.Label]ir.Label, len(rpo))
	entry := rpo[0]
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, l := range rpo[1:] {
			var newIdom ir.Label
			set := false
			for _, p := range preds[l] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !set {
					newIdom = p
					set = true
					continue
				}
				newIdom = intersect(p, newIdom, postIndex, idom)
			}
			if !set {
				continue
			}
			if prev, ok := idom[l]; !ok || prev != newIdom {
				idom[l] = newIdom
				changed = true
			}
		}
	}

	chains := make(map[ir.Label][]ir.Label, len(idom))
	for l := range idom {
		chains[l] = chainFor(l, idom)
	}
	return chains
}

// intersect finds the closest common dominator of b and c by walking both up
// the partially-built dominator tree using postorder numbers to decide which
// side to advance, exactly as the reference algorithm does.
func intersect(b, c ir.Label, postIndex map[ir.Label]int, idom map[ir.Label]ir.Label) ir.Label {
	for b != c {
		for postIndex[b] < postIndex[c] {
			b = idom[b]
		}
		for postIndex[c] < postIndex[b] {
			c = idom[c]
		}
	}
	return b
}

// chainFor walks idom from l up to the entry (idom[entry] == entry) and
// returns the chain entry-first, l last.
func chainFor(l ir.Label, idom map[ir.Label]ir.Label) []ir.Label {
	var rev []ir.Label
	cur := l
	for {
		rev = append(rev, cur)
		parent := idom[cur]
		if parent == cur {
			break
		}
		cur = parent
	}
	out := make([]ir.Label, len(rev))
	for i, l := range rev {
		out[len(rev)-1-i] = l
	}
	return out
}

// DomSet returns the dominator chain of l as a sorted LabelSet, for use with
// the Intersect/Subtract hot-path helpers.
func DomSet(doms map[ir.Label][]ir.Label, l ir.Label) LabelSet {
	return NewLabelSet(doms[l]...)
}

// Dominates reports whether a dominates b (a appears in b's chain).
func Dominates(doms map[ir.Label][]ir.Label, a, b ir.Label) bool {
	for _, l := range doms[b] {
		if l == a {
			return true
		}
	}
	return false
}
