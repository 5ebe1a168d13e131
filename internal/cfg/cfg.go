package cfg

import "ssaopt/internal/ir"

// LinearEntry is one (label, block) pair in a linearized function, matching
// the specification's `linearize(blocks) -> [(label, block)]` signature.
type LinearEntry struct {
	Label ir.Label
	Block *ir.Block
}

// Linearize returns the function's blocks in topological, reverse-postorder
// order with the entry block first, and also writes that order back onto
// fn.Order/fn.IsLinear so later passes that read the Function directly (as
// the specification's dual-representation design allows) see the same shape.
func Linearize(fn *ir.Function) []LinearEntry {
	order := RPO(fn)
	fn.Order = order
	fn.IsLinear = true

	out := make([]LinearEntry, 0, len(order))
	for _, l := range order {
		out = append(out, LinearEntry{Label: l, Block: fn.Blocks[l]})
	}
	return out
}

// Blockify is the inverse of Linearize: it is purely a representation
// marker — Blocks is already the map, so this only clears IsLinear, per the
// specification's §4.13 "purely a representation switch". Order is left as
// it was; passes fall back to RPO while IsLinear is false.
func Blockify(fn *ir.Function) {
	fn.IsLinear = false
}

// RPO computes a reverse-postorder traversal of fn's reachable blocks,
// entry first. Unreachable blocks are omitted, matching the CFG utility
// library contract (spec §6).
func RPO(fn *ir.Function) []ir.Label {
	visited := make(map[ir.Label]bool)
	var post []ir.Label

	var visit func(l ir.Label)
	visit = func(l ir.Label) {
		if visited[l] {
			return
		}
		visited[l] = true
		b := fn.Blocks[l]
		if b == nil {
			return
		}
		for _, s := range b.Successors() {
			visit(s)
		}
		post = append(post, l)
	}
	visit(fn.Entry)

	out := make([]ir.Label, len(post))
	for i, l := range post {
		out[len(post)-1-i] = l
	}
	return out
}

// Predecessors computes, for every block reachable from the entry, the
// labels of its predecessors.
func Predecessors(fn *ir.Function) map[ir.Label][]ir.Label {
	preds := make(map[ir.Label][]ir.Label)
	for l := range fn.Blocks {
		preds[l] = nil
	}
	for _, l := range RPO(fn) {
		b := fn.Blocks[l]
		for _, s := range b.Successors() {
			preds[s] = append(preds[s], l)
		}
	}
	return preds
}

// Successors returns a block's terminator's successor labels.
func Successors(b *ir.Block) []ir.Label {
	return b.Successors()
}

// Used returns the deduplicated set of variables an instruction or
// terminator reads — i.e. everything except a `set`'s own Dst. The variables
// come back in the order they first appear among the operands; the result is
// not sorted.
func Used(inst interface{}) []*ir.Var {
	var vars []*ir.Var
	add := func(o ir.Operand) {
		if o.Var != nil {
			vars = append(vars, o.Var)
		}
		if o.Rem != nil {
			add(o.Rem.Mod)
			add(o.Rem.Func)
		}
	}

	switch v := inst.(type) {
	case *ir.Set:
		for _, a := range v.Args {
			add(a)
		}
	case *ir.Br:
		add(v.Bool)
	case *ir.Switch:
		add(v.Arg)
		for _, c := range v.Cases {
			add(c.Val)
		}
	case *ir.Ret:
		add(v.Arg)
	}

	return dedupVars(vars)
}

func dedupVars(vars []*ir.Var) []*ir.Var {
	seen := make(map[*ir.Var]bool, len(vars))
	out := vars[:0]
	for _, v := range vars {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ClobbersXregs reports whether an instruction may invalidate caller-save
// registers: calls and closure creation, per the specification's glossary.
func ClobbersXregs(inst *ir.Set) bool {
	return inst.Op.Is(ir.OpCall) || inst.Op.Is(ir.OpMakeFun)
}

// UpdatePhiLabels rewrites, in every block named in succs, any phi argument
// whose predecessor label is `from` to `to`. Used whenever a pass changes
// which block physically flows into a successor (block splitting, merging,
// the float pass's flush insertion).
func UpdatePhiLabels(fn *ir.Function, succs []ir.Label, from, to ir.Label) {
	for _, s := range succs {
		b := fn.Blocks[s]
		if b == nil {
			continue
		}
		for _, phi := range b.Phis {
			for i := 1; i < len(phi.Args); i += 2 {
				if phi.Args[i].Value() == from {
					phi.Args[i] = ir.LitOp(to)
				}
			}
		}
	}
}

// SplitBlocks splits every block at each instruction for which predicate
// returns true (skipping an instruction already first in its block), using
// counter to mint the fresh labels for the new tail blocks. Returns the
// number of splits performed. This implements the specification's §4.1
// split_blocks cfg-utility entry point, generalized over any predicate so
// both the split_blocks pass and the float pass's conversion-isolation step
// can share it.
func SplitBlocks(fn *ir.Function, predicate func(*ir.Set) bool) int {
	splits := 0
	labels := make([]ir.Label, 0, len(fn.Blocks))
	for l := range fn.Blocks {
		labels = append(labels, l)
	}

	for _, l := range labels {
		b := fn.Blocks[l]
		for i := 1; i < len(b.Insts); i++ {
			if !predicate(b.Insts[i]) {
				continue
			}
			newLabel := fn.Counter.NextLabel()
			tail := &ir.Block{
				Label: newLabel,
				Insts: append([]*ir.Set{}, b.Insts[i:]...),
				Term:  b.Term,
			}
			b.Insts = b.Insts[:i]
			b.Term = &ir.Br{Bool: ir.LitOp(true), Succ: newLabel, Fail: newLabel}
			fn.Blocks[newLabel] = tail

			succs := tail.Successors()
			UpdatePhiLabels(fn, succs, l, newLabel)

			splits++
			break // re-scan this original block id not needed; tail is a new label processed in a later loop iteration
		}
	}

	// Newly created tail blocks may themselves need splitting (predicate
	// could match more than once per original block); iterate until no more
	// splits occur, bounded by the number of instructions in the function.
	if splits > 0 {
		splits += SplitBlocks(fn, predicate)
	}
	return splits
}
