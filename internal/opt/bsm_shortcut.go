package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// BSMShortcut implements spec §4.9. It tracks, per bs_match-defining
// variable, the cumulative bit offset from the start of the match (literal
// strings sized in bits, utf8/16/32 at their spec-fixed 8/16/32 bits,
// integer matches at Size*Unit), and short-circuits a bs_match failure
// branch straight to the ultimate failure of an already-certain-to-fail
// bs_test_tail check.
func BSMShortcut(fn *ir.Function) *ir.Function {
	order := cfg.RPO(fn)
	offsets := map[*ir.Var]int{}
	unknown := map[*ir.Var]bool{}

	for _, l := range order {
		b := fn.Block(l)
		for _, inst := range b.AllInstructions() {
			if inst.Op.Is(ir.OpBSStartMatch) && inst.Dst != nil {
				offsets[inst.Dst] = 0
			}
		}
	}
	for _, l := range order {
		b := fn.Block(l)
		for _, inst := range b.Insts {
			if !inst.Op.Is(ir.OpBSMatch) || inst.Dst == nil || len(inst.Args) < 2 || !inst.Args[1].IsVar() {
				continue
			}
			prev := inst.Args[1].Var
			bits, ok := bitsForMatch(inst)
			base, known := offsets[prev]
			if unknown[prev] || !known || !ok {
				unknown[inst.Dst] = true
				continue
			}
			offsets[inst.Dst] = base + bits
		}
	}

	for _, l := range order {
		b := fn.Block(l)
		if len(b.Insts) != 2 {
			continue
		}
		match, succ := b.Insts[0], b.Insts[1]
		if !match.Op.Is(ir.OpBSMatch) || !succ.Op.Is(ir.OpSucceeded) || !succ.Args[0].Equal(ir.VarOp(match.Dst)) {
			continue
		}
		br, ok := b.Term.(*ir.Br)
		if !ok || !br.Bool.Equal(ir.VarOp(succ.Dst)) {
			continue
		}
		if len(match.Args) < 2 || !match.Args[1].IsVar() {
			continue
		}
		prev := match.Args[1].Var
		if unknown[prev] {
			continue
		}
		oldOffset, known := offsets[prev]
		if !known {
			continue
		}

		threshold, ultimateFail, ok := matchTailCheck(fn.Block(br.Fail), offsets, unknown)
		if !ok {
			continue
		}
		if oldOffset > threshold {
			br.Fail = ultimateFail
		}
	}

	return fn
}

// matchTailCheck matches a block shaped `bs_test_tail(ctx, K) -> Bool;
// br(Bool, _, ultimateFail)` and returns K plus ctx's known bit offset.
func matchTailCheck(b *ir.Block, offsets map[*ir.Var]int, unknown map[*ir.Var]bool) (threshold int, ultimateFail ir.Label, ok bool) {
	if b == nil || len(b.Insts) != 1 {
		return 0, 0, false
	}
	inst := b.Insts[0]
	if !inst.Op.Is(ir.OpBSTestTail) || len(inst.Args) < 2 {
		return 0, 0, false
	}
	k, ok := literalInt(inst.Args[1])
	if !ok {
		return 0, 0, false
	}
	var bitsAtCtx int
	if ctx := inst.Args[0]; ctx.IsVar() {
		if unknown[ctx.Var] {
			return 0, 0, false
		}
		bitsAtCtx = offsets[ctx.Var]
	}
	term, ok := b.Term.(*ir.Br)
	if !ok || !term.Bool.Equal(ir.VarOp(inst.Dst)) {
		return 0, 0, false
	}
	return k + bitsAtCtx, term.Fail, true
}

// bitsForMatch computes a single bs_match instruction's bit width per spec
// §4.9's three size rules. Convention: Args are (Type, PrevCtx, Size, Unit)
// for integer matches, (Type, PrevCtx, StringLiteral) for literal-string
// matches, and (Type, PrevCtx) for the fixed-width utf8/16/32 forms.
func bitsForMatch(inst *ir.Set) (int, bool) {
	if len(inst.Args) == 0 {
		return 0, false
	}
	typ, _ := inst.Args[0].Value().(string)
	switch typ {
	case "string":
		if len(inst.Args) < 3 {
			return 0, false
		}
		s, ok := inst.Args[2].Value().(string)
		if !ok {
			return 0, false
		}
		return len(s) * 8, true
	case "utf8":
		return 8, true
	case "utf16":
		return 16, true
	case "utf32":
		return 32, true
	case "integer":
		if len(inst.Args) < 4 {
			return 0, false
		}
		sz, ok1 := literalInt(inst.Args[2])
		unit, ok2 := literalInt(inst.Args[3])
		if !ok1 || !ok2 {
			return 0, false
		}
		return sz * unit, true
	default:
		return 0, false
	}
}
