package opt

import (
	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// Misc implements spec §4.10's two left-to-right folds: phi collapse (every
// incoming value agrees, so the phi becomes a substitution) and literal
// folding (put_tuple/put_list of all-literal args becomes a literal value),
// with the resulting substitution applied to every later instruction and
// terminator as they are visited.
func Misc(fn *ir.Function) *ir.Function {
	sub := map[*ir.Var]ir.Operand{}

	order := fn.Order
	if !fn.IsLinear || len(order) == 0 {
		order = cfg.RPO(fn)
	}

	for _, l := range order {
		b := fn.Block(l)

		var keptPhis []*ir.Set
		for _, phi := range b.Phis {
			args := ir.PhiArgs(phi)
			for i, a := range args {
				args[i].Value = substituteDeep(a.Value, sub)
			}
			ir.SetPhiArgs(phi, args)

			if phiAgrees(args) {
				sub[phi.Dst] = args[0].Value
				continue
			}
			keptPhis = append(keptPhis, phi)
		}
		b.Phis = keptPhis

		var kept []*ir.Set
		for _, inst := range b.Insts {
			for i, a := range inst.Args {
				inst.Args[i] = substituteDeep(a, sub)
			}

			if inst.Op.Is(ir.OpPutTuple) && allLiteralOperands(inst.Args) {
				sub[inst.Dst] = ir.LitOp(tupleLiteral(inst.Args))
				continue
			}
			if inst.Op.Is(ir.OpPutList) && len(inst.Args) == 2 && allLiteralOperands(inst.Args) {
				sub[inst.Dst] = ir.LitOp(ir.ConsLiteral{Hd: inst.Args[0].Value(), Tl: inst.Args[1].Value()})
				continue
			}
			kept = append(kept, inst)
		}
		b.Insts = kept

		switch t := b.Term.(type) {
		case *ir.Br:
			t.Bool = substituteDeep(t.Bool, sub)
		case *ir.Switch:
			t.Arg = substituteDeep(t.Arg, sub)
			for i, c := range t.Cases {
				t.Cases[i].Val = substituteDeep(c.Val, sub)
			}
		case *ir.Ret:
			t.Arg = substituteDeep(t.Arg, sub)
		}
	}

	return fn
}

func phiAgrees(args []ir.PhiArg) bool {
	if len(args) == 0 {
		return false
	}
	first := args[0].Value
	for _, a := range args[1:] {
		if !a.Value.Equal(first) {
			return false
		}
	}
	return true
}

func allLiteralOperands(args []ir.Operand) bool {
	for _, a := range args {
		if !a.IsLit() {
			return false
		}
	}
	return true
}

func tupleLiteral(args []ir.Operand) ir.TupleLiteral {
	out := make(ir.TupleLiteral, len(args))
	for i, a := range args {
		out[i] = a.Value()
	}
	return out
}
