package opt

import (
	"fmt"
	"strings"

	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// CSE implements spec §4.4: common-subexpression elimination across extended
// basic blocks. It walks the function in linear (RPO) order, maintaining a
// per-block "available expressions" map propagated forward to successors by
// intersection, plus a single substitution map applied to every downstream
// operand.
func CSE(fn *ir.Function) *ir.Function {
	order := fn.Order
	if !fn.IsLinear || len(order) == 0 {
		order = cfg.RPO(fn)
	}

	entryEs := map[ir.Label]map[string]*ir.Var{}
	sub := map[*ir.Var]ir.Operand{}

	for _, l := range order {
		b := fn.Block(l)
		es := cloneEs(entryEs[l])
		failExclude := map[*ir.Var]bool{}

		for _, phi := range b.Phis {
			args := ir.PhiArgs(phi)
			for i, a := range args {
				args[i].Value = substituteDeep(a.Value, sub)
			}
			ir.SetPhiArgs(phi, args)
		}

		kept := b.Insts[:0:0]
		for i := 0; i < len(b.Insts); i++ {
			inst := b.Insts[i]
			for j, a := range inst.Args {
				inst.Args[j] = substituteDeep(a, sub)
			}

			if inst.Op.Is(ir.OpSucceeded) && i > 0 {
				prev := b.Insts[i-1]
				if inst.Args[0].Equal(ir.VarOp(prev.Dst)) {
					if rep, eliminated := sub[prev.Dst]; eliminated {
						sub[inst.Dst] = ir.LitOp(true)
						failExclude[rep.Var] = true
						kept = append(kept, inst)
						continue
					}
				}
			}

			if cseSuitable(inst.Op) {
				key := exprKey(inst)
				if rep, ok := es[key]; ok {
					sub[inst.Dst] = ir.VarOp(rep)
					continue
				}
				es[key] = inst.Dst
			}

			kept = append(kept, inst)

			if cfg.ClobbersXregs(inst) {
				es = map[string]*ir.Var{}
			}
		}
		b.Insts = kept

		switch t := b.Term.(type) {
		case *ir.Br:
			t.Bool = substituteDeep(t.Bool, sub)
			propagateEs(entryEs, t.Succ, es)
			failEs := es
			if len(failExclude) > 0 {
				failEs = cloneEs(es)
				for k, v := range failEs {
					if failExclude[v] {
						delete(failEs, k)
					}
				}
			}
			propagateEs(entryEs, t.Fail, failEs)
		case *ir.Switch:
			t.Arg = substituteDeep(t.Arg, sub)
			for i, c := range t.Cases {
				t.Cases[i].Val = substituteDeep(c.Val, sub)
			}
			propagateEs(entryEs, t.Default, es)
			for _, c := range t.Cases {
				propagateEs(entryEs, c.Dest, es)
			}
		case *ir.Ret:
			t.Arg = substituteDeep(t.Arg, sub)
		}
	}

	return fn
}

func propagateEs(entryEs map[ir.Label]map[string]*ir.Var, to ir.Label, es map[string]*ir.Var) {
	if entryEs[to] == nil {
		entryEs[to] = cloneEs(es)
		return
	}
	entryEs[to] = intersectEs(entryEs[to], es)
}

func cloneEs(in map[string]*ir.Var) map[string]*ir.Var {
	out := make(map[string]*ir.Var, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func intersectEs(a, b map[string]*ir.Var) map[string]*ir.Var {
	out := map[string]*ir.Var{}
	for k, v := range a {
		if bv, ok := b[k]; ok && bv == v {
			out[k] = v
		}
	}
	return out
}

func cseSuitable(op ir.Op) bool {
	switch op.Kind {
	case ir.OpGetHd, ir.OpGetTl, ir.OpPutList, ir.OpPutTuple:
		return true
	case ir.OpBif:
		return !cseExcludedBifs[op.Name]
	default:
		return false
	}
}

var cseExcludedBifs = map[string]bool{
	"=:=": true, "=/=": true, "==": true, "/=": true,
	"<": true, "=<": true, ">": true, ">=": true,
	"and": true, "or": true, "not": true, "xor": true,
	"is_atom": true, "is_integer": true, "is_float": true, "is_list": true,
	"is_tuple": true, "is_binary": true, "is_map": true, "is_pid": true,
	"is_reference": true, "is_function": true, "is_boolean": true, "is_number": true,
}

func exprKey(inst *ir.Set) string {
	parts := make([]string, len(inst.Args))
	for i, a := range inst.Args {
		switch {
		case a.Var != nil:
			parts[i] = fmt.Sprintf("v%p", a.Var)
		case a.Lit != nil:
			parts[i] = fmt.Sprintf("l%T:%v", a.Lit.Value, a.Lit.Value)
		case a.Rem != nil:
			parts[i] = fmt.Sprintf("r%s", a.Rem)
		}
	}
	return inst.Op.String() + "|" + strings.Join(parts, ",")
}

func substituteDeep(o ir.Operand, sub map[*ir.Var]ir.Operand) ir.Operand {
	if o.Var != nil {
		if rep, ok := sub[o.Var]; ok {
			return rep
		}
		return o
	}
	if o.Rem != nil {
		return ir.RemoteOp(substituteDeep(o.Rem.Mod, sub), substituteDeep(o.Rem.Func, sub))
	}
	return o
}
