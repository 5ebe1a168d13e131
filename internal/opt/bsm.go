package opt

import "ssaopt/internal/ir"

// BSM implements spec §4.8: any bs_match whose destination context is never
// fed to bs_extract is marked skip, telling the backend to advance position
// without materializing the extracted value. Representational note: rather
// than reordering Args into a literal `(skip, PrevCtx, Type, ...)` tuple,
// skip-marking sets Anno["bs_skip"]=true on the existing bs_match
// instruction, leaving Args (Type, PrevCtx, Size, Unit) intact for the
// bsm_shortcut pass's bit-offset arithmetic — and making the rewrite
// trivially idempotent.
func BSM(fn *ir.Function) *ir.Function {
	extracted := map[*ir.Var]bool{}
	for _, b := range fn.Blocks {
		for _, inst := range b.AllInstructions() {
			if inst.Op.Is(ir.OpBSExtract) && len(inst.Args) > 0 && inst.Args[0].IsVar() {
				extracted[inst.Args[0].Var] = true
			}
		}
	}

	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if !inst.Op.Is(ir.OpBSMatch) || inst.Dst == nil {
				continue
			}
			if bsMatchIsString(inst) || inst.Anno["bs_skip"] == true {
				continue
			}
			if extracted[inst.Dst] {
				continue
			}
			if inst.Anno == nil {
				inst.Anno = map[string]interface{}{}
			}
			inst.Anno["bs_skip"] = true
		}
	}
	return fn
}

// bsMatchIsString reports whether inst matches a literal binary string
// pattern directly, which spec §4.8 says is never skip-rewritten.
func bsMatchIsString(inst *ir.Set) bool {
	if len(inst.Args) == 0 {
		return false
	}
	s, ok := inst.Args[0].Value().(string)
	return ok && s == "string"
}
