package opt

import (
	"fmt"

	"ssaopt/internal/cfg"
	"ssaopt/internal/ir"
)

// Verify checks the universal invariants from the specification's §8
// testable properties 1-4 against fn, returning the first violation found
// (nil if fn is well-formed). It is used by SelfCheck (and through it by the
// CLI's -verify flag), by the REPL's :verify command, and by the verifier,
// pipeline and golden tests.
func Verify(fn *ir.Function) error {
	if err := verifySSA(fn); err != nil {
		return err
	}
	if err := verifyTerminators(fn); err != nil {
		return err
	}
	if err := verifyPhis(fn); err != nil {
		return err
	}
	if err := verifySucceededLocality(fn); err != nil {
		return err
	}
	return nil
}

// verifySSA checks property 1: every destination variable is defined exactly once.
func verifySSA(fn *ir.Function) error {
	defined := make(map[*ir.Var]bool)
	for _, b := range fn.Blocks {
		for _, inst := range b.AllInstructions() {
			if inst.Dst == nil {
				continue
			}
			if defined[inst.Dst] {
				return fmt.Errorf("%s: variable %s defined more than once", fn.NameArity(), inst.Dst)
			}
			defined[inst.Dst] = true
		}
	}
	return nil
}

// verifyTerminators checks property 2: every block ends in exactly one
// terminator whose successors are all defined blocks.
func verifyTerminators(fn *ir.Function) error {
	for l, b := range fn.Blocks {
		if b.Term == nil {
			return fmt.Errorf("%s: block bb%d has no terminator", fn.NameArity(), l)
		}
		for _, s := range b.Successors() {
			if _, ok := fn.Blocks[s]; !ok {
				return fmt.Errorf("%s: block bb%d branches to undefined block bb%d", fn.NameArity(), l, s)
			}
		}
	}
	return nil
}

// verifyPhis checks property 3: every phi's predecessor-label set equals the
// block's actual predecessor set.
func verifyPhis(fn *ir.Function) error {
	preds := cfg.Predecessors(fn)
	for l, b := range fn.Blocks {
		if len(b.Phis) == 0 {
			continue
		}
		want := cfg.NewLabelSet(preds[l]...)
		for _, phi := range b.Phis {
			var got cfg.LabelSet
			for _, a := range ir.PhiArgs(phi) {
				got = append(got, a.Pred)
			}
			got = cfg.NewLabelSet(got...)
			if !labelSetEqual(want, got) {
				return fmt.Errorf("%s: phi %s in bb%d has predecessor set %v, block predecessors are %v",
					fn.NameArity(), phi.Dst, l, got, want)
			}
		}
	}
	return nil
}

func labelSetEqual(a, b cfg.LabelSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// verifySucceededLocality checks property 4: every `succeeded` either
// references the destination of the immediately preceding fallible
// instruction in the same block, or is the literal `true`.
func verifySucceededLocality(fn *ir.Function) error {
	for l, b := range fn.Blocks {
		for i, inst := range b.Insts {
			if !inst.Op.Is(ir.OpSucceeded) {
				continue
			}
			arg := inst.Args[0]
			if arg.Value() == true {
				continue
			}
			if i == 0 {
				return fmt.Errorf("%s: succeeded %s in bb%d has no preceding instruction", fn.NameArity(), arg, l)
			}
			prev := b.Insts[i-1]
			if prev.Dst == nil || !arg.Equal(ir.VarOp(prev.Dst)) {
				return fmt.Errorf("%s: succeeded %s in bb%d does not reference the immediately preceding instruction", fn.NameArity(), arg, l)
			}
		}
	}
	return nil
}
