package irtext

import (
	"strconv"
	"strings"
	"unicode"

	"ssaopt/internal/errors"
	"ssaopt/internal/ir"
)

// build converts a parsed File into an *ir.Module, interning every variable
// name within each function to a single *ir.Var pointer (Operand.Equal
// compares Vars by pointer, so this interning is load-bearing, not
// cosmetic).
func build(file *File) (*ir.Module, error) {
	mod := &ir.Module{}
	for _, fn := range file.Functions {
		f, err := buildFunction(fn)
		if err != nil {
			return nil, err
		}
		mod.Functions = append(mod.Functions, f)
	}
	return mod, nil
}

type funcBuilder struct {
	fn   *ir.Function
	vars map[string]*ir.Var
}

func buildFunction(node *FunctionNode) (*ir.Function, error) {
	arity, err := strconv.Atoi(node.Arity)
	if err != nil {
		return nil, errors.SyntaxError("arity must be an integer", errors.Position{})
	}
	f := ir.NewFunction(node.Name, arity)
	fb := &funcBuilder{fn: f, vars: map[string]*ir.Var{}}

	for _, a := range node.Args {
		f.Args = append(f.Args, fb.sourceVar(a))
	}

	labels := make(map[string]ir.Label, len(node.Blocks))
	order := make([]ir.Label, 0, len(node.Blocks))
	for _, b := range node.Blocks {
		l, err := parseLabel(b.Label)
		if err != nil {
			return nil, err
		}
		if _, dup := labels[b.Label]; dup {
			return nil, errors.DuplicateLabel(b.Label, errors.Position{})
		}
		labels[b.Label] = l
		order = append(order, l)
		f.Blocks[l] = &ir.Block{Label: l}
	}
	f.Order = order
	f.Counter.SeedLabels(order)
	if len(order) > 0 {
		f.Entry = order[0]
	}

	knownLabels := make([]string, 0, len(labels))
	for s := range labels {
		knownLabels = append(knownLabels, s)
	}
	resolveLabel := func(s string) (ir.Label, error) {
		l, ok := labels[s]
		if !ok {
			return 0, errors.UndefinedLabel(s, errors.Position{}, knownLabels)
		}
		return l, nil
	}

	if node.BadArg != "" {
		l, err := resolveLabel(node.BadArg)
		if err != nil {
			return nil, err
		}
		f.HasBadArgBlock = true
		f.BadArgBlock = l
	}

	for _, bn := range node.Blocks {
		l := labels[bn.Label]
		block := f.Blocks[l]
		for _, inst := range bn.Insts {
			set, err := fb.buildInst(inst)
			if err != nil {
				return nil, err
			}
			if set.Op.Kind == ir.OpPhi {
				block.Phis = append(block.Phis, set)
			} else {
				block.Insts = append(block.Insts, set)
			}
		}
		term, err := fb.buildTerm(bn.Term, resolveLabel)
		if err != nil {
			return nil, err
		}
		block.Term = term
	}

	// Resolve phi predecessor labels now that every block exists, and
	// validate br/switch targets were well-formed (resolveLabel already
	// errored on an unknown one during buildTerm).
	for _, bn := range node.Blocks {
		l := labels[bn.Label]
		block := f.Blocks[l]
		phiIdx := 0
		for _, inst := range bn.Insts {
			if inst.Phi == nil {
				continue
			}
			phi := block.Phis[phiIdx]
			phiIdx++
			args := ir.PhiArgs(phi)
			for j, a := range inst.Phi.Args {
				pred, err := resolveLabel(a.Pred)
				if err != nil {
					return nil, err
				}
				args[j].Pred = pred
			}
			ir.SetPhiArgs(phi, args)
		}
	}

	f.IsLinear = false
	return f, nil
}

func parseLabel(s string) (ir.Label, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "bb"))
	if err != nil {
		return 0, errors.SyntaxError("malformed block label "+s, errors.Position{})
	}
	return ir.Label(n), nil
}

// sourceVar interns a plain (non-generated) variable by name.
func (fb *funcBuilder) sourceVar(name string) *ir.Var {
	if v, ok := fb.vars[name]; ok {
		return v
	}
	v := &ir.Var{Name: name}
	fb.vars[name] = v
	return v
}

// generatedVar interns a generated variable by its (tag, n) pair, seeding
// the function's counter so later NextVar/NextLabel calls by a pass never
// collide with a name already present in the source text.
func (fb *funcBuilder) generatedVar(tag string, n int) *ir.Var {
	key := tag + "~" + strconv.Itoa(n)
	if v, ok := fb.vars[key]; ok {
		return v
	}
	v := &ir.Var{Tag: tag, N: n, Generated: true}
	fb.vars[key] = v
	fb.fn.Counter.SeedVars(n)
	return v
}

// resolveVarRef decides, per the source language's capitalization
// convention (spec §9's variable/atom distinction, mirrored here since
// irtext has no type annotations to disambiguate otherwise), whether a bare
// identifier denotes a variable, a boolean literal, or a bare atom.
func (fb *funcBuilder) resolveVarRef(v *VarRef) (ir.Operand, error) {
	if v.N != nil {
		n, err := strconv.Atoi(*v.N)
		if err != nil {
			return ir.Operand{}, errors.SyntaxError("malformed generated-variable suffix", errors.Position{})
		}
		return ir.VarOp(fb.generatedVar(v.Name, n)), nil
	}
	switch v.Name {
	case "true":
		return ir.LitOp(true), nil
	case "false":
		return ir.LitOp(false), nil
	}
	r := []rune(v.Name)
	if len(r) > 0 && (unicode.IsUpper(r[0]) || r[0] == '_') {
		return ir.VarOp(fb.sourceVar(v.Name)), nil
	}
	return ir.LitOp(v.Name), nil
}

func (fb *funcBuilder) buildLeaf(leaf *LeafOperand) (ir.Operand, error) {
	switch {
	case leaf.Int != nil:
		n, err := strconv.ParseInt(*leaf.Int, 10, 64)
		if err != nil {
			return ir.Operand{}, errors.SyntaxError("malformed integer literal", errors.Position{})
		}
		return ir.LitOp(n), nil
	case leaf.Str != nil:
		unquoted := strings.Trim(*leaf.Str, `"`)
		return ir.LitOp(unquoted), nil
	case leaf.Var != nil:
		return fb.resolveVarRef(leaf.Var)
	}
	return ir.Operand{}, errors.SyntaxError("empty operand", errors.Position{})
}

func (fb *funcBuilder) buildOperand(n *OperandNode) (ir.Operand, error) {
	if n.Remote != nil {
		mod, err := fb.buildLeaf(n.Remote.Mod)
		if err != nil {
			return ir.Operand{}, err
		}
		fn, err := fb.buildLeaf(n.Remote.Func)
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.RemoteOp(mod, fn), nil
	}
	return fb.buildLeaf(n.Leaf)
}

func (fb *funcBuilder) buildOperands(ns []*OperandNode) ([]ir.Operand, error) {
	out := make([]ir.Operand, 0, len(ns))
	for _, n := range ns {
		o, err := fb.buildOperand(n)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (fb *funcBuilder) buildInst(node *InstNode) (*ir.Set, error) {
	switch {
	case node.Phi != nil:
		dst, err := fb.resolveVarRef(node.Phi.Dst)
		if err != nil {
			return nil, err
		}
		args := make([]ir.PhiArg, 0, len(node.Phi.Args))
		for _, a := range node.Phi.Args {
			val, err := fb.buildOperand(a.Value)
			if err != nil {
				return nil, err
			}
			args = append(args, ir.PhiArg{Value: val})
		}
		return ir.NewPhi(dst.Var, args...), nil

	default:
		set := node.Set
		op, err := fb.resolveOp(set.Op)
		if err != nil {
			return nil, err
		}
		args, err := fb.buildOperands(set.Args)
		if err != nil {
			return nil, err
		}
		if op.Is(ir.OpSucceeded) && len(args) != 1 {
			return nil, errors.ArityMismatch("succeeded", 1, len(args), errors.Position{})
		}
		var dst *ir.Var
		if set.Dst != nil {
			dstOp, err := fb.resolveVarRef(set.Dst)
			if err != nil {
				return nil, err
			}
			dst = dstOp.Var
		}
		return ir.NewSet(dst, op, args...), nil
	}
}

func (fb *funcBuilder) resolveOp(node *OpNameNode) (ir.Op, error) {
	switch {
	case node.Bif != nil:
		return ir.Bif(*node.Bif), nil
	case node.Float != nil:
		return ir.FloatOp(*node.Float), nil
	default:
		op, ok := ir.OpFromName(*node.Plain)
		if !ok {
			return ir.Op{}, errors.UnknownOpcode(*node.Plain, errors.Position{}, ir.KnownOpcodeNames())
		}
		return op, nil
	}
}

func (fb *funcBuilder) buildTerm(node *TermNode, resolveLabel func(string) (ir.Label, error)) (ir.Terminator, error) {
	switch {
	case node.Br != nil:
		b, err := fb.buildOperand(node.Br.Bool)
		if err != nil {
			return nil, err
		}
		succ, err := resolveLabel(node.Br.Succ)
		if err != nil {
			return nil, err
		}
		fail, err := resolveLabel(node.Br.Fail)
		if err != nil {
			return nil, err
		}
		return &ir.Br{Bool: b, Succ: succ, Fail: fail}, nil

	case node.Switch != nil:
		arg, err := fb.buildOperand(node.Switch.Arg)
		if err != nil {
			return nil, err
		}
		def, err := resolveLabel(node.Switch.Default)
		if err != nil {
			return nil, err
		}
		cases := make([]ir.SwitchCase, 0, len(node.Switch.Cases))
		for _, c := range node.Switch.Cases {
			val, err := fb.buildOperand(c.Val)
			if err != nil {
				return nil, err
			}
			dest, err := resolveLabel(c.Dest)
			if err != nil {
				return nil, err
			}
			cases = append(cases, ir.SwitchCase{Val: val, Dest: dest})
		}
		return &ir.Switch{Arg: arg, Cases: cases, Default: def}, nil

	default:
		arg, err := fb.buildOperand(node.Ret.Arg)
		if err != nil {
			return nil, err
		}
		return &ir.Ret{Arg: arg}, nil
	}
}
