// Package ir defines the register-machine SSA intermediate representation that
// the optimizer pipeline (package opt) rewrites. The shapes here follow the data
// model from the specification: a function is a control-flow graph of basic
// blocks, each block a list of instructions ending in exactly one terminator.
package ir

import "fmt"

// Label identifies a basic block. Small non-negative integers, minted by a
// Function's Counter; dominator arithmetic in package cfg relies on Labels
// being comparable and orderable.
type Label int

// Var is an SSA value: either a user-named source variable or a generated
// temporary minted from a (Tag, N) pair. Two Vars are the same value iff they
// compare equal as pointers; Counter.NextVar guarantees uniqueness of the
// (Tag, N) pairs it mints within one function's lifetime.
type Var struct {
	Name      string // user-named variables only
	Tag       string // generated variables only, e.g. "X", "Float"
	N         int    // generated variables only
	Generated bool
}

func (v *Var) String() string {
	if v == nil {
		return "<nil>"
	}
	if v.Generated {
		return fmt.Sprintf("%s~%d", v.Tag, v.N)
	}
	return v.Name
}

// Literal wraps a compile-time constant operand: bool, int64, float64, string
// (used both for binary literals and atom-like tags such as `ok`), or nil.
type Literal struct {
	Value interface{}
}

func (l Literal) String() string {
	switch v := l.Value.(type) {
	case string:
		return v
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Remote names a module:function pair, used as a single operand for calls to
// statically-known remote functions.
type Remote struct {
	Mod  Operand
	Func Operand
}

func (r Remote) String() string {
	return fmt.Sprintf("%s:%s", r.Mod, r.Func)
}

// Operand is the argument of an instruction or terminator: a Var, a Literal,
// or a Remote module/function pair. Exactly one of Var/Lit/Rem is non-zero.
type Operand struct {
	Var *Var
	Lit *Literal
	Rem *Remote
}

func VarOp(v *Var) Operand       { return Operand{Var: v} }
func LitOp(v interface{}) Operand { return Operand{Lit: &Literal{Value: v}} }
func RemoteOp(mod, fn Operand) Operand {
	return Operand{Rem: &Remote{Mod: mod, Func: fn}}
}

func (o Operand) IsVar() bool { return o.Var != nil }
func (o Operand) IsLit() bool { return o.Lit != nil }

func (o Operand) String() string {
	switch {
	case o.Var != nil:
		return o.Var.String()
	case o.Lit != nil:
		return o.Lit.String()
	case o.Rem != nil:
		return o.Rem.String()
	default:
		return "<empty>"
	}
}

// Equal reports whether two operands denote the same value: same Var pointer,
// or equal literal value.
func (o Operand) Equal(other Operand) bool {
	if o.Var != nil || other.Var != nil {
		return o.Var == other.Var
	}
	if o.Lit != nil && other.Lit != nil {
		return o.Lit.Value == other.Lit.Value
	}
	if o.Rem != nil && other.Rem != nil {
		return o.Rem.Mod.Equal(other.Rem.Mod) && o.Rem.Func.Equal(other.Rem.Func)
	}
	return false
}

// OpKind distinguishes the operation families listed in the specification's
// instruction table. Bif and Float ops carry a Name distinguishing the
// specific built-in/float sub-operation, matching the spec's `{bif, Name}` and
// `{float, Sub}` tuples.
type OpKind int

const (
	OpPhi OpKind = iota
	OpBif
	OpCall
	OpMakeFun
	OpSucceeded
	OpGetTupleElement
	OpIsTaggedTuple
	OpIsTuple
	OpBSStartMatch
	OpBSMatch
	OpBSExtract
	OpBSTestTail
	OpBSPut
	OpFloat
	OpPutTuple
	OpPutList
	OpGetHd
	OpGetTl
	OpPeekMessage
	OpRemoveMessage
	OpRecvNext
	OpWaitTimeout
	OpTimeout
	OpLandingPad
	OpCatchEnd
	OpSetTupleElement
	OpGetMapElement
	OpHasMapField
	OpIsNonemptyList
	OpExtract
)

var opKindNames = map[OpKind]string{
	OpPhi:             "phi",
	OpBif:             "bif",
	OpCall:            "call",
	OpMakeFun:         "make_fun",
	OpSucceeded:       "succeeded",
	OpGetTupleElement: "get_tuple_element",
	OpIsTaggedTuple:   "is_tagged_tuple",
	OpIsTuple:         "is_tuple",
	OpBSStartMatch:    "bs_start_match",
	OpBSMatch:         "bs_match",
	OpBSExtract:       "bs_extract",
	OpBSTestTail:      "bs_test_tail",
	OpBSPut:           "bs_put",
	OpFloat:           "float",
	OpPutTuple:        "put_tuple",
	OpPutList:         "put_list",
	OpGetHd:           "get_hd",
	OpGetTl:           "get_tl",
	OpPeekMessage:     "peek_message",
	OpRemoveMessage:   "remove_message",
	OpRecvNext:        "recv_next",
	OpWaitTimeout:     "wait_timeout",
	OpTimeout:         "timeout",
	OpLandingPad:      "landingpad",
	OpCatchEnd:        "catch_end",
	OpSetTupleElement: "set_tuple_element",
	OpGetMapElement:   "get_map_element",
	OpHasMapField:     "has_map_field",
	OpIsNonemptyList:  "is_nonempty_list",
	OpExtract:         "extract",
}

// Op is one instruction opcode: a Kind plus, for Bif and Float, the specific
// sub-operation name (e.g. Op{OpBif, "element"}, Op{OpFloat, "convert"}).
type Op struct {
	Kind OpKind
	Name string
}

func Bif(name string) Op   { return Op{Kind: OpBif, Name: name} }
func FloatOp(sub string) Op { return Op{Kind: OpFloat, Name: sub} }
func Simple(k OpKind) Op   { return Op{Kind: k} }

var opNameKinds = func() map[string]OpKind {
	m := make(map[string]OpKind, len(opKindNames))
	for k, v := range opKindNames {
		m[v] = k
	}
	return m
}()

// OpFromName resolves a plain (non-bif, non-float) opcode name to its Op, as
// used by package irtext when loading a textual instruction whose opcode is
// a bare identifier rather than a {bif,Name}/{float,Sub} tuple.
func OpFromName(name string) (Op, bool) {
	k, ok := opNameKinds[name]
	if !ok || k == OpBif || k == OpFloat {
		return Op{}, false
	}
	return Simple(k), true
}

// KnownOpcodeNames lists every plain opcode name recognized by OpFromName,
// for diagnostic "did you mean" suggestions.
func KnownOpcodeNames() []string {
	out := make([]string, 0, len(opNameKinds))
	for name, k := range opNameKinds {
		if k == OpBif || k == OpFloat {
			continue
		}
		out = append(out, name)
	}
	return out
}

func (o Op) String() string {
	base := opKindNames[o.Kind]
	switch o.Kind {
	case OpBif, OpFloat:
		if o.Name != "" {
			return fmt.Sprintf("{%s,%s}", base, o.Name)
		}
	}
	return base
}

// Is reports whether this op is the given kind, optionally with a matching
// sub-name (for Bif/Float ops); an empty name argument matches any sub-name.
func (o Op) Is(k OpKind, name ...string) bool {
	if o.Kind != k {
		return false
	}
	if len(name) == 0 || name[0] == "" {
		return true
	}
	return o.Name == name[0]
}

// Set is a non-terminator instruction: it sets Dst (nil for effect-only ops
// like put_tuple's store-free cousins set_tuple_element) from Op applied to
// Args. Anno is free-form metadata; the type-opt pass annotates float-capable
// arithmetic with Anno["float_op"] = []Type.
type Set struct {
	Dst  *Var
	Op   Op
	Args []Operand
	Anno map[string]interface{}
}

func NewSet(dst *Var, op Op, args ...Operand) *Set {
	return &Set{Dst: dst, Op: op, Args: args}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Terminator ends a basic block. Exactly one of Br/Switch/Ret is active; see
// the three concrete types below, which all implement this interface so pass
// code can type-switch on it the way the specification's prose does.
type Terminator interface {
	terminatorSuccessors() []Label
	String() string
}

// Br is a conditional branch; Bool may be the literal `true` (an
// unconditional jump to Succ, used as the degenerate case merge_blocks looks
// for: br(true, L, L)).
type Br struct {
	Bool Operand
	Succ Label
	Fail Label
}

func (b *Br) terminatorSuccessors() []Label {
	if b.Succ == b.Fail {
		return []Label{b.Succ}
	}
	return []Label{b.Succ, b.Fail}
}

func (b *Br) String() string {
	return fmt.Sprintf("br %s, %s, %s", b.Bool, labelStr(b.Succ), labelStr(b.Fail))
}

// IsUnconditional reports whether this branch is the literal-true degenerate
// jump form br(true, L, L).
func (b *Br) IsUnconditional() bool {
	lit, ok := b.Bool.Value().(bool)
	return ok && lit && b.Succ == b.Fail
}

// Value returns the underlying Go value of a literal operand, or nil.
func (o Operand) Value() interface{} {
	if o.Lit == nil {
		return nil
	}
	return o.Lit.Value
}

type SwitchCase struct {
	Val  Operand
	Dest Label
}

type Switch struct {
	Arg     Operand
	Cases   []SwitchCase
	Default Label
}

func (s *Switch) terminatorSuccessors() []Label {
	out := []Label{s.Default}
	for _, c := range s.Cases {
		out = append(out, c.Dest)
	}
	return out
}

func (s *Switch) String() string {
	parts := make([]string, len(s.Cases))
	for i, c := range s.Cases {
		parts[i] = fmt.Sprintf("%s -> %s", c.Val, labelStr(c.Dest))
	}
	return fmt.Sprintf("switch %s [%s] default %s", s.Arg, joinComma(parts), labelStr(s.Default))
}

type Ret struct {
	Arg Operand
}

func (r *Ret) terminatorSuccessors() []Label { return nil }
func (r *Ret) String() string                { return fmt.Sprintf("ret %s", r.Arg) }

func labelStr(l Label) string { return fmt.Sprintf("bb%d", int(l)) }

// Block is an ordered instruction list with phis kept separate and preceding
// all non-phi instructions, per the specification's block invariant.
type Block struct {
	Label        Label
	Phis         []*Set
	Insts        []*Set
	Term         Terminator
	Predecessors []Label // valid only where the owning pass recomputed it
}

// Successors returns the block's terminator's successor labels, deduplicated
// for the unconditional-jump degenerate case.
func (b *Block) Successors() []Label {
	if b.Term == nil {
		return nil
	}
	return b.Term.terminatorSuccessors()
}

// AllInstructions returns phis followed by non-phi instructions, the order
// the specification's block invariant requires on the wire / in the printer.
func (b *Block) AllInstructions() []*Set {
	out := make([]*Set, 0, len(b.Phis)+len(b.Insts))
	out = append(out, b.Phis...)
	out = append(out, b.Insts...)
	return out
}

// Function is one function's CFG plus its argument vector and fresh-name
// counter. Blocks is always authoritative; Order is meaningful (reflects a
// pass's intended linear traversal) whenever IsLinear is true, i.e. between a
// `linearize` pass and the next `blockify`.
type Function struct {
	Name     string
	Arity    int
	Args     []*Var
	Entry    Label
	Blocks   map[Label]*Block
	Order    []Label
	IsLinear bool
	Counter  *Counter

	// HasBadArgBlock/BadArgBlock name the compile-time-constant ?BADARG_BLOCK
	// landing target for guard-style BIF failures (spec's data-model
	// invariant); unset when the front end never materialized one.
	HasBadArgBlock bool
	BadArgBlock    Label
}

func NewFunction(name string, arity int) *Function {
	return &Function{
		Name:    name,
		Arity:   arity,
		Blocks:  make(map[Label]*Block),
		Counter: NewCounter(),
	}
}

// Block looks up a block by label, returning nil if absent.
func (f *Function) Block(l Label) *Block { return f.Blocks[l] }

// NameArity renders "name/arity" for diagnostics, matching the specification's
// required internal-failure diagnostic surface.
func (f *Function) NameArity() string {
	return fmt.Sprintf("%s/%d", f.Name, f.Arity)
}

// Module is an ordered list of functions; OptimizeModule preserves this order.
type Module struct {
	Functions []*Function
}
