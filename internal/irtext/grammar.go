package irtext

// Grammar for the textual IR this package round-trips with
// internal/ir.Printer: a sequence of function definitions, each a sequence
// of labeled blocks, each a sequence of instructions ending in exactly one
// terminator. Field/struct layout follows the teacher's grammar package
// (alecthomas/participle/v2 struct-tag grammars over a stateful lexer).

// File is the irtext root.
type File struct {
	Functions []*FunctionNode `@@*`
}

// FunctionNode is "function name/arity(args) { blocks }", with an optional
// "badarg bbN" directive naming the function's ?BADARG_BLOCK (spec §3).
type FunctionNode struct {
	Name   string       `"function" @Ident`
	Arity  string        `"/" @Integer`
	Args   []string      `"(" [ @Ident { "," @Ident } ] ")"`
	BadArg string        `[ "badarg" @Label ]`
	Open   string        `"{"`
	Blocks []*BlockNode  `@@+`
	Close  string        `"}"`
}

// BlockNode is "bbN: insts... term".
type BlockNode struct {
	Label string      `@Label ":"`
	Insts []*InstNode `@@*`
	Term  *TermNode   `@@`
}

// InstNode is one non-terminator instruction: a phi (needs "= phi") or a
// plain/bif/float op application, with or without a destination.
type InstNode struct {
	Phi *PhiInst `  @@`
	Set *SetInst `| @@`
}

// PhiInst is "Dst = phi (value, bbN), (value, bbM), ...".
type PhiInst struct {
	Dst  *VarRef       `@@ "=" "phi"`
	Args []*PhiArgNode `@@ { "," @@ }`
}

type PhiArgNode struct {
	Value *OperandNode `"(" @@ ","`
	Pred  string       `@Label ")"`
}

// SetInst is "[Dst =] op args...", the general instruction shape. Dst is
// optional: many opcodes (set_tuple_element, catch_end, recv_next, a call
// whose result is unused, ...) are effect-only (spec §3 Set.Dst may be nil).
type SetInst struct {
	Dst  *VarRef        `[ @@ "=" ]`
	Op   *OpNameNode    `@@`
	Args []*OperandNode `[ @@ { "," @@ } ]`
}

// OpNameNode is a plain opcode identifier or a {bif,Name}/{float,Sub} tuple.
// Plain enumerates every opcode spec §3's table lists outside phi/bif/float
// (phi always has its own "= phi" shape, handled by PhiInst); enumerating
// them, rather than accepting any @Ident, is what keeps "br"/"switch"/"ret"
// from ever being mistaken for an effect-only instruction, so the block's
// instruction-repetition correctly stops at the terminator.
type OpNameNode struct {
	Bif   *string `  "{" "bif" "," @(Ident | OpSymbol) "}"`
	Float *string `| "{" "float" "," @(Ident | OpSymbol) "}"`
	Plain *string `| @( "call" | "make_fun" | "succeeded" | "get_tuple_element" |
		"is_tagged_tuple" | "is_tuple" | "bs_start_match" | "bs_match" |
		"bs_extract" | "bs_test_tail" | "bs_put" | "put_tuple" | "put_list" |
		"get_hd" | "get_tl" | "peek_message" | "remove_message" | "recv_next" |
		"wait_timeout" | "timeout" | "landingpad" | "catch_end" |
		"set_tuple_element" | "get_map_element" | "has_map_field" |
		"is_nonempty_list" | "extract" )`
}

// TermNode is a block's single terminator: br, switch, or ret.
type TermNode struct {
	Br     *BrTerm     `  @@`
	Switch *SwitchTerm `| @@`
	Ret    *RetTerm    `| @@`
}

type BrTerm struct {
	Bool *OperandNode `"br" @@ ","`
	Succ string       `@Label ","`
	Fail string       `@Label`
}

type SwitchTerm struct {
	Arg     *OperandNode      `"switch" @@`
	Cases   []*SwitchCaseNode `"[" [ @@ { "," @@ } ] "]"`
	Default string            `"default" @Label`
}

type SwitchCaseNode struct {
	Val  *OperandNode `@@`
	Dest string       `"->" @Label`
}

type RetTerm struct {
	Arg *OperandNode `"ret" @@`
}

// OperandNode is either a bare leaf operand or a "Mod:Func" remote pair.
type OperandNode struct {
	Remote *RemotePair  `  @@`
	Leaf   *LeafOperand `| @@`
}

type RemotePair struct {
	Mod  *LeafOperand `@@ ":"`
	Func *LeafOperand `@@`
}

// LeafOperand is an integer literal, a quoted string literal, or a
// VarRef — which the builder (build.go) resolves to either an *ir.Var or a
// bare-atom/boolean Literal by the first letter's case, following the
// source language's own variable/atom capitalization convention.
type LeafOperand struct {
	Int *string `  @Integer`
	Str *string `| @String`
	Var *VarRef `| @@`
}

// VarRef is "Name" or "Name~N" (the generated-variable form, spec §3/§9).
type VarRef struct {
	Name string  `@Ident`
	N    *string `[ "~" @Integer ]`
}
