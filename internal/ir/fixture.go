package ir

// FuncBuilder is a small fluent constructor for hand-built IR fixtures, used
// by pass unit tests to express the literal block sketches from the
// specification's boundary tests without hand-wiring every pointer.
type FuncBuilder struct {
	fn *Function
}

func NewFuncBuilder(name string, arity int) *FuncBuilder {
	return &FuncBuilder{fn: NewFunction(name, arity)}
}

// Arg declares a function argument and returns its Var.
func (fb *FuncBuilder) Arg(name string) *Var {
	v := &Var{Name: name}
	fb.fn.Args = append(fb.fn.Args, v)
	return v
}

// Block starts (or returns, if it already exists) the block with the given
// label, setting it as the entry block if none has been marked yet.
func (fb *FuncBuilder) Block(l Label) *Block {
	b, ok := fb.fn.Blocks[l]
	if !ok {
		b = &Block{Label: l}
		fb.fn.Blocks[l] = b
		fb.fn.Order = append(fb.fn.Order, l)
		if len(fb.fn.Order) == 1 {
			fb.fn.Entry = l
		}
	}
	return b
}

// Inst appends a non-phi instruction to a block and returns it.
func (b *Block) Inst(s *Set) *Block {
	b.Insts = append(b.Insts, s)
	return b
}

// Phi appends a phi instruction to a block and returns it.
func (b *Block) Phi(s *Set) *Block {
	b.Phis = append(b.Phis, s)
	return b
}

// Terminate sets the block's terminator and returns the block.
func (b *Block) Terminate(t Terminator) *Block {
	b.Term = t
	return b
}

// BadArg marks l as the function's ?BADARG_BLOCK landing target.
func (fb *FuncBuilder) BadArg(l Label) *FuncBuilder {
	fb.fn.HasBadArgBlock = true
	fb.fn.BadArgBlock = l
	return fb
}

// Func finalizes and returns the built function, with Order reflecting
// declaration order (already a plausible reverse-postorder for straight-line
// test fixtures) and the Counter seeded past every label used.
func (fb *FuncBuilder) Func() *Function {
	fb.fn.IsLinear = true
	fb.fn.Counter.SeedLabels(fb.fn.Order)
	return fb.fn
}
