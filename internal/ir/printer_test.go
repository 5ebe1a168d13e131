package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintFunctionSimple(t *testing.T) {
	fb := NewFuncBuilder("add", 2)
	a := fb.Arg("A")
	b := fb.Arg("B")

	sum := &Var{Tag: "X", N: 1, Generated: true}
	fb.Block(0).
		Inst(NewSet(sum, Bif("+"), VarOp(a), VarOp(b))).
		Terminate(&Ret{Arg: VarOp(sum)})

	fn := fb.Func()
	out := PrintFunction(fn)

	assert.True(t, strings.Contains(out, "function add/2(A, B) {"))
	assert.True(t, strings.Contains(out, "X~1 = {bif,+} A, B"))
	assert.True(t, strings.Contains(out, "ret X~1"))
}
