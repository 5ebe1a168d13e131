package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarString(t *testing.T) {
	user := &Var{Name: "T"}
	assert.Equal(t, "T", user.String())

	gen := &Var{Tag: "X", N: 3, Generated: true}
	assert.Equal(t, "X~3", gen.String())
}

func TestOperandEqual(t *testing.T) {
	v1 := &Var{Name: "A"}
	v2 := &Var{Name: "A"}

	assert.True(t, VarOp(v1).Equal(VarOp(v1)))
	assert.False(t, VarOp(v1).Equal(VarOp(v2)), "distinct Var pointers are distinct values even with the same name")
	assert.True(t, LitOp(int64(3)).Equal(LitOp(int64(3))))
	assert.False(t, LitOp(int64(3)).Equal(LitOp(int64(4))))
}

func TestOpIs(t *testing.T) {
	op := Bif("element")
	assert.True(t, op.Is(OpBif))
	assert.True(t, op.Is(OpBif, "element"))
	assert.False(t, op.Is(OpBif, "tuple_size"))
	assert.False(t, op.Is(OpCall))
}

func TestBrSuccessorsDedup(t *testing.T) {
	br := &Br{Bool: LitOp(true), Succ: 1, Fail: 1}
	require.True(t, br.IsUnconditional())
	assert.Equal(t, []Label{1}, br.terminatorSuccessors())

	cond := &Br{Bool: VarOp(&Var{Name: "B"}), Succ: 1, Fail: 2}
	assert.False(t, cond.IsUnconditional())
	assert.Equal(t, []Label{1, 2}, cond.terminatorSuccessors())
}

func TestFunctionNameArity(t *testing.T) {
	fn := NewFunction("foo", 2)
	assert.Equal(t, "foo/2", fn.NameArity())
}

func TestCounterMonotonic(t *testing.T) {
	c := NewCounter()
	a := c.NextVar("X")
	b := c.NextVar("X")
	assert.NotEqual(t, a.N, b.N)

	c.SeedLabels([]Label{5, 2, 9})
	l := c.NextLabel()
	assert.Greater(t, int(l), 9)
}
