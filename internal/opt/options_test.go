package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsEnabledDefaultsToTrue(t *testing.T) {
	var o Options
	assert.True(t, o.Enabled("cse"))

	o = Options{}
	assert.True(t, o.Enabled("cse"))
}

func TestOptionsNoPrefixDisables(t *testing.T) {
	o := Options{"no_cse": true}
	assert.False(t, o.Enabled("cse"))
	assert.True(t, o.Enabled("sink"))
}

func TestOptionsExplicitFalseDisables(t *testing.T) {
	o := Options{"cse": false}
	assert.False(t, o.Enabled("cse"))
}

func TestOptionsDisableThenEnable(t *testing.T) {
	o := Options{}
	disabled := o.Disable("cse")
	assert.False(t, disabled.Enabled("cse"))
	assert.True(t, o.Enabled("cse"), "Disable must not mutate the receiver")

	reenabled := disabled.Enable("cse")
	assert.True(t, reenabled.Enabled("cse"))
	assert.False(t, disabled.Enabled("cse"), "Enable must not mutate the receiver")
}
