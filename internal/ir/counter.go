package ir

// Counter mints fresh variables and block labels for one function. It is
// strictly monotonic across the function's lifetime and must never be shared
// between functions (the module driver runs each function on its own
// goroutine with its own Counter).
type Counter struct {
	nextVar   int
	nextLabel int
}

func NewCounter() *Counter {
	return &Counter{}
}

// NextVar mints a fresh generated variable with the given base tag.
func (c *Counter) NextVar(tag string) *Var {
	c.nextVar++
	return &Var{Tag: tag, N: c.nextVar, Generated: true}
}

// NextLabel mints a fresh block label, guaranteed distinct from every label
// minted so far by this counter. SeedLabels should be called once, before any
// NextLabel call, with the function's existing labels so freshly split blocks
// never collide with pre-existing ones.
func (c *Counter) NextLabel() Label {
	c.nextLabel++
	return Label(c.nextLabel)
}

// SeedLabels advances the label counter past the highest label already in
// use, so that subsequently minted labels cannot collide with it.
func (c *Counter) SeedLabels(existing []Label) {
	for _, l := range existing {
		if int(l) > c.nextLabel {
			c.nextLabel = int(l)
		}
	}
}

// SeedVars advances the generated-variable counter past n, so that a
// variable parsed from irtext as e.g. X~12 never collides with a
// subsequently minted NextVar("X") result. Loaders call this once per
// generated variable found in the source text.
func (c *Counter) SeedVars(n int) {
	if n > c.nextVar {
		c.nextVar = n
	}
}
