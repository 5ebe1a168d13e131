// Package opt implements the optimizer's pass pipeline: the twelve passes
// from the specification's §4, sequenced by Pipeline in the exact order from
// §2, driven per-function by OptimizeModule.
package opt

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"ssaopt/internal/ir"
)

// Pass is one pipeline stage. It receives a function (in whatever CFG shape
// — map or linear — the pass requires) and returns the rewritten function;
// passes are permitted to mutate in place and return the same pointer, per
// spec §3's "Lifecycles".
type Pass func(fn *ir.Function) *ir.Function

// namedPass pairs a Pass with the option key used to enable/disable it.
type namedPass struct {
	name string
	run  Pass
}

// Pipeline sequences the specification's twelve passes, substituting the
// identity function for any pass Options disables.
type Pipeline struct {
	passes []namedPass
}

// DefaultPipeline returns the pipeline in the exact order of spec §2.
func DefaultPipeline() []namedPass {
	return []namedPass{
		{"split_blocks", SplitBlocks},
		{"element", Element},
		{"linearize", LinearizePass},
		{"record", Record},
		{"cse", CSE},
		{"type", TypeOpt},
		{"float", Float},
		{"live", Live},
		{"bsm", BSM},
		{"bsm_shortcut", BSMShortcut},
		{"misc", Misc},
		{"blockify", BlockifyPass},
		{"sink", Sink},
		{"merge_blocks", MergeBlocks},
	}
}

// NewPipeline builds a Pipeline resolving every default pass against opts.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{}
	for _, np := range DefaultPipeline() {
		if opts.Enabled(np.name) {
			p.passes = append(p.passes, np)
		} else {
			p.passes = append(p.passes, namedPass{name: np.name, run: identity})
		}
	}
	return p
}

func identity(fn *ir.Function) *ir.Function { return fn }

// PassNames returns the default pipeline's pass names in pipeline order, for
// callers (the REPL's pipeline stepper) that need to enumerate passes
// without reaching into the unexported namedPass type.
func PassNames() []string {
	defaults := DefaultPipeline()
	names := make([]string, 0, len(defaults))
	for _, np := range defaults {
		names = append(names, np.name)
	}
	return names
}

// PassByName returns the named pass's transformation function, ignoring
// Options entirely. Used by the REPL to apply exactly one pass at a time,
// which Pipeline.Run (always an all-or-nothing sweep) doesn't support.
func PassByName(name string) (Pass, bool) {
	for _, np := range DefaultPipeline() {
		if np.name == name {
			return np.run, true
		}
	}
	return nil, false
}

// PassStat is one pass's before/after instruction count and wall time,
// recorded by Pipeline.Run for the CLI's -stats flag.
type PassStat struct {
	Pass    string
	Before  int
	After   int
	Elapsed time.Duration
}

// Run executes every pass in order against fn, returning the rewritten
// function and per-pass statistics. Internal invariant violations raised by
// a pass (a panicking InvariantError) propagate to the caller with the
// function's name/arity already attached.
func (p *Pipeline) Run(fn *ir.Function) (*ir.Function, []PassStat) {
	stats := make([]PassStat, 0, len(p.passes))
	for _, np := range p.passes {
		before := countInstructions(fn)
		start := time.Now()
		fn = np.run(fn)
		stats = append(stats, PassStat{
			Pass:    np.name,
			Before:  before,
			After:   countInstructions(fn),
			Elapsed: time.Since(start),
		})
	}
	return fn, stats
}

func countInstructions(fn *ir.Function) int {
	n := 0
	for _, b := range fn.Blocks {
		n += len(b.Phis) + len(b.Insts)
		if b.Term != nil {
			n++
		}
	}
	return n
}

// OptimizeModule is the specification's §6 entry point: it maps every
// function of module through the pipeline built from options, preserving
// function order, processing mutually-independent functions in parallel
// across a bounded worker pool (spec §5). If a pass fails on any function,
// OptimizeModule returns no module and the first such error, which
// identifies the offending function; the other functions are still run.
func OptimizeModule(module *ir.Module, options Options) (out *ir.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InvariantError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	results := make([]*ir.Function, len(module.Functions))

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(module.Functions) {
		workers = len(module.Functions)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			fn := module.Functions[i]
			res, perr := optimizeFunction(fn, options)
			if perr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = perr
				}
				mu.Unlock()
				continue
			}
			results[i] = res
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go worker()
	}
	for i := range module.Functions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return &ir.Module{Functions: results}, nil
}

// optimizeFunction runs the pipeline on a single function, converting any
// panicking InvariantError into a plain error and attaching the function's
// name/arity if the panicking pass did not already do so.
func optimizeFunction(fn *ir.Function, options Options) (res *ir.Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InvariantError); ok {
				err = ie
				return
			}
			err = fmt.Errorf("internal error in %s: %v", fn.NameArity(), r)
		}
	}()

	pipeline := NewPipeline(options)
	res, _ = pipeline.Run(fn)
	return res, nil
}
