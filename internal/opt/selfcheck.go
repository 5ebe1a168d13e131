package opt

import (
	"fmt"

	"ssaopt/internal/ir"
)

// SelfCheck implements the specification's §8 testable properties 6
// (idempotence) and 7 (option monotonicity) as a runnable verification mode,
// wired to the CLI's -verify flag. It is deliberately not part of the default
// pipeline: it runs the pipeline multiple times over fn, which is only
// sensible for a developer/CI verification pass, not production use.
func SelfCheck(fn *ir.Function, options Options) error {
	if err := Verify(fn); err != nil {
		return fmt.Errorf("input function already violates invariants: %w", err)
	}

	once, err := runPipeline(fn.Clone(), options)
	if err != nil {
		return err
	}
	if err := Verify(once); err != nil {
		return fmt.Errorf("pipeline output violates invariants: %w", err)
	}

	twice, err := runPipeline(once.Clone(), options)
	if err != nil {
		return err
	}
	if err := Verify(twice); err != nil {
		return fmt.Errorf("second pipeline pass violates invariants: %w", err)
	}
	if countInstructions(once) != countInstructions(twice) {
		return fmt.Errorf("pipeline is not idempotent: running it twice changed the instruction count from %d to %d",
			countInstructions(once), countInstructions(twice))
	}

	for _, np := range DefaultPipeline() {
		disabled := options.Disable(np.name)
		res, err := runPipeline(fn.Clone(), disabled)
		if err != nil {
			return fmt.Errorf("disabling pass %q crashed the pipeline: %w", np.name, err)
		}
		if err := Verify(res); err != nil {
			return fmt.Errorf("disabling pass %q produced an illegal CFG: %w", np.name, err)
		}
	}

	return nil
}

func runPipeline(fn *ir.Function, options Options) (out *ir.Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InvariantError); ok {
				err = ie
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	pipeline := NewPipeline(options)
	out, _ = pipeline.Run(fn)
	return out, nil
}
