// Package repl is an interactive pipeline stepper: it loads an irtext file
// and lets the user single-step the optimizer's passes one at a time,
// printing the function's CFG after each one. Adapted from the teacher
// repository's repl package (a line-at-a-time parse-and-print loop); ssaopt's
// REPL is command-driven rather than line-driven since one irtext function
// spans many lines.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"ssaopt/internal/ir"
	"ssaopt/internal/irtext"
	"ssaopt/internal/opt"
)

const PROMPT = "ssaopt> "

// Start runs the REPL loop against in, writing prompts and output to out.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	session := newSession()

	fmt.Fprintln(out, "ssaopt pipeline stepper. Type :help for commands.")
	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := session.dispatch(line, out); err != nil {
			fmt.Fprintln(out, err)
		}
	}
}

// session holds the REPL's state: the function being stepped and how far
// through the default pass order it has progressed.
type session struct {
	fn       *ir.Function
	passes   []string
	position int
}

func newSession() *session {
	return &session{passes: opt.PassNames()}
}

func (s *session) dispatch(line string, out io.Writer) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case ":help":
		printHelp(out)
	case ":load":
		if len(args) != 1 {
			return fmt.Errorf("usage: :load <path>")
		}
		return s.load(args[0], out)
	case ":step":
		return s.step(out)
	case ":run":
		return s.run(out)
	case ":print":
		s.print(out)
	case ":verify":
		return s.verify(out)
	case ":reset":
		s.position = 0
	case ":quit", ":q":
		os.Exit(0)
	default:
		return fmt.Errorf("unknown command %q; try :help", cmd)
	}
	return nil
}

func (s *session) load(path string, out io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	module, err := irtext.ParseString(path, string(src))
	if err != nil {
		return fmt.Errorf("%s", irtext.FormatParseError(path, string(src), err))
	}
	if len(module.Functions) != 1 {
		return fmt.Errorf("the REPL steps one function at a time; %s defines %d", path, len(module.Functions))
	}
	s.fn = module.Functions[0]
	s.position = 0
	fmt.Fprintf(out, "loaded %s\n", s.fn.NameArity())
	return nil
}

// step runs exactly one more pass from the default order against the
// current function, leaving s.fn in the post-pass state.
func (s *session) step(out io.Writer) error {
	if s.fn == nil {
		return fmt.Errorf("no function loaded; use :load <path>")
	}
	if s.position >= len(s.passes) {
		fmt.Fprintln(out, "pipeline already complete")
		return nil
	}
	name := s.passes[s.position]
	run, ok := opt.PassByName(name)
	if !ok {
		return fmt.Errorf("internal error: unknown pass %q", name)
	}
	fn, err := applyPass(run, s.fn)
	if err != nil {
		return err
	}
	s.fn = fn
	s.position++
	fmt.Fprintf(out, "-- after %s --\n", name)
	fmt.Fprint(out, ir.PrintFunction(s.fn))
	return nil
}

// applyPass recovers a panicking *opt.InvariantError the same way the CLI
// and opt.OptimizeModule do, so a bad pass reports as a REPL error instead
// of killing the session.
func applyPass(run opt.Pass, fn *ir.Function) (out *ir.Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*opt.InvariantError); ok {
				err = ie
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return run(fn), nil
}

// run steps every remaining pass to completion.
func (s *session) run(out io.Writer) error {
	for s.position < len(s.passes) {
		if err := s.step(out); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) print(out io.Writer) {
	if s.fn == nil {
		fmt.Fprintln(out, "no function loaded")
		return
	}
	fmt.Fprint(out, ir.PrintFunction(s.fn))
}

func (s *session) verify(out io.Writer) error {
	if s.fn == nil {
		return fmt.Errorf("no function loaded")
	}
	if err := opt.Verify(s.fn); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok: function satisfies every universal invariant")
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, ":load <path>   parse an irtext file (must define exactly one function)")
	fmt.Fprintln(out, ":step          run the next pass in the pipeline")
	fmt.Fprintln(out, ":run           run every remaining pass to completion")
	fmt.Fprintln(out, ":print         print the function's current state")
	fmt.Fprintln(out, ":verify        check the universal invariants against the current state")
	fmt.Fprintln(out, ":reset         start the step sequence over at the first pass (the function keeps its current state)")
	fmt.Fprintln(out, ":quit          exit")
}
