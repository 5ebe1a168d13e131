// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"ssaopt/internal/ir"
	"ssaopt/internal/irtext"
	"ssaopt/internal/opt"
)

func main() {
	var (
		statsFlag   = flag.Bool("stats", false, "print per-pass instruction counts and timing")
		verifyFlag  = flag.Bool("verify", false, "run SelfCheck (idempotence + option monotonicity) instead of printing output")
		enableFlag  = flag.String("enable", "", "comma-separated list of passes to force on")
		disableFlag = flag.String("disable", "", "comma-separated list of passes to force off")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: ssaopt [flags] <file.ssair>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	source, readErr := os.ReadFile(path)
	if readErr != nil {
		color.Red("%s", readErr)
		os.Exit(1)
	}

	module, err := irtext.ParseString(path, string(source))
	if err != nil {
		fmt.Println(irtext.FormatParseError(path, string(source), err))
		os.Exit(1)
	}

	options := optionsFromFlags(*enableFlag, *disableFlag)

	if *verifyFlag {
		runSelfCheck(module, options)
		return
	}

	for _, fn := range module.Functions {
		pipeline := opt.NewPipeline(options)
		out, stats := runPipeline(pipeline, fn)
		if *statsFlag {
			printStats(fn.NameArity(), stats)
		}
		fmt.Print(ir.PrintFunction(out))
	}

	color.Green("✅ optimized %s", path)
}

// runPipeline recovers a panicking *opt.InvariantError the same way
// opt.OptimizeModule does, so a single bad function reports cleanly instead
// of crashing the CLI.
func runPipeline(pipeline *opt.Pipeline, fn *ir.Function) (out *ir.Function, stats []opt.PassStat) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*opt.InvariantError); ok {
				color.Red("%s", ie)
				os.Exit(1)
			}
			panic(r)
		}
	}()
	return pipeline.Run(fn)
}

func runSelfCheck(module *ir.Module, options opt.Options) {
	failed := false
	for _, fn := range module.Functions {
		if err := opt.SelfCheck(fn, options); err != nil {
			color.Red("❌ %s: %s", fn.NameArity(), err)
			failed = true
			continue
		}
		color.Green("✅ %s: idempotent, option-monotonic", fn.NameArity())
	}
	if failed {
		os.Exit(1)
	}
}

func printStats(nameArity string, stats []opt.PassStat) {
	color.Cyan("-- %s --", nameArity)
	for _, s := range stats {
		fmt.Printf("  %-14s %4d -> %4d  (%s)\n", s.Pass, s.Before, s.After, s.Elapsed)
	}
}

func optionsFromFlags(enable, disable string) opt.Options {
	options := opt.Options{}
	for _, name := range splitCSV(disable) {
		options = options.Disable(name)
	}
	for _, name := range splitCSV(enable) {
		options = options.Enable(name)
	}
	return options
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
