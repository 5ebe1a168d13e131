// Package irtext is the textual front end for the optimizer: it parses the
// ".ssair" listing format printed by internal/ir.Printer back into an
// *ir.Module, standing in for the real (out-of-scope, spec §1) front end
// that lowers the source language into SSA. Built with
// github.com/alecthomas/participle/v2 over a stateful lexer, in the same
// shape as the teacher's grammar package.
package irtext

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"

	"ssaopt/internal/errors"
	"ssaopt/internal/ir"
)

var parser = participle.MustBuild[File](
	participle.Lexer(SSALexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseFile reads and parses an irtext file into a Module.
func ParseFile(path string) (*ir.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("irtext: %w", err)
	}
	return ParseString(path, string(src))
}

// ParseString parses irtext source held in memory; filename is used only for
// diagnostic messages. Every error returned is an errors.CompilerError, so a
// caller (the CLI, the LSP) can render it with errors.ErrorReporter or pull
// its Position straight off the value.
func ParseString(filename, src string) (*ir.Module, error) {
	file, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, asCompilerError(err)
	}
	return build(file)
}

// FormatParseError renders err, as returned by ParseFile/ParseString, as a
// caret-style diagnostic against src. Non-CompilerError errors (a file that
// could not be read, say) are rendered plain.
func FormatParseError(filename, src string, err error) string {
	ce, ok := err.(errors.CompilerError)
	if !ok {
		return err.Error()
	}
	return errors.NewErrorReporter(filename, src).FormatError(ce)
}

// asCompilerError normalizes a raw participle syntax error into the same
// errors.CompilerError shape the builder (build.go) already returns for
// semantic errors, so every irtext failure has a uniform type.
func asCompilerError(err error) error {
	pe, ok := err.(participle.Error)
	if !ok {
		return err
	}
	pos := pe.Position()
	return errors.SyntaxError(pe.Message(), errors.Position{Line: pos.Line, Column: pos.Column})
}
