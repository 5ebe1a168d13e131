package errors

import (
	"fmt"
	"strings"
)

// ErrorBuilder provides a fluent interface for building a CompilerError,
// adapted from the teacher's SemanticErrorBuilder.
type ErrorBuilder struct {
	err CompilerError
}

func NewError(code, message string, pos Position) *ErrorBuilder {
	return &ErrorBuilder{
		err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1},
	}
}

func NewWarning(code, message string, pos Position) *ErrorBuilder {
	return &ErrorBuilder{
		err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1},
	}
}

func (b *ErrorBuilder) WithLength(length int) *ErrorBuilder {
	b.err.Length = length
	return b
}

func (b *ErrorBuilder) WithSuggestion(message string) *ErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *ErrorBuilder) WithNote(note string) *ErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *ErrorBuilder) WithHelp(help string) *ErrorBuilder {
	b.err.HelpText = help
	return b
}

func (b *ErrorBuilder) Build() CompilerError { return b.err }

// SyntaxError wraps a raw participle parse failure as a CompilerError; msg is
// the lexer/parser's own message (already says what token was expected).
func SyntaxError(msg string, pos Position) CompilerError {
	return NewError(ErrorSyntax, msg, pos).
		WithHelp("irtext expects `function name/arity(args) { bbN: insts... term }` blocks").
		Build()
}

// UnknownOpcode reports an identifier in opcode position that the grammar
// accepted lexically but the IR builder doesn't recognize, suggesting the
// closest known opcode name by edit distance.
func UnknownOpcode(name string, pos Position, known []string) CompilerError {
	builder := NewError(ErrorUnknownOpcode, fmt.Sprintf("unknown opcode %q", name), pos).
		WithLength(len(name))

	similar := findSimilarNames(name, known)
	switch len(similar) {
	case 0:
		builder = builder.WithNote("see internal/ir's opcode table for the recognized instruction set")
	case 1:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean %q?", similar[0]))
	default:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: %s?", strings.Join(similar, ", ")))
	}
	return builder.Build()
}

// UndefinedLabel reports a branch, switch case, or phi predecessor naming a
// block label the function never defines.
func UndefinedLabel(label string, pos Position, known []string) CompilerError {
	builder := NewError(ErrorUndefinedLabel, fmt.Sprintf("undefined block label %q", label), pos).
		WithLength(len(label))

	similar := findSimilarNames(label, known)
	if len(similar) > 0 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean %q?", similar[0]))
	}
	return builder.WithNote("every bbN referenced by a terminator or phi must have a matching block").Build()
}

// DuplicateLabel reports a block label defined twice in one function.
func DuplicateLabel(label string, pos Position) CompilerError {
	return NewError(ErrorDuplicateLabel, fmt.Sprintf("block %q is defined more than once", label), pos).
		WithLength(len(label)).
		WithNote("block labels must be unique within a function").
		Build()
}

// ArityMismatch reports a fixed-arity opcode invoked with the wrong number
// of operands (e.g. `succeeded` takes exactly one argument).
func ArityMismatch(opcode string, want, got int, pos Position) CompilerError {
	return NewError(ErrorArityMismatch, fmt.Sprintf("%s expects %d argument(s), got %d", opcode, want, got), pos).
		Build()
}

// InternalInvariant reports an optimizer bug: a pass produced ill-formed SSA.
// Never triggered by user input; fn is the "name/arity" the spec's §6
// diagnostic surface requires.
func InternalInvariant(fn, pass, reason string) CompilerError {
	return NewError(ErrorInternalInvariant, fmt.Sprintf("internal error in %s: pass %q: %s", fn, pass, reason), Position{}).
		Build()
}

// findSimilarNames returns candidates within edit distance 2 of target,
// filtering out very short candidates that would match almost anything.
func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

// levenshteinDistance is a standard edit-distance implementation used to
// suggest opcode/label names for typos.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
