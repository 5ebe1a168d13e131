// Package errors renders ssaopt's two user-visible diagnostic kinds — irtext
// parse errors and the pipeline's internal invariant violations — as
// caret diagnostics tuned for a one-instruction-per-line IR listing: unlike
// a general-purpose source file, the line above and below an offending
// irtext line is an unrelated instruction, not surrounding context, so a
// diagnostic here shows only the one line plus a gutter sized to the whole
// file rather than a three-line window.
package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Position is a 1-indexed line/column location in a source file, the irtext
// analogue of the teacher's ast.Position.
type Position struct {
	Line   int
	Column int
}

// ErrorLevel represents the severity of a diagnostic.
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// CompilerError is a structured diagnostic with suggestions and context.
type CompilerError struct {
	Level       ErrorLevel
	Code        string
	Message     string
	Position    Position
	Length      int
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

func (e CompilerError) Error() string { return fmt.Sprintf("%s: %s", e.Level, e.Message) }

// Suggestion is a suggested fix attached to a CompilerError.
type Suggestion struct {
	Message     string
	Replacement string
	Position    Position
	Length      int
}

// levelStyle bundles the two colors a level needs: the label color ("error",
// "warning", ...) and the marker color for its underline. Table-driven
// rather than a per-call switch, since both FormatError and createMarker
// need the same lookup.
type levelStyle struct {
	label  func(...interface{}) string
	marker func(...interface{}) string
}

var levelStyles = map[ErrorLevel]levelStyle{
	Error:   {color.New(color.FgRed, color.Bold).SprintFunc(), color.New(color.FgRed, color.Bold).SprintFunc()},
	Warning: {color.New(color.FgYellow, color.Bold).SprintFunc(), color.New(color.FgYellow, color.Bold).SprintFunc()},
	Note:    {color.New(color.FgBlue, color.Bold).SprintFunc(), color.New(color.FgRed, color.Bold).SprintFunc()},
	Help:    {color.New(color.FgGreen, color.Bold).SprintFunc(), color.New(color.FgRed, color.Bold).SprintFunc()},
}

func styleFor(level ErrorLevel) levelStyle {
	if s, ok := levelStyles[level]; ok {
		return s
	}
	return levelStyles[Error]
}

// ErrorReporter formats diagnostics against one source file's text.
type ErrorReporter struct {
	filename string
	source   string
	lines    []string
}

func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		source:   source,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatError renders one diagnostic: a header, a location line, the single
// offending irtext line with its marker, then suggestions/notes/help. There
// is no line-before/line-after window — in a listing with one instruction
// per line, adjacent lines are unrelated instructions, so showing them adds
// noise rather than context.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	style := styleFor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	gutter := er.gutterWidth()
	indent := strings.Repeat(" ", gutter)

	var result strings.Builder
	if err.Code != "" {
		fmt.Fprintf(&result, "%s[%s]: %s\n", style.label(string(err.Level)), err.Code, err.Message)
	} else {
		fmt.Fprintf(&result, "%s: %s\n", style.label(string(err.Level)), err.Message)
	}

	fmt.Fprintf(&result, "%s %s %s:%d:%d\n", indent, dim("-->"), er.filename, err.Position.Line, err.Position.Column)
	fmt.Fprintf(&result, "%s %s\n", indent, dim("│"))

	if line, ok := er.lineAt(err.Position.Line); ok {
		fmt.Fprintf(&result, "%s %s %s\n", bold(padLineNo(err.Position.Line, gutter)), dim("│"), line)
		fmt.Fprintf(&result, "%s %s %s\n", indent, dim("│"), er.createMarker(err.Position.Column, err.Length, err.Level))
	}

	er.writeAnnotations(&result, indent, err)

	result.WriteString("\n")
	return result.String()
}

// writeAnnotations appends the suggestion/note/help block shared by every
// diagnostic level.
func (er *ErrorReporter) writeAnnotations(result *strings.Builder, indent string, err CompilerError) {
	dim := color.New(color.Faint).SprintFunc()

	if len(err.Suggestions) > 0 {
		fmt.Fprintf(result, "%s %s\n", indent, dim("│"))
		cyan := color.New(color.FgCyan).SprintFunc()
		for i, suggestion := range err.Suggestions {
			if i == 0 {
				fmt.Fprintf(result, "%s %s %s: %s\n", indent, cyan("help"), cyan("try"), suggestion.Message)
			} else {
				fmt.Fprintf(result, "%s %s %s\n", indent, cyan("    "), suggestion.Message)
			}
			if suggestion.Replacement != "" {
				fmt.Fprintf(result, "%s %s\n", indent, dim("│"))
				replacement := strings.ReplaceAll(suggestion.Replacement, "\n", fmt.Sprintf("\n%s %s ", indent, dim("│")))
				fmt.Fprintf(result, "%s %s %s\n", indent, cyan("│"), cyan(replacement))
			}
		}
	}

	blue := color.New(color.FgBlue).SprintFunc()
	for _, note := range err.Notes {
		fmt.Fprintf(result, "%s %s %s %s\n", indent, dim("│"), blue("note:"), note)
	}

	if err.HelpText != "" {
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(result, "%s %s %s %s\n", indent, dim("│"), green("help:"), err.HelpText)
	}
}

// createMarker underlines the offending span with one caret per column of
// Length, offset by the 1-indexed column.
func (er *ErrorReporter) createMarker(column, length int, level ErrorLevel) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))
	marker := strings.Repeat("^", length)
	return spaces + styleFor(level).marker(marker)
}

// lineAt returns the 1-indexed source line, if it exists.
func (er *ErrorReporter) lineAt(line int) (string, bool) {
	if line <= 0 || line > len(er.lines) {
		return "", false
	}
	return er.lines[line-1], true
}

// gutterWidth sizes the line-number column to the whole file's line count,
// not just the current diagnostic's line, so a run of diagnostics against
// the same file lines up even when an early one reports a low line number
// and a later one a high one.
func (er *ErrorReporter) gutterWidth() int {
	width := len(strconv.Itoa(len(er.lines)))
	if width < 2 {
		width = 2
	}
	return width
}

func padLineNo(line, width int) string {
	s := strconv.Itoa(line)
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
