package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssaopt/internal/errors"
)

// ConvertParseError transforms an irtext parse/build error into an LSP
// diagnostic. Adapted from the teacher repository's
// internal/lsp.ConvertParseErrors; ssaopt's parser reports one error at a
// time (spec's front end stops at the first malformed function), so this
// always yields a single-element slice.
func ConvertParseError(err error) []protocol.Diagnostic {
	ce, ok := err.(errors.CompilerError)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    protocol.Range{},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("ssaopt"),
			Message:  err.Error(),
		}}
	}

	length := ce.Length
	if length <= 0 {
		length = 1
	}
	line := uint32(0)
	if ce.Position.Line > 0 {
		line = uint32(ce.Position.Line - 1)
	}
	startChar := uint32(0)
	if ce.Position.Column > 0 {
		startChar = uint32(ce.Position.Column - 1)
	}

	diagnostic := protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: startChar},
			End:   protocol.Position{Line: line, Character: startChar + uint32(length)},
		},
		Severity: ptrSeverity(severityOf(ce.Level)),
		Source:   ptrString("ssaopt-irtext [" + ce.Code + "]"),
		Message:  ce.Message,
	}
	return []protocol.Diagnostic{diagnostic}
}

func severityOf(level errors.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	case errors.Note, errors.Help:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func ptrString(s string) *string { return &s }
