package errors

// Error codes for the ssaopt toolchain's diagnostic surface: irtext parse
// errors and the pipeline's internal invariant violations (spec §6/§7).
//
// Error code ranges:
// E0100-E0199: irtext parser/lexer errors
// E0200-E0299: irtext semantic errors (undefined label, bad arity, ...)
// E0900-E0999: internal invariant violations (pipeline bugs, not user errors)
// W0001-W0099: warnings

const (
	// E0100: generic syntax error surfaced from the participle parser
	ErrorSyntax = "E0100"

	// E0101: an opcode name the grammar accepted but the IR builder doesn't
	// recognize
	ErrorUnknownOpcode = "E0101"

	// E0102: a `br`/`switch`/phi predecessor names a block label with no
	// matching block in the function
	ErrorUndefinedLabel = "E0102"

	// E0103: a function or block label appears twice
	ErrorDuplicateLabel = "E0103"

	// E0104: wrong argument count for a fixed-arity opcode (e.g. succeeded)
	ErrorArityMismatch = "E0104"

	// E0900: a pass produced ill-formed SSA or otherwise violated an
	// invariant the pipeline relies on; always a bug, never a user error
	ErrorInternalInvariant = "E0900"

	// W0001: the self-check's idempotence/option-monotonicity probe found a
	// pass order that diverges
	WarningNonIdempotent = "W0001"
)
