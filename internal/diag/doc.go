// Package diag defines the diagnostic model shared by every compiler pass.
//
// A Diagnostic carries a Severity, a stable Code, a message, a primary
// source.Span and optional notes and fixes. Codes are grouped by pass:
//
//	LEX1xxx  lexer
//	SYN2xxx  parser
//	SEM30xx  binder and type checker
//	EFF31xx  effect checker
//	CON32xx  contract verification and inheritance
//	PAT33xx  pattern exhaustiveness and reachability
//	IO4xxx   file system
//	PRJ5xxx  project configuration
//	OBS6xxx  observability (timings)
//
// Besides the numeric ID every code has a symbolic Name ("MismatchedId",
// "StrongerPrecondition", ...) that external consumers match on; both are
// stable across releases.
//
// Passes never talk to a Bag directly. They receive a Reporter and either
// call Report or build a diagnostic with ReportBuilder:
//
//	diag.ReportError(r, diag.SynMismatchedID, span, msg).
//		WithNote(openSpan, "block opened here").
//		Emit()
//
// Rendering lives in internal/diagfmt; this package performs no IO.
package diag
