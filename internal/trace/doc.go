// Package trace provides a tracing subsystem for the sigil compiler.
//
// The trace package enables tracking of compilation phases, per-file compiles,
// and other operations to help diagnose performance issues and hangs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	sigil diag --trace=- --trace-level=phase calc.sgl
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Discards everything when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer for crash dumps
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Heartbeats only
//   - LevelPhase: Builds, files and compiler phases
//   - LevelDetail, LevelDebug: Also every solver condition
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: Top-level CLI operations
//   - ScopeModule: One source file
//   - ScopePass: Compilation phases (parse, bind, sema, effects, codegen)
//   - ScopeCondition: One verification condition sent to the solver
//
// # Context Propagation
//
// Tracers are propagated through the compilation pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "parse", parentID)
//	defer span.End("")
package trace
