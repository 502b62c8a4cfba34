package compiler

import (
	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/format"
)

// Issue is one finding of a Converter, tagged with the source feature it
// concerns.
type Issue struct {
	Severity   diag.Severity
	Message    string
	FeatureTag string
}

// ConversionResult is what a Converter hands back for one foreign file.
type ConversionResult struct {
	Success bool
	AST     *ast.Module
	// Emitted is the converted tree printed as sigil source.
	Emitted string
	Issues  []Issue
}

// Converter turns foreign source into a module tree. Implementations live
// outside this repository.
type Converter interface {
	Convert(src, filename string) ConversionResult
}

// Reserializer prints a module tree as canonical sigil source.
type Reserializer interface {
	Reserialize(mod *ast.Module) string
}

// FormatReserializer is the Reserializer backed by the source formatter.
type FormatReserializer struct {
	Options format.Options
}

func (r FormatReserializer) Reserialize(mod *ast.Module) string {
	return string(format.FormatModule(mod, r.Options))
}

var _ Reserializer = FormatReserializer{}
