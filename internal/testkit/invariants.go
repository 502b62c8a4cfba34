// Package testkit holds structural checks shared by tests and fuzz
// harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/source"
)

// CheckSpanInvariants walks a parsed module and verifies:
//  1. every node span points into sf and lies within its content
//  2. every node span has Start <= End
//  3. distinct nodes never share an ID
func CheckSpanInvariants(mod *ast.Module, sf *source.File) error {
	if mod == nil || sf == nil {
		return fmt.Errorf("nil module or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	seen := make(map[ast.NodeID]ast.Node)
	var first error
	ast.Inspect(mod, func(n ast.Node) bool {
		if first != nil {
			return false
		}
		sp := n.NodeSpan()
		switch {
		case sp.File != sf.ID:
			first = fmt.Errorf("%T span points to file %d, want %d", n, sp.File, sf.ID)
		case sp.Start > sp.End:
			first = fmt.Errorf("%T span is inverted: %v", n, sp)
		case sp.End > size:
			first = fmt.Errorf("%T span %v ends beyond content (%d bytes)", n, sp, size)
		}
		if id := n.NodeID(); id.IsValid() && first == nil {
			if prev, dup := seen[id]; dup && prev != n {
				first = fmt.Errorf("node id %d used twice: %v and %v", id, prev.NodeSpan(), sp)
			}
			seen[id] = n
		}
		return first == nil
	})
	return first
}

// CheckDiagnosticSpans verifies every primary and note span that points
// into sf stays within its content.
func CheckDiagnosticSpans(diags []diag.Diagnostic, sf *source.File) error {
	if sf == nil {
		return fmt.Errorf("nil file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, d diag.Diagnostic, sp source.Span) error {
		if sp.File != sf.ID {
			return nil
		}
		if sp.Start > sp.End || sp.End > size {
			return fmt.Errorf("%s of %s %q has span %v outside %d bytes", what, d.Code.ID(), d.Message, sp, size)
		}
		return nil
	}
	for _, d := range diags {
		if err := check("primary", d, d.Primary); err != nil {
			return err
		}
		for _, n := range d.Notes {
			if err := check("note", d, n.Span); err != nil {
				return err
			}
		}
	}
	return nil
}
