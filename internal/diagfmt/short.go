package diagfmt

import (
	"fmt"
	"io"

	"sigil/internal/diag"
	"sigil/internal/source"
)

// Short writes one line per diagnostic, in the order given:
//
//	calc.sgl:3:6: error SEM3001 unresolved symbol 'y'
func Short(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, mode PathMode) {
	for _, d := range diags {
		if f := fileOf(fs, d.Primary); f != nil {
			start, _ := fs.Resolve(d.Primary)
			fmt.Fprintf(w, "%s:%d:%d: ", displayPath(fs, f, mode), start.Line, start.Col)
		}
		fmt.Fprintf(w, "%s %s %s\n", d.Severity.Label(), d.Code.ID(), d.Message)
	}
}
