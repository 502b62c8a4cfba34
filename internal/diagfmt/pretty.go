package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"sigil/internal/diag"
	"sigil/internal/source"
)

const tabWidth = 4

type palette struct {
	sev    map[diag.Severity]*color.Color
	code   *color.Color
	path   *color.Color
	gutter *color.Color
	caret  map[diag.Severity]*color.Color
	note   *color.Color
	fix    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
		},
		code:   color.New(color.Faint),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed),
			diag.SevWarning: color.New(color.FgYellow),
			diag.SevInfo:    color.New(color.FgCyan),
		},
		note: color.New(color.FgCyan),
		fix:  color.New(color.FgGreen),
	}
	all := []*color.Color{p.code, p.path, p.gutter, p.note, p.fix}
	for _, c := range p.sev {
		all = append(all, c)
	}
	for _, c := range p.caret {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty renders diagnostics for a terminal, in the order given:
//
//	calc.sgl:3:6: ERROR SEM3001: unresolved symbol 'y'
//	   3 | §R y
//	     |    ^
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i := range diags {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &diags[i], fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	sevColor := pal.sev[d.Severity]
	if sevColor == nil {
		sevColor = pal.sev[diag.SevError]
	}
	file := fileOf(fs, d.Primary)
	if file != nil {
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s: ", pal.path.Sprintf("%s:%d:%d", displayPath(fs, file, opts.PathMode), start.Line, start.Col))
	}
	fmt.Fprintf(w, "%s %s: %s\n", sevColor.Sprint(d.Severity.String()), pal.code.Sprint(d.Code.ID()), d.Message)

	// timing payloads are machine data, not source notes
	if d.Code == diag.ObsTimings {
		return
	}
	if file != nil && len(file.Content) > 0 {
		caret := pal.caret[d.Severity]
		if caret == nil {
			caret = pal.caret[diag.SevError]
		}
		snippet(w, fs, file, d.Primary, int(opts.Context), pal.gutter, caret)
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			prefix := ""
			if nf := fileOf(fs, n.Span); nf != nil && !(n.Span.Empty() && n.Span.Start == 0) {
				pos, _ := fs.Resolve(n.Span)
				prefix = fmt.Sprintf("%s:%d:%d: ", displayPath(fs, nf, opts.PathMode), pos.Line, pos.Col)
			}
			fmt.Fprintf(w, "  %s %s%s\n", pal.note.Sprint("note:"), prefix, n.Msg)
		}
	}
	if opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(w, "  %s %s\n", pal.fix.Sprint("fix:"), f.Title)
			for _, e := range f.Edits {
				pos, _ := fs.Resolve(e.Span)
				fmt.Fprintf(w, "    %d:%d replace %q with %q\n", pos.Line, pos.Col, fs.Text(e.Span), e.NewText)
			}
		}
	}
}

// snippet prints the primary line with a caret underline plus up to ctx
// lines on either side.
func snippet(w io.Writer, fs *source.FileSet, file *source.File, sp source.Span, ctx int, gutter, caret *color.Color) {
	start, end := fs.Resolve(sp)
	if ctx < 0 {
		ctx = 0
	}
	total := len(file.LineIdx) + 1
	first := max(int(start.Line)-ctx, 1)
	last := min(int(start.Line)+ctx, total)
	numWidth := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := expandTabs(file.GetLine(uint32(ln))) // #nosec G115 -- bounded by total
		fmt.Fprintf(w, "%s %s\n", gutter.Sprintf("%*d |", numWidth, ln), text)
		if ln != int(start.Line) {
			continue
		}
		raw := file.GetLine(start.Line)
		from := min(int(start.Col)-1, len(raw))
		to := len(raw)
		if end.Line == start.Line {
			to = min(int(end.Col)-1, len(raw))
		}
		pad := runewidth.StringWidth(expandTabs(raw[:from]))
		width := max(runewidth.StringWidth(expandTabs(raw[from:max(to, from)])), 1)
		marks := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, "%s %s%s\n", gutter.Sprintf("%*s |", numWidth, ""), strings.Repeat(" ", pad), caret.Sprint(marks))
	}
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}
