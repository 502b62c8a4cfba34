package format

import (
	"errors"
	"fmt"

	"sigil/internal/ast"
	"sigil/internal/diag"
	"sigil/internal/parser"
	"sigil/internal/source"
)

type Options struct {
	IndentWidth int
	UseTabs     bool
}

func (o Options) withDefaults() Options {
	if o.IndentWidth == 0 {
		o.IndentWidth = 2
	}
	return o
}

type printer struct {
	writer *Writer
	opt    Options
	// exprOpen is set while the last statement ended without its optional
	// trailing expression, so a following bare form would attach to it.
	exprOpen bool
}

// FormatModule prints mod as canonical source.
func FormatModule(mod *ast.Module, opt Options) []byte {
	opt = opt.withDefaults()
	pr := printer{writer: NewWriter(opt), opt: opt}
	if mod != nil {
		pr.printModule(mod)
	}
	return pr.writer.Bytes()
}

// FormatFile parses sf and prints it back. Files that do not parse cleanly
// are refused so the formatter never drops text it failed to understand.
func FormatFile(sf *source.File, opt Options) ([]byte, error) {
	if sf == nil {
		return nil, errors.New("format: nil source file")
	}
	bag := diag.NewBag(0)
	mod := parseOnce(sf, bag)
	if bag.HasErrors() {
		return nil, fmt.Errorf("format: %s has syntax errors: %s", sf.Path, firstError(bag))
	}
	return FormatModule(mod, opt), nil
}

// CheckRoundTrip formats the file with the given options and re-parses it,
// ensuring the reparsed tree matches the original up to node ids and spans.
func CheckRoundTrip(sf *source.File, opt Options, maxDiag int) (ok bool, msg string) {
	origBag := diag.NewBag(maxDiag)
	orig := parseOnce(sf, origBag)
	if origBag.HasErrors() {
		return false, "fmt-check: initial parse has errors"
	}

	formatted := FormatModule(orig, opt)

	fs2 := source.NewFileSetWithBase("")
	fid := fs2.AddVirtual(sf.Path, formatted)
	newBag := diag.NewBag(maxDiag)
	rebuilt := parseOnce(fs2.Get(fid), newBag)
	if newBag.HasErrors() {
		return false, "fmt-check: reparse failed: " + firstError(newBag)
	}

	if a, b := Fingerprint(orig), Fingerprint(rebuilt); a != b {
		return false, "fmt-check: tree differs after round-trip near " + firstDifference(a, b)
	}
	return true, "fmt-check: OK"
}

func parseOnce(sf *source.File, bag *diag.Bag) *ast.Module {
	opts := parser.Options{Reporter: &diag.BagReporter{Bag: bag}, MaxErrors: uint(bag.Cap())}
	return parser.ParseFile(sf, opts)
}

func firstError(bag *diag.Bag) string {
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			return d.Code.ID() + " " + d.Message
		}
	}
	return "unknown error"
}

// firstDifference returns a short excerpt of a around the first byte where
// a and b disagree.
func firstDifference(a, b string) string {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	start := max(i-20, 0)
	end := min(i+20, len(a))
	return fmt.Sprintf("%q", a[start:end])
}
