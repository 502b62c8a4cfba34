package token

// MarkerInfo describes one block marker. Short is the canonical tag (at most
// three characters), Long the legacy spelling; both lex to the same Kind.
type MarkerInfo struct {
	Kind    Kind
	Short   string
	Long    string
	Block   bool // closed by a matching §/TAG
	NeedsID bool // first attribute is the block id repeated on the closing marker
}

// Markers is the complete marker registry. Lookup tables are derived from it
// in init, so adding a marker is a one-line change here.
var Markers = []MarkerInfo{
	{Kind: MkModule, Short: "M", Long: "MODULE", Block: true, NeedsID: true},
	{Kind: MkUsing, Short: "U", Long: "USING"},
	{Kind: MkFunc, Short: "F", Long: "FUNC", Block: true, NeedsID: true},
	{Kind: MkIn, Short: "I", Long: "IN"},
	{Kind: MkOut, Short: "O", Long: "OUT"},
	{Kind: MkEffects, Short: "E", Long: "EFFECTS"},
	{Kind: MkRequires, Short: "Q", Long: "REQUIRES"},
	{Kind: MkEnsures, Short: "S", Long: "ENSURES"},
	{Kind: MkAttribute, Short: "AT", Long: "ATTRIBUTE"},
	{Kind: MkClass, Short: "CL", Long: "CLASS", Block: true, NeedsID: true},
	{Kind: MkInterface, Short: "IFC", Long: "INTERFACE", Block: true, NeedsID: true},
	{Kind: MkImplements, Short: "IMP", Long: "IMPLEMENTS"},
	{Kind: MkField, Short: "FLD", Long: "FIELD"},
	{Kind: MkMethod, Short: "MT", Long: "METHOD", Block: true, NeedsID: true},
	{Kind: MkEnum, Short: "EN", Long: "ENUM", Block: true, NeedsID: true},
	{Kind: MkExtension, Short: "EXT", Long: "EXTENSION", Block: true, NeedsID: true},
	{Kind: MkBind, Short: "B", Long: "BIND"},
	{Kind: MkAssign, Short: "AS", Long: "ASSIGN"},
	{Kind: MkReturn, Short: "R", Long: "RETURN"},
	{Kind: MkIf, Short: "IF", Long: "COND", Block: true, NeedsID: true},
	{Kind: MkElseIf, Short: "EI", Long: "ELSEIF"},
	{Kind: MkElse, Short: "EL", Long: "ELSE"},
	{Kind: MkLoop, Short: "L", Long: "LOOP", Block: true, NeedsID: true},
	{Kind: MkWhile, Short: "WH", Long: "WHILE", Block: true, NeedsID: true},
	{Kind: MkForeach, Short: "FE", Long: "FOREACH", Block: true, NeedsID: true},
	{Kind: MkMatch, Short: "W", Long: "MATCH", Block: true, NeedsID: true},
	{Kind: MkCase, Short: "K", Long: "CASE"},
	{Kind: MkTry, Short: "TR", Long: "TRY", Block: true, NeedsID: true},
	{Kind: MkCatch, Short: "CA", Long: "CATCH"},
	{Kind: MkFinally, Short: "FI", Long: "FINALLY"},
	{Kind: MkThrow, Short: "TH", Long: "THROW"},
	{Kind: MkRethrow, Short: "RT", Long: "RETHROW"},
	{Kind: MkResource, Short: "US", Long: "RESOURCE", Block: true, NeedsID: true},
	{Kind: MkYield, Short: "YI", Long: "YIELD"},
	{Kind: MkYieldBreak, Short: "YB", Long: "YIELDBREAK"},
	{Kind: MkPrint, Short: "P", Long: "PRINT"},
	{Kind: MkBreak, Short: "BK", Long: "BREAK"},
	{Kind: MkContinue, Short: "CN", Long: "CONTINUE"},
	{Kind: MkCall, Short: "C", Long: "CALL"},
	{Kind: MkRaw, Short: "RAW", Long: "CSHARP", Block: true},
}

var (
	markerByTag  map[string]int
	markerByKind map[Kind]int
)

func init() {
	markerByTag = make(map[string]int, 2*len(Markers))
	markerByKind = make(map[Kind]int, len(Markers))
	for i, m := range Markers {
		markerByTag[m.Short] = i
		markerByTag[m.Long] = i
		markerByKind[m.Kind] = i
	}
}

// LookupMarker resolves a tag (short or long, case-sensitive).
func LookupMarker(tag string) (MarkerInfo, bool) {
	i, ok := markerByTag[tag]
	if !ok {
		return MarkerInfo{}, false
	}
	return Markers[i], true
}

// MarkerOf returns the registry entry for a marker kind.
func MarkerOf(k Kind) (MarkerInfo, bool) {
	i, ok := markerByKind[k]
	if !ok {
		return MarkerInfo{}, false
	}
	return Markers[i], true
}
