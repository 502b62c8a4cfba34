package diag

import (
	"fmt"
	"slices"
)

// Code is a stable numeric diagnostic identifier. Ranges group codes by the
// pass that emits them; see ID.
type Code uint16

const (
	UnknownCode Code = 0

	// lexer
	LexInfo                    Code = 1000
	LexUnknownChar             Code = 1001
	LexUnterminatedString      Code = 1002
	LexInvalidEscape           Code = 1003
	LexBadNumber               Code = 1004
	LexUnknownMarker           Code = 1005
	LexUnterminatedPassthrough Code = 1006
	LexUnterminatedAttributes  Code = 1007
	LexBadTypedLiteral         Code = 1008

	// parser
	SynInfo                     Code = 2000
	SynUnexpectedToken          Code = 2001
	SynMismatchedID             Code = 2002
	SynMissingRequiredAttribute Code = 2003
	SynInvalidModifier          Code = 2004
	SynUnclosedBlock            Code = 2005
	SynMismatchedClose          Code = 2006
	SynExpectExpression         Code = 2007
	SynExpectType               Code = 2008
	SynUnexpectedTopLevel       Code = 2009
	SynInvalidPattern           Code = 2010
	SynInvalidEffect            Code = 2011
	SynMisplacedClause          Code = 2012

	// binder and type checker
	SemaInfo                  Code = 3000
	SemaUnresolvedSymbol      Code = 3001
	SemaDuplicateSymbol       Code = 3002
	SemaUnsupportedExpression Code = 3003
	SemaTypeMismatch          Code = 3004
	SemaNonNumericArithmetic  Code = 3005
	SemaArityMismatch         Code = 3006
	SemaNonBoolCondition      Code = 3007
	SemaAssignToImmutable     Code = 3008
	SemaIteratorReturnsValue  Code = 3009
	SemaMissingReturnValue    Code = 3010
	SemaNotCallable           Code = 3011
	SemaUnknownMember         Code = 3012
	SemaUnknownType           Code = 3013
	SemaYieldOutsideFunction  Code = 3014
	SemaBreakOutsideLoop      Code = 3015

	// effects
	EffInfo              Code = 3100
	EffMissingCapability Code = 3101
	EffUnusedCapability  Code = 3102

	// contracts
	ConInfo                   Code = 3200
	ConUnknownReference       Code = 3201
	ConNotBoolean             Code = 3202
	ConResultInPrecondition   Code = 3203
	ConResultWithoutOutput    Code = 3204
	ConInherited              Code = 3210
	ConStrongerPrecondition   Code = 3211
	ConWeakerPostcondition    Code = 3212
	ConMissingInterfaceMethod Code = 3213
	ConSignatureMismatch      Code = 3214

	// patterns
	PatInfo            Code = 3300
	PatNonExhaustive   Code = 3301
	PatUnreachable     Code = 3302
	PatTypeMismatch    Code = 3303
	PatDuplicateBinder Code = 3304

	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002
	IOCacheError     Code = 4003

	ProjInfo          Code = 5000
	ProjInvalidConfig Code = 5001

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

type codeInfo struct {
	name  string
	title string
	sev   Severity
}

var codeTable = map[Code]codeInfo{
	UnknownCode: {"Unknown", "unknown error", SevError},

	LexInfo:                    {"LexInfo", "lexer information", SevInfo},
	LexUnknownChar:             {"UnknownCharacter", "unknown character", SevError},
	LexUnterminatedString:      {"UnterminatedString", "unterminated string literal", SevError},
	LexInvalidEscape:           {"InvalidEscapeSequence", "invalid escape sequence", SevError},
	LexBadNumber:               {"BadNumber", "malformed numeric literal", SevError},
	LexUnknownMarker:           {"UnknownMarker", "unknown block marker", SevError},
	LexUnterminatedPassthrough: {"UnterminatedPassthrough", "unterminated passthrough block", SevError},
	LexUnterminatedAttributes:  {"UnterminatedAttributes", "unterminated attribute list", SevError},
	LexBadTypedLiteral:         {"BadTypedLiteral", "malformed typed literal", SevError},

	SynInfo:                     {"SynInfo", "parser information", SevInfo},
	SynUnexpectedToken:          {"UnexpectedToken", "unexpected token", SevError},
	SynMismatchedID:             {"MismatchedId", "closing marker id does not match opening marker", SevError},
	SynMissingRequiredAttribute: {"MissingRequiredAttribute", "missing required attribute", SevError},
	SynInvalidModifier:          {"InvalidModifier", "invalid modifier", SevError},
	SynUnclosedBlock:            {"UnclosedBlock", "block is never closed", SevError},
	SynMismatchedClose:          {"MismatchedClose", "closing marker does not match the open block", SevError},
	SynExpectExpression:         {"ExpectedExpression", "expected expression", SevError},
	SynExpectType:               {"ExpectedType", "expected type", SevError},
	SynUnexpectedTopLevel:       {"UnexpectedTopLevel", "unexpected top-level item", SevError},
	SynInvalidPattern:           {"InvalidPattern", "invalid pattern", SevError},
	SynInvalidEffect:            {"InvalidEffect", "invalid effect declaration", SevError},
	SynMisplacedClause:          {"MisplacedClause", "clause is not allowed here", SevError},

	SemaInfo:                  {"SemaInfo", "semantic information", SevInfo},
	SemaUnresolvedSymbol:      {"UnresolvedSymbol", "unresolved symbol", SevError},
	SemaDuplicateSymbol:       {"DuplicateSymbol", "duplicate symbol", SevError},
	SemaUnsupportedExpression: {"UnsupportedExpression", "unsupported expression", SevError},
	SemaTypeMismatch:          {"TypeMismatch", "type mismatch", SevError},
	SemaNonNumericArithmetic:  {"NonNumericArithmetic", "arithmetic operators require numeric operands", SevError},
	SemaArityMismatch:         {"ArityMismatch", "wrong number of arguments", SevError},
	SemaNonBoolCondition:      {"NonBoolCondition", "condition is not boolean", SevError},
	SemaAssignToImmutable:     {"AssignToImmutable", "assignment to immutable binding", SevError},
	SemaIteratorReturnsValue:  {"IteratorReturnsValue", "iterator body returns a value", SevError},
	SemaMissingReturnValue:    {"MissingReturnValue", "missing return value", SevError},
	SemaNotCallable:           {"NotCallable", "value is not callable", SevError},
	SemaUnknownMember:         {"UnknownMember", "unknown member", SevError},
	SemaUnknownType:           {"UnknownType", "unknown type", SevError},
	SemaYieldOutsideFunction:  {"YieldOutsideFunction", "yield outside of a function body", SevError},
	SemaBreakOutsideLoop:      {"BreakOutsideLoop", "break or continue outside of a loop", SevError},

	EffInfo:              {"EffInfo", "effect information", SevInfo},
	EffMissingCapability: {"MissingCapability", "missing effect capability", SevError},
	EffUnusedCapability:  {"UnusedCapability", "declared effect is never used", SevInfo},

	ConInfo:                   {"ConInfo", "contract information", SevInfo},
	ConUnknownReference:       {"ContractUnknownReference", "contract references an unknown name", SevWarning},
	ConNotBoolean:             {"ContractNotBoolean", "contract condition is not boolean", SevError},
	ConResultInPrecondition:   {"ResultInPrecondition", "'result' used in a precondition", SevError},
	ConResultWithoutOutput:    {"ResultWithoutOutput", "'result' used in a function without output", SevError},
	ConInherited:              {"ContractInherited", "contracts inherited from interface", SevInfo},
	ConStrongerPrecondition:   {"StrongerPrecondition", "precondition is stronger than the interface allows", SevError},
	ConWeakerPostcondition:    {"WeakerPostcondition", "postcondition is weaker than the interface promises", SevWarning},
	ConMissingInterfaceMethod: {"MissingInterfaceMethod", "interface method is not implemented", SevError},
	ConSignatureMismatch:      {"SignatureMismatch", "implementation signature differs from interface", SevError},

	PatInfo:            {"PatInfo", "pattern information", SevInfo},
	PatNonExhaustive:   {"NonExhaustiveMatch", "match is not exhaustive", SevWarning},
	PatUnreachable:     {"UnreachablePattern", "pattern is unreachable", SevWarning},
	PatTypeMismatch:    {"PatternTypeMismatch", "pattern cannot match the scrutinee type", SevError},
	PatDuplicateBinder: {"DuplicateBinder", "pattern binds the same name twice", SevError},

	IOLoadFileError:  {"LoadFileError", "I/O load file error", SevError},
	IOWriteFileError: {"WriteFileError", "I/O write file error", SevError},
	IOCacheError:     {"CacheError", "build cache error", SevWarning},

	ProjInfo:          {"ProjInfo", "project information", SevInfo},
	ProjInvalidConfig: {"InvalidConfig", "invalid project configuration", SevError},

	ObsInfo:    {"ObsInfo", "observability information", SevInfo},
	ObsTimings: {"Timings", "pipeline timings", SevInfo},
}

// ID renders the stable external identifier, e.g. SYN2002.
func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3100 && ic < 3200:
		return fmt.Sprintf("EFF%04d", ic)
	case ic >= 3200 && ic < 3300:
		return fmt.Sprintf("CON%04d", ic)
	case ic >= 3300 && ic < 3400:
		return fmt.Sprintf("PAT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

// Name is the stable symbolic name consumers match on (e.g. "MismatchedId").
func (c Code) Name() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return codeTable[UnknownCode].name
}

func (c Code) Title() string {
	if info, ok := codeTable[c]; ok {
		return info.title
	}
	return codeTable[UnknownCode].title
}

// DefaultSeverity is the severity passes use unless they have a reason to deviate.
func (c Code) DefaultSeverity() Severity {
	if info, ok := codeTable[c]; ok {
		return info.sev
	}
	return SevError
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// CodeByName resolves a symbolic name back to its code.
func CodeByName(name string) (Code, bool) {
	for code, info := range codeTable {
		if info.name == name {
			return code, true
		}
	}
	return UnknownCode, false
}

// AllCodes lists every registered code in ascending order.
func AllCodes() []Code {
	out := make([]Code, 0, len(codeTable))
	for c := range codeTable {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
