package token

var keywords = map[string]Kind{
	"match":  KwMatch,
	"some":   KwSome,
	"none":   KwNone,
	"ok":     KwOk,
	"err":    KwErr,
	"new":    KwNew,
	"array":  KwArray,
	"lambda": KwLambda,
	"when":   KwWhen,
	"cast":   KwCast,
	"await":  KwAwait,
	"this":   KwThis,
	"true":   BoolLit,
	"false":  BoolLit,
}

// LookupKeyword is case-sensitive: "Some" is an ordinary identifier.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// literalTags are the prefixes of typed literals such as INT:42.
var literalTags = map[string]Kind{
	"INT":   IntLit,
	"FLOAT": FloatLit,
	"DEC":   DecLit,
	"STR":   StringLit,
	"BOOL":  BoolLit,
}

// LookupLiteralTag resolves the tag in front of a typed literal.
func LookupLiteralTag(tag string) (Kind, bool) {
	k, ok := literalTags[tag]
	return k, ok
}
