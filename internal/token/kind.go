package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLit    // 42, INT:42
	FloatLit  // 1.5, 1e10, FLOAT:1.0
	DecLit    // DEC:18
	StringLit // "text", STR:"text"
	BoolLit   // true, false, BOOL:true

	// keywords usable inside expressions
	KwMatch
	KwSome
	KwNone
	KwOk
	KwErr
	KwNew
	KwArray
	KwLambda
	KwWhen
	KwCast
	KwAwait
	KwThis

	// punctuation and operators
	LParen
	RParen
	LBracket
	RBracket
	Dot
	Comma
	Colon
	Assign     // =
	Arrow      // -> or →
	Underscore // _
	Plus
	Minus
	Star
	Slash
	Percent
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	AndAnd
	OrOr
	Bang

	// RawBlock carries the verbatim body of a passthrough block.
	RawBlock
	// Close is a closing marker §/TAG; Token.Closes holds the opened kind.
	Close

	// block markers; keep MkModule first and MkRaw last, see IsMarker
	MkModule
	MkUsing
	MkFunc
	MkIn
	MkOut
	MkEffects
	MkRequires
	MkEnsures
	MkAttribute
	MkClass
	MkInterface
	MkImplements
	MkField
	MkMethod
	MkEnum
	MkExtension
	MkBind
	MkAssign
	MkReturn
	MkIf
	MkElseIf
	MkElse
	MkLoop
	MkWhile
	MkForeach
	MkMatch
	MkCase
	MkTry
	MkCatch
	MkFinally
	MkThrow
	MkRethrow
	MkResource
	MkYield
	MkYieldBreak
	MkPrint
	MkBreak
	MkContinue
	MkCall
	MkRaw
)

var kindNames = map[Kind]string{
	Invalid: "invalid", EOF: "end of file",
	Ident: "identifier", IntLit: "integer literal", FloatLit: "float literal",
	DecLit: "decimal literal", StringLit: "string literal", BoolLit: "bool literal",
	KwMatch: "match", KwSome: "some", KwNone: "none", KwOk: "ok", KwErr: "err",
	KwNew: "new", KwArray: "array", KwLambda: "lambda", KwWhen: "when",
	KwCast: "cast", KwAwait: "await", KwThis: "this",
	LParen: "(", RParen: ")", LBracket: "[", RBracket: "]", Dot: ".", Comma: ",",
	Colon: ":", Assign: "=", Arrow: "->", Underscore: "_",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	EqEq: "==", BangEq: "!=", Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=",
	AndAnd: "&&", OrOr: "||", Bang: "!",
	RawBlock: "passthrough block", Close: "closing marker",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if info, ok := MarkerOf(k); ok {
		return "§" + info.Short
	}
	return "unknown"
}

// IsMarker reports whether k is an opening block marker.
func (k Kind) IsMarker() bool {
	return k >= MkModule && k <= MkRaw
}

// IsOperator reports whether k can head an operator form `(op a b)`.
func (k Kind) IsOperator() bool {
	switch k {
	case Plus, Minus, Star, Slash, Percent, EqEq, BangEq, Lt, LtEq, Gt, GtEq, AndAnd, OrOr, Bang:
		return true
	}
	return false
}

// IsLiteral reports whether k is one of the literal kinds.
func (k Kind) IsLiteral() bool {
	switch k {
	case IntLit, FloatLit, DecLit, StringLit, BoolLit:
		return true
	}
	return false
}
