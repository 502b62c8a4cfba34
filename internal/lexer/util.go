package lexer

const (
	utf8RuneSelf = 0x80
	sectionSign  = "§"
	arrowRune    = "→"
)

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
