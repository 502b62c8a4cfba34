package source

type (
	// FileID identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes how the file content was obtained.
	FileFlags uint8
)

const (
	// FileVirtual marks content added from memory (compile API, stdin, tests).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is a single loaded compilation unit.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a human-readable position. Both fields are 1-based.
type LineCol struct {
	Line uint32
	Col  uint32
}
