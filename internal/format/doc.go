// Package format prints a parsed module back as canonical sigil source.
//
// The printer works from the AST alone: comments and original spacing are
// not kept, markers use their short tags, and block ids are written as
// parsed. Reparsing the output yields a tree equal to the input up to node
// ids and spans; CheckRoundTrip verifies that for a file.
package format
