// Package fuzz holds Go fuzz harnesses for the front end and the whole
// compile pipeline. They guard against panics, hangs and out-of-range spans
// on arbitrary input.
//
//	go test ./internal/fuzz -fuzz=FuzzCompile
package fuzz
