package types

import "sigil/internal/source"

var zeroSpan = source.Span{}
