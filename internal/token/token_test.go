package token

import (
	"strings"
	"testing"
)

func TestMarkerRegistryIsConsistent(t *testing.T) {
	seenTags := map[string]Kind{}
	seenKinds := map[Kind]bool{}
	for _, m := range Markers {
		if !m.Kind.IsMarker() {
			t.Errorf("%s: kind %d outside marker range", m.Short, m.Kind)
		}
		if len(m.Short) == 0 || len(m.Short) > 3 {
			t.Errorf("short form %q must have 1..3 characters", m.Short)
		}
		if len(m.Long) <= len(m.Short) && m.Long != m.Short {
			t.Errorf("long form %q should be longer than %q", m.Long, m.Short)
		}
		for _, tag := range []string{m.Short, m.Long} {
			if strings.ToUpper(tag) != tag {
				t.Errorf("tag %q must be upper-case", tag)
			}
			if prev, dup := seenTags[tag]; dup {
				t.Errorf("tag %q used by %v and %v", tag, prev, m.Kind)
			}
			seenTags[tag] = m.Kind
		}
		if seenKinds[m.Kind] {
			t.Errorf("kind %v registered twice", m.Kind)
		}
		seenKinds[m.Kind] = true
		if m.NeedsID && !m.Block {
			t.Errorf("%s requires an id but has no closing marker", m.Short)
		}
	}
	for k := MkModule; k <= MkRaw; k++ {
		if !seenKinds[k] {
			t.Errorf("marker kind %d missing from registry", k)
		}
	}
}

func TestLookupMarkerShortAndLongAgree(t *testing.T) {
	for _, m := range Markers {
		s, ok1 := LookupMarker(m.Short)
		l, ok2 := LookupMarker(m.Long)
		if !ok1 || !ok2 || s.Kind != l.Kind {
			t.Errorf("%s/%s resolve to %v/%v", m.Short, m.Long, s.Kind, l.Kind)
		}
	}
	if _, ok := LookupMarker("f"); ok {
		t.Errorf("marker lookup must be case-sensitive")
	}
}

func TestKeywordsCaseSensitive(t *testing.T) {
	if k, ok := LookupKeyword("some"); !ok || k != KwSome {
		t.Fatalf("some -> %v %v", k, ok)
	}
	if _, ok := LookupKeyword("Some"); ok {
		t.Fatalf("Some must be an identifier")
	}
	if k, ok := LookupLiteralTag("DEC"); !ok || k != DecLit {
		t.Fatalf("DEC -> %v %v", k, ok)
	}
}
