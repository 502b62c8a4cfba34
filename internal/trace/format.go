package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Format selects how events are serialised.
type Format uint8

const (
	FormatAuto   Format = iota // from the output file extension
	FormatText                 // one readable line per event
	FormatNDJSON               // one JSON object per line
	FormatChrome               // trace_event JSON for chrome://tracing and Perfetto
)

// ParseFormat accepts auto, text, ndjson (or json) and chrome.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	case "chrome":
		return FormatChrome, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|chrome)", s)
}

// FormatEvent serialises one event. Chrome events come without the
// surrounding array.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return ndjsonEvent(ev)
	case FormatChrome:
		return chromeEvent(ev)
	}
	return textEvent(ev)
}

type ndjsonRecord struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func ndjsonEvent(ev *Event) []byte {
	data, _ := json.Marshal(ndjsonRecord{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	})
	return append(data, '\n')
}

type chromeRecord struct {
	Name string            `json:"name"`
	Cat  string            `json:"cat"`
	Ph   string            `json:"ph"`
	Ts   int64             `json:"ts"`
	Pid  int               `json:"pid"`
	Tid  uint64            `json:"tid"`
	S    string            `json:"s,omitempty"`
	Args map[string]string `json:"args,omitempty"`
}

var chromePhase = map[Kind]string{KindSpanBegin: "B", KindSpanEnd: "E"}

func chromeEvent(ev *Event) []byte {
	rec := chromeRecord{Name: ev.Name, Cat: ev.Scope.String(), Ts: ev.Time.UnixMicro(), Pid: 1, Tid: ev.GID, Args: ev.Extra}
	if ph, ok := chromePhase[ev.Kind]; ok {
		rec.Ph = ph
	} else {
		rec.Ph, rec.S = "i", "t" // thread-scoped instant
	}
	if ev.Detail != "" {
		rec.Args = maps.Clone(ev.Extra)
		if rec.Args == nil {
			rec.Args = map[string]string{}
		}
		rec.Args["detail"] = ev.Detail
	}
	data, _ := json.Marshal(rec)
	return data
}

var textMarks = map[Kind]string{KindSpanBegin: "→ ", KindSpanEnd: "← ", KindHeartbeat: "♡ "}

// textEvent renders "[seq] → name (detail) {k=v}"; children of another
// span are indented by two spaces.
func textEvent(ev *Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%6d] ", ev.Seq)
	if ev.ParentID != 0 {
		b.WriteString("  ")
	}
	b.WriteString(textMarks[ev.Kind])
	b.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&b, " (%s)", ev.Detail)
	}
	if len(ev.Extra) > 0 {
		pairs := make([]string, 0, len(ev.Extra))
		for _, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			pairs = append(pairs, k+"="+ev.Extra[k])
		}
		fmt.Fprintf(&b, " {%s}", strings.Join(pairs, ", "))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
