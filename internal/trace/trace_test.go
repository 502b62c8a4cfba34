package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("phase"); err != nil || l != LevelPhase {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected an error")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if f, err := ParseFormat("chrome"); err != nil || f != FormatChrome {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopeModule, true},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeCondition, false},
		{LevelDetail, ScopeCondition, true},
		{LevelDebug, ScopeCondition, true},
		{LevelError, ScopeDriver, false},
		{LevelOff, ScopeDriver, false},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v", tt.level, tt.scope, got)
		}
	}
}

func TestHeartbeatsPassEveryEnabledLevel(t *testing.T) {
	tick := &Event{Kind: KindHeartbeat, Scope: ScopeDriver}
	if !admits(LevelError, tick) || admits(LevelOff, tick) {
		t.Fatal("heartbeats must pass any enabled level and nothing when off")
	}
	if admits(LevelError, &Event{Kind: KindSpanBegin, Scope: ScopeDriver}) {
		t.Fatal("spans must not pass the error level")
	}
}

func TestHeartbeatStops(t *testing.T) {
	ring := NewRingTracer(16, LevelError)
	h := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	snap := ring.Snapshot()
	if len(snap) == 0 || snap[0].Kind != KindHeartbeat || snap[0].Detail != "#1" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("no heartbeat without tracing")
	}
}

func TestFormatFromOutputPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"", FormatText},
		{"-", FormatText},
		{"build.trace", FormatText},
		{"build.ndjson", FormatNDJSON},
		{"build.JSON", FormatChrome},
	}
	for _, tt := range tests {
		if got := formatFor(Config{OutputPath: tt.path}); got != tt.want {
			t.Errorf("formatFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if got := formatFor(Config{OutputPath: "x.json", Format: FormatNDJSON}); got != FormatNDJSON {
		t.Errorf("explicit format overridden: %v", got)
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	root := Begin(tr, ScopeDriver, "build", 0).WithExtra("z", "1").WithExtra("a", "2")
	child := Begin(tr, ScopePass, "parse", root.ID())
	child.End("decls=3")
	root.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "→ build") || !strings.Contains(lines[1], "  → parse") {
		t.Fatalf("begin lines = %q", lines[:2])
	}
	if !strings.Contains(lines[2], "← parse (decls=3)") {
		t.Fatalf("end line = %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], "{a=2, z=1}") {
		t.Fatalf("extras not sorted: %q", lines[3])
	}
}

func TestStreamTracerChrome(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatChrome)
	Begin(tr, ScopePass, "sema", 0).End("ok")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []struct {
			Name string            `json:"name"`
			Ph   string            `json:"ph"`
			Args map[string]string `json:"args"`
		} `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("chrome output is not JSON: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 || doc.TraceEvents[0].Ph != "B" || doc.TraceEvents[1].Args["detail"] != "ok" {
		t.Fatalf("events = %+v", doc.TraceEvents)
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	tr := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Begin(tr, ScopePass, name, 0)
	}
	snap := tr.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := tr.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("ndjson lines = %d", n)
	}
	buf.Reset()
	if err := tr.Dump(&buf, FormatChrome); err != nil {
		t.Fatal(err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Fatalf("chrome dump is not JSON:\n%s", buf.String())
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("expected Nop without a tracer")
	}
	tr := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), tr)
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 42})
	if FromContext(ctx) != Tracer(tr) || CurrentSpan(ctx).SpanID != 42 {
		t.Fatal("context lost the tracer or span")
	}
	span := Begin(Nop, ScopeDriver, "x", 0)
	if span.End("") != 0 {
		t.Fatal("nop span should not time anything")
	}
}

func TestNewDisabled(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
}

func TestRingOf(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(4, LevelPhase)
	multi := NewMultiTracer(LevelPhase, NewStreamTracer(&buf, LevelPhase, FormatText), ring)
	if got, ok := RingOf(multi); !ok || got != ring {
		t.Fatal("ring not found behind multi tracer")
	}
	if _, ok := RingOf(Nop); ok {
		t.Fatal("nop has no ring")
	}
}
