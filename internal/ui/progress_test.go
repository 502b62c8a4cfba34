package ui

import (
	"strings"
	"testing"

	"sigil/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	model := NewProgressModel("build", []string{"a.sgl", "b.sgl"}, events)
	m := model.(*progressModel)

	steps := []driver.Event{
		{File: "a.sgl", Stage: driver.StageCompile, Status: driver.StatusWorking},
		{File: "b.sgl", Stage: driver.StageCompile, Status: driver.StatusCached},
		{File: "a.sgl", Stage: driver.StageWrite, Status: driver.StatusDone},
		{File: "unknown.sgl", Stage: driver.StageWrite, Status: driver.StatusError},
		{Stage: driver.StageBuild, Status: driver.StatusDone},
	}
	for _, ev := range steps {
		m.Update(eventMsg(ev))
	}
	if m.items[0].status != "done" || m.items[1].status != "cached" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if m.items[0].share != 1 || m.items[1].share != 1 {
		t.Fatalf("shares = %v, %v", m.items[0].share, m.items[1].share)
	}
	view := m.View()
	for _, want := range []string{"build (done)", "a.sgl", "cached"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	m.Update(doneMsg{})
	if !m.done || !strings.Contains(m.View(), "done: build") {
		t.Fatal("model did not finish")
	}
}

func TestProgressNeverGoesBackwards(t *testing.T) {
	m := NewProgressModel("b", []string{"a.sgl"}, nil).(*progressModel)
	m.applyEvent(driver.Event{File: "a.sgl", Stage: driver.StageCompile, Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "a.sgl", Stage: driver.StageLoad, Status: driver.StatusWorking})
	if m.items[0].share != 0.8 {
		t.Fatalf("share = %v", m.items[0].share)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a/very/long/path.sgl", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
