package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"sigil/internal/driver"
	"sigil/internal/ui"
)

type buildOutcome struct {
	results []driver.FileResult
	err     error
}

// runBuildWithUI compiles files while a progress view renders the events.
func runBuildWithUI(ctx context.Context, title string, files []string, opts driver.BuildOptions) ([]driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.BuildFiles(ctx, files, opts)
		outcomeCh <- buildOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
