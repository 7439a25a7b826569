package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"crease/internal/driver"
	"crease/internal/source"
	"crease/internal/ui"
)

type foldOutcome struct {
	fileSet *source.FileSet
	results []driver.FileResult
	err     error
}

func runFoldWithUI(ctx context.Context, title string, paths []string, opts driver.Options) (*source.FileSet, []driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan foldOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Events = events
		fileSet, results, err := driver.FoldPaths(ctx, paths, optsCopy)
		outcomeCh <- foldOutcome{fileSet: fileSet, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fileSet, outcome.results, uiErr
	}
	return outcome.fileSet, outcome.results, outcome.err
}
