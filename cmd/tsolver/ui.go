package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"tsolver/internal/scenario"
	"tsolver/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

type runOutcome struct {
	results []scenario.FileResult
	err     error
}

// runWithUI runs the files while a progress model renders their events.
func runWithUI(ctx context.Context, title string, files []string, opts scenario.Options) ([]scenario.FileResult, error) {
	events := make(chan scenario.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		runOpts := opts
		runOpts.Progress = scenario.ChannelSink{Ch: events}
		results, err := scenario.RunAll(ctx, files, runOpts)
		outcomeCh <- runOutcome{results: results, err: err}
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
