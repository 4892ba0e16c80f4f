package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the review screen and blocks until the admin quits or ctx ends.
// It returns the final model so callers can report what was done.
func Run(ctx context.Context, reviewer Reviewer, opts ...Option) (Model, error) {
	if reviewer == nil {
		return Model{}, fmt.Errorf("reviewer is required")
	}

	m := New(ctx, reviewer, opts...)
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if m.config.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(m, programOpts...).Run()
	if err != nil && ctx.Err() == nil {
		return m, fmt.Errorf("review screen failed: %w", err)
	}
	if fm, ok := final.(Model); ok {
		return fm, nil
	}
	return m, nil
}
