package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/djx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive prompt. Also the default when djx is invoked
// with no arguments.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	model := ui.NewModel(ctx, r.orchestrator)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
