package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/repx/internal/shared"
	"github.com/desertthunder/repx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive workout screen.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.workouts(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Logging)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.LogLevel())
	r.logCloser = closer
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, ui.Options{
		RestExtension: r.config.Workout.RestExtensionSeconds,
		Logger:        shared.WithLogger(fileLogger, "component", "ui"),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
