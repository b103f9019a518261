package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/movie-search/internal/tui"
	"github.com/Sternrassler/movie-search/pkg/logging"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive terminal UI",
		Long: `Launch the interactive search UI.

The last submitted search is restored on start. Logs go to LOG_FILE
because the UI owns the terminal.

Controls:
  /        - Focus the search input
  Enter    - Search
  Esc      - Leave the input
  ↑/k, ↓/j - Move through results (more load at the bottom)
  q        - Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logPath, err := cfg.LogFilePath()
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := setupLogging(cfg, logFile)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.New(ctx, a.store, a.coord, tui.Options{ImageBase: cfg.ImageBase()})
	defer model.Close()

	logger.Info().Str("state_backend", cfg.StateBackend).Msg("Starting interactive UI")

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
