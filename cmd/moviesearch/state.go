package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear the saved search",
	}

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved search and result count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			setupLogging(cfg, cmd.ErrOrStderr())

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			snap := store.Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			query := snap.Query.String()
			if query == "" {
				query = "(none)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:  %s\n", cfg.StateBackend)
			fmt.Fprintf(out, "Search:   %s\n", query)
			fmt.Fprintf(out, "Results:  %d\n", len(snap.Results))
			if !snap.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "Updated:  %s\n", snap.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "output state as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved search and results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			setupLogging(cfg, cmd.ErrOrStderr())

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Set(cmd.Context(), ""); err != nil {
				return fmt.Errorf("clear search: %w", err)
			}
			if err := store.RemoveResults(cmd.Context()); err != nil {
				return fmt.Errorf("clear results: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Saved search cleared")
			return nil
		},
	}

	cmd.AddCommand(showCmd, clearCmd)
	return cmd
}
