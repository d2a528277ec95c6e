package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b-harvest/gasp-e2e/internal/output"
	"github.com/b-harvest/gasp-e2e/internal/paths"
)

var logsTail int

func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the end of the CLI log file",
		Long: `Show the last lines of <home>/logs/gasp-e2e.log, written when a command runs
with --log-file (or log_file = true in config.toml).

Examples:
  gasp-e2e logs
  gasp-e2e logs -n 100`,
		Args: cobra.NoArgs,
		RunE: runLogs,
	}

	cmd.Flags().IntVarP(&logsTail, "tail", "n", output.DefaultLogLines,
		"Number of lines to show")
	return cmd
}

func runLogs(cmd *cobra.Command, args []string) error {
	path := paths.LogFilePath(cfg.Home.Value)
	lines, err := output.ReadLastLines(path, logsTail)
	if err != nil {
		return handleCommandError(cmd, err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), map[string]any{"file": path, "lines": lines})
	}
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
