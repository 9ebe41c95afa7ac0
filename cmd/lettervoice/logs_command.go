package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lettervoice/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the lettervoice log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			path := filepath.Join(cfg.Paths.LogDir, "lettervoice.log")
			out := cmd.OutOrStdout()
			return logs.Stream(cmd.Context(), path, logs.Options{
				Lines:  lines,
				Follow: follow,
				Filter: filter,
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&filter.SessionID, "session", "", "Only lines for this session ID")
	cmd.Flags().StringVar(&filter.RecordingKey, "key", "", "Only lines for this recording key")
	cmd.Flags().StringVar(&filter.EventType, "event", "", "Only lines with this event type")
	return cmd
}
