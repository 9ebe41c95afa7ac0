package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lettervoice/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			missingRequired := false
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
				kind := statusOK
				message := status.Command
				if !status.Available {
					message = status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						missingRequired = true
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}
			if cfg.Playback.Enabled {
				ffplay := deps.ResolveFFplay(cfg.Capture.FFmpegBinary, cfg.Playback.FFplayBinary)
				kind := statusOK
				if !ffplay.Available {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Playback uses", kind, ffplay.Command, colorize))
			}
			if missingRequired {
				return errors.New("required dependencies are missing")
			}
			return nil
		},
	}
}
