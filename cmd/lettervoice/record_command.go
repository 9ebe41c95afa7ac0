package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lettervoice/internal/capture"
	"lettervoice/internal/catalog"
	"lettervoice/internal/config"
	"lettervoice/internal/deps"
	"lettervoice/internal/devicemon"
	"lettervoice/internal/export"
	"lettervoice/internal/logging"
	"lettervoice/internal/oplock"
	"lettervoice/internal/playback"
	"lettervoice/internal/recordings"
	"lettervoice/internal/services"
	"lettervoice/internal/session"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var datasetKey string
	var hideExisting bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Start an interactive recording session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}

			lock, err := oplock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			sessionID := uuid.NewString()
			logger, err := ctx.sessionLogger(sessionID)
			if err != nil {
				return err
			}

			datasets, err := ctx.datasets()
			if err != nil {
				return err
			}
			index, _ := ctx.assetIndex(runCtx, datasets, false, logger)

			store, err := recordings.Open(runCtx)
			if err != nil {
				return err
			}
			defer store.Close()

			tempDir, err := os.MkdirTemp("", "lettervoice-playback-*")
			if err != nil {
				return services.Wrap(services.ErrPlayback, "cli", "record", "create playback directory", err)
			}
			defer os.RemoveAll(tempDir)

			if cfg.Playback.Enabled {
				if ffplay := deps.ResolveFFplay(cfg.Capture.FFmpegBinary, cfg.Playback.FFplayBinary); ffplay.Available {
					cfg.Playback.FFplayBinary = ffplay.Command
				} else {
					logging.WarnWithContext(logger, "ffplay not found, takes will not be heard", "playback_unavailable",
						logging.String(logging.FieldErrorHint, "install ffplay or set playback.ffplay_binary"),
						logging.String(logging.FieldImpact, "auto-advance continues without audio"),
					)
					cfg.Playback.Enabled = false
				}
			}
			controller := playback.NewController(store, playback.NewPlayer(cfg), tempDir, logger)
			defer controller.StopPrevious()

			backend := capture.NewFFmpeg(cfg, logger)
			sess, err := session.New(session.Options{
				ID:           sessionID,
				Datasets:     datasets,
				Index:        index,
				Store:        store,
				Devices:      backend,
				Platform:     backend,
				Playback:     controller,
				Logger:       logger,
				DatasetKey:   strings.TrimSpace(datasetKey),
				HideExisting: hideExisting,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := sess.RequestStop(context.WithoutCancel(runCtx)); err != nil {
					logger.Debug("stop on exit failed", logging.Error(err))
				}
			}()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if err := sess.CheckMicrophone(runCtx); err != nil {
				fmt.Fprintln(out, renderStatusLine("Microphone", statusError, services.StatusText(err), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Microphone", statusOK, backend.Binary(), colorize))
			}

			monitor := devicemon.New(logger, func(ctx context.Context, event devicemon.Event) {
				if event.Action != devicemon.ActionAdd || sess.CaptureEnabled() {
					return
				}
				sess.RetryCapture()
				if err := sess.CheckMicrophone(ctx); err == nil {
					fmt.Fprintln(out, renderStatusLine("Microphone", statusOK, "device "+event.Device+" connected", colorize))
				}
			})
			if err := monitor.Start(runCtx); err != nil {
				logger.Debug("device monitor unavailable", logging.Error(err))
			}
			defer monitor.Stop()

			exportPath := cfg.ExportPath()
			if strings.TrimSpace(outPath) != "" {
				if exportPath, err = resolveExportPath(outPath); err != nil {
					return err
				}
			}
			archiver := export.ZipArchiver{CompressionLevel: cfg.Export.CompressionLevel}
			con := &console{
				sess:       sess,
				packager:   export.NewPackager(store, catalog.BuildItemLookup(datasets), archiver, logger),
				exportPath: exportPath,
				takeDir:    filepath.Dir(exportPath),
				in:         cmd.InOrStdin(),
				out:        out,
				colorize:   colorize,
				logger:     logger,
			}
			if err := con.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetKey, "dataset", "d", "", "Dataset to start with")
	cmd.Flags().BoolVar(&hideExisting, "hide-existing", false, "Hide items that already exist on the host")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Export archive path (defaults to paths.export_dir/export.file_name)")
	return cmd
}

func resolveExportPath(value string) (string, error) {
	expanded, err := config.ExpandPath(value)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(expanded), ".zip") {
		return "", services.Wrap(services.ErrValidation, "cli", "record", "--out must name a .zip file", nil)
	}
	return expanded, nil
}
