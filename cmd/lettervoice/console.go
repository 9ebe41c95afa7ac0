package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"lettervoice/internal/export"
	"lettervoice/internal/logging"
	"lettervoice/internal/services"
	"lettervoice/internal/session"
)

const consoleHelp = `Commands:
  r          start or stop recording the current item
  s          stop recording
  p          play the current take
  n / b      next / previous item
  g <n>      go to item n of the list
  d <key>    switch dataset
  h          toggle hiding items that exist on the host
  retry      re-enable capture after a microphone failure
  x          export every take to the archive
  w          save the current take on its own
  l          list items with their status
  ?          show this help
  q          quit`

// console drives a session from line-oriented operator input.
type console struct {
	sess       *session.Session
	packager   *export.Packager
	exportPath string
	takeDir    string
	in         io.Reader
	out        io.Writer
	colorize   bool
	logger     *slog.Logger
}

func (c *console) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(c.out, consoleHelp)
	c.printCurrent(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

// handle executes one command line and reports whether the console should exit.
func (c *console) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		c.printCurrent(ctx)
		return false
	}

	ctx = services.WithRequestID(ctx, uuid.NewString())
	var err error
	showCurrent := true
	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return true
	case "?", "help":
		fmt.Fprintln(c.out, consoleHelp)
		showCurrent = false
	case "r":
		err = c.sess.Toggle(ctx)
	case "s":
		err = c.sess.RequestStop(ctx)
	case "p":
		err = c.sess.PlayCurrent(ctx)
	case "n":
		err = c.sess.Next()
	case "b":
		err = c.sess.Prev()
	case "g":
		err = c.goTo(fields[1:])
	case "d":
		if len(fields) < 2 {
			c.printDatasets()
			showCurrent = false
			break
		}
		err = c.sess.SwitchDataset(fields[1])
	case "h":
		err = c.sess.SetHideExisting(!c.sess.HideExisting())
		if err == nil {
			fmt.Fprintf(c.out, "Hide existing: %s\n", yesNo(c.sess.HideExisting()))
		}
	case "retry":
		c.sess.RetryCapture()
		err = c.sess.CheckMicrophone(ctx)
		if err == nil {
			fmt.Fprintln(c.out, renderStatusLine("Microphone", statusOK, "capture enabled", c.colorize))
		}
	case "x":
		err = c.exportAll(ctx)
		showCurrent = false
	case "w":
		err = c.saveCurrent(ctx)
		showCurrent = false
	case "l":
		err = c.printList(ctx)
		showCurrent = false
	default:
		fmt.Fprintf(c.out, "Unknown command %q (? for help)\n", fields[0])
		showCurrent = false
	}

	if err != nil {
		c.reportError(err)
	}
	if showCurrent {
		c.printCurrent(ctx)
	}
	return false
}

func (c *console) goTo(args []string) error {
	if len(args) == 0 {
		return services.Wrap(services.ErrValidation, "cli", "go to", "item number required", nil)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return services.Wrap(services.ErrValidation, "cli", "go to", fmt.Sprintf("%q is not a number", args[0]), nil)
	}
	return c.sess.GoTo(n - 1)
}

func (c *console) exportAll(ctx context.Context) error {
	ok, err := c.sess.CanExport(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return export.ErrNothingToExport
	}
	data, count, err := c.packager.ExportAll(ctx)
	if err != nil {
		return err
	}
	if err := export.WriteArchive(c.exportPath, data); err != nil {
		return err
	}
	fmt.Fprintln(c.out, renderStatusLine("Export", statusOK,
		fmt.Sprintf("%d takes (%s) written to %s", count, humanize.Bytes(uint64(len(data))), c.exportPath), c.colorize))
	return nil
}

func (c *console) saveCurrent(ctx context.Context) error {
	item, blob, found, err := c.sess.CurrentTake(ctx)
	if err != nil {
		return err
	}
	if !found {
		return export.ErrNothingToExport
	}
	path, err := export.SaveTake(c.takeDir, item, blob)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, renderStatusLine("Saved", statusOK,
		fmt.Sprintf("%s (%s, %s)", path, blob.MIMEType, humanize.Bytes(uint64(len(blob.Data)))), c.colorize))
	return nil
}

func (c *console) printCurrent(ctx context.Context) {
	progress, err := c.sess.ProgressText(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	item, ok := c.sess.CurrentItem()
	if !ok {
		fmt.Fprintf(c.out, "[%s] no items to record (%s)\n", c.sess.DatasetKey(), progress)
		c.printSessionStatus()
		return
	}
	status, err := c.sess.ItemStatus(ctx, item)
	if err != nil {
		c.reportError(err)
		return
	}
	label := fmt.Sprintf("%d/%d %s", c.sess.CurrentIndex()+1, len(c.sess.Items()), item.DisplayName)
	fmt.Fprintln(c.out, renderStatusLine(label, itemStatusKind(status), status+" | "+progress, c.colorize))
	c.printSessionStatus()
}

func (c *console) printSessionStatus() {
	if c.sess.CaptureEnabled() {
		return
	}
	message := c.sess.Status()
	if message == "" {
		message = "capture disabled"
	}
	fmt.Fprintln(c.out, renderStatusLine("Microphone", statusError, message+" (retry to re-enable)", c.colorize))
}

func (c *console) printList(ctx context.Context) error {
	items := c.sess.Items()
	current := c.sess.CurrentIndex()
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		status, err := c.sess.ItemStatus(ctx, item)
		if err != nil {
			return err
		}
		marker := ""
		if i == current {
			marker = ">"
		}
		rows = append(rows, []string{marker, strconv.Itoa(i + 1), item.ListLabel, status})
	}
	progress, err := c.sess.ProgressText(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, tableSpec{
		headers: []string{"", "#", "Item", "Status"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignRight},
		footer:  []string{"", "", c.sess.DatasetKey(), progress},
	}.render())
	return nil
}

func (c *console) printDatasets() {
	for _, ds := range c.sess.Datasets() {
		marker := " "
		if ds.Key == c.sess.DatasetKey() {
			marker = "*"
		}
		fmt.Fprintf(c.out, " %s %-12s %s (%d items)\n", marker, ds.Key, ds.Label, len(ds.Items))
	}
}

func (c *console) reportError(err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintln(c.out, renderStatusLine("Busy", statusWarn, "finish the current recording first", c.colorize))
	case errors.Is(err, session.ErrNoItems):
		fmt.Fprintln(c.out, renderStatusLine("Record", statusWarn, "no items to record", c.colorize))
	case errors.Is(err, session.ErrCaptureDisabled):
		fmt.Fprintln(c.out, renderStatusLine("Microphone", statusError, "capture disabled; type retry", c.colorize))
	case errors.Is(err, export.ErrNothingToExport):
		fmt.Fprintln(c.out, renderStatusLine("Export", statusWarn, "nothing recorded yet", c.colorize))
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNotFound):
		fmt.Fprintln(c.out, renderStatusLine("Input", statusWarn, err.Error(), c.colorize))
	default:
		fmt.Fprintln(c.out, renderStatusLine("Error", statusError, services.StatusText(err), c.colorize))
		c.logger.Debug("console command failed", logging.Error(err))
	}
}
