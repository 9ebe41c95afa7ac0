package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lettervoice/internal/catalog"
	"lettervoice/internal/export"
	"lettervoice/internal/logging"
	"lettervoice/internal/probe"
	"lettervoice/internal/recordings"
	"lettervoice/internal/session"
	"lettervoice/internal/testsupport"
)

func newTestConsole(t *testing.T, input string) (*console, *recordings.Store, *bytes.Buffer) {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithDataset("words", [2]string{"a", "ant"}, [2]string{"b", "bee"}, [2]string{"c", "cat"}),
		testsupport.WithDataset("letters", [2]string{"a", "a"}),
	)
	datasets, err := catalog.BuildDatasets(cfg)
	if err != nil {
		t.Fatalf("build datasets: %v", err)
	}
	store := testsupport.MustOpenRecordings(t)
	logger := logging.NewNop()
	sess, err := session.New(session.Options{
		Datasets: datasets,
		Index:    probe.NewIndex("b/bee.webm"),
		Store:    store,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	out := &bytes.Buffer{}
	exportPath := filepath.Join(cfg.Paths.ExportDir, "sounds.zip")
	return &console{
		sess:       sess,
		packager:   export.NewPackager(store, catalog.BuildItemLookup(datasets), export.ZipArchiver{CompressionLevel: 6}, logger),
		exportPath: exportPath,
		takeDir:    cfg.Paths.ExportDir,
		in:         strings.NewReader(input),
		out:        out,
		logger:     logger,
	}, store, out
}

func putTake(t *testing.T, store *recordings.Store, key string) {
	t.Helper()
	blob := recordings.Blob{MIMEType: "audio/webm", Data: []byte{0x1a, 0x45, 0xdf, 0xa3, 0x01}, CapturedAt: time.Now()}
	if err := store.Put(context.Background(), key, blob); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func TestConsoleNavigation(t *testing.T) {
	t.Parallel()

	con, _, out := newTestConsole(t, "n\nn\nn\nb\ng 1\ng 9\ng x\nd letters\nd\nq\nn\n")
	if err := con.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	requireContains(t, text, "1/3 Ant")
	requireContains(t, text, "2/3 Bee")
	requireContains(t, text, "3/3 Cat")
	requireContains(t, text, "item 9 is out of range (1-3)")
	requireContains(t, text, `"x" is not a number`)
	requireContains(t, text, "1/1 A")
	requireContains(t, text, "* letters")

	if con.sess.DatasetKey() != "letters" {
		t.Fatalf("expected letters dataset after quit, got %s", con.sess.DatasetKey())
	}
	if con.sess.CurrentIndex() != 0 {
		t.Fatalf("expected commands after quit to be ignored, index=%d", con.sess.CurrentIndex())
	}
}

func TestConsoleHideExistingKeepsSelection(t *testing.T) {
	t.Parallel()

	con, _, out := newTestConsole(t, "g 3\nh\nl\nh\n")
	if err := con.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out.String(), "Hide existing: yes")
	requireContains(t, out.String(), "2/2 Cat")
	requireContains(t, out.String(), "Hide existing: no")
	if item, ok := con.sess.CurrentItem(); !ok || item.Name != "cat" {
		t.Fatalf("expected cat to stay selected, got %+v", item)
	}
	if len(con.sess.Items()) != 3 {
		t.Fatalf("expected all items visible again, got %d", len(con.sess.Items()))
	}
}

func TestConsoleRecordWithoutBackendDisablesCapture(t *testing.T) {
	t.Parallel()

	con, _, out := newTestConsole(t, "r\nr\n")
	if err := con.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	requireContains(t, text, "Recording failed!")
	requireContains(t, text, "capture disabled; type retry")
	if con.sess.CaptureEnabled() {
		t.Fatal("expected capture to stay disabled")
	}
	if con.sess.State() != session.StateIdle {
		t.Fatalf("expected idle session, got %s", con.sess.State())
	}
}

func TestConsoleExportAndSaveTake(t *testing.T) {
	t.Parallel()

	con, store, out := newTestConsole(t, "x\nw\n")
	if err := con.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out.String(), "nothing recorded yet")
	if _, err := os.Stat(con.exportPath); !os.IsNotExist(err) {
		t.Fatalf("expected no archive, stat err=%v", err)
	}

	putTake(t, store, "words:a:ant")
	putTake(t, store, "words:c:cat")
	out.Reset()
	con.in = strings.NewReader("l\nx\nw\n")
	if err := con.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	requireContains(t, text, "2 / 3 recorded")
	requireContains(t, text, "2 takes (")
	requireContains(t, text, "written to "+con.exportPath)
	requireContains(t, text, filepath.Join(con.takeDir, "ant.webm")+" (audio/webm, 5 B)")

	reader, err := zip.OpenReader(con.exportPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "a/ant.webm,c/cat.webm" {
		t.Fatalf("unexpected archive entries %v", names)
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	t.Parallel()

	con, _, out := newTestConsole(t, "zz\n?\n")
	if err := con.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out.String(), `Unknown command "zz"`)
	if strings.Count(out.String(), "Commands:") != 2 {
		t.Fatalf("expected help to be printed twice, got:\n%s", out.String())
	}
}

func TestConsoleStopsOnCancel(t *testing.T) {
	t.Parallel()

	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer writer.Close()
	defer reader.Close()

	con, _, _ := newTestConsole(t, "")
	con.in = reader
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- con.run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("console did not stop after cancellation")
	}
}
