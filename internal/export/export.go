package export

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"lettervoice/internal/catalog"
	"lettervoice/internal/logging"
	"lettervoice/internal/recordings"
	"lettervoice/internal/services"
)

// ErrNothingToExport reports an empty store. The archiver is never called.
var ErrNothingToExport = errors.New("no recordings to export")

// Source lists every captured take.
type Source interface {
	All(ctx context.Context) ([]recordings.Entry, error)
}

// File is one archive entry.
type File struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Archiver packs files into one archive.
type Archiver interface {
	Archive(ctx context.Context, files []File) ([]byte, error)
}

// ZipArchiver builds zip archives with DEFLATE at the configured level.
type ZipArchiver struct {
	// CompressionLevel follows compress/flate: -1 default, 0 store, 1..9.
	CompressionLevel int
}

// Archive builds the zip in memory. Nothing is returned on failure.
func (z ZipArchiver) Archive(ctx context.Context, files []File) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	level := z.CompressionLevel
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			_ = w.Close()
			return nil, err
		}
		name := strings.TrimLeft(path.Clean(filepath.ToSlash(file.Name)), "/")
		if name == "" || name == "." || name == ".." || strings.HasPrefix(name, "../") {
			_ = w.Close()
			return nil, fmt.Errorf("invalid entry name %q", file.Name)
		}
		if _, dup := seen[name]; dup {
			_ = w.Close()
			return nil, fmt.Errorf("duplicate entry %q", name)
		}
		seen[name] = struct{}{}

		method := zip.Deflate
		if level == flate.NoCompression {
			method = zip.Store
		}
		header := &zip.FileHeader{Name: name, Method: method, Modified: file.Modified}
		entry, err := w.CreateHeader(header)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("create entry %q: %w", name, err)
		}
		if _, err := entry.Write(file.Data); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("write entry %q: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Packager resolves captured takes to their download paths and archives them.
type Packager struct {
	source   Source
	lookup   map[string]catalog.Item
	archiver Archiver
	logger   *slog.Logger
}

// NewPackager constructs a packager.
func NewPackager(source Source, lookup map[string]catalog.Item, archiver Archiver, logger *slog.Logger) *Packager {
	return &Packager{
		source:   source,
		lookup:   lookup,
		archiver: archiver,
		logger:   logging.NewComponentLogger(logger, "export"),
	}
}

// ExportAll builds one archive holding every take whose key resolves to an
// item. Unresolvable keys are skipped. An empty store returns
// ErrNothingToExport without calling the archiver.
func (p *Packager) ExportAll(ctx context.Context) ([]byte, int, error) {
	entries, err := p.source.All(ctx)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrExport, "export", "list takes", "", err)
	}
	if len(entries) == 0 {
		return nil, 0, ErrNothingToExport
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		item, ok := p.lookup[entry.RecordingKey]
		if !ok {
			p.logger.Debug("skipping take without catalog item",
				logging.String(logging.FieldRecordingKey, entry.RecordingKey))
			continue
		}
		files = append(files, File{
			Name:     item.DownloadPath,
			Data:     entry.Blob.Data,
			Modified: entry.Blob.CapturedAt,
		})
	}

	data, err := p.archiver.Archive(ctx, files)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrExport, "export", "archive", "", err)
	}
	p.logger.Info("recordings packaged",
		logging.String(logging.FieldEventType, "export_packaged"),
		logging.Int("entries", len(files)),
		logging.Int("bytes", len(data)),
	)
	return data, len(files), nil
}

// WriteArchive writes data to target through a temporary file in the same
// directory, so target is either the complete archive or untouched.
func WriteArchive(target string, data []byte) error {
	return writeAtomic(target, data)
}

// SaveTake writes a single take into dir under the item's download file name
// and returns the written path.
func SaveTake(dir string, item catalog.Item, blob recordings.Blob) (string, error) {
	if len(blob.Data) == 0 {
		return "", ErrNothingToExport
	}
	name := item.DownloadFileName
	if name == "" {
		name = item.Name + ".webm"
	}
	target := filepath.Join(dir, filepath.Base(name))
	if err := writeAtomic(target, blob.Data); err != nil {
		return "", err
	}
	return target, nil
}

func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrExport, "export", "write", "create directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".lettervoice-export-*")
	if err != nil {
		return services.Wrap(services.ErrExport, "export", "write", "create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return services.Wrap(services.ErrExport, "export", "write", "write file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return services.Wrap(services.ErrExport, "export", "write", "sync file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return services.Wrap(services.ErrExport, "export", "write", "close file", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return services.Wrap(services.ErrExport, "export", "write", "set permissions", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return services.Wrap(services.ErrExport, "export", "write", "move file into place", err)
	}
	return nil
}

// ExportAll is the one-shot form of Packager.ExportAll.
func ExportAll(ctx context.Context, source Source, lookup map[string]catalog.Item, archiver Archiver) ([]byte, error) {
	data, _, err := NewPackager(source, lookup, archiver, nil).ExportAll(ctx)
	return data, err
}
