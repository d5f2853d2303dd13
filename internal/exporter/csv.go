package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"loyaltycli/internal/charset"
	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative file paths are
// resolved against the reports directory of paths; a nil paths keeps them
// relative to the working directory.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: infrastructure.WithComponent(logger, "exporter")}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers  []string
	Records  [][]string
	Encoding charset.Encoding
	// BOMPrefix adds a UTF-8 byte order mark for Excel. Ignored for other
	// encodings.
	BOMPrefix bool
}

// WriteCSV replaces the file at filePath with the encoded records and
// returns the resolved path. The file is written next to its destination
// and renamed into place, so a failed write leaves no partial output.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)
	enc := options.Encoding
	if enc == "" {
		enc = charset.UTF8
	}

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.String("encoding", string(enc)),
		slog.Int("record_count", len(options.Records)))

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", apperrors.NewStorageError("failed to write headers", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", apperrors.NewStorageError("failed to flush csv", err)
	}

	encoded, err := enc.Encode(buf.Bytes())
	if err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("cannot encode %s as %s", fullPath, enc), err)
	}
	if options.BOMPrefix && enc == charset.UTF8 {
		encoded = append(append([]byte{}, utf8BOM...), encoded...)
	}

	if err := replaceFile(fullPath, encoded); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to write %s", fullPath), err)
	}
	return fullPath, nil
}

// WriteTable writes t with a header row.
func (w *CSVWriter) WriteTable(filePath string, t *table.Table, enc charset.Encoding, bom bool) (string, error) {
	headers, records := FormatTable(t)
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		Encoding:  enc,
		BOMPrefix: bom,
	})
}

// replaceFile writes data to a temporary file in the destination directory
// and renames it over path.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, config.FilePermissions); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// resolvePath resolves a relative path against the reports directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetReportPath(filePath)
}
