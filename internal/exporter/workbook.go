package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/table"
)

// defaultSheet is the sheet every new excelize workbook starts with.
const defaultSheet = "Sheet1"

// Sheet is one named table of a workbook.
type Sheet struct {
	Name  string
	Table *table.Table
}

// WorkbookWriter writes tables into xlsx workbooks, one sheet per table.
type WorkbookWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer. Relative paths resolve like
// CSVWriter's.
func NewWorkbookWriter(paths *config.Paths, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{paths: paths, logger: infrastructure.WithComponent(logger, "exporter")}
}

// WriteWorkbook replaces the workbook at filePath with sheets, in order, and
// returns the resolved path.
func (w *WorkbookWriter) WriteWorkbook(filePath string, sheets []Sheet) (string, error) {
	if len(sheets) == 0 {
		return "", apperrors.NewAppValidationError("workbook needs at least one sheet")
	}
	fullPath := filePath
	if !filepath.IsAbs(filePath) && w.paths != nil {
		fullPath = w.paths.GetReportPath(filePath)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sh.Name); err != nil {
				return "", apperrors.NewStorageError(fmt.Sprintf("invalid sheet name %q", sh.Name), err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return "", apperrors.NewStorageError(fmt.Sprintf("invalid sheet name %q", sh.Name), err)
		}
		if err := writeSheet(f, sh); err != nil {
			return "", apperrors.NewStorageError(fmt.Sprintf("failed to fill sheet %q", sh.Name), err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(fullPath), config.DirPermissions); err != nil {
		return "", apperrors.NewStorageError("failed to create directory", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to save %s", fullPath), err)
	}

	w.logger.Info("Wrote workbook",
		slog.String("full_path", fullPath),
		slog.Int("sheets", len(sheets)))
	return fullPath, nil
}

func writeSheet(f *excelize.File, sh Sheet) error {
	header := make([]any, 0, sh.Table.Width())
	for _, name := range sh.Table.Names() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
		return err
	}

	cols := sh.Table.Columns()
	for i := 0; i < sh.Table.Len(); i++ {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = c.Values[i]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
