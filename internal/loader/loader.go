// Package loader reads the loyalty program's CSV exports into validated,
// typed tables and derives the business classification columns.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/schema"
	"loyaltycli/internal/table"
)

const tracerName = "loyaltycli/loader"

// deriveFunc adds derived columns to a validated table.
type deriveFunc func(ctx context.Context, t *table.Table) error

// Loader reads one kind of export.
type Loader struct {
	source Source
	derive deriveFunc
	logger *slog.Logger
}

func newLoader(source Source, derive deriveFunc, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source: source,
		derive: derive,
		logger: infrastructure.WithComponent(logger, "loader").With(slog.String("source", source.Name)),
	}
}

// Source returns the description the loader reads with.
func (l *Loader) Source() Source {
	return l.source
}

// Load reads the file at path, validates its column kinds and adds the
// derived columns.
func (l *Loader) Load(ctx context.Context, path string) (*table.Table, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "loader.Load")
	defer span.End()
	span.SetAttributes(attribute.String("loader.source", l.source.Name), attribute.String("loader.path", path))

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = apperrors.NewNotFoundError(path)
		} else {
			err = apperrors.NewStorageError(fmt.Sprintf("read %s", path), err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	t, err := l.LoadBytes(ctx, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		infrastructure.WithError(l.logger, err).ErrorContext(ctx, "load failed", slog.String("path", path))
		return nil, err
	}
	span.SetAttributes(attribute.Int("loader.rows", t.Len()))
	return t, nil
}

// LoadBytes is Load over file contents already in memory.
func (l *Loader) LoadBytes(ctx context.Context, raw []byte) (*table.Table, error) {
	t, enc, err := l.source.Parse(raw)
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx, "decoded export", slog.String("encoding", string(enc)))

	if err := schema.ValidateTable(t, l.source.Schema()); err != nil {
		return nil, apperrors.NewSchemaError(err.Error(), err)
	}
	l.logger.InfoContext(ctx, schema.SuccessMessage, slog.Int("rows", t.Len()), slog.Int("columns", t.Width()))

	if l.derive != nil {
		if err := l.derive(ctx, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}
