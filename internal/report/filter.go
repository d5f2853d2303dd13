package report

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
)

// Skipped records a predicate that could not be applied and why.
type Skipped struct {
	Predicate Predicate
	Reason    string
}

// FilterAll keeps the rows matching every predicate. Each applicable
// predicate narrows an all-true mask, so with no predicates every row is
// kept. Predicates naming a missing column or holding an incompatible value
// are skipped with a warning.
func (k *Toolkit) FilterAll(ctx context.Context, t *table.Table, preds ...Predicate) (*table.Table, []Skipped) {
	mask := make([]bool, t.Len())
	for i := range mask {
		mask[i] = true
	}
	skipped := k.apply(ctx, t, preds, func(i int, match bool) {
		mask[i] = mask[i] && match
	})
	return t.Mask(mask), skipped
}

// FilterAny keeps the rows matching at least one predicate. Each applicable
// predicate widens an all-false mask, so with no predicates no row is kept.
func (k *Toolkit) FilterAny(ctx context.Context, t *table.Table, preds ...Predicate) (*table.Table, []Skipped) {
	mask := make([]bool, t.Len())
	skipped := k.apply(ctx, t, preds, func(i int, match bool) {
		mask[i] = mask[i] || match
	})
	return t.Mask(mask), skipped
}

func (k *Toolkit) apply(ctx context.Context, t *table.Table, preds []Predicate, fold func(int, bool)) []Skipped {
	var skipped []Skipped
	for _, p := range preds {
		m, err := evaluate(t, p)
		if err != nil {
			skipped = append(skipped, Skipped{Predicate: p, Reason: err.Error()})
			k.logger.WarnContext(ctx, "predicate skipped",
				slog.String("predicate", p.String()),
				slog.String("reason", err.Error()))
			if k.metrics != nil {
				k.metrics.SkippedPredicates.Add(ctx, 1, metric.WithAttributes(
					attribute.String("column", p.column())))
			}
			continue
		}
		for i, match := range m {
			fold(i, match)
		}
	}
	return skipped
}

// CrossFilter keeps the rows of a whose aKey value appears among the
// non-null bKey values of b.
func (k *Toolkit) CrossFilter(ctx context.Context, a *table.Table, aKey string, b *table.Table, bKey string) (*table.Table, error) {
	ac, err := a.Lookup(aKey)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	bc, err := b.Lookup(bKey)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	keys := make(map[string]struct{}, bc.Len())
	for _, v := range bc.Values {
		if v != nil {
			keys[table.Key(v)] = struct{}{}
		}
	}
	mask := make([]bool, ac.Len())
	for i, v := range ac.Values {
		if v == nil {
			continue
		}
		_, mask[i] = keys[table.Key(v)]
	}

	out := a.Mask(mask)
	k.logger.DebugContext(ctx, "cross filter applied",
		slog.String("key", aKey),
		slog.Int("rows_in", a.Len()),
		slog.Int("rows_out", out.Len()))
	return out, nil
}
