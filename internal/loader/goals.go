package loader

import (
	"context"
	"log/slog"

	"loyaltycli/internal/charset"
	"loyaltycli/internal/crossref"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
	"loyaltycli/pkg/contracts/domain"
)

// GoalsOptions configures the goals/results loader.
type GoalsOptions struct {
	Encodings []charset.Encoding
	// Roster, when set, adds the Participa column: whether the row's user
	// key appears in the roster.
	Roster *table.Table
}

// GoalsSource describes the monthly goals/results export.
func GoalsSource(encodings []charset.Encoding) Source {
	if len(encodings) == 0 {
		encodings = []charset.Encoding{charset.Latin1}
	}
	return Source{
		Name:        "goals",
		Encodings:   encodings,
		Text:        domain.GoalsTextColumns,
		Floats:      domain.GoalsFloatColumns,
		Decorations: map[string]string{domain.ColQuotaPercent: "%"},
	}
}

// NewGoals returns a loader for the goals/results export.
func NewGoals(opts GoalsOptions, logger *slog.Logger) *Loader {
	derive := func(_ context.Context, t *table.Table) error {
		return deriveGoals(t, opts.Roster)
	}
	return newLoader(GoalsSource(opts.Encodings), derive, logger)
}

func deriveGoals(t *table.Table, roster *table.Table) error {
	pct, err := t.Lookup(domain.ColQuotaPercent)
	if err != nil {
		return apperrors.NewSchemaError("goals", err)
	}
	sales, err := t.Lookup(domain.ColAccumulatedSales)
	if err != nil {
		return apperrors.NewSchemaError("goals", err)
	}
	quota, err := t.Lookup(domain.ColQuota)
	if err != nil {
		return apperrors.NewSchemaError("goals", err)
	}

	n := t.Len()
	met := make([]any, n)
	growth := make([]any, n)
	for i := 0; i < n; i++ {
		met[i] = domain.LabelGoalNotMet
		if p, ok := pct.Values[i].(float64); ok && p >= domain.QuotaAchievedThreshold {
			met[i] = domain.LabelGoalMet
		}
		s, sok := sales.Values[i].(float64)
		q, qok := quota.Values[i].(float64)
		if sok && qok {
			growth[i] = s - q
		}
	}
	if err := t.Set(table.NewColumn(domain.ColGoalMet, table.KindText, met)); err != nil {
		return err
	}
	if err := t.Set(table.NewColumn(domain.ColGrowthOverQuota, table.KindFloat, growth)); err != nil {
		return err
	}

	if roster == nil {
		return nil
	}
	membership, err := crossref.Compare(t, domain.ColUserKey, roster, domain.ColUserKey)
	if err != nil {
		return err
	}
	participates, err := membership.Column(t, domain.ColUserKey, domain.ColParticipates)
	if err != nil {
		return apperrors.NewSchemaError("goals", err)
	}
	return t.Set(participates)
}
