package loader

import (
	"context"
	"log/slog"
	"time"

	"loyaltycli/internal/charset"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/table"
	"loyaltycli/pkg/contracts/domain"
)

// RosterOptions configures the roster loader. Both policies must be set.
type RosterOptions struct {
	Encodings       []charset.Encoding
	Activity        ActivityPolicy
	OverrideProfile string
	Access          AccessPolicy
	DateLayouts     []string
}

// RosterSource describes the user roster export.
func RosterSource(encodings []charset.Encoding, layouts []string) Source {
	if len(encodings) == 0 {
		encodings = []charset.Encoding{charset.Latin1}
	}
	return Source{
		Name:          "roster",
		Encodings:     encodings,
		MissingTokens: domain.RosterMissingTokens,
		Text:          domain.RosterTextColumns,
		Floats:        domain.RosterFloatColumns,
		Dates:         domain.RosterDateColumns,
		DateLayouts:   layouts,
	}
}

// NewRoster returns a loader for the user roster.
func NewRoster(opts RosterOptions, logger *slog.Logger) (*Loader, error) {
	if opts.Activity != ActivityByValue && opts.Activity != ActivityProfileOverride {
		return nil, apperrors.NewConfigError("roster loader needs an activity policy", nil)
	}
	if opts.Access != AccessNullMeansNoAccess && opts.Access != AccessNullMeansAccess {
		return nil, apperrors.NewConfigError("roster loader needs an access policy", nil)
	}
	if opts.Activity == ActivityProfileOverride && opts.OverrideProfile == "" {
		opts.OverrideProfile = domain.DefaultWholesaler
	}

	derive := func(_ context.Context, t *table.Table) error {
		return deriveRoster(t, opts)
	}
	return newLoader(RosterSource(opts.Encodings, opts.DateLayouts), derive, logger), nil
}

func deriveRoster(t *table.Table, opts RosterOptions) error {
	earned, err := t.Lookup(domain.ColTotalEarned)
	if err != nil {
		return apperrors.NewSchemaError("roster", err)
	}
	redeemed, err := t.Lookup(domain.ColRedeemed)
	if err != nil {
		return apperrors.NewSchemaError("roster", err)
	}
	lastAccess, err := t.Lookup(domain.ColLastAccess)
	if err != nil {
		return apperrors.NewSchemaError("roster", err)
	}
	birth, err := t.Lookup(domain.ColBirthDate)
	if err != nil {
		return apperrors.NewSchemaError("roster", err)
	}

	var profiles *table.Column
	if opts.Activity == ActivityProfileOverride {
		if profiles, err = t.Lookup(domain.ColProfile); err != nil {
			return apperrors.NewSchemaError("roster", err)
		}
	}

	n := t.Len()
	winner := make([]any, n)
	redemption := make([]any, n)
	access := make([]any, n)
	generation := make([]any, n)

	for i := 0; i < n; i++ {
		winner[i] = domain.LabelWinner
		if earned.Values[i] == 0.0 {
			winner[i] = domain.LabelNotWinner
		}
		if profiles != nil && profiles.Values[i] == opts.OverrideProfile {
			winner[i] = domain.LabelNotWinner
		}

		redemption[i] = domain.LabelRedeemed
		if redeemed.Values[i] == 0.0 {
			redemption[i] = domain.LabelNotRedeemed
		}

		access[i] = domain.LabelNotAccessed
		if lastAccess.Values[i] != nil || opts.Access == AccessNullMeansAccess {
			access[i] = domain.LabelAccessed
		}

		if ts, ok := birth.Values[i].(time.Time); ok {
			if label, ok := generationOf(ts); ok {
				generation[i] = label
			}
		}
	}

	for _, c := range []*table.Column{
		table.NewColumn(domain.ColWinner, table.KindText, winner),
		table.NewColumn(domain.ColHasRedemption, table.KindText, redemption),
		table.NewColumn(domain.ColHasAccess, table.KindText, access),
		table.NewColumn(domain.ColGeneration, table.KindCategory, generation),
	} {
		if err := t.Set(c); err != nil {
			return err
		}
	}
	return nil
}

// generationOf places ts in the right-closed bin (From, To] that holds it.
func generationOf(ts time.Time) (string, bool) {
	for _, b := range domain.GenerationBins {
		if ts.After(b.From) && !ts.After(b.To) {
			return b.Label, true
		}
	}
	return "", false
}
