package loader

import (
	"log/slog"

	"loyaltycli/internal/charset"
	"loyaltycli/pkg/contracts/domain"
)

// ShippingSource describes the redemption shipping list. The product price
// arrives as "$19.99".
func ShippingSource(encodings []charset.Encoding, layouts []string) Source {
	if len(encodings) == 0 {
		encodings = []charset.Encoding{charset.UTF8}
	}
	return Source{
		Name:          "shipping",
		Encodings:     encodings,
		MissingTokens: domain.ShippingMissingTokens,
		Text:          domain.ShippingTextColumns,
		Floats:        domain.ShippingFloatColumns,
		Dates:         domain.ShippingDateColumns,
		Decorations:   map[string]string{domain.ColProductPrice: "$"},
		DateLayouts:   layouts,
	}
}

// NewShipping returns a loader for the shipping list. It derives no columns.
func NewShipping(encodings []charset.Encoding, logger *slog.Logger) *Loader {
	return newLoader(ShippingSource(encodings, nil), nil, logger)
}
