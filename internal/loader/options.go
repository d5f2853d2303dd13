package loader

import (
	"log/slog"

	"loyaltycli/internal/charset"
	"loyaltycli/internal/config"
	apperrors "loyaltycli/internal/errors"
)

// Settings are the loader options resolved from configuration.
type Settings struct {
	Roster            RosterOptions
	GoalsEncodings    []charset.Encoding
	ShippingEncodings []charset.Encoding
}

// SettingsFromConfig parses the configured encodings and policies.
func SettingsFromConfig(cfg config.LoaderConfig) (Settings, error) {
	var s Settings
	var err error

	if s.Roster.Encodings, err = charset.ParseList(cfg.RosterEncodings); err != nil {
		return s, apperrors.NewConfigError("loader.roster_encodings", err)
	}
	if s.GoalsEncodings, err = charset.ParseList(cfg.GoalsEncodings); err != nil {
		return s, apperrors.NewConfigError("loader.goals_encodings", err)
	}
	if s.ShippingEncodings, err = charset.ParseList(cfg.ShippingEncodings); err != nil {
		return s, apperrors.NewConfigError("loader.shipping_encodings", err)
	}
	if s.Roster.Activity, err = ParseActivityPolicy(cfg.ActivityPolicy); err != nil {
		return s, apperrors.NewConfigError("loader.activity_policy", err)
	}
	if s.Roster.Access, err = ParseAccessPolicy(cfg.AccessPolicy); err != nil {
		return s, apperrors.NewConfigError("loader.access_policy", err)
	}
	s.Roster.OverrideProfile = cfg.OverrideProfile
	return s, nil
}

// NewFor returns the loader of the named export: "roster", "goals" or
// "shipping". The goals loader gets no roster to compare against.
func (s Settings) NewFor(source string, logger *slog.Logger) (*Loader, error) {
	switch source {
	case "roster":
		return NewRoster(s.Roster, logger)
	case "goals":
		return NewGoals(GoalsOptions{Encodings: s.GoalsEncodings}, logger), nil
	case "shipping":
		return NewShipping(s.ShippingEncodings, logger), nil
	default:
		return nil, apperrors.NewAppValidationError("unknown source " + source)
	}
}
