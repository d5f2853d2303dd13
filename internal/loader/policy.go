package loader

import (
	"fmt"
	"strings"
)

// ActivityPolicy decides how the roster's winner label is derived.
type ActivityPolicy int

const (
	activityUnset ActivityPolicy = iota
	// ActivityByValue labels a user a winner unless the total earned is exactly zero.
	ActivityByValue
	// ActivityProfileOverride is ActivityByValue, except that every user of
	// the override profile is labelled as not a winner.
	ActivityProfileOverride
)

func (p ActivityPolicy) String() string {
	switch p {
	case ActivityByValue:
		return "by-value"
	case ActivityProfileOverride:
		return "profile-override"
	default:
		return "unset"
	}
}

// ParseActivityPolicy parses "by-value" or "profile-override".
func ParseActivityPolicy(s string) (ActivityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "by-value":
		return ActivityByValue, nil
	case "profile-override":
		return ActivityProfileOverride, nil
	default:
		return activityUnset, fmt.Errorf("unknown activity policy %q", s)
	}
}

// AccessPolicy decides what an absent last-access timestamp means.
type AccessPolicy int

const (
	accessUnset AccessPolicy = iota
	// AccessNullMeansNoAccess labels users without a last access as not accessed.
	AccessNullMeansNoAccess
	// AccessNullMeansAccess labels every user as accessed, with or without
	// a recorded last access.
	AccessNullMeansAccess
)

func (p AccessPolicy) String() string {
	switch p {
	case AccessNullMeansNoAccess:
		return "null-means-no-access"
	case AccessNullMeansAccess:
		return "null-means-access"
	default:
		return "unset"
	}
}

// ParseAccessPolicy parses "null-means-no-access" or "null-means-access".
func ParseAccessPolicy(s string) (AccessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null-means-no-access":
		return AccessNullMeansNoAccess, nil
	case "null-means-access":
		return AccessNullMeansAccess, nil
	default:
		return accessUnset, fmt.Errorf("unknown access policy %q", s)
	}
}
