// Package normalize contains the pure field coercions applied to raw source
// records before publication. Every function is total: bad input yields a
// sentinel or a fallback value, never an error.
package normalize

import (
	"regexp"
	"strings"
	"time"
)

// Canonical status values. Anything unrecognized coerces to StatusActive so
// a garbled status cannot surface as a more alarming state than it is.
const (
	StatusActive  = "Active"
	StatusExpired = "Expired"
	StatusRevoked = "Revoked"
)

// Canonical entity types. Anything unrecognized coerces to EntityTypeOther.
const (
	EntityTypeTrust        = "Trust"
	EntityTypeCorporation  = "Corporation"
	EntityTypeNGO          = "NGO"
	EntityTypePublicEntity = "Public Entity"
	EntityTypeSPV          = "SPV"
	EntityTypeOther        = "Other"
)

var canonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// dateLayouts are tried in order for inputs that are not already canonical.
// Upstream columns have carried RFC 3339 timestamps, bare timestamps, and
// US-locale strings at various points.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Date canonicalizes a date value to YYYY-MM-DD. Values already in canonical
// form pass through unchanged; anything else goes through a general parse and
// comes back as the UTC calendar date. The second return is false when no
// valid date could be extracted.
func Date(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if canonicalDate.MatchString(value) {
		return value, true
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC().Format("2006-01-02"), true
		}
	}
	return "", false
}

// Status coerces a raw status into the closed set {Active, Expired, Revoked}.
// Matching is case-insensitive on the trimmed input; unrecognized and empty
// values default to Active.
func Status(value string) string {
	value = strings.TrimSpace(value)
	for _, s := range []string{StatusActive, StatusExpired, StatusRevoked} {
		if strings.EqualFold(value, s) {
			return s
		}
	}
	return StatusActive
}

// EntityType coerces a raw entity type into the closed set of recognized
// types; unrecognized values become Other.
func EntityType(value string) string {
	value = strings.TrimSpace(value)
	types := []string{
		EntityTypeTrust,
		EntityTypeCorporation,
		EntityTypeNGO,
		EntityTypePublicEntity,
		EntityTypeSPV,
		EntityTypeOther,
	}
	for _, t := range types {
		if strings.EqualFold(value, t) {
			return t
		}
	}
	return EntityTypeOther
}

// Clamp trims surrounding whitespace and truncates to max characters. This is
// a rendering width constraint, not a validation gate: over-length values are
// cut, never rejected, and no ellipsis is added.
func Clamp(value string, max int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
