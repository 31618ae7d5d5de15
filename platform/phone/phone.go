// Package phone normalizes phone numbers to E.164.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed when a number has no country prefix.
const DefaultRegion = "MX"

// NormalizeE164 parses a raw phone number and returns its E.164 form.
// An empty input returns an empty string without error.
func NormalizeE164(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil {
		return "", err
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// IsValid reports whether the raw input parses as a valid number.
func IsValid(raw string) bool {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), DefaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
