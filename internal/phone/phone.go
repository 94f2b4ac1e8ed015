// Package phone normalizes US phone numbers for the CRM and voice backends.
package phone

import (
	"fmt"
	"strings"
)

// Digits10 strips all non-digit characters and returns exactly ten digits.
// A leading country code 1 (eleven digits total) is accepted and removed, so
// the function is idempotent over its own output.
func Digits10(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", fmt.Errorf("phone number must be 10 digits, got %q", raw)
	}
	return digits, nil
}

// E164US normalizes raw input to the +1XXXXXXXXXX form used for CRM lookups.
func E164US(raw string) (string, error) {
	digits, err := Digits10(raw)
	if err != nil {
		return "", err
	}
	return "+1" + digits, nil
}
