// Package format holds the pure numbering helpers for fiscal documents.
package format

import "strings"

// Fixed-width contract of the consuming schema. The numeric code (cNF) and
// the number segment of the lookup key are padded to different widths; the
// human-readable number (nNF) is never padded.
const (
	NumericCodeWidth = 8
	KeyNumberWidth   = 9
	KeyPrefix        = "NFe"
)

// NumericCode zero-pads the document number to the cNF width.
//
// This function is PURE: no side effects, fully deterministic.
func NumericCode(number string) string {
	return pad(number, NumericCodeWidth)
}

// DocumentKey builds the document lookup key from the issuer tax id and the
// document number. Check-digit validation of the full key is delegated to
// the transmission component.
func DocumentKey(issuerTaxID, number string) string {
	return KeyPrefix + Digits(issuerTaxID) + pad(number, KeyNumberWidth)
}

// Digits strips every non-numeric character.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func pad(number string, width int) string {
	number = strings.TrimSpace(number)
	if number == "" {
		number = "1"
	}
	if len(number) >= width {
		return number
	}
	return strings.Repeat("0", width-len(number)) + number
}
