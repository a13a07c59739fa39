// Package redact turns configuration values into safe-to-display previews.
//
// A preview keeps the first four characters of the value and appends a fixed
// four-asterisk mask, regardless of the value's real length. Values shorter
// than four characters are shown in full before the mask; this leniency is
// kept on purpose so reports stay comparable with earlier audits.
package redact

// Mask is appended to every non-empty redacted value.
const Mask = "****"

// prefixLen is the number of leading characters kept visible.
const prefixLen = 4

// Value returns the redacted preview of v. Characters are counted as runes.
func Value(v string) string {
	if v == "" {
		return ""
	}
	runes := []rune(v)
	if len(runes) > prefixLen {
		runes = runes[:prefixLen]
	}
	return string(runes) + Mask
}
