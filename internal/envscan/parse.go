package envscan

import "strings"

// ParseLine extracts a KEY=VALUE assignment from a single line.
// The line is trimmed of surrounding whitespace (including its terminator)
// and split on the first '='. Lines without '=' report ok=false.
func ParseLine(line string) (key, value string, ok bool) {
	if !strings.Contains(line, "=") {
		return "", "", false
	}
	key, value, _ = strings.Cut(strings.TrimSpace(line), "=")
	return key, value, true
}

// splitLines breaks text into lines, treating \r\n, \r and \n as terminators.
// A trailing terminator does not produce an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
