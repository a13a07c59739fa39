package envscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"KEY=VAL=UE", "KEY", "VAL=UE", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"[section]", "", "", false},
		{"EMPTY=", "EMPTY", "", true},
		{"  PADDED = value  \n", "PADDED ", " value", true},
		{"TOKEN=abc\r\n", "TOKEN", "abc", true},
		{"export API_KEY=xyz", "export API_KEY", "xyz", true},
		{"=orphan", "", "orphan", true},
	}
	for _, tt := range tests {
		key, value, ok := ParseLine(tt.line)
		require.Equal(t, tt.ok, ok, tt.line)
		require.Equal(t, tt.key, key, tt.line)
		require.Equal(t, tt.value, value, tt.line)
	}
}

func TestSplitLines(t *testing.T) {
	require.Nil(t, splitLines(""))
	require.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	require.Equal(t, []string{"a", "b", "c"}, splitLines("a\r\nb\rc"))
	require.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
}
