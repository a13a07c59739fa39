package redact

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short value kept in full", "ab", "ab****"},
		{"exactly four", "abcd", "abcd****"},
		{"long value truncated", "abcdef", "abcd****"},
		{"api key", "sk-12345", "sk-1****"},
		{"multibyte", "пароль123", "паро****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Value(tt.in))
		})
	}
}

func TestValuePrefixAndMask(t *testing.T) {
	for _, s := range []string{"x", "xy", "xyz", "wxyz", "vwxyz", strings.Repeat("s", 64), "a=b=c"} {
		got := Value(s)
		n := utf8.RuneCountInString(s)
		if n > 4 {
			n = 4
		}
		require.True(t, strings.HasSuffix(got, Mask), got)
		require.Equal(t, string([]rune(s)[:n]), strings.TrimSuffix(got, Mask))
		require.Equal(t, n+4, utf8.RuneCountInString(got))
	}
}
