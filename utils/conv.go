package utils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BytesToString converts wire bytes to a Go string, replacing invalid
// UTF-8 sequences with U+FFFD.
func BytesToString(bs []byte) string {
	if utf8.Valid(bs) {
		return string(bs)
	}
	s, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), bs)
	if err != nil {
		return strings.ToValidUTF8(string(bs), "�")
	}
	return string(s)
}

// FormatBytes renders b as space separated hex, truncated to limit bytes.
func FormatBytes(b []byte, limit int) string {
	const hex = "0123456789ABCDEF"
	n := len(b)
	if limit > 0 && n > limit {
		n = limit
	}
	var sb strings.Builder
	sb.Grow(n * 3)
	for i := 0; i < n; i++ {
		if i != 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(hex[b[i]>>4])
		sb.WriteByte(hex[b[i]&0xF])
	}
	if n < len(b) {
		sb.WriteString(" ...")
	}
	return sb.String()
}
