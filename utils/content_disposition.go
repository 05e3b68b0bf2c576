package utils

import (
	"path/filepath"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// ContentDisposition builds an RFC 6266 header value with an ASCII fallback
// and an RFC 5987 filename* parameter carrying the UTF-8 name.
func ContentDisposition(disposition string, filename string) string {
	return disposition + `; filename="` + asciiFallback(filename) + `"; filename*=UTF-8''` + EncodeRFC5987(filename)
}

func EncodeRFC5987(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isAttrChar(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[ch>>4])
		b.WriteByte(upperHex[ch&0x0f])
	}
	return b.String()
}

func isAttrChar(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", ch) >= 0
}

func asciiFallback(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if r >= 0x20 && r < 0x7f && r != '"' && r != '\\' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	ext := filepath.Ext(out)
	if strings.Trim(strings.TrimSuffix(out, ext), "_") == "" {
		return "download" + ext
	}
	return out
}
