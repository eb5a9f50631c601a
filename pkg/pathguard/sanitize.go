package pathguard

import (
	"strings"
	"unicode"
)

// FallbackName is used when sanitizing leaves nothing behind.
const FallbackName = "output"

// reservedChars cannot appear in a sanitized name on any supported platform.
const reservedChars = `<>:"/\|?*`

// SanitizeName maps an arbitrary label to a filesystem-safe base name.
//
// Reserved characters and control characters become underscores, leading
// and trailing dots and spaces are stripped, and an empty result becomes
// [FallbackName]. SanitizeName is total and idempotent.
func SanitizeName(raw string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, raw)

	name = strings.Trim(name, ". ")
	if name == "" {
		return FallbackName
	}
	return name
}

// EnsureExtension appends ext to name unless name already ends with ext or
// with one of the accepted alternatives. Comparison ignores case.
func EnsureExtension(name, ext string, accepted ...string) string {
	lower := strings.ToLower(name)
	for _, e := range append([]string{ext}, accepted...) {
		if strings.HasSuffix(lower, strings.ToLower(e)) {
			return name
		}
	}
	return name + ext
}
