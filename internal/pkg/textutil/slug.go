// Package textutil holds the small string helpers shared by the content
// collections: slugs, tag/keyword lists, dates and thumbnail paths.
package textutil

import (
	"strings"
	"unicode"
)

// DefaultSlug is returned when a title reduces to nothing.
const DefaultSlug = "untitled"

// Slugify turns a title or user-entered slug into a URL-safe token made of
// lowercase Latin letters, digits, Thai script, hyphen and underscore.
// The result is never empty and never starts or ends with a hyphen.
func Slugify(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
			continue
		case !slugRune(r):
			continue
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return DefaultSlug
	}
	return b.String()
}

func slugRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		return true
	case r >= 0x0E00 && r <= 0x0E7F:
		return true
	}
	return false
}

// IsSlug reports whether s is already in slug form.
func IsSlug(s string) bool {
	return s != "" && Slugify(s) == s
}
