// Package normalize converts user-supplied identifiers into their canonical
// database form: URL-safe slugs and lower-cased emails and domains.
package normalize

import "strings"

// slugRune reports whether r may appear in a normalized slug.
func slugRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == ':' || r == '_' || r == '-':
		return true
	}
	return false
}

// Slug converts s into a URL-safe slug limited to [a-z0-9:_-].
// Runs of invalid characters collapse into a single dash, and leading or
// trailing dashes are trimmed, including around category separators.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	lastDash := true // suppress a leading dash
	for _, r := range s {
		if !slugRune(r) {
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
			continue
		}
		if r == '-' {
			if lastDash {
				continue
			}
			lastDash = true
		} else {
			lastDash = false
		}
		b.WriteRune(r)
	}

	// Trim dashes at the ends and next to ':'.
	parts := strings.Split(b.String(), ":")
	for i, part := range parts {
		parts[i] = strings.Trim(part, "-")
	}
	return strings.Join(parts, ":")
}

// IsSlug reports whether s is already in normal form.
func IsSlug(s string) bool {
	return s != "" && s == Slug(s)
}

// Lower lower-cases s after trimming surrounding whitespace. Emails and
// wiki domains are stored in this form.
func Lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
