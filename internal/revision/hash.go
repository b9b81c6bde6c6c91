package revision

import "fmt"

// HashLen is the length of a full git commit hash in hex characters.
const HashLen = 40

// ValidHash reports whether s is a full lowercase hex commit hash, the
// only form the revisions table accepts.
func ValidHash(s string) bool {
	if len(s) != HashLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// CheckHash returns an error describing why s is not a valid commit hash.
func CheckHash(s string) error {
	if !ValidHash(s) {
		return fmt.Errorf("invalid git commit hash %q", s)
	}
	return nil
}
