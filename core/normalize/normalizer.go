// Package normalize folds text into Unicode compatibility composed form (NFKC),
// so that full-width and half-width variants of the same name compare equal.
package normalize

import "golang.org/x/text/unicode/norm"

// Text returns s in NFKC form.
func Text(s string) string {
	return norm.NFKC.String(s)
}

// Optional normalizes a present value and keeps an absent one absent.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}
