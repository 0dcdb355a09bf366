// Package normalize canonicalises raw form values before validation and
// storage. Every function trims surrounding whitespace; the ones that
// lowercase or strip inner spaces say so.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person or place name and collapses runs of inner whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status lowercases a status value ("active", "inactive").
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Gender lowercases a gender value.
func Gender(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// KindOfMember trims the membership kind. Case is preserved so the
// administrators' own labels survive.
func KindOfMember(s string) string {
	return strings.TrimSpace(s)
}

// ZipCode uppercases a postal code and collapses inner whitespace,
// so "1234 ab" and "1234  AB" store the same way.
func ZipCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// IBAN strips all whitespace and uppercases the account identifier.
func IBAN(s string) string {
	return strings.ToUpper(stripSpace(s))
}

// Phone removes spaces, dashes, dots and parentheses, keeping a leading "+".
func Phone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueryParam trims a query-string value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
