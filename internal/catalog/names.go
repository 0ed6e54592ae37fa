package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DisplayName trims and collapses internal whitespace.
func DisplayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// LookupKey returns the comparison key for genre, actor and country names:
// whitespace-collapsed, NFC-composed and case-folded. Names that differ only in
// case or surrounding whitespace share a key.
func LookupKey(name string) string {
	display := DisplayName(name)
	if display == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(display))
}
