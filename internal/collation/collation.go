// Package collation orders user-facing names the way the configured locale
// expects (Danish puts Æ, Ø and Å after Z).
package collation

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// New returns a collator for locale ("da" or "en"). Collators are not safe
// for concurrent use; create one per call site.
func New(locale string) *collate.Collator {
	tag := language.Danish
	if locale == "en" {
		tag = language.English
	}
	return collate.New(tag)
}

// Sort orders s in place.
func Sort(locale string, s []string) {
	New(locale).SortStrings(s)
}
