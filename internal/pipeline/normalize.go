package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"chainlist/internal"
)

// NullName labels entries whose descriptor has no usable name.
const NullName = "null"

var separatorReplacer = strings.NewReplacer(" ", "_", "-", "_")

// NormalizeName upper-cases raw and turns spaces and hyphens into
// underscores. Nil and empty names become NullName.
func NormalizeName(raw *string) string {
	if raw == nil || *raw == "" {
		return NullName
	}
	// Casers are stateful; one per call keeps this safe across goroutines.
	upper := cases.Upper(language.Und).String(*raw)
	return separatorReplacer.Replace(upper)
}

// NewEntry converts a parsed descriptor into its output pair.
func NewEntry(d internal.Descriptor) internal.ChainEntry {
	return internal.ChainEntry{
		Name: NormalizeName(d.Name),
		ID:   d.ChainID,
	}
}
