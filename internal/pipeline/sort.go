package pipeline

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"chainlist/internal"
)

type SortOrder string

const (
	SortNone   SortOrder = "none"
	SortByID   SortOrder = "id"
	SortByName SortOrder = "name"
)

func ParseSortOrder(value string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(value))); order {
	case "", SortNone:
		return SortNone, nil
	case SortByID, SortByName:
		return order, nil
	default:
		return "", fmt.Errorf("unsupported sort order: %s", value)
	}
}

// SortEntries returns a sorted copy. Entries without an integer id sort
// after numeric ones under SortByID.
func SortEntries(entries []internal.ChainEntry, order SortOrder) []internal.ChainEntry {
	out := slices.Clone(entries)
	switch order {
	case SortByID:
		slices.SortStableFunc(out, func(a, b internal.ChainEntry) int {
			if c := compareIDs(a.ID, b.ID); c != 0 {
				return c
			}
			return strings.Compare(a.Name, b.Name)
		})
	case SortByName:
		slices.SortStableFunc(out, func(a, b internal.ChainEntry) int {
			if c := strings.Compare(a.Name, b.Name); c != 0 {
				return c
			}
			return compareIDs(a.ID, b.ID)
		})
	}
	return out
}

func compareIDs(a, b internal.ChainID) int {
	av, aok := a.Int64()
	bv, bok := b.Int64()
	switch {
	case aok && bok:
		return cmp.Compare(av, bv)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return strings.Compare(a.String(), b.String())
	}
}
