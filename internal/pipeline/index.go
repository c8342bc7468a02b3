package pipeline

import (
	"strconv"
	"strings"

	"chainlist/internal"
	"chainlist/internal/util"
)

// Index groups entries by id and by name. Duplicates are kept side by side.
type Index struct {
	ByID   map[int64][]internal.ChainEntry
	ByName map[string][]internal.ChainEntry
}

func BuildIndex(entries []internal.ChainEntry) *Index {
	idx := &Index{
		ByID:   map[int64][]internal.ChainEntry{},
		ByName: map[string][]internal.ChainEntry{},
	}
	for _, e := range entries {
		if id, ok := e.ID.Int64(); ok {
			idx.ByID[id] = append(idx.ByID[id], e)
		}
		idx.ByName[e.Name] = append(idx.ByName[e.Name], e)
	}
	return idx
}

// Lookup treats an integer query as a chain id and anything else as a
// chain name, normalized the same way entry names are.
func (idx *Index) Lookup(query string) []internal.ChainEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		return idx.ByID[id]
	}
	return idx.ByName[NormalizeName(util.StringPtr(query))]
}
