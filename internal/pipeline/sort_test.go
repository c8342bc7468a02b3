package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"chainlist/internal"
)

func TestSortEntries(t *testing.T) {
	entries := []internal.ChainEntry{
		{Name: "POLYGON", ID: internal.IntChainID(137)},
		{Name: "null"},
		{Name: "ETHEREUM", ID: internal.IntChainID(1)},
		{Name: "WEIRD", ID: internal.NewChainID(json.RawMessage(`"x"`))},
		{Name: "BSC", ID: internal.IntChainID(56)},
		{Name: "ALSO_ONE", ID: internal.IntChainID(1)},
	}

	cases := []struct {
		order SortOrder
		want  string
	}{
		{order: SortNone, want: "POLYGON,null,ETHEREUM,WEIRD,BSC,ALSO_ONE"},
		{order: SortByID, want: "ALSO_ONE,ETHEREUM,BSC,POLYGON,null,WEIRD"},
		{order: SortByName, want: "ALSO_ONE,BSC,ETHEREUM,POLYGON,WEIRD,null"},
	}

	for _, tc := range cases {
		t.Run(string(tc.order), func(t *testing.T) {
			sorted := SortEntries(entries, tc.order)
			names := make([]string, 0, len(sorted))
			for _, e := range sorted {
				names = append(names, e.Name)
			}
			if got := strings.Join(names, ","); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}

	if entries[0].Name != "POLYGON" {
		t.Fatal("input slice was reordered")
	}
}

func TestParseSortOrder(t *testing.T) {
	for input, want := range map[string]SortOrder{"": SortNone, "none": SortNone, " ID ": SortByID, "name": SortByName} {
		got, err := ParseSortOrder(input)
		if err != nil || got != want {
			t.Fatalf("ParseSortOrder(%q)=%q,%v", input, got, err)
		}
	}
	if _, err := ParseSortOrder("chaos"); err == nil {
		t.Fatal("expected error")
	}
}
