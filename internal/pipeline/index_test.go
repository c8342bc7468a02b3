package pipeline

import (
	"testing"

	"chainlist/internal"
)

func TestIndexLookup(t *testing.T) {
	idx := BuildIndex([]internal.ChainEntry{
		{Name: "ETHEREUM_MAINNET", ID: internal.IntChainID(1)},
		{Name: "BNB_SMART_CHAIN", ID: internal.IntChainID(56)},
		{Name: "BNB_SMART_CHAIN", ID: internal.IntChainID(97)},
		{Name: "null"},
	})

	cases := []struct {
		query string
		want  int
	}{
		{query: "1", want: 1},
		{query: " 56 ", want: 1},
		{query: "BNB Smart Chain", want: 2},
		{query: "bnb-smart-chain", want: 2},
		{query: "999", want: 0},
		{query: "", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			if got := idx.Lookup(tc.query); len(got) != tc.want {
				t.Fatalf("got %d entries want %d", len(got), tc.want)
			}
		})
	}

	if len(idx.ByName["null"]) != 1 || len(idx.ByID) != 3 {
		t.Fatalf("index=%+v", idx)
	}
}
