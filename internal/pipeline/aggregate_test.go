package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap/zaptest"
)

func collectLines(t *testing.T, a *Aggregator, dir string) []string {
	t.Helper()
	entries, err := a.Collect(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	return FormatLines(entries)
}

func TestCollectTwoDescriptors(t *testing.T) {
	dir := writeDescriptors(t, map[string]string{
		"eip155-1.json":  `{"chainId":1,"name":"Ethereum Mainnet"}`,
		"eip155-56.json": `{"chainId":56,"name":"BNB Smart Chain"}`,
	})

	got := collectLines(t, NewAggregator(WithLogger(zaptest.NewLogger(t))), dir)
	want := []string{"ETHEREUM_MAINNET = 1\n", "BNB_SMART_CHAIN = 56\n"}
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectOneEntryPerFile(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 250; i++ {
		content := fmt.Sprintf(`{"chainId":%d,"name":"Chain %d"}`, i, i)
		switch i % 10 {
		case 3:
			content = `{}`
		case 7:
			content = `{"chainId":null}`
		}
		files[fmt.Sprintf("eip155-%d.json", i)] = content
	}
	dir := writeDescriptors(t, files)

	for _, limit := range []int{0, 1, 4, 1000} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			entries, err := NewAggregator(WithConcurrency(limit)).Collect(context.Background(), dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != len(files) {
				t.Fatalf("len=%d want %d", len(entries), len(files))
			}
			for _, e := range entries {
				if e.Name == "" {
					t.Fatal("empty name")
				}
			}
		})
	}
}

func TestCollectIsIdempotent(t *testing.T) {
	dir := writeDescriptors(t, map[string]string{
		"a.json": `{"chainId":10,"name":"OP Mainnet"}`,
		"b.json": `{"chainId":100,"name":"Gnosis"}`,
		"c.json": `{"name":"Nameless-id"}`,
	})
	a := NewAggregator(WithConcurrency(2))

	first := collectLines(t, a, dir)
	second := collectLines(t, a, dir)
	if diff := cmp.Diff(first, second, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}
}

func TestCollectFollowsListingOrder(t *testing.T) {
	dir := writeDescriptors(t, map[string]string{
		"3.json": `{"chainId":3,"name":"c"}`,
		"1.json": `{"chainId":1,"name":"a"}`,
		"2.json": `{"chainId":2,"name":"b"}`,
	})
	got := collectLines(t, NewAggregator(), dir)
	if strings.Join(got, "") != "A = 1\nB = 2\nC = 3\n" {
		t.Fatalf("got %q", got)
	}
}

func TestCollectMissingFields(t *testing.T) {
	dir := writeDescriptors(t, map[string]string{"empty.json": `{}`})
	got := collectLines(t, NewAggregator(), dir)
	if len(got) != 1 || !strings.HasPrefix(got[0], "null = ") {
		t.Fatalf("got %q", got)
	}
}

func TestCollectMalformedFailsBatch(t *testing.T) {
	files := map[string]string{"bad.json": "definitely not json"}
	for i := 0; i < 50; i++ {
		files[fmt.Sprintf("ok-%02d.json", i)] = fmt.Sprintf(`{"chainId":%d,"name":"ok"}`, i)
	}
	dir := writeDescriptors(t, files)

	entries, err := NewAggregator(WithConcurrency(3)).Collect(context.Background(), dir)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if parseErr.Path != filepath.Join(dir, "bad.json") {
		t.Fatalf("path=%s", parseErr.Path)
	}
	if entries != nil {
		t.Fatalf("partial result returned: %d entries", len(entries))
	}
}

func TestCollectUnreadableFileFailsBatch(t *testing.T) {
	dir := writeDescriptors(t, map[string]string{"ok.json": `{}`})
	// A dangling symlink is listed as a file but cannot be read.
	if err := os.Symlink(filepath.Join(dir, "gone.json"), filepath.Join(dir, "link.json")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := NewAggregator().Collect(context.Background(), dir)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "read" {
		t.Fatalf("want read IOError, got %v", err)
	}
}

func TestCollectMissingDirectory(t *testing.T) {
	_, err := NewAggregator().Collect(context.Background(), filepath.Join(t.TempDir(), "missing"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("want IOError, got %v", err)
	}
}

func TestCollectCancelledContext(t *testing.T) {
	dir := writeDescriptors(t, map[string]string{"a.json": `{}`, "b.json": `{}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := NewAggregator().Collect(ctx, dir)
	if !errors.Is(err, context.Canceled) || entries != nil {
		t.Fatalf("entries=%v err=%v", entries, err)
	}
}

func TestCollectEmptyDirectory(t *testing.T) {
	entries, err := NewAggregator().Collect(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("entries=%v", entries)
	}
}
