package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) (dataDir, resultPath string) {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)

	local := filepath.Join(root, "sources", "chains")
	dataDir = filepath.Join(local, "_data", "chains")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"eip155-1.json":   `{"chainId":1,"name":"Ethereum Mainnet"}`,
		"eip155-137.json": `{"chainId":137,"name":"Polygon Mainnet"}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	resultPath = filepath.Join(root, "result.txt")
	t.Setenv("CHAINS_LOCAL_PATH", local)
	t.Setenv("RESULT_PATH", resultPath)
	t.Setenv("DB_PATH", filepath.Join(root, "data", "chainlist.db"))
	t.Setenv("OUTPUT_DIR", filepath.Join(root, "out"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SORT_ORDER", "none")
	return dataDir, resultPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	defer a.close()

	var out bytes.Buffer
	root := newRootCommand(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExtractLookupExport(t *testing.T) {
	_, resultPath := setupEnv(t)

	out, err := execute(t, "chains:extract", "--sort", "name")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "extract done run=1 entries=2") {
		t.Fatalf("out=%q", out)
	}
	got, err := os.ReadFile(resultPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ETHEREUM_MAINNET = 1\nPOLYGON_MAINNET = 137\n" {
		t.Fatalf("result.txt=%q", got)
	}

	out, err = execute(t, "chains:lookup", "polygon mainnet")
	if err != nil {
		t.Fatal(err)
	}
	if out != "POLYGON_MAINNET = 137\n" {
		t.Fatalf("lookup=%q", out)
	}
	if _, err := execute(t, "chains:lookup", "999"); err == nil {
		t.Fatal("expected no-match error")
	}

	out, err = execute(t, "runs:list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "run=1 entries=2 revision=-") {
		t.Fatalf("runs=%q", out)
	}

	xlsx := filepath.Join(t.TempDir(), "chains.xlsx")
	if _, err := execute(t, "export:xlsx", "--out", xlsx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(xlsx); err != nil {
		t.Fatal(err)
	}
}

func TestExtractCustomOut(t *testing.T) {
	dataDir, _ := setupEnv(t)
	out := filepath.Join(t.TempDir(), "custom", "chains.txt")
	if _, err := execute(t, "chains:extract", "--dir", dataDir, "--out", out, "--sort", "id"); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ETHEREUM_MAINNET = 1\nPOLYGON_MAINNET = 137\n" {
		t.Fatalf("got %q", got)
	}
}

func TestExportRequiresOut(t *testing.T) {
	setupEnv(t)
	if _, err := execute(t, "export:xlsx"); err == nil || !strings.Contains(err.Error(), "--out") {
		t.Fatalf("err=%v", err)
	}
}

func TestInvalidSortOrder(t *testing.T) {
	setupEnv(t)
	t.Setenv("SORT_ORDER", "random")
	if _, err := execute(t, "chains:extract"); err == nil {
		t.Fatal("expected config validation error")
	}
}
