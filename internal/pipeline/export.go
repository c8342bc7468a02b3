package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"chainlist/internal"
)

// WriteLines writes lines to path in order, replacing any previous content.
func WriteLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func ExportEntriesToXLSX(entries []internal.ChainEntry, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"name", "chain_id"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, entry := range entries {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, entry.Name)
		set(2, chainIDCell(entry.ID))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func chainIDCell(id internal.ChainID) any {
	if id.IsAbsent() {
		return ""
	}
	if v, ok := id.Int64(); ok {
		return v
	}
	return id.String()
}
