package pipeline

import "chainlist/internal"

func FormatLine(entry internal.ChainEntry) string {
	return entry.Name + " = " + entry.ID.String() + "\n"
}

func FormatLines(entries []internal.ChainEntry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FormatLine(entry))
	}
	return out
}
