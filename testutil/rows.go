package testutil

import (
	"sort"
	"strings"

	"github.com/tardisdb/tardis/sql"
)

// FormatRow renders a tuple the way the print sink does.
func FormatRow(tuple []sql.Value) string {
	fields := make([]string, len(tuple))
	for i, v := range tuple {
		fields[i] = sql.FormatRaw(v)
	}
	return strings.Join(fields, "|")
}

// SortLines sorts a copy of lines for order-insensitive comparison.
func SortLines(lines []string) []string {
	sorted := make([]string, len(lines))
	copy(sorted, lines)
	sort.Strings(sorted)
	return sorted
}

// FormatRows renders and sorts tuples for order-insensitive comparison.
func FormatRows(rows [][]sql.Value) []string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = FormatRow(row)
	}
	sort.Strings(lines)
	return lines
}
