// Package format renders tabular CLI output.
package format

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// MarkdownTable creates a markdown table from headers and rows.
// Short rows are padded. Pipe characters in cells are escaped.
// Returns an error if headers or rows are empty.
func MarkdownTable(headers []string, rows [][]string) (string, error) {
	if len(headers) == 0 {
		return "", fmt.Errorf("MarkdownTable: headers are empty")
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("MarkdownTable: rows are empty")
	}

	var buf strings.Builder

	buf.WriteString("| ")
	buf.WriteString(strings.Join(headers, " | "))
	buf.WriteString(" |\n")

	buf.WriteString("|")
	for range headers {
		buf.WriteString(" --- |")
	}
	buf.WriteString("\n")

	for _, row := range rows {
		cells := pad(row, len(headers))
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		buf.WriteString("| ")
		buf.WriteString(strings.Join(cells, " | "))
		buf.WriteString(" |\n")
	}

	return buf.String(), nil
}

// Columns formats text in evenly-spaced columns using tabwriter.
// Returns an error if headers or rows are empty.
func Columns(headers []string, rows [][]string) (string, error) {
	if len(headers) == 0 {
		return "", fmt.Errorf("Columns: headers are empty")
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("Columns: rows are empty")
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(pad(row, len(headers)), "\t"))
	}

	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// pad returns a copy of row with at least n cells.
func pad(row []string, n int) []string {
	out := make([]string, len(row), max(n, len(row)))
	copy(out, row)
	for len(out) < n {
		out = append(out, "")
	}
	return out
}
