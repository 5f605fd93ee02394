// Package output provides output formatting for cachemesh-cli.
package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Table is row/column data ready for tabular rendering.
type Table struct {
	Headers []string
	Rows    [][]string
}

// TableFormatter renders Table data with aligned columns. Non-table data
// falls back to Go formatting.
type TableFormatter struct{}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	table, ok := data.(Table)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, header := range table.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, header)
	}
	fmt.Fprintln(tw)

	for _, row := range table.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
