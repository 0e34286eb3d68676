package styled

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewTableWriter returns a new table.Writer with the custom styles for the
// sealite tools.
func NewTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.Style().Color.Footer = text.Colors{text.FgCyan, text.Bold}

	return tw
}

// NewMessageTable returns a single cell table, used for statuses and errors.
func NewMessageTable(header string, message string) table.Writer {
	tw := NewTableWriter()
	tw.AppendHeader(table.Row{header})
	tw.AppendRow(table.Row{message})
	return tw
}
