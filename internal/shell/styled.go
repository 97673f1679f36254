package shell

import (
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newTableWriter returns a table.Writer with the shell styles.
func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	if !color.NoColor {
		tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
		tw.Style().Color.Footer = text.Colors{text.FgCyan, text.Bold}
	}

	return tw
}

// dimmed prints secondary information.
var dimmed = color.RGB(128, 128, 128)

// errColor prints errors.
var errColor = color.New(color.FgRed)
