// Package display contains terminal formatting logic for CLI commands.
//
// Commands should keep parsing and business logic separate from rendering concerns by
// delegating all human-readable output to formatters in this package.
package display

import (
	"io"
	"unicode/utf8"

	"github.com/rodaine/table"

	"github.com/dmagro/hypers-monitor/internal/format"
)

const ClearScreen = "\033[2J\033[H"

// Formatter writes formatted output to a writer.
type Formatter interface {
	Format(w io.Writer) error
}

// Clear writes ANSI clear screen sequence to w.
func Clear(w io.Writer) {
	_, _ = io.WriteString(w, ClearScreen)
}

// newTable returns a table writing to w whose column widths ignore color codes.
func newTable(w io.Writer, columns ...interface{}) table.Table {
	return table.New(columns...).
		WithWriter(w).
		WithHeaderFormatter(format.Header).
		WithWidthFunc(func(s string) int { return utf8.RuneCountInString(format.StripANSI(s)) })
}
