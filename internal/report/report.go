// Package report renders schemas and query results for humans.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/maruel/jsondb/internal/jsondb"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Schema writes the columns of the named table: serial number, name and
// type tag, in schema order.
func Schema(w io.Writer, name string, s jsondb.Schema) error {
	t := newTable("SNO", "Column Name", "Data Type")
	for i, c := range s.Columns() {
		t.Row(strconv.Itoa(i+1), c.Name, c.Type.String())
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render("Table: "+name), t.Render())
	return err
}

// Records writes query results as a table followed by the row count.
//
// The columns of the first record are used as headers.
func Records(w io.Writer, records []jsondb.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}
	t := newTable(records[0].Columns()...)
	for _, r := range records {
		values := r.Values()
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = v.String()
		}
		t.Row(cells...)
	}
	suffix := "s"
	if len(records) == 1 {
		suffix = ""
	}
	_, err := fmt.Fprintf(w, "%s\n(%d row%s)\n", t.Render(), len(records), suffix)
	return err
}

// YAML writes query results as a YAML sequence of mappings, keeping column
// order.
func YAML(w io.Writer, records []jsondb.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if records == nil {
		records = []jsondb.Record{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return enc.Close()
}
