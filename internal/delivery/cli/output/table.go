package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

type Table struct {
	table  *tablewriter.Table
	header []string
	footer []string
	rows   [][]string
}

// NewTable creates a borderless, left aligned table on w. Numeric columns
// listed in right are right aligned.
func NewTable(w io.Writer, headers []string, right ...int) *Table {
	perColumn := make([]tw.Align, len(headers))
	for i := range perColumn {
		perColumn[i] = tw.AlignLeft
	}
	for _, col := range right {
		if col >= 0 && col < len(perColumn) {
			perColumn[col] = tw.AlignRight
		}
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					PerColumn: perColumn,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Footer: tw.CellConfig{
				Alignment: tw.CellAlignment{
					PerColumn: perColumn,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &Table{table: table, header: headers}
}

func (t *Table) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *Table) SetFooter(footer ...string) {
	t.footer = footer
}

func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}
	if len(t.footer) > 0 {
		t.table.Footer(t.footer)
	}
	return t.table.Render()
}
