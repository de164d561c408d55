package batch

import (
	"fmt"
	"io"

	"bankrot-check/internal/record"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes a table of the outcome counts to w.
func (s Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Статус", "Количество"})

	for _, status := range []record.Status{record.StatusFound, record.StatusNotFound, record.StatusError} {
		t.AppendRow(table.Row{status.String(), s.Count(status)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Всего", len(s.Results)})
	if n := s.PersistFailures(); n > 0 {
		t.AppendRow(table.Row{"Не записано", n})
	}
	t.AppendFooter(table.Row{"Время", fmt.Sprintf("%.1fs", s.Duration.Seconds())})

	t.Render()
}
