package table

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Render writes the grid as tab-aligned text followed by the range and
// the pages window.
func Render[T Entity](w io.Writer, g *Grid[T], lang string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cols := g.VisibleColumns()
	sort := g.Sort()

	header := make([]string, 0, len(cols)+1)
	header = append(header, " ")
	for _, c := range cols {
		label := c.Label
		if sort.Key == c.Key {
			if sort.Dir == Desc {
				label += " v"
			} else {
				label += " ^"
			}
		}
		header = append(header, label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range g.Rows() {
		cells := make([]string, 0, len(cols)+1)
		mark := " "
		if g.IsSelected(row.RowID()) {
			mark = "*"
		}
		cells = append(cells, mark)
		for _, c := range cols {
			v, _ := row.Field(c.Key)
			cells = append(cells, FormatCell(c.Key, v, lang))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	start, end := g.Range()
	var pages []string
	for _, p := range g.PagesWindow() {
		switch {
		case p.Gap:
			pages = append(pages, "…")
		case p.Page == g.Meta().Page:
			pages = append(pages, "["+strconv.Itoa(p.Page)+"]")
		default:
			pages = append(pages, strconv.Itoa(p.Page))
		}
	}
	_, err := fmt.Fprintf(w, "\n%d-%d / %d    %s\n", start, end, g.Meta().Total, strings.Join(pages, " "))
	return err
}
