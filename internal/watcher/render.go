package watcher

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"cardapio/internal/models"
)

// TableRenderer writes the menu as an aligned text table.
type TableRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTableRenderer(out io.Writer) *TableRenderer {
	return &TableRenderer{out: out}
}

func (r *TableRenderer) Render(items []models.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tCATEGORIA\tPRECO\tDESTAQUE")
	for _, item := range items {
		featured := ""
		if item.Featured {
			featured = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n", item.ID, item.Name, item.Category, item.Price, featured)
	}
	fmt.Fprintf(tw, "-- %d itens\n", len(items))
	return tw.Flush()
}
