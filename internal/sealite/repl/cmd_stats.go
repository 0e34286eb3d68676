package repl

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sealite/sealite/internal/styled"
	"github.com/sealite/sealite/internal/util/numutil"
)

const defaultStatsMinutes = 5

func cmdStats(r *Repl, arg string) {
	statsQty := defaultStatsMinutes
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			r.printError(fmt.Errorf("invalid number of minutes %q", arg))
			return
		}
		statsQty = n
	}

	stats := r.DB.Stats()

	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Minute (UTC)", "Reads", "Writes", "Begins", "Commits", "Rollbacks", "Statements"})

	rows := []table.Row{}
	for i, stat := range stats.Minutes {
		if i >= statsQty {
			break
		}

		minute, err := time.Parse(time.RFC3339, stat.Minute)
		if err != nil {
			continue
		}

		rows = append(rows, table.Row{
			minute.Format("2006-01-02 15:04"),
			numutil.IntWithCommas(stat.Read),
			numutil.IntWithCommas(stat.Write),
			numutil.IntWithCommas(stat.Begin),
			numutil.IntWithCommas(stat.Commit),
			numutil.IntWithCommas(stat.Rollback),
			numutil.IntWithCommas(stat.All),
		})
	}
	slices.Reverse(rows)
	tw.AppendRows(rows)

	tw.AppendFooter(table.Row{
		"Total",
		numutil.IntWithCommas(stats.Totals.Read),
		numutil.IntWithCommas(stats.Totals.Write),
		numutil.IntWithCommas(stats.Totals.Begin),
		numutil.IntWithCommas(stats.Totals.Commit),
		numutil.IntWithCommas(stats.Totals.Rollback),
		numutil.IntWithCommas(stats.Totals.All),
	})

	fmt.Fprintln(r.Out, tw.Render())
	styled.DimmedColor().Fprintf(r.Out, "Showing the last %d minutes of stats\n", statsQty)
	styled.DimmedColor().Fprintf(r.Out, "Uptime: %s\n", stats.Uptime.Round(time.Second))
	fmt.Fprintln(r.Out)
}
