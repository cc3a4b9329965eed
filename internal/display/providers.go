package display

import (
	"fmt"
	"io"

	"github.com/dmagro/hypers-monitor/internal/format"
	"github.com/dmagro/hypers-monitor/internal/provider"
	"github.com/dmagro/hypers-monitor/internal/stats"
)

// ProvidersFormatter formats the provider probe ranking.
type ProvidersFormatter struct {
	Ranked provider.Ranked
}

// Format writes the ranking table and height mismatch warnings to w.
func (f *ProvidersFormatter) Format(w io.Writer) error {
	tbl := newTable(w, "Provider", "Status", "Success", "Avg", "P50", "P95", "Max", "Block", "Lag", "Score")
	for _, h := range f.Ranked {
		tbl.AddRow(
			h.Name,
			format.ColorStatus(h.Status),
			format.ColorSuccess(h.Success, h.Total),
			format.ColorLatency(stats.Mean(h.Latencies)),
			format.ColorLatency(h.Latency.P50),
			format.ColorLatency(h.Latency.P95),
			format.ColorLatency(h.Latency.Max),
			h.BlockHeight,
			format.ColorLag(h.BlockDelta),
			fmt.Sprintf("%.3f", h.Score),
		)
	}
	tbl.Print()
	fmt.Fprintln(w)

	heightGroups := make(map[uint64][]string)
	for _, h := range f.Ranked {
		if h.Success > 0 {
			heightGroups[h.BlockHeight] = append(heightGroups[h.BlockHeight], h.Name)
		}
	}
	if len(heightGroups) > 1 {
		fmt.Fprintln(w, format.Yellow("⚠"), format.Bold("BLOCK HEIGHT MISMATCH DETECTED:"))
		for height, names := range heightGroups {
			fmt.Fprintf(w, "  Height %d  →  %v\n", height, names)
		}
		fmt.Fprintln(w)
	}

	if best, err := f.Ranked.Best(); err == nil {
		fmt.Fprintf(w, "%s Selected %s (%.0f%% success, %dms p95)\n", format.Green("✓"), best.Name, best.SuccessRate(), best.Latency.P95.Milliseconds())
	} else {
		fmt.Fprintf(w, "%s %v\n", format.Red("✗"), err)
	}
	for _, h := range f.Ranked {
		if h.Excluded {
			fmt.Fprintf(w, "  %s %s: %s\n", format.Dim("excluded"), h.Name, h.ExcludeReason)
		}
	}
	return nil
}

// PriceRow is one price source result for PriceFormatter.
type PriceRow struct {
	Source string
	Price  float64
	Err    error
}

// PriceFormatter formats the result of querying each price source.
type PriceFormatter struct {
	Rows []PriceRow
}

func (f *PriceFormatter) Format(w io.Writer) error {
	tbl := newTable(w, "Source", "ETH/USD")
	for _, r := range f.Rows {
		if r.Err != nil {
			tbl.AddRow(r.Source, format.Red(r.Err.Error()))
			continue
		}
		tbl.AddRow(r.Source, format.Green(fmt.Sprintf("$%.2f", r.Price)))
	}
	tbl.Print()
	return nil
}
