package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"stockwatch/internal/market"
	"stockwatch/internal/metrics"
	"stockwatch/internal/pipeline"
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *app) render(report pipeline.Report) {
	w := a.table()
	fmt.Fprintln(w, "SYMBOL\tCOMPANY\tPRICE\tCHANGE\tVOLUME\tTREND")
	for _, vm := range report.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			vm.Symbol,
			vm.CompanyName,
			vm.LatestPriceFormatted,
			arrow(vm.Direction),
			vm.ChangeFormatted,
			vm.VolumeFormatted,
			sparkline(vm.Sparkline))
	}
	w.Flush()

	s := report.Stats
	fmt.Fprintf(a.out, "%d symbols, %d cached, %d fetched, %d failed\n",
		s.Requested, s.CacheHits, s.Fetched, s.Failed)
}

func (a *app) renderSearch(query string, results []market.SearchResult) {
	fmt.Fprintf(a.out, "Results for %q\n", query)
	if len(results) == 0 {
		fmt.Fprintln(a.out, "no matches")
		return
	}
	w := a.table()
	fmt.Fprintln(w, "SYMBOL\tDESCRIPTION\tTYPE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.DisplaySymbol, r.Description, r.Type)
	}
	w.Flush()
}

func (a *app) renderNews(title string, stories []market.NewsStory) {
	fmt.Fprintln(a.out, title)
	w := a.table()
	for _, s := range stories {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Datetime.Format("2006-01-02 15:04"), s.Source, s.Headline)
	}
	w.Flush()
}

func (a *app) renderMetrics(m market.FinancialMetrics) {
	price := func(v float64) string { return a.formatter.FormatPrice(decimal.NewFromFloat(v)) }

	w := a.table()
	fmt.Fprintf(w, "Symbol\t%s\n", m.Symbol)
	fmt.Fprintf(w, "52 Week High\t%s\n", price(m.WeekHigh52))
	fmt.Fprintf(w, "52 Week Low\t%s (%s)\n", price(m.WeekLow52), m.WeekLow52Date)
	fmt.Fprintf(w, "52 Week Return\t%s\n", a.formatter.FormatPercentage(decimal.NewFromFloat(m.PriceReturn52Week).Shift(-2)))
	fmt.Fprintf(w, "10 Day Avg Volume\t%sM\n", price(m.TenDayAverageVolume))
	fmt.Fprintf(w, "Beta\t%s\n", price(m.Beta))
	w.Flush()
}

func arrow(d metrics.Direction) string {
	if d == metrics.Down {
		return "▼"
	}
	return "▲"
}

// sparkline draws values on an eight-level block scale.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkTicks)-1))
		}
		out[i] = sparkTicks[idx]
	}
	return string(out)
}
