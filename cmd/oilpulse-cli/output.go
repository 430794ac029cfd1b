package main

import (
	"fmt"
	"io"
	"strconv"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/domain/repository"
	"OilPulse/internal/services/query"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

func render(table *tablewriter.Table, data [][]string) error {
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// fmtOpt formats an optional statistic; absent values print as "-".
func fmtOpt(v *float64, prec int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func renderSummary(w io.Writer, a *repository.Artifacts) error {
	first, last := "-", "-"
	if b, ok := query.Bounds(a.Prices); ok {
		first, last = b.MinDate.String(), b.MaxDate.String()
	}
	cp := a.Changepoint
	data := [][]string{
		{"prices", strconv.Itoa(len(a.Prices))},
		{"first date", first},
		{"last date", last},
		{"events", strconv.Itoa(len(a.Events))},
		{"event types", strconv.Itoa(len(query.EventTypes(a.Events)))},
		{"change point", cp.ChangePointDate.String()},
		{"uncertainty (days)", strconv.FormatFloat(cp.ChangePointUncertaintyDays, 'f', 1, 64)},
		{"P(mean increase)", strconv.FormatFloat(cp.ProbMeanIncrease, 'f', 3, 64)},
		{"price change %", strconv.FormatFloat(cp.PriceChangePct, 'f', 2, 64)},
	}
	return render(newTable(w, "Artifact", "Value"), data)
}

func renderRegimes(w io.Writer, cmp models.RegimeComparison) error {
	row := func(name string, s models.Stats) []string {
		return []string{
			name,
			strconv.Itoa(s.Count),
			fmtOpt(s.MeanPrice, 2),
			fmtOpt(s.MedianPrice, 2),
			fmtOpt(s.StdPrice, 2),
			fmtOpt(s.MinPrice, 2),
			fmtOpt(s.MaxPrice, 2),
			fmtOpt(s.MeanReturn, 5),
			fmtOpt(s.VolatilityReturn, 5),
		}
	}
	fmt.Fprintf(w, "change point: %s\n", cmp.ChangepointDate)
	table := newTable(w, "Regime", "Count", "Mean", "Median", "Std", "Min", "Max", "Mean Return", "Volatility")
	return render(table, [][]string{row("before", cmp.Before), row("after", cmp.After)})
}

func renderEvents(w io.Writer, rows []models.CorrelatedEvent) error {
	data := make([][]string, 0, len(rows))
	for _, e := range rows {
		data = append(data, []string{
			e.Date.String(),
			strconv.Itoa(e.DaysFromChangepoint),
			e.EventType,
			e.Description,
			e.ExpectedImpact,
		})
	}
	return render(newTable(w, "Date", "Days", "Type", "Description", "Impact"), data)
}

func renderBreakdown(w io.Writer, counts []models.CategoryCount) error {
	data := make([][]string, 0, len(counts))
	for _, c := range counts {
		data = append(data, []string{c.EventType, strconv.Itoa(c.Count)})
	}
	return render(newTable(w, "Type", "Events"), data)
}
