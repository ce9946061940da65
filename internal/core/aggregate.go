package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ServiceStat aggregates the washes of one service category within a month.
type ServiceStat struct {
	Service string
	Count   int
	Total   decimal.Decimal
	Color   string
}

// PayerStat aggregates the purchases one partner paid for within a month.
type PayerStat struct {
	Payer string
	Total decimal.Decimal
}

// MonthlySummary is the full month-scoped view of the ledger. It is a pure
// function of the event snapshots and the period; recomputing it on the same
// input yields an identical value, ordering included.
type MonthlySummary struct {
	Period    Period
	Revenue   decimal.Decimal
	Expense   decimal.Decimal
	Profit    decimal.Decimal
	WashCount int

	// ByService is ordered by descending total, ties kept in the order the
	// service first appeared in the wash stream.
	ByService []ServiceStat
	ByPayer   []PayerStat

	// Washes and Purchases keep the stream order of the filtered events;
	// the CSV report depends on it.
	Washes    []WashRecord
	Purchases []PurchaseRecord
}

// Summarize filters both streams to the period and computes sums and
// groupings. An empty month yields zero sums and empty groups, no error.
// Unknown service or category strings aggregate under their own bucket.
func Summarize(washes []WashRecord, purchases []PurchaseRecord, p Period) MonthlySummary {
	s := MonthlySummary{
		Period:  p,
		Revenue: decimal.Zero,
		Expense: decimal.Zero,
	}

	serviceIdx := make(map[string]int)
	for _, w := range washes {
		if !p.Contains(w.OccurredAt) {
			continue
		}
		s.Washes = append(s.Washes, w)
		s.Revenue = s.Revenue.Add(w.Amount)
		s.WashCount++

		i, ok := serviceIdx[w.Service]
		if !ok {
			i = len(s.ByService)
			serviceIdx[w.Service] = i
			s.ByService = append(s.ByService, ServiceStat{
				Service: w.Service,
				Total:   decimal.Zero,
				Color:   ServiceColor(w.Service),
			})
		}
		s.ByService[i].Count++
		s.ByService[i].Total = s.ByService[i].Total.Add(w.Amount)
	}

	payerIdx := make(map[string]int)
	for _, c := range purchases {
		if !p.Contains(c.OccurredAt) {
			continue
		}
		s.Purchases = append(s.Purchases, c)
		s.Expense = s.Expense.Add(c.Amount)

		i, ok := payerIdx[c.Payer]
		if !ok {
			i = len(s.ByPayer)
			payerIdx[c.Payer] = i
			s.ByPayer = append(s.ByPayer, PayerStat{Payer: c.Payer, Total: decimal.Zero})
		}
		s.ByPayer[i].Total = s.ByPayer[i].Total.Add(c.Amount)
	}

	// Descending by total; SliceStable preserves first-seen order on ties.
	sort.SliceStable(s.ByService, func(a, b int) bool {
		return s.ByService[a].Total.GreaterThan(s.ByService[b].Total)
	})

	s.Profit = s.Revenue.Sub(s.Expense)
	return s
}

// serviceColors maps the known wash services to their chart color tags.
var serviceColors = map[string]string{
	"Base Completa":    "#E53935",
	"Premium Completa": "#1E88E5",
	"Banhoca":          "#1A4D4D",
	"Base Interior":    "#EC407A",
	"Base Exterior":    "#FB8C00",
	"Premium Interior": "#9E9E9E",
	"Premium Exterior": "#64B5F6",
}

// ServiceColor returns the color tag for a service. Novel services get the
// neutral tag, never an error.
func ServiceColor(service string) string {
	if c, ok := serviceColors[service]; ok {
		return c
	}
	return "#757575"
}
