package google

import (
	"testing"
	"time"

	"lavagens/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportValuesMatchesCSVLayout(t *testing.T) {
	washes := []core.WashRecord{
		{ID: "wash:1", Wash: core.Wash{
			OccurredAt: time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
			Plate:   "AA-11-BB",
			Service: "Base Completa",
			Amount:  decimal.RequireFromString("25"),
		}},
	}
	purchases := []core.PurchaseRecord{
		{ID: "purchase:1", Purchase: core.Purchase{
			OccurredAt:  time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC),
			Description: "Shampoo",
			Category:    core.CategoryProduct,
			Amount:      decimal.RequireFromString("15"),
		}},
	}
	s := core.Summarize(washes, purchases, core.Period{Year: 2026, Month: time.March})

	values := ReportValues(s)
	require.Len(t, values, 4)

	assert.Equal(t, []any{"Date", "Type", "Description", "Value"}, values[0])
	assert.Equal(t, []any{"05/03/2026", "Revenue", "AA-11-BB (Base Completa)", "25.00"}, values[1])
	assert.Equal(t, []any{"07/03/2026", "Expense", "Shampoo", "-15.00"}, values[2])
	assert.Equal(t, []any{"", "", "", "Profit: 10.00"}, values[3])
}

func TestSheetNameIncludesPeriod(t *testing.T) {
	p := &Publisher{sheetBase: "Relatorio"}
	assert.Equal(t, "Relatorio 2026-03", p.SheetName(core.Period{Year: 2026, Month: time.March}))
}
