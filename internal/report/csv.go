// Package report serializes a monthly summary into the tabular CSV report
// shared with the owners. The output is a pure function of the summary and
// is byte-reproducible for identical input events.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"lavagens/internal/core"
)

// Header is the CSV header row of the exported report.
const Header = "Date,Type,Description,Value"

const (
	dateFormat  = "02/01/2006"
	typeRevenue = "Revenue"
	typeExpense = "Expense"
)

// Filename returns the export filename for a period, e.g.
// "Relatorio_DLS_2025_03.csv".
func Filename(p core.Period) string {
	return fmt.Sprintf("Relatorio_DLS_%04d_%02d.csv", p.Year, int(p.Month))
}

// Rows returns every report row including the header: one row per wash
// (stream order), one row per purchase (stream order, value negated), then
// the trailing profit row.
func Rows(s core.MonthlySummary) [][]string {
	rows := make([][]string, 0, len(s.Washes)+len(s.Purchases)+2)
	rows = append(rows, strings.Split(Header, ","))
	for _, w := range s.Washes {
		rows = append(rows, washRow(w))
	}
	for _, p := range s.Purchases {
		rows = append(rows, purchaseRow(p))
	}
	rows = append(rows, []string{"", "", "", "Profit: " + core.FormatAmount(s.Profit)})
	return rows
}

// WriteCSV writes the report for s in the order Rows defines.
func WriteCSV(w io.Writer, s core.MonthlySummary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, row := range Rows(s) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Bytes renders the report into memory.
func Bytes(s core.MonthlySummary) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func washRow(w core.WashRecord) []string {
	return []string{
		w.OccurredAt.UTC().Format(dateFormat),
		typeRevenue,
		fmt.Sprintf("%s (%s)", w.Plate, w.Service),
		core.FormatAmount(w.Amount),
	}
}

func purchaseRow(p core.PurchaseRecord) []string {
	return []string{
		p.OccurredAt.UTC().Format(dateFormat),
		typeExpense,
		p.Description,
		"-" + core.FormatAmount(p.Amount),
	}
}
