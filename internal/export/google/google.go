// Package google publishes monthly reports to a Google Spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lavagens/internal/core"
	"lavagens/internal/report"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Publisher writes one sheet tab per month inside a single spreadsheet.
type Publisher struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab name without the period suffix (e.g. "Relatorio").
	sheetBase string
}

// NewFromEnv creates a publisher using environment variables and ADC.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS for auth; GOOGLE_SHEET_NAME for the tab
// base name (default "Relatorio").
func NewFromEnv(ctx context.Context) (*Publisher, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	base := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if base == "" {
		base = "Relatorio"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Publisher{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// SheetName returns the tab name used for a given period, e.g. "Relatorio 2026-03".
func (p *Publisher) SheetName(period core.Period) string {
	return fmt.Sprintf("%s %s", p.sheetBase, period)
}

// PublishSummary replaces the period's tab content with the report rows.
// The tab is created on first publish; subsequent publishes overwrite it,
// so republishing the same month is safe.
func (p *Publisher) PublishSummary(ctx context.Context, s core.MonthlySummary) error {
	if p.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetName := p.SheetName(s.Period)

	if err := p.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	clearRng := fmt.Sprintf("%s!A:D", sheetName)
	_, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	values := ReportValues(s)
	rng := fmt.Sprintf("%s!A1:D%d", sheetName, len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err = p.svc.Spreadsheets.Values.Update(p.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Published monthly report",
		"sheet", sheetName,
		"rows", len(values),
		"profit", core.FormatAmount(s.Profit))
	return nil
}

// ensureSheet adds the named tab if the spreadsheet does not have it yet.
func (p *Publisher) ensureSheet(ctx context.Context, sheetName string) error {
	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheetName {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheetName},
			},
		}},
	}
	_, err = p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", sheetName, err)
	}
	slog.InfoContext(ctx, "Created report sheet", "sheet", sheetName)
	return nil
}

// ReportValues converts the CSV report rows into the cell values the
// Sheets API expects. The layout matches the exported CSV exactly.
func ReportValues(s core.MonthlySummary) [][]any {
	rows := report.Rows(s)
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return values
}
