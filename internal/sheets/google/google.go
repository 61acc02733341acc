package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"budget/internal/analytics"
	"budget/internal/core"
	ports "budget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Budget"

// Client writes one row per month to a summary sheet. Rows are keyed by the
// period in column A, so exporting a month again overwrites its row.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Serializes the read-then-write row lookup.
	mu sync.Mutex
}

// Ensure interface conformance
var (
	_ ports.ReportWriter = (*Client)(nil)
	_ ports.ExportIndex  = (*Client)(nil)
)

// New creates a Sheets client for spreadsheetID. Without opts the client
// authenticates with a service account taken from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("sheets service: %w", err)
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteMonthSummary writes s to the row of its period, appending a row
// (and the header on an empty sheet) when the period is new.
func (c *Client) WriteMonthSummary(ctx context.Context, s analytics.Summary) (string, error) {
	if err := s.Period.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.readKeys(ctx)
	if err != nil {
		return "", err
	}

	row, found := findPeriodRow(keys, s.Period)
	if !found {
		if len(keys) == 0 {
			if err := c.updateRow(ctx, 1, headerRow()); err != nil {
				return "", err
			}
			keys = append(keys, headerRow()[0].(string))
		}
		row = len(keys) + 1
	}

	if err := c.updateRow(ctx, row, summaryRow(s)); err != nil {
		return "", err
	}
	return c.rowRange(row), nil
}

// ExportedPeriods returns the periods present in column A, in sheet order.
func (c *Client) ExportedPeriods(ctx context.Context) ([]core.Period, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	keys, err := c.readKeys(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Period
	for _, k := range keys {
		if p, ok := parsePeriodCell(k); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Client) readKeys(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	keys := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			keys[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return keys, nil
}

func (c *Client) updateRow(ctx context.Context, row int, values []any) error {
	rng := c.rowRange(row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
}
