package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"hisob/internal/cache"
	"hisob/internal/core"
	ports "hisob/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const rowsCacheKey = "rows"

// Client stores the ledger in one sheet: a header row, then one row per record.
type Client struct {
	values        valuesAPI
	spreadsheetID string
	sheet         string
	rows          *cache.LRUCache[[]core.Transaction]
}

var _ ports.Store = (*Client)(nil)

// Options configures a Client.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	CacheTTL        time.Duration
}

// valuesAPI is the part of the Sheets values service the client uses.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) (string, error)
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
	Clear(ctx context.Context, spreadsheetID, rng string) error
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc}, opts), nil
}

func newClient(values valuesAPI, opts Options) *Client {
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Hisob"
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Client{
		values:        values,
		spreadsheetID: opts.SpreadsheetID,
		sheet:         sheet,
		rows:          cache.NewLRUCache[[]core.Transaction](1, ttl),
	}
}

// newSheetsService reads inline JSON first, then the file, then GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(creds))
	return svc, nil
}

// Cache exposes the row cache so it can be registered with a cache.Manager.
func (c *Client) Cache() *cache.LRUCache[[]core.Transaction] {
	return c.rows
}

// InvalidateRowCache forces the next LoadAll to hit the API.
func (c *Client) InvalidateRowCache() {
	c.rows.Purge()
}

// Append adds one row below the existing data and returns its A1 range.
func (c *Client) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	existing, err := c.values.Get(ctx, c.spreadsheetID, c.sheet+"!A1:A1")
	if err != nil {
		return "", fmt.Errorf("read header of %s: %w", c.sheet, err)
	}
	rows := [][]interface{}{formatRow(t)}
	if len(existing) == 0 {
		rows = append([][]interface{}{headerRow()}, rows...)
	}

	ref, err := c.values.Append(ctx, c.spreadsheetID, c.sheet+"!A:E", rows)
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}
	c.InvalidateRowCache()
	return ref, nil
}

// LoadAll reads every data row. Rows that cannot be parsed are skipped and logged.
func (c *Client) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	if txs, ok := c.rows.Get(rowsCacheKey); ok {
		return append([]core.Transaction(nil), txs...), nil
	}
	values, err := c.values.Get(ctx, c.spreadsheetID, c.sheet+"!A:E")
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.sheet, err)
	}
	txs, skipped := parseRows(values)
	if len(skipped) > 0 {
		slog.WarnContext(ctx, "Skipped unreadable sheet rows", "sheet", c.sheet, "rows", skipped)
	}
	c.rows.Set(rowsCacheKey, txs)
	return append([]core.Transaction(nil), txs...), nil
}

// OverwriteAll writes the header plus every record over the existing rows,
// then clears whatever is left below them. A failed write leaves the old
// rows readable.
func (c *Client) OverwriteAll(ctx context.Context, txs []core.Transaction) error {
	rows := make([][]interface{}, 0, len(txs)+1)
	rows = append(rows, headerRow())
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		rows = append(rows, formatRow(t))
	}

	defer c.InvalidateRowCache()
	rng := fmt.Sprintf("%s!A1:E%d", c.sheet, len(rows))
	if err := c.values.Update(ctx, c.spreadsheetID, rng, rows); err != nil {
		return fmt.Errorf("write sheet %s: %w", c.sheet, err)
	}
	tail := fmt.Sprintf("%s!A%d:E", c.sheet, len(rows)+1)
	if err := c.values.Clear(ctx, c.spreadsheetID, tail); err != nil {
		return fmt.Errorf("clear rows below %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Sheet overwritten", "sheet", c.sheet, "records", len(txs))
	return nil
}

// serviceValues adapts *gsheet.Service to valuesAPI.
type serviceValues struct {
	svc *gsheet.Service
}

func (s *serviceValues) Get(ctx context.Context, id, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Append(ctx context.Context, id, rng string, rows [][]interface{}) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.Append(id, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (s *serviceValues) Update(ctx context.Context, id, rng string, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Update(id, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}

func (s *serviceValues) Clear(ctx context.Context, id, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(id, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
