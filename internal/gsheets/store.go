package gsheets

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Store implements the spreadsheet backend on the Google Sheets v4 API.
// Tabs are sheets within a single ID-addressed spreadsheet; authentication
// uses a service-account JSON key file.
type Store struct {
	srv           *sheets.Service
	spreadsheetID string

	mu    sync.Mutex
	known map[string]bool // tab titles confirmed to exist
}

func NewStore(ctx context.Context, credentialsFile, spreadsheetID string) (*Store, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", credentialsFile, err)
	}
	cfg, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		known:         map[string]bool{},
	}, nil
}

// EnsureTab creates the named tab with a header row unless it already
// exists. Safe to call repeatedly; an existing tab is left untouched.
func (s *Store) EnsureTab(ctx context.Context, name string, header []string) error {
	s.mu.Lock()
	seen := s.known[name]
	s.mu.Unlock()
	if seen {
		return nil
	}

	sp, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range sp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			s.markKnown(name)
			return nil
		}
	}

	req := &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: name},
		},
	}
	_, err = s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{req},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create tab %s: %w", name, err)
	}

	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := s.AppendRow(ctx, name, row); err != nil {
		return fmt.Errorf("write header for %s: %w", name, err)
	}
	s.markKnown(name)
	return nil
}

func (s *Store) AppendRow(ctx context.Context, tab string, row []any) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, tabRange(tab), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", tab, err)
	}
	return nil
}

// ReadAllRows returns every row of the tab, header included. Cells come
// back as strings regardless of how the API typed them.
func (s *Store) ReadAllRows(ctx context.Context, tab string) ([][]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, tabRange(tab)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Clear removes all values from the tab without deleting the tab itself.
func (s *Store) Clear(ctx context.Context, tab string) error {
	_, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, tabRange(tab), &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}
	return nil
}

func (s *Store) markKnown(name string) {
	s.mu.Lock()
	s.known[name] = true
	s.mu.Unlock()
}

// tabRange quotes the title for A1 notation; tab names here contain "-".
func tabRange(tab string) string {
	return "'" + tab + "'"
}
