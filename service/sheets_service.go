package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/invoiceops/invoice-automation/dto"
)

// RowAppender lands one parsed invoice in a destination sheet or workbook.
type RowAppender interface {
	AppendInvoiceRow(ctx context.Context, parsed *dto.ParsedInvoice, sheetID string) error
}

var sheetHeader = []string{"Timestamp", "File", "Supplier", "Invoice Number", "Date", "Total", "GST", "Raw Text"}

const (
	appendAttempts = 3
	rawExcerptMax  = 1000
)

type SheetsService struct {
	api         *sheets.Service
	sheetRange  string
	forceAppend bool
	logger      *zap.SugaredLogger
}

func NewSheetsService(api *sheets.Service, sheetRange string, forceAppend bool, logger *zap.SugaredLogger) *SheetsService {
	return &SheetsService{
		api:         api,
		sheetRange:  sheetRange,
		forceAppend: forceAppend,
		logger:      logger,
	}
}

// AppendInvoiceRow writes one invoice row to the customer's spreadsheet. The
// header is created and formatted on first touch, rows already present for
// the same media file are skipped unless force-append is on, and transient
// API errors are retried with jittered backoff.
func (s *SheetsService) AppendInvoiceRow(ctx context.Context, parsed *dto.ParsedInvoice, sheetID string) error {
	if sheetID == "" {
		return fmt.Errorf("sheet id is required")
	}

	if err := s.ensureHeader(ctx, sheetID); err != nil {
		return err
	}

	if !s.forceAppend {
		dup, err := s.hasFileRow(ctx, sheetID, parsed.File)
		if err != nil {
			// dedupe is best effort; a read failure should not block the append
			s.logger.Warnw("dedupe check failed", "sheet_id", sheetID, "error", err)
		} else if dup {
			s.logger.Infow("row already present, skipping append", "file", parsed.File, "sheet_id", sheetID)
			return nil
		}
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{BuildSheetRow(parsed)}}

	var lastErr error
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		_, lastErr = s.api.Spreadsheets.Values.Append(sheetID, s.sheetRange, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if lastErr == nil {
			s.logger.Infow("appended invoice row", "file", parsed.File, "sheet_id", sheetID)
			return nil
		}

		s.logger.Warnw("sheet append failed", "attempt", attempt, "error", lastErr)
		if attempt < appendAttempts {
			sleepWithJitter(attempt)
		}
	}

	return fmt.Errorf("sheet append failed after %d attempts: %w", appendAttempts, lastErr)
}

// ensureHeader makes row 1 the header: appended when the sheet is empty,
// inserted above existing data when some other row is sitting there.
func (s *SheetsService) ensureHeader(ctx context.Context, sheetID string) error {
	res, err := s.api.Spreadsheets.Values.Get(sheetID, headerRange(s.sheetRange)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet header: %w", err)
	}

	if len(res.Values) > 0 && headerMatches(res.Values[0]) {
		return nil
	}

	headerRow := make([]interface{}, len(sheetHeader))
	for i, h := range sheetHeader {
		headerRow[i] = h
	}

	if len(res.Values) == 0 {
		vr := &sheets.ValueRange{Values: [][]interface{}{headerRow}}
		_, err = s.api.Spreadsheets.Values.Append(sheetID, s.sheetRange, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write sheet header: %w", err)
		}
	} else {
		if err := s.insertHeaderRow(ctx, sheetID, headerRow); err != nil {
			return err
		}
	}

	return s.formatHeader(ctx, sheetID)
}

func (s *SheetsService) insertHeaderRow(ctx context.Context, sheetID string, headerRow []interface{}) error {
	gridID, err := s.firstGridID(ctx, sheetID)
	if err != nil {
		return err
	}

	_, err = s.api.Spreadsheets.BatchUpdate(sheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    gridID,
					Dimension:  "ROWS",
					StartIndex: 0,
					EndIndex:   1,
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert header row: %w", err)
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{headerRow}}
	_, err = s.api.Spreadsheets.Values.Update(sheetID, headerRange(s.sheetRange), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet header: %w", err)
	}
	return nil
}

func (s *SheetsService) formatHeader(ctx context.Context, sheetID string) error {
	gridID, err := s.firstGridID(ctx, sheetID)
	if err != nil {
		return err
	}

	_, err = s.api.Spreadsheets.BatchUpdate(sheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       gridID,
						StartRowIndex: 0,
						EndRowIndex:   1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat:          &sheets.TextFormat{Bold: true},
							HorizontalAlignment: "CENTER",
							BackgroundColor:     &sheets.Color{Red: 0.85, Green: 0.85, Blue: 0.85},
						},
					},
					Fields: "userEnteredFormat(textFormat,horizontalAlignment,backgroundColor)",
				},
			},
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        gridID,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to format sheet header: %w", err)
	}
	return nil
}

func (s *SheetsService) hasFileRow(ctx context.Context, sheetID, file string) (bool, error) {
	fileColumn := sheetName(s.sheetRange) + "!B:B"
	res, err := s.api.Spreadsheets.Values.Get(sheetID, fileColumn).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	for _, row := range res.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == file {
			return true, nil
		}
	}
	return false, nil
}

func (s *SheetsService) firstGridID(ctx context.Context, sheetID string) (int64, error) {
	meta, err := s.api.Spreadsheets.Get(sheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	if len(meta.Sheets) == 0 {
		return 0, fmt.Errorf("spreadsheet has no sheets")
	}
	return meta.Sheets[0].Properties.SheetId, nil
}

// BuildSheetRow renders one parsed invoice as the row layout shared by the
// Sheets and local workbook appenders. Missing fields become empty cells,
// never zeros.
func BuildSheetRow(parsed *dto.ParsedInvoice) []interface{} {
	excerpt := parsed.RawText
	if len(excerpt) > rawExcerptMax {
		excerpt = excerpt[:rawExcerptMax] + "..."
	}

	return []interface{}{
		parsed.ParsedAt.UTC().Format(time.RFC3339),
		parsed.File,
		stringOrEmpty(parsed.Supplier),
		stringOrEmpty(parsed.InvoiceNumber),
		stringOrEmpty(parsed.Date),
		moneyOrEmpty(parsed.Total),
		moneyOrEmpty(parsed.GST),
		excerpt,
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func moneyOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func headerMatches(row []interface{}) bool {
	if len(row) < len(sheetHeader) {
		return false
	}
	for i, want := range sheetHeader {
		if fmt.Sprint(row[i]) != want {
			return false
		}
	}
	return true
}

func headerRange(sheetRange string) string {
	return sheetName(sheetRange) + "!1:1"
}

func sheetName(sheetRange string) string {
	if i := strings.Index(sheetRange, "!"); i >= 0 {
		return sheetRange[:i]
	}
	return "Sheet1"
}

func sleepWithJitter(attempt int) {
	backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	jitter := time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
	time.Sleep(backoff + jitter)
}
