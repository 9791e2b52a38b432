package service

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/invoiceops/invoice-automation/dto"
)

const workbookSheet = "Invoices"

// WorkbookService appends invoice rows to a local .xlsx workbook. It is the
// destination of last resort when Google credentials are not configured, and
// keeps the same row layout as the Sheets appender.
type WorkbookService struct {
	path   string
	mu     sync.Mutex
	logger *zap.SugaredLogger
}

func NewWorkbookService(path string, logger *zap.SugaredLogger) *WorkbookService {
	return &WorkbookService{path: path, logger: logger}
}

func (w *WorkbookService) AppendInvoiceRow(ctx context.Context, parsed *dto.ParsedInvoice, sheetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	if err != nil {
		return fmt.Errorf("failed to read workbook rows: %w", err)
	}

	for _, row := range rows {
		if len(row) > 1 && row[1] == parsed.File {
			w.logger.Infow("row already present in workbook, skipping", "file", parsed.File)
			return nil
		}
	}

	rowIdx := len(rows) + 1
	for i, v := range BuildSheetRow(parsed) {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(workbookSheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell value: %w", err)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Infow("appended invoice row to workbook", "file", parsed.File, "path", w.path)
	return nil
}

func (w *WorkbookService) openOrCreate() (*excelize.File, error) {
	if _, err := os.Stat(w.path); err == nil {
		f, err := excelize.OpenFile(w.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		return f, nil
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet(workbookSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create workbook sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, h := range sheetHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(workbookSheet, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write workbook header: %w", err)
		}
	}

	return f, nil
}
