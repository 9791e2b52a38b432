package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"

	"go.uber.org/zap"

	"github.com/invoiceops/invoice-automation/dto"
	"github.com/invoiceops/invoice-automation/parser"
)

// TextEngine is an OCR backend. VisionClient and TesseractClient both
// implement it.
type TextEngine interface {
	ExtractText(ctx context.Context, imageData []byte) (string, error)
}

// minUsefulText is the threshold below which a PDF text layer is treated as
// empty and the document as a scan.
const minUsefulText = 20

type OCRService struct {
	primary  TextEngine
	fallback TextEngine
	pdf      PDFProcessor
	qr       *QRService
	dataDir  string
	logger   *zap.SugaredLogger
}

// NewOCRService wires the OCR pipeline. primary may be nil when Cloud Vision
// is not configured; fallback is the local Tesseract engine.
func NewOCRService(primary, fallback TextEngine, pdf PDFProcessor, qr *QRService, dataDir string, logger *zap.SugaredLogger) (*OCRService, error) {
	for _, sub := range []string{"ocr", "parsed", "parser_failures"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	return &OCRService{
		primary:  primary,
		fallback: fallback,
		pdf:      pdf,
		qr:       qr,
		dataDir:  dataDir,
		logger:   logger,
	}, nil
}

// ProcessFile runs one downloaded invoice through OCR and field extraction.
// The raw OCR text and the parsed result are both persisted under the data
// directory; parse failures additionally land in parser_failures for manual
// review.
func (s *OCRService) ProcessFile(ctx context.Context, path string) (*dto.ParsedInvoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}

	var (
		text string
		qr   *EInvoiceQR
	)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err = s.textFromPDF(ctx, data)
	} else {
		text, qr, err = s.textFromImage(ctx, data)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, dto.ErrNoOCRText
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ocrFile := stem + ".txt"
	if err := os.WriteFile(filepath.Join(s.dataDir, "ocr", ocrFile), []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("failed to save ocr text: %w", err)
	}

	fields := parser.ExtractFields(text)
	if qr != nil {
		applyQR(&fields, qr)
	}

	parsed := &dto.ParsedInvoice{
		ExtractedInvoice: fields,
		File:             filepath.Base(path),
		OCRFile:          ocrFile,
		ParsedAt:         time.Now().UTC(),
	}

	if err := s.saveParsed(parsed, stem); err != nil {
		return nil, err
	}

	s.logger.Infow("processed invoice",
		"file", parsed.File,
		"parse_failure", parsed.IsParseFailure(),
	)
	return parsed, nil
}

func (s *OCRService) textFromPDF(ctx context.Context, data []byte) (string, error) {
	text, err := s.pdf.ExtractText(data)
	if err == nil && len(strings.TrimSpace(text)) >= minUsefulText {
		return text, nil
	}

	// no usable text layer, treat it as a scanned document
	images, err := s.pdf.ExtractImages(data)
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf page images: %w", err)
	}
	if len(images) == 0 {
		return "", dto.ErrNoOCRText
	}

	var pages []string
	for i, img := range images {
		encoded, err := encodePNG(img)
		if err != nil {
			return "", err
		}
		pageText, err := s.runOCR(ctx, encoded)
		if err != nil {
			s.logger.Warnw("ocr failed for pdf page", "page", i+1, "error", err)
			continue
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

func (s *OCRService) textFromImage(ctx context.Context, data []byte) (string, *EInvoiceQR, error) {
	var decoded *EInvoiceQR
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		// most invoices carry no QR code; a decode failure here is routine
		if qr, err := s.qr.DecodeImage(img); err == nil {
			decoded = qr
		}
	}

	text, err := s.runOCR(ctx, data)
	if err != nil {
		return "", nil, err
	}
	return text, decoded, nil
}

// runOCR prefers the primary engine and drops back to the local one when the
// primary is missing, errors out, or returns too little text to parse.
func (s *OCRService) runOCR(ctx context.Context, imageData []byte) (string, error) {
	if s.primary != nil {
		text, err := s.primary.ExtractText(ctx, imageData)
		if err == nil && len(strings.TrimSpace(text)) >= minUsefulText {
			return text, nil
		}
		if err != nil {
			s.logger.Warnw("primary ocr engine failed, falling back", "error", err)
		}
	}
	if s.fallback == nil {
		return "", dto.ErrNoOCRText
	}
	return s.fallback.ExtractText(ctx, imageData)
}

func (s *OCRService) saveParsed(parsed *dto.ParsedInvoice, stem string) error {
	blob, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal parsed invoice: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dataDir, "parsed", stem+".json"), blob, 0o644); err != nil {
		return fmt.Errorf("failed to save parsed invoice: %w", err)
	}

	if parsed.IsParseFailure() {
		s.logger.Warnw("field extraction incomplete", "file", parsed.File)
		if err := os.WriteFile(filepath.Join(s.dataDir, "parser_failures", stem+".json"), blob, 0o644); err != nil {
			return fmt.Errorf("failed to save parser failure: %w", err)
		}
	}
	return nil
}

// applyQR overlays QR-decoded fields onto the text-parsed result. The QR
// block is machine-written by the invoice generator, so it wins over OCR.
func applyQR(fields *dto.ExtractedInvoice, qr *EInvoiceQR) {
	if qr.InvoiceNumber != "" {
		fields.InvoiceNumber = &qr.InvoiceNumber
	}
	if qr.Date != "" {
		fields.Date = &qr.Date
	}
	if qr.Total != nil {
		fields.Total = qr.Total
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
