package dto

import "time"

// ExtractedInvoice holds the fields recovered from one invoice's OCR text.
// Every field is independently nullable: nil means the extraction engine
// found no usable candidate for that field, which is an ordinary outcome,
// not an error. Date is an ISO calendar date (YYYY-MM-DD, no time of day).
type ExtractedInvoice struct {
	Supplier      *string  `json:"supplier"`
	InvoiceNumber *string  `json:"invoice_number"`
	Date          *string  `json:"date"`
	Total         *float64 `json:"total"`
	GST           *float64 `json:"gst"`
	RawText       string   `json:"raw_text"`
}

// IsParseFailure reports whether the record is missing a field the
// downstream append policy treats as mandatory (total, invoice number).
// Such records still get persisted; they are additionally copied to the
// failure directory for manual triage.
func (e *ExtractedInvoice) IsParseFailure() bool {
	return e.Total == nil || e.InvoiceNumber == nil
}

// ParsedInvoice ties an ExtractedInvoice to its source artifacts. It is the
// unit written to data/parsed, routed to a customer sheet, and replayed from
// data/failed_appends when an append could not be delivered.
type ParsedInvoice struct {
	ExtractedInvoice
	File       string    `json:"file"`
	OCRFile    string    `json:"ocr_file,omitempty"`
	MessageSID string    `json:"message_sid,omitempty"`
	From       string    `json:"from,omitempty"`
	SheetID    string    `json:"sheet_id,omitempty"`
	ParsedAt   time.Time `json:"parsed_at"`
}
