package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFieldsReceiptStyle(t *testing.T) {
	text := "Bill No: IN-15  Date: 23-Jan-2025\nSubtotal 900.00\nIGST at 12% 60.00\nTOTAL 968.00"

	out := ExtractFields(text)

	require.NotNil(t, out.Total)
	assert.InDelta(t, 968.00, *out.Total, 0.01)
	require.NotNil(t, out.Date)
	assert.Equal(t, "2025-01-23", *out.Date)
	require.NotNil(t, out.InvoiceNumber)
	assert.Equal(t, "IN-15", *out.InvoiceNumber)
	assert.Equal(t, text, out.RawText)
}

func TestExtractFieldsTaxInvoice(t *testing.T) {
	text := "GSTIN: 27CORPP3939N1ZQ TAX INVOICE\n" +
		"Invoice No. GST-3525-26 Invoice Date 23-Jul-2025\n" +
		"Total Amount After Tax ₹4,490.00\n" +
		"Taxable Amount 3,805.00\n" +
		"Total Tax 684.90"

	out := ExtractFields(text)

	require.NotNil(t, out.InvoiceNumber)
	assert.Equal(t, "GST-3525-26", *out.InvoiceNumber)
	require.NotNil(t, out.Total)
	assert.InDelta(t, 4490.00, *out.Total, 0.01)
	require.NotNil(t, out.Date)
	assert.Equal(t, "2025-07-23", *out.Date)
	// heading is on the first line, so there is no supplier block above it
	assert.Nil(t, out.Supplier)
}

func TestExtractFieldsLakhGrouping(t *testing.T) {
	text := "Total 1,57,500.00\nCGST 16,250.00\nSGST 16,250.00"

	out := ExtractFields(text)

	require.NotNil(t, out.Total)
	assert.InDelta(t, 157500.00, *out.Total, 0.01)
	require.NotNil(t, out.GST)
	assert.InDelta(t, 32500.00, *out.GST, 0.01)
}

func TestExtractFieldsOlderFormat(t *testing.T) {
	text := "Invoice\nKantech Solutions Private Limited\n" +
		"Invoice date 30/06/2017\nInvoice number 4\n" +
		"Total 1,57,500.00\nCGST 16,250.00\nSGST 16,250.00"

	out := ExtractFields(text)

	require.NotNil(t, out.InvoiceNumber)
	assert.Equal(t, "4", *out.InvoiceNumber)
	require.NotNil(t, out.Date)
	assert.Equal(t, "2017-06-30", *out.Date)
	require.NotNil(t, out.Total)
	assert.InDelta(t, 157500.00, *out.Total, 0.01)
	require.NotNil(t, out.GST)
	assert.InDelta(t, 32500.00, *out.GST, 0.01)
}

func TestKeywordTotalBeatsFallback(t *testing.T) {
	text := "Ref 999\nTotal: 500"

	out := ExtractFields(text)

	require.NotNil(t, out.Total)
	assert.InDelta(t, 500.00, *out.Total, 0.01)
}

func TestTotalConsidersEveryLabeledMatch(t *testing.T) {
	// several labeled amounts across both label patterns; the largest one is
	// the grand total
	text := "Amount Due: 100.00\nGrand Total 250.00\nTotal 50"

	out := ExtractFields(text)

	require.NotNil(t, out.Total)
	assert.InDelta(t, 250.00, *out.Total, 0.01)
}

func TestFallbackTotalPicksLargest(t *testing.T) {
	text := "items 120.00 and 340.50 and 99"

	out := ExtractFields(text)

	require.NotNil(t, out.Total)
	assert.InDelta(t, 340.50, *out.Total, 0.01)
}

func TestEarliestDateWins(t *testing.T) {
	text := "Invoice Date 23-Jul-2025\nDue Date 23-Aug-2025\nTotal 100.00"

	out := ExtractFields(text)

	require.NotNil(t, out.Date)
	assert.Equal(t, "2025-07-23", *out.Date)
}

func TestGSTComponentsSummed(t *testing.T) {
	text := "CGST 16,250.00\nSGST 16,250.00"

	out := ExtractFields(text)

	require.NotNil(t, out.GST)
	assert.InDelta(t, 32500.00, *out.GST, 0.01)
}

func TestSupplierFromHeadingBlock(t *testing.T) {
	text := "ACME TRADERS\nTAX INVOICE\nInvoice No: A-1\nTotal 50.00"

	out := ExtractFields(text)

	require.NotNil(t, out.Supplier)
	assert.Equal(t, "Acme Traders", *out.Supplier)
}

func TestSupplierFromGSTINAnchor(t *testing.T) {
	text := "ACME TRADERS\nAHMEDABAD\nGSTIN: 24AAACA1234F1Z5\nTotal 100.00"

	out := ExtractFields(text)

	require.NotNil(t, out.Supplier)
	assert.Equal(t, "Acme Traders Ahmedabad", *out.Supplier)
}

func TestSupplierTooShortDiscarded(t *testing.T) {
	text := "A\nTAX INVOICE\nTotal 50.00"

	out := ExtractFields(text)

	assert.Nil(t, out.Supplier)
}

func TestInvoiceNumberLabelPriority(t *testing.T) {
	// a labeled invoice-number pattern outranks the bill pattern even when
	// the bill label appears first in the document
	text := "Bill No: B-9\nInvoice No: INV-77"

	out := ExtractFields(text)

	require.NotNil(t, out.InvoiceNumber)
	assert.Equal(t, "INV-77", *out.InvoiceNumber)
}

func TestInvoiceNumberBareFallback(t *testing.T) {
	text := "Invoice ABC-123"

	out := ExtractFields(text)

	require.NotNil(t, out.InvoiceNumber)
	assert.Equal(t, "ABC-123", *out.InvoiceNumber)
}

func TestNoFieldsFound(t *testing.T) {
	out := ExtractFields("hello world")

	assert.Nil(t, out.Supplier)
	assert.Nil(t, out.InvoiceNumber)
	assert.Nil(t, out.Date)
	assert.Nil(t, out.Total)
	assert.Nil(t, out.GST)
	assert.Equal(t, "hello world", out.RawText)
}

func TestExtractFieldsIdempotent(t *testing.T) {
	text := "ACME TRADERS\nTAX INVOICE\nInvoice No: A-1\nDate 23-Jul-2025\nTotal 968.00"

	first := ExtractFields(text)
	second := ExtractFields(text)

	assert.Equal(t, first, second)
}
