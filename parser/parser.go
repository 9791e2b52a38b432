package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/invoiceops/invoice-automation/dto"
)

// Candidate source tags. Keyword-tier candidates come from an explicit field
// label and always win over unlabeled fallback matches.
const (
	SourceKeyword  = "keyword"
	SourceFallback = "any"
)

// FieldCandidate is one textual match proposed for a field before
// disambiguation. Candidates are produced and consumed within a single
// ExtractFields call; they are never persisted.
type FieldCandidate struct {
	Field  string
	Text   string
	Offset int
	Source string
	Value  float64
}

// Invoice-heading markers used to delimit the supplier block at the top of
// the document.
var reHeading = regexp.MustCompile(`\b(TAX INVOICE|TAXINVOICE|INVOICE|INVOICE NO|INVOICE#)\b`)

// Loose GSTIN shape: two digits followed by ten alphanumerics. Used only as
// a structural anchor for the supplier fallback, not validated further.
var reGSTIN = regexp.MustCompile(`[0-9A-Z]{2}[A-Z0-9]{10}`)

// Invoice-number label patterns in priority order. The first three require
// an explicit label token so that a bare "TAX INVOICE" heading cannot
// satisfy them; the last is the generic fallback with a length-bounded
// capture. The first pattern that matches anywhere wins.
var invoicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice\s*(?:number|no|#|:)\s*[:\-\.\s]*([A-Za-z0-9\-/\.]+)`),
	regexp.MustCompile(`(?i)inv\.?\s*(?:number|no|#)\s*[:\-\.\s]*([A-Za-z0-9\-/\.]+)`),
	regexp.MustCompile(`(?i)bill\s*(?:number|no|#)\s*[:\-\.\s]*([A-Za-z0-9\-/\.]+)`),
	regexp.MustCompile(`(?i)invoice\s*[:\-\s]*([A-Za-z0-9\-/\.]{3,30})`),
}

// Labeled-total patterns. Alternatives are ordered by specificity; the
// second pattern picks up a bare trailing "Total <amount>" line, which also
// mis-matches "Subtotal" — the largest-value tie-break absorbs that.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(grand total(?: amount)?|total amount after tax|total amount|amount due|total payable|invoice total|amount)\s*[:\-\s]*₹?\s*([0-9,\.\s]+)`),
	regexp.MustCompile(`(?im)(total)\s*[:\-\s]*₹?\s*([0-9\.,]+)$`),
}

// Any monetary-looking number; consulted only when no labeled total matched.
var reAnyMoney = regexp.MustCompile(`₹?\s*([0-9][0-9,\. ]{1,}[0-9])`)

// Tax line patterns. CGST/SGST/IGST components are itemized on Indian tax
// invoices and must be summed, not picked.
var gstPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(total\s*tax[:\-\s]*)([0-9,\.\s]+)`),
	regexp.MustCompile(`(?i)(taxable amount[:\-\s]*)([0-9,\.\s]+)`),
	regexp.MustCompile(`(?i)(cgst|sgst|igst)[^\d]*([0-9,\.\s]+)`),
}

var reTotalTax = regexp.MustCompile(`(?i)total\s*tax[:\-\s]*([0-9,\.\s]+)`)

// ExtractFields runs the full field-extraction pipeline over one invoice's
// OCR text. It is a pure function: no I/O, no shared state, safe to call
// concurrently. Fields that cannot be located come back nil.
func ExtractFields(raw string) dto.ExtractedInvoice {
	norm := Normalize(raw)
	upper := strings.ToUpper(norm)

	var lines []string
	for _, ln := range strings.Split(upper, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}

	return dto.ExtractedInvoice{
		Supplier:      findSupplier(lines),
		InvoiceNumber: findInvoiceNumber(upper),
		Date:          FindDate(upper),
		Total:         findTotal(upper),
		GST:           findGST(upper),
		RawText:       raw,
	}
}

// findSupplier treats everything above the first invoice heading as the
// supplier block. Without a heading it anchors on a GSTIN-looking token and
// takes up to three lines above it. Results shorter than 3 characters are
// noise, not names.
func findSupplier(lines []string) *string {
	for i, ln := range lines {
		if reHeading.MatchString(ln) {
			return titled(strings.Join(lines[:i], " "))
		}
	}
	for i, ln := range lines {
		if strings.Contains(ln, "GSTIN") || reGSTIN.MatchString(ln) {
			lo := i - 3
			if lo < 0 {
				lo = 0
			}
			return titled(strings.Join(lines[lo:i], " "))
		}
	}
	return nil
}

func titled(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t := cases.Title(language.English).String(strings.ToLower(s))
	if len(t) < 3 {
		return nil
	}
	return &t
}

// findInvoiceNumber tries the label patterns in priority order and returns
// the first capture of the first pattern that matches anywhere.
func findInvoiceNumber(upper string) *string {
	for _, re := range invoicePatterns {
		if m := re.FindStringSubmatch(upper); m != nil {
			token := strings.TrimSpace(m[1])
			if token != "" {
				return &token
			}
		}
	}
	return nil
}

// findTotal gathers keyword-tier candidates from every labeled-total match;
// only when that tier is empty does it fall back to any monetary-looking
// number in the document. Either way the largest parsed value wins: a true
// grand total is structurally the largest labeled amount on an invoice.
func findTotal(upper string) *float64 {
	var candidates []FieldCandidate
	for _, re := range totalPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(upper, -1) {
			txt := upper[loc[4]:loc[5]]
			if v, ok := CleanMoney(txt); ok {
				candidates = append(candidates, FieldCandidate{
					Field:  "total",
					Text:   txt,
					Offset: loc[4],
					Source: SourceKeyword,
					Value:  v,
				})
			}
		}
	}
	if len(candidates) == 0 {
		for _, loc := range reAnyMoney.FindAllStringSubmatchIndex(upper, -1) {
			txt := upper[loc[2]:loc[3]]
			if v, ok := CleanMoney(txt); ok {
				candidates = append(candidates, FieldCandidate{
					Field:  "total",
					Text:   txt,
					Offset: loc[2],
					Source: SourceFallback,
					Value:  v,
				})
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Value > best.Value {
			best = c
		}
	}
	return &best.Value
}

// findGST sums every tax-component amount in the document. CGST+SGST (or
// CGST+IGST) appear as separate lines that together make up total tax;
// picking a single line would undercount. With no components at all, a
// narrower "total tax" search is the last resort.
func findGST(upper string) *float64 {
	var amounts []float64
	for _, re := range gstPatterns {
		for _, m := range re.FindAllStringSubmatch(upper, -1) {
			if v, ok := CleanMoney(m[len(m)-1]); ok {
				amounts = append(amounts, v)
			}
		}
	}
	if len(amounts) > 0 {
		sum := 0.0
		for _, v := range amounts {
			sum += v
		}
		return &sum
	}
	if m := reTotalTax.FindStringSubmatch(upper); m != nil {
		if v, ok := CleanMoney(m[1]); ok {
			return &v
		}
	}
	return nil
}
