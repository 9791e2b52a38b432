package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"go.uber.org/zap"
)

// EInvoiceQR holds the fields recovered from a GST e-invoice QR code. The QR
// payload is authoritative where present, so these override anything the text
// parser guessed.
type EInvoiceQR struct {
	SellerGSTIN   string
	InvoiceNumber string
	Date          string // ISO yyyy-mm-dd
	Total         *float64
}

// qrPayload is the data block NIC embeds in e-invoice QR codes. TotInvVal is
// a json.Number because generators disagree on whether it is quoted.
type qrPayload struct {
	SellerGstin string      `json:"SellerGstin"`
	DocNo       string      `json:"DocNo"`
	DocDt       string      `json:"DocDt"`
	TotInvVal   json.Number `json:"TotInvVal"`
}

type QRService struct {
	logger *zap.SugaredLogger
}

func NewQRService(logger *zap.SugaredLogger) *QRService {
	return &QRService{logger: logger}
}

// DecodeImage scans an invoice image for an e-invoice QR code. A missing or
// unreadable code is normal for most invoices and is returned as an error the
// caller should treat as "no QR", not as a failure.
func (q *QRService) DecodeImage(img image.Image) (*EInvoiceQR, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize image: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return nil, fmt.Errorf("no qr code found: %w", err)
	}

	decoded, err := q.parsePayload(result.GetText())
	if err != nil {
		return nil, err
	}

	q.logger.Infow("decoded e-invoice qr",
		"doc_no", decoded.InvoiceNumber,
		"seller_gstin", decoded.SellerGSTIN,
	)
	return decoded, nil
}

func (q *QRService) parsePayload(text string) (*EInvoiceQR, error) {
	raw := strings.TrimSpace(text)

	// Signed e-invoice QRs carry a JWT; the invoice data sits in the claims
	// under "data" as a JSON string. Unsigned test payloads are plain JSON.
	if !strings.HasPrefix(raw, "{") && strings.Count(raw, ".") == 2 {
		inner, err := jwtDataClaim(raw)
		if err != nil {
			return nil, err
		}
		raw = inner
	}

	var payload qrPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("qr payload is not e-invoice json: %w", err)
	}
	if payload.DocNo == "" {
		return nil, fmt.Errorf("qr payload has no document number")
	}

	out := &EInvoiceQR{
		SellerGSTIN:   payload.SellerGstin,
		InvoiceNumber: payload.DocNo,
	}

	// DocDt is dd/mm/yyyy per the e-invoice schema
	if payload.DocDt != "" {
		if t, err := time.Parse("2/1/2006", payload.DocDt); err == nil {
			out.Date = t.Format("2006-01-02")
		}
	}

	if payload.TotInvVal != "" {
		if v, err := payload.TotInvVal.Float64(); err == nil {
			out.Total = &v
		}
	}

	return out, nil
}

func jwtDataClaim(token string) (string, error) {
	parts := strings.Split(token, ".")
	claims, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode qr jwt claims: %w", err)
	}

	var body struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(claims, &body); err != nil {
		return "", fmt.Errorf("failed to parse qr jwt claims: %w", err)
	}
	if body.Data == "" {
		return "", fmt.Errorf("qr jwt has no data claim")
	}
	return body.Data, nil
}
