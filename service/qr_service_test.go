package service

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func qrImage(t *testing.T, payload string) image.Image {
	t.Helper()

	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, 256, 256, nil)
	require.NoError(t, err)

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestQRDecodePlainPayload(t *testing.T) {
	payload := `{"SellerGstin":"27CORPP3939N1ZQ","DocNo":"GST-3525-26","DocDt":"23/07/2025","TotInvVal":4490.00}`
	q := NewQRService(zap.NewNop().Sugar())

	got, err := q.DecodeImage(qrImage(t, payload))
	require.NoError(t, err)

	assert.Equal(t, "GST-3525-26", got.InvoiceNumber)
	assert.Equal(t, "27CORPP3939N1ZQ", got.SellerGSTIN)
	assert.Equal(t, "2025-07-23", got.Date)
	require.NotNil(t, got.Total)
	assert.InDelta(t, 4490.00, *got.Total, 0.01)
}

func TestQRDecodeQuotedTotal(t *testing.T) {
	payload := `{"DocNo":"INV-9","DocDt":"1/2/2024","TotInvVal":"968"}`
	q := NewQRService(zap.NewNop().Sugar())

	got, err := q.parsePayload(payload)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01", got.Date)
	require.NotNil(t, got.Total)
	assert.InDelta(t, 968.00, *got.Total, 0.01)
}

func TestQRDecodeSignedPayload(t *testing.T) {
	claims := base64.RawURLEncoding.EncodeToString([]byte(`{"data":"{\"SellerGstin\":\"24AAACA1234F1Z5\",\"DocNo\":\"A-1\",\"DocDt\":\"30/06/2017\",\"TotInvVal\":157500}"}`))
	token := "eyJhbGciOiJSUzI1NiJ9." + claims + ".c2ln"

	q := NewQRService(zap.NewNop().Sugar())
	got, err := q.parsePayload(token)
	require.NoError(t, err)

	assert.Equal(t, "A-1", got.InvoiceNumber)
	assert.Equal(t, "2017-06-30", got.Date)
}

func TestQRDecodeNonInvoicePayload(t *testing.T) {
	q := NewQRService(zap.NewNop().Sugar())

	_, err := q.DecodeImage(qrImage(t, "https://example.com/pay"))
	assert.Error(t, err)
}

func TestQRDecodeNoCode(t *testing.T) {
	q := NewQRService(zap.NewNop().Sugar())

	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	_, err := q.DecodeImage(blank)
	assert.Error(t, err)
}
