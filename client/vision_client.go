package client

import (
	"bytes"
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/apiv1"
	"google.golang.org/api/option"

	"github.com/invoiceops/invoice-automation/dto"
)

// VisionClient runs OCR through the Google Cloud Vision text detection API.
type VisionClient struct {
	annotator *vision.ImageAnnotatorClient
}

// NewVisionClient builds the client from an inline service-account JSON blob.
// When credentialsJSON is empty the client falls back to application default
// credentials.
func NewVisionClient(ctx context.Context, credentialsJSON string) (*VisionClient, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	annotator, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return &VisionClient{annotator: annotator}, nil
}

// ExtractText OCRs one image. The first annotation Vision returns is the
// full-page text block; the per-word annotations after it are ignored.
func (vc *VisionClient) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	img, err := vision.NewImageFromReader(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to prepare image for vision: %w", err)
	}

	annotations, err := vc.annotator.DetectTexts(ctx, img, nil, 1)
	if err != nil {
		return "", fmt.Errorf("vision text detection failed: %w", err)
	}
	if len(annotations) == 0 || annotations[0].Description == "" {
		return "", dto.ErrNoOCRText
	}

	return annotations[0].Description, nil
}

func (vc *VisionClient) Close() error {
	return vc.annotator.Close()
}
