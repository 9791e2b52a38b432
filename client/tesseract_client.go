package client

import (
	"context"
	"fmt"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// TesseractClient is the local OCR engine, used when Cloud Vision is not
// configured or returns nothing usable.
type TesseractClient struct {
	dataPath string
}

func NewTesseractClient(dataPath string) *TesseractClient {
	return &TesseractClient{
		dataPath: dataPath,
	}
}

// ExtractText runs Tesseract over one image. gosseract wants a file on disk,
// so the bytes are staged in a temp file for the duration of the call.
func (tc *TesseractClient) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tempFile, err := os.CreateTemp("", "invoice-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(imageData); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return tc.extractText(tempFile.Name())
}

func (tc *TesseractClient) extractText(filePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}

	if err := client.SetLanguage("eng"); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImage(filePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	return text, nil
}
