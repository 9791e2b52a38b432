package dto

import "errors"

// Custom errors
var (
	ErrNoOCRText     = errors.New("no OCR text detected")
	ErrMediaNotReady = errors.New("media not available yet")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WebhookResponse is the acknowledgement returned to the messaging provider.
type WebhookResponse struct {
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
}
