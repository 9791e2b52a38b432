package dto

// ParseRequest carries one OCR text blob for direct field extraction.
type ParseRequest struct {
	Text string `json:"text" binding:"required"`
}
