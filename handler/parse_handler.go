package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/invoiceops/invoice-automation/dto"
	"github.com/invoiceops/invoice-automation/parser"
)

// ParseHandler exposes the field extractor directly, for batch backfills and
// for debugging OCR text without going through the webhook.
type ParseHandler struct {
	logger *zap.SugaredLogger
}

func NewParseHandler(logger *zap.SugaredLogger) *ParseHandler {
	return &ParseHandler{logger: logger}
}

func (h *ParseHandler) ParseText(c *gin.Context) {
	var req dto.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	out := parser.ExtractFields(req.Text)
	h.logger.Debugw("parsed text request", "parse_failure", out.IsParseFailure())
	c.JSON(http.StatusOK, out)
}
