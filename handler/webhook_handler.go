package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoiceops/invoice-automation/dto"
	"github.com/invoiceops/invoice-automation/service"
)

// MediaDownloader fetches a webhook's media attachment to local disk.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaURL, destDir, baseName string) (string, error)
}

// InvoiceProcessor turns a downloaded media file into a parsed invoice.
type InvoiceProcessor interface {
	ProcessFile(ctx context.Context, path string) (*dto.ParsedInvoice, error)
}

// SheetRouter resolves the destination sheet for a sender.
type SheetRouter interface {
	SheetIDFor(ctx context.Context, from string) string
}

// FailedAppendQueue parks an invoice whose append failed for later replay.
type FailedAppendQueue interface {
	QueueFailedAppend(parsed *dto.ParsedInvoice) error
}

type WebhookHandler struct {
	downloader MediaDownloader
	processor  InvoiceProcessor
	router     SheetRouter
	appender   service.RowAppender
	queue      FailedAppendQueue
	mediaDir   string
	logger     *zap.SugaredLogger
}

func NewWebhookHandler(
	downloader MediaDownloader,
	processor InvoiceProcessor,
	router SheetRouter,
	appender service.RowAppender,
	queue FailedAppendQueue,
	mediaDir string,
	logger *zap.SugaredLogger,
) *WebhookHandler {
	return &WebhookHandler{
		downloader: downloader,
		processor:  processor,
		router:     router,
		appender:   appender,
		queue:      queue,
		mediaDir:   mediaDir,
		logger:     logger,
	}
}

// HandleWhatsApp processes one inbound Twilio WhatsApp webhook. Twilio treats
// any non-2xx as a delivery failure and re-sends, so business-level problems
// after the media is in hand are reported as 200 with a status body.
func (h *WebhookHandler) HandleWhatsApp(c *gin.Context) {
	mediaURL := c.PostForm("MediaUrl0")
	if mediaURL == "" {
		// text-only message, nothing to parse
		c.JSON(http.StatusOK, dto.WebhookResponse{Status: "ignored"})
		return
	}

	from := c.PostForm("From")
	if from == "" {
		from = "unknown"
	}
	messageSID := c.PostForm("MessageSid")
	if messageSID == "" {
		messageSID = "no-sid-" + uuid.NewString()[:8]
	}

	ctx := c.Request.Context()

	path, err := h.downloader.DownloadMedia(ctx, mediaURL, h.mediaDir, messageSID)
	if errors.Is(err, dto.ErrMediaNotReady) {
		// Twilio sometimes fires the webhook before the media is staged;
		// answering 200 with a retry status lets the sender resend the
		// attachment instead of Twilio hammering the endpoint
		h.logger.Infow("media not ready yet", "message_sid", messageSID)
		c.JSON(http.StatusOK, dto.WebhookResponse{Status: "retry"})
		return
	}
	if err != nil {
		h.sendError(c, http.StatusBadGateway, "media_download_failed", err)
		return
	}

	parsed, err := h.processor.ProcessFile(ctx, path)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "processing_failed", err)
		return
	}

	parsed.From = from
	parsed.MessageSID = messageSID
	parsed.SheetID = h.router.SheetIDFor(ctx, from)

	if err := h.appender.AppendInvoiceRow(ctx, parsed, parsed.SheetID); err != nil {
		h.logger.Errorw("append failed, queueing for replay", "file", parsed.File, "error", err)
		if qerr := h.queue.QueueFailedAppend(parsed); qerr != nil {
			h.sendError(c, http.StatusInternalServerError, "append_failed", fmt.Errorf("%v (queue: %w)", err, qerr))
			return
		}
		c.JSON(http.StatusOK, dto.WebhookResponse{Status: "queued", File: parsed.File})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Status: "ok", File: parsed.File})
}

func (h *WebhookHandler) sendError(c *gin.Context, code int, label string, err error) {
	h.logger.Errorw("webhook failed", "error", err)
	c.JSON(code, dto.ErrorResponse{
		Error:   label,
		Message: err.Error(),
		Code:    code,
	})
}
