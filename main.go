package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/invoiceops/invoice-automation/client"
	"github.com/invoiceops/invoice-automation/config"
	"github.com/invoiceops/invoice-automation/handler"
	"github.com/invoiceops/invoice-automation/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	cfg := config.LoadConfig()

	mediaDir := filepath.Join(cfg.DataDir, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		logger.Fatalw("failed to create media dir", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Google clients are optional: without credentials, OCR falls back to
	// Tesseract and rows land in the local workbook instead of Sheets.
	var sheetsAPI *sheets.Service
	var visionEngine service.TextEngine
	if cfg.GoogleCredentialsJSON != "" {
		sheetsAPI, err = sheets.NewService(ctx,
			option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
		if err != nil {
			logger.Fatalw("failed to create sheets service", "error", err)
		}

		visionClient, err := client.NewVisionClient(ctx, cfg.GoogleCredentialsJSON)
		if err != nil {
			logger.Fatalw("failed to create vision client", "error", err)
		}
		defer visionClient.Close()
		visionEngine = visionClient
	}

	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	twilioClient := client.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)

	qrService := service.NewQRService(logger)
	ocrService, err := service.NewOCRService(visionEngine, tesseractClient, service.NewPDFProcessor(), qrService, cfg.DataDir, logger)
	if err != nil {
		logger.Fatalw("failed to create ocr service", "error", err)
	}

	var appender service.RowAppender
	if sheetsAPI != nil {
		appender = service.NewSheetsService(sheetsAPI, cfg.SheetRange, cfg.ForceAppend, logger)
	} else {
		logger.Info("no google credentials, appending to local workbook")
		appender = service.NewWorkbookService(filepath.Join(cfg.DataDir, "invoices.xlsx"), logger)
	}

	registry := service.NewRegistryService(sheetsAPI, cfg.RegistrySheetID, cfg.DefaultSheetID,
		filepath.Join(cfg.DataDir, "customers.json"), logger)

	retryService, err := service.NewRetryService(appender, filepath.Join(cfg.DataDir, "failed_appends"),
		cfg.RetryMaxAttempts, cfg.RetryBackoffBase, logger)
	if err != nil {
		logger.Fatalw("failed to create retry service", "error", err)
	}
	if cfg.RetryRunLoop {
		go retryService.RunLoop(ctx, cfg.RetryLoopInterval)
	}

	webhookHandler := handler.NewWebhookHandler(twilioClient, ocrService, registry, appender, retryService, mediaDir, logger)
	parseHandler := handler.NewParseHandler(logger)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxMediaSize

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Invoice Automation",
		})
	})

	router.POST("/webhook/whatsapp", webhookHandler.HandleWhatsApp)

	api := router.Group("/api/v1")
	{
		invoices := api.Group("/invoices")
		{
			invoices.POST("/parse", parseHandler.ParseText)
		}
	}

	logger.Infow("starting invoice automation service", "port", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatalw("failed to start server", "error", err)
	}
}
