package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort            string
	DataDir               string
	TwilioAccountSID      string
	TwilioAuthToken       string
	GoogleCredentialsJSON string
	DefaultSheetID        string
	SheetRange            string
	ForceAppend           bool
	RegistrySheetID       string
	TesseractDataPath     string
	MaxMediaSize          int64
	RetryMaxAttempts      int
	RetryBackoffBase      float64
	RetryRunLoop          bool
	RetryLoopInterval     time.Duration
}

func LoadConfig() *Config {
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	sheetRange := os.Getenv("SHEET_RANGE")
	if sheetRange == "" {
		sheetRange = "Sheet1!A:H"
	}

	tesseractDataPath := os.Getenv("TESSDATA_PREFIX")
	if tesseractDataPath == "" {
		tesseractDataPath = "/usr/share/tesseract-ocr/5/tessdata"
	}

	return &Config{
		ServerPort:            serverPort,
		DataDir:               dataDir,
		TwilioAccountSID:      os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:       os.Getenv("TWILIO_AUTH_TOKEN"),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"),
		DefaultSheetID:        os.Getenv("DEFAULT_SHEET_ID"),
		SheetRange:            sheetRange,
		ForceAppend:           os.Getenv("SHEET_FORCE_APPEND") == "1",
		RegistrySheetID:       os.Getenv("USER_REGISTRY_SHEET_ID"),
		TesseractDataPath:     tesseractDataPath,
		MaxMediaSize:          16 * 1024 * 1024, // 16 MB
		RetryMaxAttempts:      envInt("RETRY_MAX_ATTEMPTS", 5),
		RetryBackoffBase:      envFloat("RETRY_BACKOFF_BASE", 2.0),
		RetryRunLoop:          os.Getenv("RETRY_RUN_LOOP") == "1",
		RetryLoopInterval:     time.Duration(envInt("RETRY_LOOP_INTERVAL", 60)) * time.Second,
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
