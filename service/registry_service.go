package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

// RegistryService maps a WhatsApp sender to the spreadsheet their invoices
// land in. The mapping lives in a registry spreadsheet (column A: phone
// number, column B: sheet id) and is cached locally so repeat senders do not
// cost a Sheets read.
type RegistryService struct {
	api             *sheets.Service
	registrySheetID string
	defaultSheetID  string
	cachePath       string

	mu    sync.Mutex
	cache map[string]customerRecord

	logger *zap.SugaredLogger
}

type customerRecord struct {
	SheetID   string    `json:"sheet_id"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRegistryService(api *sheets.Service, registrySheetID, defaultSheetID, cachePath string, logger *zap.SugaredLogger) *RegistryService {
	r := &RegistryService{
		api:             api,
		registrySheetID: registrySheetID,
		defaultSheetID:  defaultSheetID,
		cachePath:       cachePath,
		cache:           map[string]customerRecord{},
		logger:          logger,
	}
	r.loadCache()
	return r
}

// NormalizeWhatsApp strips Twilio's channel prefix, leaving the bare E.164
// digits used as the registry key.
func NormalizeWhatsApp(from string) string {
	return strings.TrimPrefix(strings.TrimSpace(from), "whatsapp:+")
}

// SheetIDFor resolves the destination sheet for a sender. Lookup order is
// local cache, registry spreadsheet, then the default sheet. Resolution never
// fails; an unregistered or unreachable sender falls through to the default.
func (r *RegistryService) SheetIDFor(ctx context.Context, from string) string {
	number := NormalizeWhatsApp(from)
	if number == "" {
		return r.defaultSheetID
	}

	r.mu.Lock()
	rec, ok := r.cache[number]
	r.mu.Unlock()
	if ok {
		return rec.SheetID
	}

	if id := r.lookupRegistry(ctx, number); id != "" {
		r.saveCustomer(number, id)
		return id
	}

	return r.defaultSheetID
}

func (r *RegistryService) lookupRegistry(ctx context.Context, number string) string {
	if r.api == nil || r.registrySheetID == "" {
		return ""
	}

	res, err := r.api.Spreadsheets.Values.Get(r.registrySheetID, "A:B").Context(ctx).Do()
	if err != nil {
		r.logger.Warnw("registry lookup failed", "error", err)
		return ""
	}

	for _, row := range res.Values {
		if len(row) < 2 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == number {
			return strings.TrimSpace(fmt.Sprint(row[1]))
		}
	}
	return ""
}

func (r *RegistryService) loadCache() {
	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := json.Unmarshal(data, &r.cache); err != nil {
		r.logger.Warnw("customer cache unreadable, starting empty", "path", r.cachePath, "error", err)
		r.cache = map[string]customerRecord{}
	}
}

func (r *RegistryService) saveCustomer(number, sheetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache[number] = customerRecord{SheetID: sheetID, CreatedAt: time.Now().UTC()}

	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		r.logger.Warnw("failed to marshal customer cache", "error", err)
		return
	}
	if err := os.WriteFile(r.cachePath, data, 0o644); err != nil {
		r.logger.Warnw("failed to write customer cache", "path", r.cachePath, "error", err)
	}
}
