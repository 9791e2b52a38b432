package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeWhatsApp(t *testing.T) {
	assert.Equal(t, "919876543210", NormalizeWhatsApp("whatsapp:+919876543210"))
	assert.Equal(t, "919876543210", NormalizeWhatsApp(" whatsapp:+919876543210 "))
	assert.Equal(t, "919876543210", NormalizeWhatsApp("919876543210"))
	assert.Equal(t, "", NormalizeWhatsApp(""))
}

func TestSheetIDForUnregisteredSenderUsesDefault(t *testing.T) {
	r := NewRegistryService(nil, "", "default-sheet", filepath.Join(t.TempDir(), "customers.json"), zap.NewNop().Sugar())

	got := r.SheetIDFor(context.Background(), "whatsapp:+919876543210")
	assert.Equal(t, "default-sheet", got)
}

func TestSheetIDForReadsCacheFile(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "customers.json")
	cache := map[string]customerRecord{
		"919876543210": {SheetID: "sheet-for-customer", CreatedAt: time.Now().UTC()},
	}
	data, err := json.Marshal(cache)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cachePath, data, 0o644))

	r := NewRegistryService(nil, "", "default-sheet", cachePath, zap.NewNop().Sugar())

	got := r.SheetIDFor(context.Background(), "whatsapp:+919876543210")
	assert.Equal(t, "sheet-for-customer", got)
}

func TestSaveCustomerPersistsCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "customers.json")
	r := NewRegistryService(nil, "", "default-sheet", cachePath, zap.NewNop().Sugar())

	r.saveCustomer("919876543210", "sheet-42")

	// a fresh service instance picks the mapping up from disk
	r2 := NewRegistryService(nil, "", "default-sheet", cachePath, zap.NewNop().Sugar())
	got := r2.SheetIDFor(context.Background(), "whatsapp:+919876543210")
	assert.Equal(t, "sheet-42", got)
}

func TestCorruptCacheFileStartsEmpty(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(cachePath, []byte("not json"), 0o644))

	r := NewRegistryService(nil, "", "default-sheet", cachePath, zap.NewNop().Sugar())

	got := r.SheetIDFor(context.Background(), "whatsapp:+919876543210")
	assert.Equal(t, "default-sheet", got)
}
