package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/invoiceops/invoice-automation/dto"
)

type stubAppender struct {
	err   error
	calls int
}

func (s *stubAppender) AppendInvoiceRow(ctx context.Context, parsed *dto.ParsedInvoice, sheetID string) error {
	s.calls++
	return s.err
}

func newTestRetryService(t *testing.T, appender RowAppender, maxAttempts int) (*RetryService, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "failed_appends")
	r, err := NewRetryService(appender, dir, maxAttempts, 0, zap.NewNop().Sugar())
	require.NoError(t, err)
	return r, dir
}

func TestRetryQueueAndReplaySuccess(t *testing.T) {
	appender := &stubAppender{}
	r, dir := newTestRetryService(t, appender, 1)

	require.NoError(t, r.QueueFailedAppend(testInvoice("MM300.jpg")))
	require.FileExists(t, filepath.Join(dir, "MM300.json"))

	r.RunOnce(context.Background())

	assert.Equal(t, 1, appender.calls)
	assert.NoFileExists(t, filepath.Join(dir, "MM300.json"))
	assert.FileExists(t, filepath.Join(dir, "retries", "MM300.json"))
}

func TestRetryExhaustedMovesToPerm(t *testing.T) {
	appender := &stubAppender{err: errors.New("quota exceeded")}
	r, dir := newTestRetryService(t, appender, 2)

	require.NoError(t, r.QueueFailedAppend(testInvoice("MM301.jpg")))
	r.RunOnce(context.Background())

	assert.Equal(t, 2, appender.calls)
	assert.FileExists(t, filepath.Join(dir, "perm", "MM301.json"))
}

func TestRetryCorruptFileMovesToPerm(t *testing.T) {
	appender := &stubAppender{}
	r, dir := newTestRetryService(t, appender, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("not json"), 0o644))
	r.RunOnce(context.Background())

	assert.Equal(t, 0, appender.calls)
	assert.FileExists(t, filepath.Join(dir, "perm", "garbage.json"))
}

func TestRetryQueuedPayloadRoundTrips(t *testing.T) {
	appender := &stubAppender{}
	r, dir := newTestRetryService(t, appender, 1)

	parsed := testInvoice("MM302.jpg")
	require.NoError(t, r.QueueFailedAppend(parsed))

	data, err := os.ReadFile(filepath.Join(dir, "MM302.json"))
	require.NoError(t, err)

	var got dto.ParsedInvoice
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, parsed.File, got.File)
	assert.Equal(t, parsed.SheetID, got.SheetID)
	require.NotNil(t, got.Total)
	assert.InDelta(t, *parsed.Total, *got.Total, 0.01)
}
