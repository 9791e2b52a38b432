package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoiceops/invoice-automation/dto"
)

// RetryService replays sheet appends that failed at webhook time. Each failed
// append is a JSON file under the failed-appends directory; replayed files
// move to retries/ on success and perm/ once they are corrupt or out of
// attempts.
type RetryService struct {
	appender    RowAppender
	failedDir   string
	maxAttempts int
	backoffBase float64
	logger      *zap.SugaredLogger
}

func NewRetryService(appender RowAppender, failedDir string, maxAttempts int, backoffBase float64, logger *zap.SugaredLogger) (*RetryService, error) {
	for _, dir := range []string{failedDir, filepath.Join(failedDir, "retries"), filepath.Join(failedDir, "perm")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create retry dir: %w", err)
		}
	}

	return &RetryService{
		appender:    appender,
		failedDir:   failedDir,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		logger:      logger,
	}, nil
}

// QueueFailedAppend persists a parsed invoice whose append failed so a later
// replay can retry it.
func (r *RetryService) QueueFailedAppend(parsed *dto.ParsedInvoice) error {
	data, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal failed append: %w", err)
	}

	name := strings.TrimSuffix(parsed.File, filepath.Ext(parsed.File))
	if name == "" {
		name = uuid.NewString()
	}
	path := filepath.Join(r.failedDir, name+".json")

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to queue append for retry: %w", err)
	}

	r.logger.Infow("queued failed append", "path", path)
	return nil
}

// RunOnce replays every queued file once through the attempt loop.
func (r *RetryService) RunOnce(ctx context.Context) {
	entries, err := os.ReadDir(r.failedDir)
	if err != nil {
		r.logger.Errorw("failed to scan retry queue", "error", err)
		return
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		r.retryFile(ctx, filepath.Join(r.failedDir, name))
	}
}

// RunLoop replays the queue on an interval until the context ends.
func (r *RetryService) RunLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

func (r *RetryService) retryFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Errorw("failed to read queued append", "path", path, "error", err)
		return
	}

	var parsed dto.ParsedInvoice
	if err := json.Unmarshal(data, &parsed); err != nil {
		r.logger.Warnw("queued append is corrupt, parking it", "path", path, "error", err)
		r.move(path, "perm")
		return
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.appender.AppendInvoiceRow(ctx, &parsed, parsed.SheetID)
		if err == nil {
			r.logger.Infow("replayed queued append", "file", parsed.File, "attempt", attempt)
			r.move(path, "retries")
			return
		}

		r.logger.Warnw("replay attempt failed", "file", parsed.File, "attempt", attempt, "error", err)
		if attempt < r.maxAttempts {
			backoff := time.Duration(math.Pow(r.backoffBase, float64(attempt)) * float64(time.Second))
			jitter := time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff + jitter):
			}
		}
	}

	r.logger.Errorw("queued append exhausted retries, parking it", "file", parsed.File)
	r.move(path, "perm")
}

func (r *RetryService) move(path, subdir string) {
	dest := filepath.Join(r.failedDir, subdir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		r.logger.Errorw("failed to move queued append", "from", path, "to", dest, "error", err)
	}
}
