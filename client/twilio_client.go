package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/invoiceops/invoice-automation/dto"
)

// TwilioClient downloads WhatsApp media attachments from the Twilio API.
type TwilioClient struct {
	accountSID string
	authToken  string
	httpClient *http.Client
}

func NewTwilioClient(accountSID, authToken string) *TwilioClient {
	return &TwilioClient{
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// DownloadMedia fetches one media item and saves it under destDir as
// baseName plus an extension derived from the response Content-Type.
// Twilio serves the bytes at the /Content suffix of the media URL, and may
// return 404 briefly after the webhook fires while the media is still being
// staged; that case is reported as dto.ErrMediaNotReady so the caller can
// ask the provider to retry the webhook.
func (tc *TwilioClient) DownloadMedia(ctx context.Context, mediaURL, destDir, baseName string) (string, error) {
	contentURL := strings.TrimRight(mediaURL, "/") + "/Content"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build media request: %w", err)
	}
	if tc.accountSID != "" && tc.authToken != "" {
		req.SetBasicAuth(tc.accountSID, tc.authToken)
	}

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", dto.ErrMediaNotReady
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	dest := filepath.Join(destDir, baseName+"."+extensionFor(resp.Header.Get("Content-Type"), mediaURL))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return dest, nil
}

func extensionFor(contentType, mediaURL string) string {
	switch {
	case strings.Contains(contentType, "image/jpeg"):
		return "jpg"
	case strings.Contains(contentType, "image/png"):
		return "png"
	case strings.Contains(contentType, "application/pdf"):
		return "pdf"
	}
	if ext := strings.TrimPrefix(path.Ext(mediaURL), "."); ext != "" {
		return ext
	}
	return "bin"
}
