package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/payment-review/internal/common"
)

// StatusError is a non-2xx response from the remote service.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: non-2xx status: %d", e.Method, e.URL, e.Status)
}

// DoJSON sends an optional JSON body to a full URL and returns the raw response body.
// The request ID comes from ctx when present. Non-2xx responses return *StatusError
// together with the body.
func DoJSON(ctx context.Context, client *http.Client, method, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	ctx, reqID := common.EnsureRequestID(ctx)
	start := time.Now()

	var reader io.Reader
	contentLength := 0
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			logger.Error("extract.http.encode_error", "req_id", reqID, "error", err)
			return nil, 0, fmt.Errorf("encode json: %w", err)
		}
		reader = bytes.NewReader(bs)
		contentLength = len(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		logger.Error("extract.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	// Default headers; allow caller overrides.
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("extract.http.request",
		"req_id", reqID,
		"document_id", common.DocumentIDFromContext(ctx),
		"method", method,
		"url", url,
		"content_length", contentLength,
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("extract.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Warn("extract.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	logger.Info("extract.http.response",
		"req_id", reqID,
		"document_id", common.DocumentIDFromContext(ctx),
		"method", method,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, &StatusError{Method: method, URL: url, Status: resp.StatusCode, Body: raw}
	}
	return raw, resp.StatusCode, nil
}
