package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"impulsetracker/internal/proxy"
	"impulsetracker/internal/reqlog"

	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
}

// Client performs venue GET requests: proxy selection, timing, request
// logging and status handling live here so venue clients only decode.
type Client struct {
	rotator *proxy.Rotator
	reqLog  *reqlog.Logger
	logger  *zap.Logger
}

func NewClient(rotator *proxy.Rotator, reqLog *reqlog.Logger, logger *zap.Logger) *Client {
	return &Client{
		rotator: rotator,
		reqLog:  reqLog,
		logger:  logger,
	}
}

// GetJSON fetches endpoint within sess and decodes a 200 response into out.
//
// 403 marks the proxy failed and returns ErrForbidden; 429 returns
// ErrRateLimited; other non-200 statuses return *StatusError. A proxy
// connect failure also marks the proxy failed.
func (c *Client) GetJSON(ctx context.Context, sess *Session, endpoint string, out any) error {
	entry, _ := c.rotator.Next()

	hc, err := sess.client(entry)
	if err != nil {
		c.rotator.MarkFailed(entry)
		c.reqLog.Log(reqlog.Entry{URL: endpoint, Proxy: entry.Masked(), Kind: reqlog.KindProxyError, Err: err})
		return fmt.Errorf("%w: %w", ErrProxy, err)
	}

	if err := sess.acquire(ctx); err != nil {
		c.reqLog.Log(reqlog.Entry{URL: endpoint, Proxy: entry.Masked(), Kind: reqlog.KindTimeout, Err: err})
		return fmt.Errorf("%w: waiting for connection slot: %w", ErrTimeout, err)
	}
	defer sess.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		kind, wrapped := classify(err)
		c.reqLog.Log(reqlog.Entry{
			URL: endpoint, Proxy: entry.Masked(), Kind: kind, Elapsed: time.Since(start), Err: err,
		})
		if kind == reqlog.KindProxyError {
			c.rotator.MarkFailed(entry)
		}
		return wrapped
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)

	if readErr != nil {
		kind, wrapped := classify(readErr)
		c.reqLog.Log(reqlog.Entry{
			URL: endpoint, Proxy: entry.Masked(), Kind: kind, Elapsed: elapsed, Err: readErr,
		})
		return wrapped
	}

	c.reqLog.Log(reqlog.Entry{URL: endpoint, Proxy: entry.Masked(), Status: resp.StatusCode, Elapsed: elapsed})

	switch {
	case resp.StatusCode == http.StatusForbidden:
		c.rotator.MarkFailed(entry)
		return ErrForbidden
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("rate limited", zap.String("url", endpoint), zap.String("proxy", entry.Masked()))
		return ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
