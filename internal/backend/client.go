// Package backend talks to the PHP endpoints that own all hotel data.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const maxBodyBytes = 8 << 20

// Caller is implemented by Client and by test doubles.
type Caller interface {
	Call(ctx context.Context, ep Endpoint, action string, payload any) (Response, error)
}

// Observer receives one sample per backend round trip.
type Observer interface {
	ObserveBackendCall(script, action, outcome string, elapsed time.Duration)
}

// Client posts multipart forms to the PHP backend. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	logger     *slog.Logger
}

// NewClient constructs a client rooted at baseURL, e.g. http://host/hotel/api.
func NewClient(baseURL string, timeout time.Duration, observer Observer, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		observer:   observer,
		logger:     logger,
	}
}

// Call sends action to ep. payload, when non-nil, is JSON encoded into the
// json form field.
func (c *Client) Call(ctx context.Context, ep Endpoint, action string, payload any) (Response, error) {
	start := time.Now()
	resp, err := c.call(ctx, ep, action, payload)
	c.observe(ep, action, resp, err, time.Since(start))
	if err != nil {
		c.logger.Warn("backend call failed",
			slog.String("script", ep.Script),
			slog.String("action", action),
			slog.Any("error", err))
	}
	return resp, err
}

func (c *Client) call(ctx context.Context, ep Endpoint, action string, payload any) (Response, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField(ep.ActionField, action); err != nil {
		return Response{}, err
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Response{}, fmt.Errorf("encode %s payload: %w", action, err)
		}
		if err := writer.WriteField("json", string(data)); err != nil {
			return Response{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.baseURL, ep.Script), body)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s %s: %v", ErrTransport, ep.Script, action, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Response{}, fmt.Errorf("%w: %s %s returned status %d", ErrTransport, ep.Script, action, res.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("%w: read %s %s: %v", ErrTransport, ep.Script, action, err)
	}
	return Parse(action, raw)
}

func (c *Client) observe(ep Endpoint, action string, resp Response, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendCall(ep.Script, action, outcomeLabel(resp, err), elapsed)
}

func outcomeLabel(resp Response, err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		return "transport"
	case err != nil:
		return "error"
	}
	if ok, _ := resp.Outcome(); !ok {
		return "rejected"
	}
	return "ok"
}
