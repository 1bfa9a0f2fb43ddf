// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/post-connector/internal/store"
	"github.com/olegiv/post-connector/internal/util"
)

// Delivery configuration constants
const (
	DefaultTimeout   = 10 * time.Second  // HTTP request timeout
	MaxResponseLen   = 10 * 1024         // Maximum response body to store (10KB)
	DefaultUserAgent = "PostConnector/1" // User-Agent header value
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success      bool
	StatusCode   int
	ResponseBody string
	Error        error
	Duration     time.Duration
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Send posts payload to the configured URL once and records the attempt.
// It never retries.
func (d *Dispatcher) Send(ctx context.Context, action string, payload any) DeliveryResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return DeliveryResult{Error: fmt.Errorf("encoding payload: %w", err)}
	}

	start := time.Now()
	result := d.attemptDelivery(ctx, action, body)
	result.Duration = time.Since(start)

	d.metrics.RecordWebhook(action, result.Success, result.Duration)
	d.record(ctx, action, body, result)

	if result.Success {
		d.logger.Info("webhook delivered",
			"action", action,
			"status_code", result.StatusCode,
			"duration", result.Duration)
	} else {
		d.logger.Warn("webhook delivery failed",
			"action", action,
			"status_code", result.StatusCode,
			"error", result.Error)
	}
	return result
}

// attemptDelivery performs the actual HTTP POST request.
func (d *Dispatcher) attemptDelivery(ctx context.Context, action string, payload []byte) DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return DeliveryResult{Error: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("X-Webhook-Event", action)
	req.Header.Set("X-Webhook-Delivery-ID", uuid.NewString())

	if d.secrets != nil {
		if secret := d.secrets.SecretKey(ctx); secret != "" {
			req.Header.Set("X-Webhook-Signature", GenerateSignature(payload, secret))
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return DeliveryResult{Error: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	responseBody := string(body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return DeliveryResult{
			Success:      true,
			StatusCode:   resp.StatusCode,
			ResponseBody: responseBody,
		}
	}

	return DeliveryResult{
		StatusCode:   resp.StatusCode,
		ResponseBody: responseBody,
		Error:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

func (d *Dispatcher) record(ctx context.Context, action string, payload []byte, result DeliveryResult) {
	if d.queries == nil {
		return
	}

	errMsg := ""
	if result.Error != nil {
		errMsg = result.Error.Error()
	}

	// The request context may already be done once the response is written.
	err := d.queries.CreateWebhookDelivery(context.WithoutCancel(ctx), store.CreateWebhookDeliveryParams{
		Action:       action,
		Url:          d.url,
		Payload:      string(payload),
		Success:      result.Success,
		ResponseCode: util.NullInt64Positive(int64(result.StatusCode)),
		ResponseBody: util.NullStringFromValue(result.ResponseBody),
		ErrorMessage: util.NullStringFromValue(errMsg),
		DurationMs:   result.Duration.Milliseconds(),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		d.logger.Error("failed to record webhook delivery", "error", err, "action", action)
	}
}
