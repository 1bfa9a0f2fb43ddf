// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createApiLog = `
INSERT INTO api_logs (request_method, endpoint, request_headers, request_body, response_code,
    response_body, client_ip, user_agent, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateApiLogParams struct {
	RequestMethod  string    `json:"request_method"`
	Endpoint       string    `json:"endpoint"`
	RequestHeaders string    `json:"request_headers"`
	RequestBody    string    `json:"request_body"`
	ResponseCode   int64     `json:"response_code"`
	ResponseBody   string    `json:"response_body"`
	ClientIp       string    `json:"client_ip"`
	UserAgent      string    `json:"user_agent"`
	CreatedAt      time.Time `json:"created_at"`
}

func (q *Queries) CreateApiLog(ctx context.Context, arg CreateApiLogParams) error {
	_, err := q.db.ExecContext(ctx, createApiLog,
		arg.RequestMethod,
		arg.Endpoint,
		arg.RequestHeaders,
		arg.RequestBody,
		arg.ResponseCode,
		arg.ResponseBody,
		arg.ClientIp,
		arg.UserAgent,
		arg.CreatedAt,
	)
	return err
}

const listRecentApiLogs = `
SELECT id, request_method, endpoint, request_headers, request_body, response_code,
    response_body, client_ip, user_agent, created_at
FROM api_logs ORDER BY id DESC LIMIT ?`

func (q *Queries) ListRecentApiLogs(ctx context.Context, limit int64) ([]ApiLog, error) {
	rows, err := q.db.QueryContext(ctx, listRecentApiLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ApiLog
	for rows.Next() {
		var i ApiLog
		if err := rows.Scan(
			&i.ID,
			&i.RequestMethod,
			&i.Endpoint,
			&i.RequestHeaders,
			&i.RequestBody,
			&i.ResponseCode,
			&i.ResponseBody,
			&i.ClientIp,
			&i.UserAgent,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createEvent = `
INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)`

type CreateEventParams struct {
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt)
	return err
}

const listEvents = `
SELECT id, level, category, message, metadata, created_at
FROM events ORDER BY id DESC LIMIT ?`

func (q *Queries) ListEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(&i.ID, &i.Level, &i.Category, &i.Message, &i.Metadata, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createWebhookDelivery = `
INSERT INTO webhook_deliveries (action, url, payload, success, response_code, response_body,
    error_message, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateWebhookDeliveryParams struct {
	Action       string         `json:"action"`
	Url          string         `json:"url"`
	Payload      string         `json:"payload"`
	Success      bool           `json:"success"`
	ResponseCode sql.NullInt64  `json:"response_code"`
	ResponseBody sql.NullString `json:"response_body"`
	ErrorMessage sql.NullString `json:"error_message"`
	DurationMs   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (q *Queries) CreateWebhookDelivery(ctx context.Context, arg CreateWebhookDeliveryParams) error {
	_, err := q.db.ExecContext(ctx, createWebhookDelivery,
		arg.Action,
		arg.Url,
		arg.Payload,
		arg.Success,
		arg.ResponseCode,
		arg.ResponseBody,
		arg.ErrorMessage,
		arg.DurationMs,
		arg.CreatedAt,
	)
	return err
}

const listWebhookDeliveries = `
SELECT id, action, url, payload, success, response_code, response_body, error_message,
    duration_ms, created_at
FROM webhook_deliveries ORDER BY id DESC LIMIT ?`

func (q *Queries) ListWebhookDeliveries(ctx context.Context, limit int64) ([]WebhookDelivery, error) {
	rows, err := q.db.QueryContext(ctx, listWebhookDeliveries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WebhookDelivery
	for rows.Next() {
		var i WebhookDelivery
		if err := rows.Scan(
			&i.ID,
			&i.Action,
			&i.Url,
			&i.Payload,
			&i.Success,
			&i.ResponseCode,
			&i.ResponseBody,
			&i.ErrorMessage,
			&i.DurationMs,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
