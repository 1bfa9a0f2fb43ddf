// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const (
	maxBodySize      = 10 << 20
	maxMultipartSize = 32 << 20
)

// CodeInvalidJSON is returned when a JSON request body cannot be decoded.
const CodeInvalidJSON = "rest_invalid_json"

var errInvalidJSON = errors.New("invalid JSON body")

// requestValues merges request parameters the way clients of the connector
// send them: query string first, then form fields or a JSON object body.
// Later sources override earlier ones. Keys ending in "[]" are stored
// without the suffix.
func requestValues(r *http.Request) (map[string]any, error) {
	values := make(map[string]any)
	addURLValues(values, r.URL.Query())

	if r.Body == nil || r.Body == http.NoBody {
		return values, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return values, nil
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
		}
		for k, v := range obj {
			values[strings.TrimSuffix(k, "[]")] = v
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartSize); err != nil {
			return nil, fmt.Errorf("parsing multipart form: %w", err)
		}
		addURLValues(values, r.MultipartForm.Value)
	default:
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parsing form: %w", err)
		}
		addURLValues(values, r.PostForm)
	}

	return values, nil
}

func addURLValues(dst map[string]any, src url.Values) {
	for k, vs := range src {
		if len(vs) == 0 {
			continue
		}
		key := strings.TrimSuffix(k, "[]")
		if len(vs) == 1 && key == k {
			dst[key] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		dst[key] = list
	}
}
