// Copyright 2026 The Baton Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/batonflow/baton/pkg/httpclient"
)

const maxResponseBytes = 10 << 20 // 10 MiB

// httpGroup performs HTTP requests.
type httpGroup struct {
	client *http.Client
}

// newHTTPGroup builds the group on the shared httpclient factory.
// Client-level retry stays off: the step's retry policy owns the
// attempt budget.
func newHTTPGroup(timeout time.Duration) *httpGroup {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout

	client, err := httpclient.New(cfg)
	if err != nil {
		// Only reachable with an invalid timeout; fall back to a bare
		// client rather than failing executor construction.
		client = &http.Client{Timeout: timeout}
	}
	return &httpGroup{client: client}
}

func (g *httpGroup) execute(ctx context.Context, name string, params map[string]interface{}) (map[string]interface{}, error) {
	switch name {
	case "get":
		return g.request(ctx, http.MethodGet, params)
	case "post":
		return g.request(ctx, http.MethodPost, params)
	case "put":
		return g.request(ctx, http.MethodPut, params)
	case "delete":
		return g.request(ctx, http.MethodDelete, params)
	case "request":
		method, _ := params["method"].(string)
		if method == "" {
			return nil, fmt.Errorf("method is required")
		}
		return g.request(ctx, strings.ToUpper(method), params)
	default:
		return nil, fmt.Errorf("unknown http operation: %s", name)
	}
}

func (g *httpGroup) request(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	url, ok := params["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("url is required")
	}

	var body io.Reader
	if bodyStr, ok := params["body"].(string); ok && bodyStr != "" {
		body = strings.NewReader(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprintf("%v", v))
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	result := map[string]interface{}{
		"status":  resp.StatusCode,
		"headers": flattenHeaders(resp.Header),
		"body":    string(data),
	}

	// Decode JSON bodies into a structured field so conditions and
	// downstream steps can address response fields directly.
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var decoded interface{}
		if err := json.Unmarshal(data, &decoded); err == nil {
			result["json"] = decoded
		}
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request returned status %d", resp.StatusCode)
	}
	return result, nil
}

func flattenHeaders(h http.Header) map[string]interface{} {
	out := make(map[string]interface{}, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
