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

package httpclient

import (
	"net/url"
	"strings"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		redacted []string
		kept     []string
	}{
		{
			name:     "api key redacted",
			rawURL:   "https://api.example.com/v1?api_key=sk-12345&page=2",
			redacted: []string{"sk-12345"},
			kept:     []string{"page=2"},
		},
		{
			name:     "token redacted case-insensitively",
			rawURL:   "https://api.example.com/v1?ACCESS_TOKEN=abc&limit=10",
			redacted: []string{"abc"},
			kept:     []string{"limit=10"},
		},
		{
			name:     "password redacted",
			rawURL:   "https://example.com/login?password=hunter2",
			redacted: []string{"hunter2"},
		},
		{
			name:   "plain params untouched",
			rawURL: "https://example.com/search?q=workflows&page=1",
			kept:   []string{"q=workflows", "page=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			if err != nil {
				t.Fatalf("parsing url: %v", err)
			}

			got := sanitizeURL(u)
			for _, secret := range tt.redacted {
				if strings.Contains(got, secret) {
					t.Errorf("sanitized url leaks %q: %s", secret, got)
				}
			}
			for _, param := range tt.kept {
				if !strings.Contains(got, param) {
					t.Errorf("sanitized url lost %q: %s", param, got)
				}
			}
			if len(tt.redacted) > 0 && !strings.Contains(got, "%5BREDACTED%5D") {
				t.Errorf("expected redaction marker in %s", got)
			}
		})
	}

	if got := sanitizeURL(nil); got != "" {
		t.Errorf("nil url should sanitize to empty string, got %q", got)
	}
}

func TestIsSensitiveParam(t *testing.T) {
	sensitive := []string{"api_key", "ApiKey", "AUTH", "x-secret-value", "session_token", "client_credential"}
	for _, p := range sensitive {
		if !isSensitiveParam(p) {
			t.Errorf("expected %q to be sensitive", p)
		}
	}

	plain := []string{"page", "limit", "q", "sort"}
	for _, p := range plain {
		if isSensitiveParam(p) {
			t.Errorf("expected %q to be plain", p)
		}
	}
}
