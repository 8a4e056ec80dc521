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

// Package httpclient provides an HTTP client factory with consistent
// timeout, retry, and logging behavior for operations that call remote
// APIs.
//
// Clients are composed from transport layers:
//   - Automatic retry with exponential backoff and jitter
//   - Request logging with sanitized URLs (sensitive params redacted)
//   - User-Agent header injection
//   - TLS 1.2 minimum and connection pooling
//
// Create a client with default settings:
//
//	client, err := httpclient.New(httpclient.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Get("https://api.example.com/resource")
//
// # Retry behavior
//
// Transient failures are retried with exponential backoff:
//   - HTTP 5xx server errors
//   - HTTP 429 (rate limit), honoring the Retry-After header
//   - HTTP 408 (request timeout)
//   - Network errors (connection refused, reset, DNS failures)
//
// Only idempotent methods (GET, HEAD, OPTIONS) are retried by default;
// set AllowNonIdempotentRetry when the remote side handles
// Idempotency-Key headers. Workflow steps that opt into engine-level
// retry should keep client retries disabled to avoid multiplying
// attempts.
package httpclient
