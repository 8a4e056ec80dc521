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

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}

	if cfg.Format != FormatJSON {
		t.Errorf("expected default format 'json', got %q", cfg.Format)
	}

	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}

	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected *Config
	}{
		{
			name:    "defaults when no env vars",
			envVars: map[string]string{},
			expected: &Config{
				Level:     "info",
				Format:    FormatJSON,
				Output:    os.Stderr,
				AddSource: false,
			},
		},
		{
			name: "LOG_LEVEL=debug",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			expected: &Config{
				Level:     "debug",
				Format:    FormatJSON,
				Output:    os.Stderr,
				AddSource: false,
			},
		},
		{
			name: "BATON_DEBUG enables debug and source",
			envVars: map[string]string{
				"BATON_DEBUG": "1",
			},
			expected: &Config{
				Level:     "debug",
				Format:    FormatJSON,
				Output:    os.Stderr,
				AddSource: true,
			},
		},
		{
			name: "BATON_LOG_LEVEL takes precedence over LOG_LEVEL",
			envVars: map[string]string{
				"BATON_LOG_LEVEL": "trace",
				"LOG_LEVEL":       "error",
			},
			expected: &Config{
				Level:     "trace",
				Format:    FormatJSON,
				Output:    os.Stderr,
				AddSource: false,
			},
		},
		{
			name: "LOG_FORMAT=text",
			envVars: map[string]string{
				"LOG_FORMAT": "text",
			},
			expected: &Config{
				Level:     "info",
				Format:    FormatText,
				Output:    os.Stderr,
				AddSource: false,
			},
		},
		{
			name: "all env vars",
			envVars: map[string]string{
				"LOG_LEVEL":  "error",
				"LOG_FORMAT": "text",
				"LOG_SOURCE": "1",
			},
			expected: &Config{
				Level:     "error",
				Format:    FormatText,
				Output:    os.Stderr,
				AddSource: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := FromEnv()

			if cfg.Level != tt.expected.Level {
				t.Errorf("expected level %q, got %q", tt.expected.Level, cfg.Level)
			}
			if cfg.Format != tt.expected.Format {
				t.Errorf("expected format %q, got %q", tt.expected.Format, cfg.Format)
			}
			if cfg.AddSource != tt.expected.AddSource {
				t.Errorf("expected AddSource %v, got %v", tt.expected.AddSource, cfg.AddSource)
			}
		})
	}
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "info",
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Info("hello", "execution_id", "exec-1")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg 'hello', got %v", entry["msg"])
	}
	if entry["execution_id"] != "exec-1" {
		t.Errorf("expected execution_id 'exec-1', got %v", entry["execution_id"])
	}
}

func TestNewTextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "info",
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output to contain msg=hello, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "warn",
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Debug("invisible")
	logger.Info("invisible")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "invisible") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("expected warn to pass, got %q", out)
	}
}

func TestTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "trace",
		Format: FormatJSON,
		Output: &buf,
	})

	Trace(logger, "deep detail", String("step_id", "deploy"))

	if !strings.Contains(buf.String(), "deep detail") {
		t.Errorf("expected trace output at trace level, got %q", buf.String())
	}

	buf.Reset()
	quiet := New(&Config{Level: "debug", Format: FormatJSON, Output: &buf})
	Trace(quiet, "deep detail")
	if buf.Len() != 0 {
		t.Errorf("expected no trace output at debug level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"trace", "DEBUG-4"},
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"WARN", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input).String(); got != tt.expected {
				t.Errorf("parseLevel(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeSecret(t *testing.T) {
	if got := SanitizeSecret("sk-abcdef1234"); got != "...1234" {
		t.Errorf("expected '...1234', got %q", got)
	}
	if got := SanitizeSecret("abc"); got != "[REDACTED]" {
		t.Errorf("expected '[REDACTED]' for short value, got %q", got)
	}
}

func TestSanitizeParams(t *testing.T) {
	params := map[string]interface{}{
		"image":            "web:v1.2",
		"api_key":          "sk-very-secret",
		"DatabasePassword": "hunter2",
		"replicas":         3,
	}

	out := SanitizeParams(params)

	if out["image"] != "web:v1.2" {
		t.Errorf("expected plain value preserved, got %v", out["image"])
	}
	if out["api_key"] != "[REDACTED]" {
		t.Errorf("expected api_key masked, got %v", out["api_key"])
	}
	if out["DatabasePassword"] != "[REDACTED]" {
		t.Errorf("expected DatabasePassword masked, got %v", out["DatabasePassword"])
	}
	if out["replicas"] != 3 {
		t.Errorf("expected replicas preserved, got %v", out["replicas"])
	}

	if SanitizeParams(nil) != nil {
		t.Errorf("expected nil passthrough")
	}
}
