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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExecuteRequiresNamespace(t *testing.T) {
	e := New(Config{})
	_, err := e.Execute(context.Background(), "run", nil, nil)
	if err == nil {
		t.Fatal("expected error for un-namespaced operation")
	}
}

func TestExecuteUnknownGroup(t *testing.T) {
	e := New(Config{})
	_, err := e.Execute(context.Background(), "ftp.get", nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown group")
	}
}

func TestShellRun(t *testing.T) {
	e := New(Config{})
	result, err := e.Execute(context.Background(), "shell.run", map[string]interface{}{
		"command": "echo hello",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["stdout"] != "hello" {
		t.Errorf("expected stdout 'hello', got %v", result["stdout"])
	}
	if result["exit_code"] != 0 {
		t.Errorf("expected exit_code 0, got %v", result["exit_code"])
	}
}

func TestShellRunArrayCommand(t *testing.T) {
	e := New(Config{})
	result, err := e.Execute(context.Background(), "shell.run", map[string]interface{}{
		"command": []interface{}{"echo", "a b"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["stdout"] != "a b" {
		t.Errorf("expected stdout 'a b', got %v", result["stdout"])
	}
}

func TestShellRunFailure(t *testing.T) {
	e := New(Config{})
	_, err := e.Execute(context.Background(), "shell.run", map[string]interface{}{
		"command": "exit 3",
	}, nil)
	if err == nil {
		t.Fatal("expected error for failing command")
	}
}

func TestShellRunMissingCommand(t *testing.T) {
	e := New(Config{})
	_, err := e.Execute(context.Background(), "shell.run", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestHTTPGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	e := New(Config{})
	result, err := e.Execute(context.Background(), "http.get", map[string]interface{}{
		"url": srv.URL,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["status"] != 200 {
		t.Errorf("expected status 200, got %v", result["status"])
	}
	decoded, ok := result["json"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected decoded json body, got %T", result["json"])
	}
	if decoded["ok"] != true {
		t.Errorf("expected decoded ok=true, got %v", decoded["ok"])
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(Config{})
	_, err := e.Execute(context.Background(), "http.get", map[string]interface{}{
		"url": srv.URL,
	}, nil)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestHTTPRequestRequiresMethod(t *testing.T) {
	e := New(Config{})
	_, err := e.Execute(context.Background(), "http.request", map[string]interface{}{
		"url": "http://localhost",
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing method")
	}
}

func TestSleep(t *testing.T) {
	e := New(Config{})
	start := time.Now()
	result, err := e.Execute(context.Background(), "time.sleep", map[string]interface{}{
		"duration": "20ms",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected to sleep at least 20ms, slept %v", elapsed)
	}
	if result["slept_ms"] != int64(20) {
		t.Errorf("expected slept_ms 20, got %v", result["slept_ms"])
	}
}

func TestSleepRespectsCancellation(t *testing.T) {
	e := New(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Execute(ctx, "time.sleep", map[string]interface{}{
		"duration": "5s",
	}, nil)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestUUID(t *testing.T) {
	e := New(Config{})
	a, err := e.Execute(context.Background(), "util.uuid", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := e.Execute(context.Background(), "util.uuid", nil, nil)
	if a["uuid"] == b["uuid"] {
		t.Error("expected distinct uuids")
	}
}

func TestLogRequiresMessage(t *testing.T) {
	e := New(Config{})
	_, err := e.Execute(context.Background(), "log.info", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("expected error for missing message")
	}
}
