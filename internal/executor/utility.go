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
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// utilityGroup provides small local helpers: sleeping, logging, and id
// generation.
type utilityGroup struct {
	logger *slog.Logger
}

func (g *utilityGroup) execute(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
	switch operation {
	case "time.sleep":
		return g.sleep(ctx, params)
	case "time.now":
		now := time.Now()
		return map[string]interface{}{
			"unix": now.Unix(),
			"iso":  now.UTC().Format(time.RFC3339),
		}, nil
	case "util.uuid":
		return map[string]interface{}{"uuid": uuid.NewString()}, nil
	case "log.info", "log.warn", "log.error":
		return g.log(operation, params)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

// sleep pauses for "duration" (Go duration string) or "seconds".
func (g *utilityGroup) sleep(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	var d time.Duration
	switch {
	case params["duration"] != nil:
		s, ok := params["duration"].(string)
		if !ok {
			return nil, fmt.Errorf("duration must be a string like \"500ms\"")
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %w", err)
		}
		d = parsed
	case params["seconds"] != nil:
		switch v := params["seconds"].(type) {
		case int:
			d = time.Duration(v) * time.Second
		case float64:
			d = time.Duration(v * float64(time.Second))
		default:
			return nil, fmt.Errorf("seconds must be a number, got %T", params["seconds"])
		}
	default:
		return nil, fmt.Errorf("duration or seconds is required")
	}

	select {
	case <-time.After(d):
		return map[string]interface{}{"slept_ms": d.Milliseconds()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *utilityGroup) log(operation string, params map[string]interface{}) (map[string]interface{}, error) {
	msg, _ := params["message"].(string)
	if msg == "" {
		return nil, fmt.Errorf("message is required")
	}
	switch operation {
	case "log.warn":
		g.logger.Warn(msg)
	case "log.error":
		g.logger.Error(msg)
	default:
		g.logger.Info(msg)
	}
	return map[string]interface{}{"logged": true}, nil
}
