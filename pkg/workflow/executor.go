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

package workflow

import (
	"context"

	"golang.org/x/time/rate"
)

// OperationExecutor is the only way a step or rollback handler produces
// an effect. The engine stays ignorant of what operations actually do;
// implementations bridge to remote APIs, shells, or test doubles.
//
// Contract: implementations must follow Go conventions:
//   - On success: return (result, nil); a nil result map is allowed
//   - On error: return (nil, error) where error is non-nil
//
// Operations invoked by retryable steps must be safely re-invocable;
// callers are responsible for idempotency of the underlying remote call,
// or must mark the step non-retryable.
type OperationExecutor interface {
	Execute(ctx context.Context, operation string, params map[string]interface{}, execCtx *ExecutionContext) (map[string]interface{}, error)
}

// ExecutorFunc adapts a plain function to the OperationExecutor interface.
type ExecutorFunc func(ctx context.Context, operation string, params map[string]interface{}, execCtx *ExecutionContext) (map[string]interface{}, error)

// Execute implements OperationExecutor.
func (f ExecutorFunc) Execute(ctx context.Context, operation string, params map[string]interface{}, execCtx *ExecutionContext) (map[string]interface{}, error) {
	return f(ctx, operation, params, execCtx)
}

// RateLimitedExecutor wraps an OperationExecutor with a token-bucket rate
// limiter. Useful when the underlying operations hit a remote API with a
// request budget; waiting respects context cancellation.
type RateLimitedExecutor struct {
	inner   OperationExecutor
	limiter *rate.Limiter
}

// NewRateLimitedExecutor creates a rate-limited decorator allowing rps
// operations per second with the given burst.
func NewRateLimitedExecutor(inner OperationExecutor, rps float64, burst int) *RateLimitedExecutor {
	return &RateLimitedExecutor{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Execute waits for a rate-limiter token, then delegates.
func (r *RateLimitedExecutor) Execute(ctx context.Context, operation string, params map[string]interface{}, execCtx *ExecutionContext) (map[string]interface{}, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Execute(ctx, operation, params, execCtx)
}
