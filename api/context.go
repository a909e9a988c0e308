// Copyright (c) 2016 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package api

import (
	"context"

	"go.uber.org/atomic"
)

// BufferAllocator acquires and releases byte buffers backing request and
// response bodies. Implementations must be safe for concurrent use; the
// core treats it as shared across every in-flight request.
type BufferAllocator interface {
	Acquire(capacity int) []byte
	Release(buf []byte)
}

// LogBuilder accepts decoded request and response content for external
// logging.
type LogBuilder interface {
	LogRequest(call Call)
	LogResponse(service ServiceType, method string, result interface{}, err error)
}

// RequestContext is the externally-owned handle carried through one
// request's lifetime.
type RequestContext interface {
	Allocator() BufferAllocator
	Log() LogBuilder
	// Verbose reports whether error bodies should include a rendered
	// server-side stack trace.
	Verbose() bool
}

type contextKey struct{}

// pushDepth counts scoped Push acquisitions currently outstanding across
// every in-flight request. It exists so tests can assert the "acquisition
// count equals release count" invariant without threading a counter
// through every call site.
var pushDepth = atomic.NewInt64(0)

// PushDepth reports the number of Push scopes presently open.
func PushDepth() int64 { return pushDepth.Load() }

// Push establishes rc as the current RequestContext for the duration of
// fn, guaranteeing the scope is closed — and PushDepth decremented — on
// every exit path, including a panic unwinding out of fn.
func Push(ctx context.Context, rc RequestContext, fn func(ctx context.Context)) {
	pushDepth.Inc()
	defer pushDepth.Dec()
	fn(context.WithValue(ctx, contextKey{}, rc))
}

// Current returns the RequestContext established by the innermost
// enclosing Push call, if any.
func Current(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(RequestContext)
	return rc, ok
}
