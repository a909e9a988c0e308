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

package http

import (
	"context"
	"errors"

	"github.com/gothrift/thriftrelay/api"
)

// Invoker resolves and invokes one already-decoded call. It is the unit
// the decorator chain wraps.
type Invoker interface {
	Invoke(ctx context.Context, call api.Call) (interface{}, error)
}

// InvokerFunc adapts a function to an Invoker.
type InvokerFunc func(ctx context.Context, call api.Call) (interface{}, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, call api.Call) (interface{}, error) {
	return f(ctx, call)
}

// Decorator wraps an Invoker with middleware, preserving the
// request-context scope the pipeline has already pushed around the call.
// Decoration composes left-to-right: Chain(table, d1, d2) runs a call as
// d2(d1(dispatchInvoker)).
type Decorator func(next Invoker) Invoker

type unwrapper interface {
	Unwrap() Invoker
}

// Middleware builds a Decorator from fn. The Invoker it produces
// implements Unwrap, so Chain can see through it when verifying that the
// dispatch table is still reachable at the bottom of the stack.
func Middleware(fn func(ctx context.Context, call api.Call, next Invoker) (interface{}, error)) Decorator {
	return func(next Invoker) Invoker {
		return decorated{next: next, fn: fn}
	}
}

type decorated struct {
	next Invoker
	fn   func(ctx context.Context, call api.Call, next Invoker) (interface{}, error)
}

func (d decorated) Invoke(ctx context.Context, call api.Call) (interface{}, error) {
	return d.fn(ctx, call, d.next)
}

func (d decorated) Unwrap() Invoker { return d.next }

// dispatchInvoker is the chain's required innermost Invoker: it resolves
// the call directly against the dispatch table.
type dispatchInvoker struct {
	table *api.DispatchTable
}

func (d dispatchInvoker) Invoke(ctx context.Context, call api.Call) (interface{}, error) {
	rm, ok := d.table.Resolve(call.Service, call.Method)
	if !ok {
		return nil, errUnresolvedCall{service: call.Service, method: call.Method}
	}
	return rm.Handle(ctx, call)
}

type errUnresolvedCall struct{ service, method string }

func (e errUnresolvedCall) Error() string {
	return "thriftrelay: call resolved at decode time is no longer resolvable: " + e.service + ":" + e.method
}

// Chain composes decorators over table's dispatch, rejecting construction
// if the resulting stack's innermost Invoker is not the dispatch table
// itself. A decorator that returns an opaque Invoker (not built with
// Middleware) cannot be seen through, so a chain containing one is
// rejected.
func Chain(table *api.DispatchTable, decorators ...Decorator) (Invoker, error) {
	var inv Invoker = dispatchInvoker{table: table}
	for _, d := range decorators {
		inv = d(inv)
	}

	innermost := inv
	for {
		u, ok := innermost.(unwrapper)
		if !ok {
			break
		}
		innermost = u.Unwrap()
	}
	if _, ok := innermost.(dispatchInvoker); !ok {
		return nil, errors.New("thriftrelay: decorator chain's innermost handler is not the dispatch table")
	}
	return inv, nil
}
