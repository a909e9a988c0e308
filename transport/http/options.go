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
	"go.uber.org/zap"

	"github.com/gothrift/thriftrelay/api"
	"github.com/gothrift/thriftrelay/internal/bufferpool"
)

// defaultEncodeBufCap is the initial capacity of the output buffer
// allocated at encode time, and of the buffer the request body is read
// into.
const defaultEncodeBufCap = 128

type config struct {
	verbose      bool
	logger       *zap.Logger
	allocator    api.BufferAllocator
	encodeBufCap int
}

func defaultConfig() config {
	return config{
		logger:       zap.NewNop(),
		allocator:    bufferpool.Default(),
		encodeBufCap: defaultEncodeBufCap,
	}
}

// Option configures a Handler at construction time.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// Verbose controls whether error bodies and INTERNAL_ERROR application
// exceptions include a rendered server-side stack trace. Default false.
func Verbose(v bool) Option {
	return optionFunc(func(c *config) { c.verbose = v })
}

// WithLogger overrides the default no-op *zap.Logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithAllocator overrides the default sync.Pool-backed buffer allocator.
func WithAllocator(alloc api.BufferAllocator) Option {
	return optionFunc(func(c *config) {
		if alloc != nil {
			c.allocator = alloc
		}
	})
}

// WithEncodeBufferCapacity overrides the initial capacity (default 128)
// of the output buffer allocated at encode time; the request-body buffer
// is acquired with the same capacity.
func WithEncodeBufferCapacity(n int) Option {
	return optionFunc(func(c *config) {
		if n > 0 {
			c.encodeBufCap = n
		}
	})
}
