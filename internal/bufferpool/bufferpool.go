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

// Package bufferpool provides the default api.BufferAllocator: a
// sync.Pool of reusable byte slices. No pack dependency covers pooled
// byte-slice reuse; sync.Pool is the standard-library primitive built for
// exactly this, so no third-party library is justified here (see
// DESIGN.md).
package bufferpool

import "sync"

// Allocator is a sync.Pool-backed api.BufferAllocator.
type Allocator struct {
	pool sync.Pool
}

// New returns an Allocator whose pooled slices start at initialCap
// capacity.
func New(initialCap int) *Allocator {
	return &Allocator{
		pool: sync.Pool{
			New: func() interface{} { return make([]byte, 0, initialCap) },
		},
	}
}

// Acquire returns a zero-length slice with at least capacity bytes of
// backing storage.
func (a *Allocator) Acquire(capacity int) []byte {
	buf, _ := a.pool.Get().([]byte)
	if cap(buf) < capacity {
		return make([]byte, 0, capacity)
	}
	return buf[:0]
}

// Release returns buf's backing storage to the pool.
func (a *Allocator) Release(buf []byte) {
	a.pool.Put(buf[:0]) //nolint:staticcheck // intentional: reuse backing array only
}

var shared = New(512)

// Default returns the package-level shared Allocator.
func Default() *Allocator { return shared }
