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
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRequestContext struct{}

func (fakeRequestContext) Allocator() BufferAllocator { return nil }
func (fakeRequestContext) Log() LogBuilder             { return nil }
func (fakeRequestContext) Verbose() bool               { return false }

func TestPushRestoresDepthOnNormalReturn(t *testing.T) {
	before := PushDepth()
	var sawCurrent bool
	Push(context.Background(), fakeRequestContext{}, func(ctx context.Context) {
		assert.Equal(t, before+1, PushDepth())
		_, sawCurrent = Current(ctx)
	})
	assert.True(t, sawCurrent)
	assert.Equal(t, before, PushDepth())
}

func TestPushRestoresDepthOnPanic(t *testing.T) {
	before := PushDepth()
	assert.Panics(t, func() {
		Push(context.Background(), fakeRequestContext{}, func(ctx context.Context) {
			panic("boom")
		})
	})
	assert.Equal(t, before, PushDepth())
}

func TestCurrentWithoutPush(t *testing.T) {
	_, ok := Current(context.Background())
	assert.False(t, ok)
}
