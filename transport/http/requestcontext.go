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
)

// requestContext is the default api.RequestContext built fresh for every
// HTTP request; it also serves as its own api.LogBuilder, logging through
// the Handler's zap.Logger.
type requestContext struct {
	alloc   api.BufferAllocator
	logger  *zap.Logger
	verbose bool
}

func (c *requestContext) Allocator() api.BufferAllocator { return c.alloc }
func (c *requestContext) Log() api.LogBuilder            { return c }
func (c *requestContext) Verbose() bool                  { return c.verbose }

func (c *requestContext) LogRequest(call api.Call) {
	c.logger.Debug("thrift call",
		zap.String("service", call.Service),
		zap.String("method", call.Method),
	)
}

func (c *requestContext) LogResponse(serviceType api.ServiceType, method string, result interface{}, err error) {
	if err != nil {
		c.logger.Debug("thrift response", zap.String("method", method), zap.Error(err))
		return
	}
	c.logger.Debug("thrift response", zap.String("method", method))
}
