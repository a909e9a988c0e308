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

package thrift

import (
	"context"

	athrift "github.com/apache/thrift/lib/go/thrift"
)

// fakeAllocator counts acquisitions and releases so tests can assert
// buffer accounting without a real pool.
type fakeAllocator struct {
	acquired, released int
}

func (a *fakeAllocator) Acquire(capacity int) []byte {
	a.acquired++
	return make([]byte, 0, capacity)
}

func (a *fakeAllocator) Release([]byte) { a.released++ }

// stringArgs is a hand-written stand-in for a thriftrw/thrift-compiler
// generated one-field argument struct, used to exercise encode/decode
// round trips without checking in generated code.
type stringArgs struct {
	Msg string
}

func (v *stringArgs) Write(ctx context.Context, oprot athrift.TProtocol) error {
	if err := oprot.WriteStructBegin(ctx, "echo_args"); err != nil {
		return err
	}
	if err := oprot.WriteFieldBegin(ctx, "msg", athrift.STRING, 1); err != nil {
		return err
	}
	if err := oprot.WriteString(ctx, v.Msg); err != nil {
		return err
	}
	if err := oprot.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := oprot.WriteFieldStop(ctx); err != nil {
		return err
	}
	return oprot.WriteStructEnd(ctx)
}

func (v *stringArgs) Read(ctx context.Context, iprot athrift.TProtocol) error {
	if _, err := iprot.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := iprot.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == athrift.STOP {
			break
		}
		if id == 1 && fieldType == athrift.STRING {
			if v.Msg, err = iprot.ReadString(ctx); err != nil {
				return err
			}
		} else if err := iprot.Skip(ctx, fieldType); err != nil {
			return err
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return iprot.ReadStructEnd(ctx)
}
