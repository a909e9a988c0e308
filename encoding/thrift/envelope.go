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
	"bytes"
	"context"
	"io"

	athrift "github.com/apache/thrift/lib/go/thrift"

	"github.com/gothrift/thriftrelay/api"
)

// Envelope is the decoded (name, type, seqId) header of one Thrift
// message.
type Envelope struct {
	Name  string
	Type  athrift.TMessageType
	SeqID int32
}

// ReadEnvelope reads a message header from iprot.
func ReadEnvelope(ctx context.Context, iprot athrift.TProtocol) (Envelope, error) {
	name, typeID, seqID, err := iprot.ReadMessageBegin(ctx)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Name: name, Type: typeID, SeqID: seqID}, nil
}

// WriteExceptionEnvelope writes a (name, EXCEPTION, seqId) envelope
// wrapping exc.
func WriteExceptionEnvelope(ctx context.Context, oprot athrift.TProtocol, name string, seqID int32, exc athrift.TApplicationException) error {
	if err := oprot.WriteMessageBegin(ctx, name, athrift.EXCEPTION, seqID); err != nil {
		return err
	}
	if err := exc.Write(ctx, oprot); err != nil {
		return err
	}
	if err := oprot.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return oprot.Flush(ctx)
}

// WriteReplyEnvelope writes a (name, REPLY, seqId) envelope wrapping
// result.
func WriteReplyEnvelope(ctx context.Context, oprot athrift.TProtocol, name string, seqID int32, result athrift.TStruct) error {
	if err := oprot.WriteMessageBegin(ctx, name, athrift.REPLY, seqID); err != nil {
		return err
	}
	if err := result.Write(ctx, oprot); err != nil {
		return err
	}
	if err := oprot.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return oprot.Flush(ctx)
}

// AllocatedTransport is a thrift.TTransport backed by a buffer obtained
// from an api.BufferAllocator. The same type serves both sides of the
// pipeline: Fill loads it with an incoming request body for decode;
// NewAllocatedTransport alone yields an empty buffer to encode into.
//
// Release returns the backing buffer to the allocator and must be called
// on every exit path that does not hand Bytes() off to the HTTP response.
type AllocatedTransport struct {
	buf   bytes.Buffer
	alloc api.BufferAllocator
	seed  []byte
}

// NewAllocatedTransport acquires a buffer of the given capacity from
// alloc and wraps it as a thrift.TTransport.
func NewAllocatedTransport(alloc api.BufferAllocator, capacity int) *AllocatedTransport {
	seed := alloc.Acquire(capacity)
	t := &AllocatedTransport{alloc: alloc, seed: seed}
	t.buf = *bytes.NewBuffer(seed[:0])
	return t
}

// Fill reads r to completion into the transport's buffer.
func (t *AllocatedTransport) Fill(r io.Reader) (int64, error) {
	return t.buf.ReadFrom(r)
}

// Bytes returns the bytes written so far. Ownership transfers to the
// caller; once handed to an HTTP response, the transport must not be
// Released by the pipeline.
func (t *AllocatedTransport) Bytes() []byte { return t.buf.Bytes() }

// Release returns the backing buffer to the allocator.
func (t *AllocatedTransport) Release() { t.alloc.Release(t.seed) }

func (t *AllocatedTransport) Open() error  { return nil }
func (t *AllocatedTransport) IsOpen() bool { return true }
func (t *AllocatedTransport) Close() error { return nil }

func (t *AllocatedTransport) Read(p []byte) (int, error)      { return t.buf.Read(p) }
func (t *AllocatedTransport) Write(p []byte) (int, error)     { return t.buf.Write(p) }
func (t *AllocatedTransport) Flush(context.Context) error     { return nil }
func (t *AllocatedTransport) RemainingBytes() uint64          { return uint64(t.buf.Len()) }

// NewEncoder acquires an output transport from alloc with the given
// initial capacity and binds factory to it.
func NewEncoder(alloc api.BufferAllocator, factory athrift.TProtocolFactory, capacity int) (athrift.TProtocol, *AllocatedTransport) {
	trans := NewAllocatedTransport(alloc, capacity)
	return factory.GetProtocol(trans), trans
}
