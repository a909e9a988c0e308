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

// Package thrift layers the call pipeline's wire-level needs — envelopes,
// application exceptions, and allocator-backed transports — on top of
// github.com/apache/thrift's protocol implementations.
package thrift

import (
	"fmt"

	athrift "github.com/apache/thrift/lib/go/thrift"
)

// ExceptionKind is the closed set of generic Thrift application-exception
// kinds the call pipeline produces. Each maps onto the corresponding
// TApplicationException type code from github.com/apache/thrift.
type ExceptionKind int32

const (
	InvalidMessageType ExceptionKind = ExceptionKind(athrift.INVALID_MESSAGE_TYPE_EXCEPTION)
	UnknownMethod       ExceptionKind = ExceptionKind(athrift.UNKNOWN_METHOD)
	ProtocolError       ExceptionKind = ExceptionKind(athrift.PROTOCOL_ERROR)
	InternalError       ExceptionKind = ExceptionKind(athrift.INTERNAL_ERROR)
)

func (k ExceptionKind) String() string {
	switch k {
	case InvalidMessageType:
		return "INVALID_MESSAGE_TYPE"
	case UnknownMethod:
		return "UNKNOWN_METHOD"
	case ProtocolError:
		return "PROTOCOL_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	default:
		return fmt.Sprintf("ExceptionKind(%d)", int32(k))
	}
}

// NewApplicationException builds a TApplicationException of the given
// kind, ready to encode inside an EXCEPTION envelope.
func NewApplicationException(kind ExceptionKind, message string) athrift.TApplicationException {
	return athrift.NewTApplicationException(int32(kind), message)
}
