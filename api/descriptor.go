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

	"github.com/apache/thrift/lib/go/thrift"
)

// ServiceType is an opaque tag identifying a generated service interface.
// The core never inspects it; it is only propagated to logging so that a
// request can be attributed to the Thrift service that owns it.
type ServiceType interface{}

// ArgField describes one positional argument of a method, in the
// ascending field-id order defined by the generated struct's metadata.
type ArgField struct {
	// Name is the Thrift field name, used only for diagnostics.
	Name string
	// ID is the Thrift field id; descriptors are sorted by this before
	// the positional call shape is built.
	ID int16
	// Get extracts this field's value from a populated argument struct.
	Get func(args thrift.TStruct) interface{}
}

// ExceptionBinding recognizes one declared (checked) exception type named
// in a method's throws clause and knows how to place a matching error
// onto the method's result struct.
type ExceptionBinding struct {
	// Name of the exception type, used only for diagnostics.
	Name string
	// Matches reports whether err is an instance of this declared
	// exception type.
	Matches func(err error) bool
	// Set places err onto the corresponding field of result, which must
	// have been produced by the owning descriptor's NewResult.
	Set func(result thrift.TStruct, err error)
}

// Handler invokes a resolved method with its decoded, positional
// arguments and returns the method's return value (nil for void methods)
// or an error.
type Handler func(ctx context.Context, call Call) (interface{}, error)

// Call is the positional call representation described by the source:
// zero fields carry no operand, one field carries Args as the bare value,
// and two or more carry Args as a []interface{} in ascending field-id
// order.
type Call struct {
	Service     string
	Method      string
	ServiceType ServiceType
	Args        interface{}
}

// MethodDescriptor is static, per-method metadata captured once at
// registry-construction time from generated code. The call pipeline
// consumes it as plain data; it performs no reflection of its own.
type MethodDescriptor struct {
	// Name is the Thrift method name (not service-qualified).
	Name string
	// Service tags the owning generated service interface.
	Service ServiceType
	// NewArgs produces a fresh, empty argument struct to decode into.
	NewArgs func() thrift.TStruct
	// NewResult produces a fresh, empty result struct to encode a reply
	// or declared exception into.
	NewResult func() thrift.TStruct
	// SetSuccess places the handler's non-error return value onto a
	// result produced by NewResult. Nil for void methods.
	SetSuccess func(result thrift.TStruct, value interface{})
	// Args is this method's arguments, in any order; callers sort by ID.
	Args []ArgField
	// Exceptions are this method's declared (checked) exception bindings.
	Exceptions []ExceptionBinding
	// OneWay marks a method that expects no reply.
	OneWay bool
}

// MethodTable maps method name to descriptor for the methods contributed
// by one service implementation.
type MethodTable map[string]MethodDescriptor

// ServiceEntry pairs one service implementation's method table with the
// handler that invokes it. Several entries may share a ServiceName; see
// DispatchTable.
type ServiceEntry struct {
	// ServiceName is the Thrift service name, or "" for non-multiplexed
	// mounting.
	ServiceName string
	Methods     MethodTable
	Handle      Handler
}
