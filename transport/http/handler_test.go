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
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"net/http/httptest"
	"testing"

	athrift "github.com/apache/thrift/lib/go/thrift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothrift/thriftrelay/api"
)

func httptestBody(b []byte) io.ReadCloser {
	return ioutil.NopCloser(bytes.NewReader(b))
}

// testArgs and testResult are hand-written stand-ins for generated
// one-field argument/result structs, the same shape used in
// encoding/thrift's own tests.
type testArgs struct{ Msg string }

func (v *testArgs) Write(ctx context.Context, oprot athrift.TProtocol) error {
	oprot.WriteStructBegin(ctx, "echo_args")
	oprot.WriteFieldBegin(ctx, "msg", athrift.STRING, 1)
	oprot.WriteString(ctx, v.Msg)
	oprot.WriteFieldEnd(ctx)
	oprot.WriteFieldStop(ctx)
	return oprot.WriteStructEnd(ctx)
}

func (v *testArgs) Read(ctx context.Context, iprot athrift.TProtocol) error {
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

type testResult struct {
	Success  string
	HasValue bool
	Failed   string
	HasErr   bool
}

func (v *testResult) Write(ctx context.Context, oprot athrift.TProtocol) error {
	oprot.WriteStructBegin(ctx, "echo_result")
	if v.HasValue {
		oprot.WriteFieldBegin(ctx, "success", athrift.STRING, 0)
		oprot.WriteString(ctx, v.Success)
		oprot.WriteFieldEnd(ctx)
	}
	if v.HasErr {
		oprot.WriteFieldBegin(ctx, "failure", athrift.STRING, 1)
		oprot.WriteString(ctx, v.Failed)
		oprot.WriteFieldEnd(ctx)
	}
	oprot.WriteFieldStop(ctx)
	return oprot.WriteStructEnd(ctx)
}

func (v *testResult) Read(ctx context.Context, iprot athrift.TProtocol) error {
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
		switch {
		case id == 0 && fieldType == athrift.STRING:
			v.Success, err = iprot.ReadString(ctx)
			v.HasValue = true
		case id == 1 && fieldType == athrift.STRING:
			v.Failed, err = iprot.ReadString(ctx)
			v.HasErr = true
		default:
			err = iprot.Skip(ctx, fieldType)
		}
		if err != nil {
			return err
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return iprot.ReadStructEnd(ctx)
}

type declaredFailure struct{ message string }

func (e declaredFailure) Error() string { return e.message }

func binaryFormat() api.Format {
	return api.Format{
		Name:              "binary",
		MediaTypes:        []string{"application/x-thrift"},
		ResponseMediaType: "application/x-thrift",
		Protocol:          athrift.NewTBinaryProtocolFactoryDefault(),
	}
}

func echoDescriptor(handle func(ctx context.Context, msg string) (string, error)) api.MethodDescriptor {
	return api.MethodDescriptor{
		Name: "echo",
		NewArgs: func() athrift.TStruct { return &testArgs{} },
		NewResult: func() athrift.TStruct { return &testResult{} },
		SetSuccess: func(result athrift.TStruct, value interface{}) {
			result.(*testResult).Success = value.(string)
			result.(*testResult).HasValue = true
		},
		Args: []api.ArgField{
			{Name: "msg", ID: 1, Get: func(args athrift.TStruct) interface{} { return args.(*testArgs).Msg }},
		},
		Exceptions: []api.ExceptionBinding{
			{
				Name: "declaredFailure",
				Matches: func(err error) bool {
					var df declaredFailure
					return errors.As(err, &df)
				},
				Set: func(result athrift.TStruct, err error) {
					var df declaredFailure
					errors.As(err, &df)
					result.(*testResult).Failed = df.message
					result.(*testResult).HasErr = true
				},
			},
		},
	}
}

func newEchoHandler(t *testing.T, handle func(ctx context.Context, msg string) (string, error), opts ...Option) *Handler {
	table, err := api.NewDispatchTable(map[string][]api.ServiceEntry{
		"": {{
			Methods: api.MethodTable{"echo": echoDescriptor(handle)},
			Handle: func(ctx context.Context, call api.Call) (interface{}, error) {
				return handle(ctx, call.Args.(string))
			},
		}},
	})
	require.NoError(t, err)

	formats, err := api.NewFormatSet(binaryFormat())
	require.NoError(t, err)

	h, err := NewHandler(formats, table, nil, opts...)
	require.NoError(t, err)
	return h
}

func encodeCall(t *testing.T, name string, seqID int32, msg string) []byte {
	factory := athrift.NewTBinaryProtocolFactoryDefault()
	trans := athrift.NewTMemoryBuffer()
	oprot := factory.GetProtocol(trans)
	require.NoError(t, oprot.WriteMessageBegin(context.Background(), name, athrift.CALL, seqID))
	require.NoError(t, (&testArgs{Msg: msg}).Write(context.Background(), oprot))
	require.NoError(t, oprot.WriteMessageEnd(context.Background()))
	require.NoError(t, oprot.Flush(context.Background()))
	return trans.Bytes()
}

func decodeReply(t *testing.T, body []byte) (string, athrift.TMessageType, testResult) {
	factory := athrift.NewTBinaryProtocolFactoryDefault()
	trans := athrift.NewTMemoryBuffer()
	trans.Write(body)
	iprot := factory.GetProtocol(trans)

	name, msgType, _, err := iprot.ReadMessageBegin(context.Background())
	require.NoError(t, err)

	var result testResult
	require.NoError(t, result.Read(context.Background(), iprot))
	require.NoError(t, iprot.ReadMessageEnd(context.Background()))
	return name, msgType, result
}

func TestHandlerServesSuccessfulCall(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) {
		return "echo:" + msg, nil
	})

	req := httptest.NewRequest("POST", "/", nil)
	req.Body = httptestBody(encodeCall(t, "echo", 42, "hi"))
	req.Header.Set("Content-Type", "application/x-thrift")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	name, msgType, result := decodeReply(t, rec.Body.Bytes())
	assert.Equal(t, "echo", name)
	assert.Equal(t, athrift.REPLY, msgType)
	assert.True(t, result.HasValue)
	assert.Equal(t, "echo:hi", result.Success)
}

func TestHandlerRejectsNonPost(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) { return msg, nil })
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, 405, rec.Code)
}

func TestHandlerRejectsUnsupportedContentType(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) { return msg, nil })
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, 415, rec.Code)
}

func TestHandlerRejectsUnsupportedAccept(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) { return msg, nil })
	req := httptest.NewRequest("POST", "/", nil)
	req.Body = httptestBody(encodeCall(t, "echo", 1, "hi"))
	req.Header.Set("Content-Type", "application/x-thrift")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, 406, rec.Code)
}

func TestHandlerRespondsUnknownMethod(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) { return msg, nil })
	req := httptest.NewRequest("POST", "/", nil)
	req.Body = httptestBody(encodeCall(t, "missing", 1, "hi"))
	req.Header.Set("Content-Type", "application/x-thrift")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	_, msgType, _ := decodeReply(t, rec.Body.Bytes())
	assert.Equal(t, athrift.EXCEPTION, msgType)
}

func TestHandlerEncodesDeclaredException(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) {
		return "", declaredFailure{message: "bad input: " + msg}
	})

	req := httptest.NewRequest("POST", "/", nil)
	req.Body = httptestBody(encodeCall(t, "echo", 5, "x"))
	req.Header.Set("Content-Type", "application/x-thrift")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	_, msgType, result := decodeReply(t, rec.Body.Bytes())
	assert.Equal(t, athrift.REPLY, msgType)
	assert.True(t, result.HasErr)
	assert.Equal(t, "bad input: x", result.Failed)
}

func TestHandlerEncodesUndeclaredErrorAsInternalError(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) {
		return "", errors.New("boom")
	})

	req := httptest.NewRequest("POST", "/", nil)
	req.Body = httptestBody(encodeCall(t, "echo", 6, "x"))
	req.Header.Set("Content-Type", "application/x-thrift")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	_, msgType, _ := decodeReply(t, rec.Body.Bytes())
	assert.Equal(t, athrift.EXCEPTION, msgType)
}

func TestHandlerRecoversHandlerPanic(t *testing.T) {
	h := newEchoHandler(t, func(ctx context.Context, msg string) (string, error) {
		panic("kaboom")
	})

	req := httptest.NewRequest("POST", "/", nil)
	req.Body = httptestBody(encodeCall(t, "echo", 7, "x"))
	req.Header.Set("Content-Type", "application/x-thrift")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	_, msgType, _ := decodeReply(t, rec.Body.Bytes())
	assert.Equal(t, athrift.EXCEPTION, msgType)
}

func TestHandlerOneWayCallWritesEmptyAck(t *testing.T) {
	table, err := api.NewDispatchTable(map[string][]api.ServiceEntry{
		"": {{
			Methods: api.MethodTable{"notify": func() api.MethodDescriptor {
				d := echoDescriptor(func(ctx context.Context, msg string) (string, error) { return msg, nil })
				d.Name = "notify"
				d.OneWay = true
				return d
			}()},
			Handle: func(ctx context.Context, call api.Call) (interface{}, error) {
				return call.Args, nil
			},
		}},
	})
	require.NoError(t, err)
	formats, err := api.NewFormatSet(binaryFormat())
	require.NoError(t, err)
	h, err := NewHandler(formats, table, nil)
	require.NoError(t, err)

	factory := athrift.NewTBinaryProtocolFactoryDefault()
	trans := athrift.NewTMemoryBuffer()
	oprot := factory.GetProtocol(trans)
	require.NoError(t, oprot.WriteMessageBegin(context.Background(), "notify", athrift.ONEWAY, 1))
	require.NoError(t, (&testArgs{Msg: "hi"}).Write(context.Background(), oprot))
	require.NoError(t, oprot.WriteMessageEnd(context.Background()))
	require.NoError(t, oprot.Flush(context.Background()))

	req := httptest.NewRequest("POST", "/", nil)
	req.Body = httptestBody(trans.Bytes())
	req.Header.Set("Content-Type", "application/x-thrift")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}
