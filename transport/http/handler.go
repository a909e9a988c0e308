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

// Package http adapts a dispatch table to net/http: it negotiates a wire
// format against Content-Type/Accept, runs the decode/invoke/encode call
// pipeline, and renders the resulting reply, declared exception, or
// framework-level failure onto the response.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"

	athrift "github.com/apache/thrift/lib/go/thrift"
	"go.uber.org/zap"

	"github.com/gothrift/thriftrelay/api"
	thriftenc "github.com/gothrift/thriftrelay/encoding/thrift"
	"github.com/gothrift/thriftrelay/internal/tracerender"
)

// StatusError lets a handler or decorator fail a call with a specific
// HTTP status instead of the default encoded application exception.
type StatusError struct {
	Status  int
	Message string
}

func (e StatusError) Error() string { return e.Message }

// ResponseError lets a handler or decorator take over writing the HTTP
// response entirely, bypassing envelope encoding.
type ResponseError struct {
	Write func(w http.ResponseWriter)
}

func (e ResponseError) Error() string { return "thriftrelay: response written by handler" }

type panicError struct {
	value interface{}
	stack []byte
}

func (e panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

type errCancelled struct{ cause error }

func (e errCancelled) Error() string { return "thriftrelay: call cancelled: " + e.cause.Error() }

// Handler is an http.Handler that serves one multiplexed or
// non-multiplexed Thrift dispatch table over HTTP.
type Handler struct {
	formats  api.FormatSet
	dispatch *api.DispatchTable
	invoker  Invoker
	cfg      config
}

// NewHandler builds a Handler. decorators are applied left-to-right around
// the dispatch table: Chain(table, d1, d2) runs a call as d2(d1(dispatch)).
func NewHandler(formats api.FormatSet, dispatch *api.DispatchTable, decorators []Decorator, opts ...Option) (*Handler, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(&cfg)
	}
	invoker, err := Chain(dispatch, decorators...)
	if err != nil {
		return nil, err
	}
	return &Handler{formats: formats, dispatch: dispatch, invoker: invoker, cfg: cfg}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writePlainText(w, http.StatusMethodNotAllowed, "Request method must be a POST")
		return
	}

	format, ok := h.formats.Pick(r.Header.Get("Content-Type"))
	if !ok {
		writePlainText(w, http.StatusUnsupportedMediaType, "Specified content-type not supported")
		return
	}
	if !format.AcceptOK(r.Header.Values("Accept")) {
		writePlainText(w, http.StatusNotAcceptable, "Specified accept headers are not supported")
		return
	}

	rc := &requestContext{alloc: h.cfg.allocator, logger: h.cfg.logger, verbose: h.cfg.verbose}

	trans := thriftenc.NewAllocatedTransport(rc.alloc, h.cfg.encodeBufCap)
	if _, err := trans.Fill(r.Body); err != nil {
		trans.Release()
		h.writeFrameworkFailure(w, http.StatusInternalServerError, "Failed to read request body", err, rc.verbose)
		return
	}

	h.handleCall(r.Context(), w, rc, format, trans)
}

func (h *Handler) handleCall(ctx context.Context, w http.ResponseWriter, rc *requestContext, format api.Format, trans *thriftenc.AllocatedTransport) {
	iprot := format.Protocol.GetProtocol(trans)

	env, err := thriftenc.ReadEnvelope(ctx, iprot)
	if err != nil {
		trans.Release()
		h.writeFrameworkFailure(w, http.StatusBadRequest, fmt.Sprintf("Failed to decode a %s header", format), err, rc.verbose)
		return
	}

	if env.Type != athrift.CALL && env.Type != athrift.ONEWAY {
		trans.Release()
		h.writeApplicationException(w, rc, format, env,
			thriftenc.NewApplicationException(thriftenc.InvalidMessageType,
				fmt.Sprintf("unexpected TMessageType: %v", env.Type)))
		return
	}

	serviceName, methodName := api.SplitEnvelopeName(env.Name)
	resolved, ok := h.dispatch.Resolve(serviceName, methodName)
	if !ok {
		trans.Release()
		h.writeApplicationException(w, rc, format, env,
			thriftenc.NewApplicationException(thriftenc.UnknownMethod,
				fmt.Sprintf("unknown method: %s", env.Name)))
		return
	}

	args := resolved.Descriptor.NewArgs()
	decodeErr := args.Read(ctx, iprot)
	if decodeErr == nil {
		decodeErr = iprot.ReadMessageEnd(ctx)
	}
	trans.Release()
	if decodeErr != nil {
		h.writeApplicationException(w, rc, format, env,
			thriftenc.NewApplicationException(thriftenc.ProtocolError,
				fmt.Sprintf("failed to decode arguments: %s", decodeErr.Error())))
		return
	}

	call := buildCall(resolved.Descriptor, args, serviceName, methodName)
	rc.Log().LogRequest(call)

	result, callErr := h.invoke(ctx, rc, call)

	if resolved.Descriptor.OneWay {
		rc.Log().LogResponse(call.ServiceType, call.Method, nil, callErr)
		h.writeOneWayAck(w, format)
		return
	}
	if callErr == nil {
		h.writeReply(w, rc, format, resolved.Descriptor, env, call, result)
		return
	}
	h.writeFailure(w, rc, format, resolved.Descriptor, env, call, callErr)
}

func buildCall(desc api.MethodDescriptor, args athrift.TStruct, serviceName, methodName string) api.Call {
	fields := append([]api.ArgField(nil), desc.Args...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })

	var operand interface{}
	switch len(fields) {
	case 0:
		operand = nil
	case 1:
		operand = fields[0].Get(args)
	default:
		values := make([]interface{}, len(fields))
		for i, f := range fields {
			values[i] = f.Get(args)
		}
		operand = values
	}

	return api.Call{
		Service:     serviceName,
		Method:      methodName,
		ServiceType: desc.Service,
		Args:        operand,
	}
}

// invoke runs the resolved handler under a pushed RequestContext,
// discarding its eventual result if ctx is cancelled first. A panic inside
// the handler is recovered and surfaced as an error, the undeclared-
// exception path.
func (h *Handler) invoke(ctx context.Context, rc *requestContext, call api.Call) (interface{}, error) {
	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)

	go api.Push(ctx, rc, func(ctx context.Context) {
		var out outcome
		func() {
			defer func() {
				if p := recover(); p != nil {
					out = outcome{err: panicError{value: p, stack: debug.Stack()}}
				}
			}()
			out.value, out.err = h.invoker.Invoke(ctx, call)
		}()
		done <- out
	})

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, errCancelled{cause: ctx.Err()}
	}
}

func (h *Handler) writeOneWayAck(w http.ResponseWriter, format api.Format) {
	w.Header().Set("Content-Type", format.ResponseMediaType)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeReply(w http.ResponseWriter, rc *requestContext, format api.Format, desc api.MethodDescriptor, env thriftenc.Envelope, call api.Call, value interface{}) {
	result := desc.NewResult()
	if desc.SetSuccess != nil {
		desc.SetSuccess(result, value)
	}
	rc.Log().LogResponse(call.ServiceType, call.Method, value, nil)

	oprot, out := thriftenc.NewEncoder(rc.alloc, format.Protocol, h.cfg.encodeBufCap)
	if err := thriftenc.WriteReplyEnvelope(context.Background(), oprot, env.Name, env.SeqID, result); err != nil {
		out.Release()
		h.writeFrameworkFailure(w, http.StatusInternalServerError, "Failed to encode reply", err, rc.verbose)
		return
	}
	w.Header().Set("Content-Type", format.ResponseMediaType)
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}

func (h *Handler) writeFailure(w http.ResponseWriter, rc *requestContext, format api.Format, desc api.MethodDescriptor, env thriftenc.Envelope, call api.Call, callErr error) {
	rc.Log().LogResponse(call.ServiceType, call.Method, nil, callErr)

	var statusErr StatusError
	if errors.As(callErr, &statusErr) {
		writePlainText(w, statusErr.Status, statusErr.Message)
		return
	}
	var respErr ResponseError
	if errors.As(callErr, &respErr) {
		respErr.Write(w)
		return
	}

	for _, binding := range desc.Exceptions {
		if !binding.Matches(callErr) {
			continue
		}
		result := desc.NewResult()
		binding.Set(result, callErr)
		oprot, out := thriftenc.NewEncoder(rc.alloc, format.Protocol, h.cfg.encodeBufCap)
		if err := thriftenc.WriteReplyEnvelope(context.Background(), oprot, env.Name, env.SeqID, result); err != nil {
			out.Release()
			h.writeFrameworkFailure(w, http.StatusInternalServerError, "Failed to encode reply", err, rc.verbose)
			return
		}
		w.Header().Set("Content-Type", format.ResponseMediaType)
		w.WriteHeader(http.StatusOK)
		w.Write(out.Bytes())
		return
	}

	message := callErr.Error()
	if rc.verbose {
		message = tracerender.Framed(callErr, stackOf(callErr))
	}
	h.writeApplicationException(w, rc, format, env, thriftenc.NewApplicationException(thriftenc.InternalError, message))
}

func (h *Handler) writeApplicationException(w http.ResponseWriter, rc *requestContext, format api.Format, env thriftenc.Envelope, exc athrift.TApplicationException) {
	rc.logger.Error("thrift application exception", zap.String("envelope", env.Name), zap.String("message", exc.Error()))

	oprot, out := thriftenc.NewEncoder(rc.alloc, format.Protocol, h.cfg.encodeBufCap)
	if err := thriftenc.WriteExceptionEnvelope(context.Background(), oprot, env.Name, env.SeqID, exc); err != nil {
		out.Release()
		rc.logger.Error("failed to encode application exception", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ResponseMediaType)
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}

func (h *Handler) writeFrameworkFailure(w http.ResponseWriter, status int, message string, cause error, verbose bool) {
	if verbose {
		writePlainText(w, status, tracerender.Plain(cause, debug.Stack()))
		return
	}
	writePlainText(w, status, message)
}

func writePlainText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, message)
}

func stackOf(err error) []byte {
	var pe panicError
	if errors.As(err, &pe) {
		return pe.stack
	}
	return debug.Stack()
}
