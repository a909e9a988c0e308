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
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ResolvedMethod is the result of a successful DispatchTable.Resolve: the
// descriptor for the method together with the handler that owns it.
type ResolvedMethod struct {
	Descriptor MethodDescriptor
	Handle     Handler
}

// DispatchTable maps a service name to the single method namespace
// contributed by its (possibly several) registered implementations. It is
// built once and is immutable and safe for concurrent use thereafter.
type DispatchTable struct {
	byService map[string]map[string]ResolvedMethod
}

// NewDispatchTable builds a DispatchTable from a mapping of service name
// to the list of implementations registered under it. The non-multiplexed
// case is modeled as the single key "". Construction fails if any
// (service name, method name) pair would resolve to more than one
// implementation; every such collision is reported together.
func NewDispatchTable(entries map[string][]ServiceEntry) (*DispatchTable, error) {
	byService := make(map[string]map[string]ResolvedMethod, len(entries))
	var errs error

	for serviceName, impls := range entries {
		methods := make(map[string]ResolvedMethod)
		for _, impl := range impls {
			for methodName, desc := range impl.Methods {
				if _, dup := methods[methodName]; dup {
					errs = multierr.Append(errs, fmt.Errorf(
						"service %q: method %q is registered by more than one implementation",
						serviceName, methodName))
					continue
				}
				methods[methodName] = ResolvedMethod{Descriptor: desc, Handle: impl.Handle}
			}
		}
		byService[serviceName] = methods
	}

	if errs != nil {
		return nil, errs
	}
	return &DispatchTable{byService: byService}, nil
}

// Resolve looks up the descriptor and handler for (serviceName,
// methodName), reporting false if no implementation claims it.
func (t *DispatchTable) Resolve(serviceName, methodName string) (ResolvedMethod, bool) {
	methods, ok := t.byService[serviceName]
	if !ok {
		return ResolvedMethod{}, false
	}
	rm, ok := methods[methodName]
	return rm, ok
}

// SplitEnvelopeName splits a Thrift message name on the first ':', the
// multiplexing convention: "svc:method" routes to service "svc"; a name
// with no colon routes to service "" (non-multiplexed); "a:b:c" routes to
// service "a", method "b:c" — only the first colon is significant.
func SplitEnvelopeName(name string) (service, method string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
