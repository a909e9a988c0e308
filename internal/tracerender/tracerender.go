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

// Package tracerender formats verbose-mode error bodies. It has no pack
// dependency behind it: rendering a []byte stack trace plus an error
// message into a string is a one-line fmt.Sprintf, which is exactly what
// the standard library is for (see DESIGN.md).
package tracerender

import "fmt"

const (
	beginMarker = "---- BEGIN server-side trace ----"
	endMarker   = "---- END server-side trace ----"
)

// Framed renders err framed with stack between BEGIN/END markers, for
// inclusion in an INTERNAL_ERROR application exception's message field.
func Framed(err error, stack []byte) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s", beginMarker, err.Error(), stack, endMarker)
}

// Plain renders err's message followed by stack, unframed, for
// framework-level 400/500 plain-text bodies.
func Plain(err error, stack []byte) string {
	return fmt.Sprintf("%s\n%s", err.Error(), stack)
}
