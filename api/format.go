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
	"mime"
	"strings"

	"github.com/apache/thrift/lib/go/thrift"
	"go.uber.org/multierr"
)

// Format identifies one Thrift wire encoding: the media types that select
// it, the canonical media type used on responses, and the protocol
// factory that binds a transport to a thrift.TProtocol for it.
type Format struct {
	// Name is the format identifier, e.g. "binary", "compact", "json", "text".
	Name string

	// MediaTypes are the Content-Type/Accept values this format accepts.
	MediaTypes []string

	// ResponseMediaType is the Content-Type written on every response
	// encoded with this format.
	ResponseMediaType string

	// Protocol binds a transport to a reader/writer for this format.
	Protocol thrift.TProtocolFactory
}

func (f Format) String() string { return f.Name }

func (f Format) accepts(mediaType string) bool {
	for _, m := range f.MediaTypes {
		if m == mediaType {
			return true
		}
	}
	return false
}

// AcceptOK reports whether f is compatible with the given Accept header
// values. No Accept headers at all is always acceptable; a "*/*" entry
// (ignoring parameters) is always acceptable.
func (f Format) AcceptOK(accepts []string) bool {
	if len(accepts) == 0 {
		return true
	}
	for _, raw := range accepts {
		for _, part := range strings.Split(raw, ",") {
			mt := baseMediaType(part)
			if mt == "*/*" || f.accepts(mt) {
				return true
			}
		}
	}
	return false
}

func baseMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return mt
}

// permissiveFallback names the media types that, when otherwise unmatched,
// still route to the default format rather than being rejected.
var permissiveFallback = map[string]bool{
	"text/plain":              true,
	"application/octet-stream": true,
}

// FormatSet is an ordered, deduplicated collection of allowed formats with
// a distinguished default in the first position. The zero value is not
// valid; construct with NewFormatSet.
type FormatSet struct {
	def Format
	all []Format
}

// NewFormatSet builds a FormatSet from a default format and zero or more
// additional formats. Formats sharing a Name with one already present are
// silently deduplicated (first occurrence wins), except for the default,
// which always occupies the first position. An unnamed format is a
// configuration error; all such errors across the call are combined so
// every problem is reported at once.
func NewFormatSet(def Format, others ...Format) (FormatSet, error) {
	var errs error
	if def.Name == "" {
		errs = multierr.Append(errs, fmt.Errorf("default format must be named"))
	}

	seen := map[string]bool{def.Name: true}
	all := []Format{def}
	for i, f := range others {
		if f.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("format at index %d must be named", i))
			continue
		}
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		all = append(all, f)
	}
	if errs != nil {
		return FormatSet{}, errs
	}
	return FormatSet{def: def, all: all}, nil
}

// Default returns the distinguished default format.
func (s FormatSet) Default() Format { return s.def }

// Allowed returns the formats in the set, default first, in insertion order.
func (s FormatSet) Allowed() []Format {
	return append([]Format(nil), s.all...)
}

// Pick resolves a Content-Type header value to an allowed format.
//
// An empty contentType selects the default. A contentType matching no
// allowed format's media types falls back to the default only when its
// type/subtype is one of the permissive fallback media types
// (text/plain, application/octet-stream); any other unmatched
// Content-Type fails to resolve.
func (s FormatSet) Pick(contentType string) (Format, bool) {
	if contentType == "" {
		return s.def, true
	}
	mt := baseMediaType(contentType)
	for _, f := range s.all {
		if f.accepts(mt) {
			return f, true
		}
	}
	if permissiveFallback[mt] {
		return s.def, true
	}
	return Format{}, false
}
