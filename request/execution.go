// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dueltech/fetch-extension/transient"
)

// An Execution is the live state of one Plan execution.
//
// The client allocates an Execution when a plan execution begins,
// updates it attempt by attempt, and returns it when the execution
// ends. The same value is what timeout policies, retry policies, and
// event handlers receive while the execution is inflight, which gives
// them a single consistent view of progress so far.
//
// Callbacks may attach their own state with SetValue and read it back
// with Value, but they must treat the exported fields as read-only:
// the execution state drives the client's control flow. The accepted
// exceptions are adjusting the outgoing Request before it is sent, to
// sign it for example, and replacing Body after a successful read, to
// decompress it for example.
type Execution struct {
	// Plan is the HTTP request plan being executed. It is never nil.
	Plan *Plan

	// ID is an opaque identifier assigned when the execution starts.
	// It is stable across all attempts of the execution, which makes
	// it suitable for correlation in logs or a request ID header.
	ID string

	// Start is when the plan execution started. It becomes non-zero at
	// the start of the execution and never changes afterward.
	Start time.Time

	// End is when the plan execution ended. It stays zero while the
	// execution is inflight.
	End time.Time

	// Attempt is the zero-based number of the current attempt: zero
	// for the initial attempt, one for the first retry, and so on.
	// After the execution has ended it holds the number of the last
	// attempt made, so an execution that took an initial attempt plus
	// two retries ends with Attempt == 2.
	Attempt int

	// AttemptTimeouts counts the attempts that ended in a timeout
	// during this execution.
	//
	// Deadlines on the plan's own context do not count here, but when
	// an attempt timeout and a plan timeout land together, the attempt
	// timeout still increments the counter.
	AttemptTimeouts int

	// Request is the HTTP request for the current attempt, either
	// about to be sent or already sent.
	Request *http.Request

	// Response is the HTTP response of the most recent attempt. It is
	// nil if that attempt ended in an error, while an attempt is
	// underway, and before the execution starts.
	Response *http.Response

	// Err is the error of the most recent attempt. It is nil if that
	// attempt succeeded, while an attempt is underway, and before the
	// execution starts.
	//
	// A non-nil Err always has type *url.Error. Err may flip between
	// nil and non-nil values over the life of the execution; once the
	// execution has Ended it is fixed, and equals the error returned
	// by the client method that ran the plan.
	Err error

	// Body is the fully-buffered response body of the most recent
	// attempt, nil if that attempt ended in an error or is still
	// underway.
	//
	// Body and Err can both be non-nil after a partial body read.
	// Treat Body as invalid whenever Err is non-nil.
	Body []byte

	// Runs is the ordered attempt log. One sealed Run is appended per
	// finished attempt, so after the execution has ended, len(Runs) is
	// the total number of attempts made.
	Runs []Run

	// Stats is the report summarizing the attempt log. It is nil until
	// the execution ends, at which point it is computed once from Runs
	// and never changes again.
	Stats *Report

	// data holds values attached by event handlers through SetValue.
	// The client itself never writes here.
	data context.Context
}

// StatusCode returns the status code of the most recent attempt's
// response, or 0 when there is no response: before the execution
// starts, while an attempt is underway, and after an attempt that
// ended in an error.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the response headers of the most recent attempt, or
// nil when there is no response: before the execution starts, while an
// attempt is underway, and after an attempt that ended in an error.
//
// A nil http.Header is safe for all read operations, so callers do not
// need to check for it before calling Get. There is no reason to write
// to the returned map.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Method returns the effective HTTP method of the execution: the
// method of the current attempt's request if one has been built, and
// the plan's method otherwise. The empty method is reported as "GET",
// matching the behavior of the net/http package.
func (e *Execution) Method() string {
	if e.Request != nil && e.Request.Method != "" {
		return e.Request.Method
	}
	if e.Plan != nil && e.Plan.Method != "" {
		return e.Plan.Method
	}

	return "GET"
}

// Duration returns how long the execution has been running: zero
// before it starts, time since Start while it is inflight, and End
// minus Start once it has ended. The value increases monotonically and
// then freezes with the execution.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started reports whether the execution has started. Once it returns
// true, Start holds the execution start time.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended reports whether the execution has ended. Once it returns true,
// End holds the end time and the execution will not change again.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout reports whether Err currently holds a timeout error, from
// either an attempt timeout or a plan timeout detected right after the
// most recent attempt.
//
// Timeout and AttemptTimeouts answer different questions: Timeout can
// be false with AttemptTimeouts > 0 when a later attempt failed some
// other way, and true with AttemptTimeouts == 0 when only the plan
// deadline expired.
func (e *Execution) Timeout() bool {
	cat := transient.Categorize(e.Err)
	return cat == transient.Timeout
}

// DecodeBody interprets the most recent attempt's response body using
// the response's Content-Type header. When the content type contains
// "application/json" and the body is non-empty, the body is decoded as
// JSON and the decoded value returned. Any other body is returned as a
// string.
//
// The body was already buffered into the Body field when the attempt
// finished, so DecodeBody consumes nothing and may be called any
// number of times.
func (e *Execution) DecodeBody() (any, error) {
	if len(e.Body) > 0 && strings.Contains(e.Header().Get("Content-Type"), "application/json") {
		var v any
		if err := json.Unmarshal(e.Body, &v); err != nil {
			return nil, err
		}
		return v, nil
	}

	return string(e.Body), nil
}

// SetValue attaches a handler-defined value to the execution.
//
// Keys follow the rules of context.WithValue: a key must be non-nil
// and comparable, and should be of an unexported type so handlers that
// share an execution cannot collide.
func (e *Execution) SetValue(key, value any) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the value attached to the execution for key, or nil if
// none was attached.
func (e *Execution) Value(key any) any {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
