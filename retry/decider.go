// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"strings"
	"time"

	"github.com/dueltech/fetch-extension/request"
	"github.com/dueltech/fetch-extension/transient"
)

// A Decider decides if an attempt's outcome allows a retry.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// A Decider judges the outcome only: it never counts attempts, which
// is the job of the policy's retry limit. Use the built-in
// constructors StatusCode, MethodIn, and Before, and the built-in
// deciders TransientErr, ServerError, and None; or implement your own
// Decider. Use DeciderFunc to convert an ordinary function into a
// Decider, and to compose deciders logically using DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
//
// Simple DeciderFunc functions can be composed into complex decision
// trees using the logical composition functions DeciderFunc.And and
// DeciderFunc.Or. Because of this composition ability, it will often
// be convenient to work directly with DeciderFunc rather than with
// Decider.
type DeciderFunc func(e *request.Execution) bool

// DefaultMethods lists the HTTP methods which DefaultDecider treats as
// eligible for retry after a server error response. It contains the
// idempotent methods DELETE, GET, HEAD, PATCH, and PUT, and it omits
// POST, whose repetition may not be safe. Treat the slice as
// read-only.
var DefaultMethods = []string{"DELETE", "GET", "HEAD", "PATCH", "PUT"}

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It will retry in the case of a transient error
// (TransientErr), or if a valid HTTP response is received but it
// carries a server error status (500 or higher) and the request method
// is one of DefaultMethods.
var DefaultDecider = ServerError.And(MethodIn(DefaultMethods...)).Or(TransientErr)

// TransientErr is a decider that indicates a retry if the current
// error is transient according to transient.Categorize.
//
// TransientErr only looks at the error, so it will always return false
// if a valid HTTP response is returned. Compose it with other deciders,
// for example a status code decider constructed with StatusCode, to
// get more complex functionality.
var TransientErr DeciderFunc = transientErr

// ServerError is a decider that indicates a retry if the most recent
// request attempt received a valid HTTP response with a server error
// status code (500 or higher).
var ServerError DeciderFunc = serverError

// None is a decider that never indicates a retry. It is the decider
// behind the Never policy.
var None DeciderFunc = none

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current HTTP request plan execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the logical HTTP request
// plan execution. The returned decider returns true while the execution
// duration is less than d, and false afterward.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent request attempt within
// the plan execution received a valid HTTP response, and the response
// status code is contained in the list ss, the decider returns true.
// Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

// MethodIn constructs a retry decider allowing retries based on the
// HTTP method of the request being executed. If the execution's
// effective method is contained in the list methods, the decider
// returns true. Otherwise, it returns false. The comparison is
// case-insensitive.
func MethodIn(methods ...string) DeciderFunc {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		set[strings.ToUpper(m)] = struct{}{}
	}
	return func(e *request.Execution) bool {
		_, ok := set[strings.ToUpper(e.Method())]
		return ok
	}
}

func transientErr(e *request.Execution) bool {
	return transient.Categorize(e.Err) != transient.Not
}

func serverError(e *request.Execution) bool {
	return e.StatusCode() >= 500
}

func none(_ *request.Execution) bool {
	return false
}
