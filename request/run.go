// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"time"
)

// A Run records the sealed outcome of a single HTTP request attempt
// within a plan execution.
//
// The robust HTTP client creates one Run per attempt and appends it to
// the execution's attempt log in attempt order. A Run is sealed after
// the retry policy has delivered its verdict on the attempt, and is
// never modified afterward.
type Run struct {
	// Status is the HTTP status code received in the attempt. It is
	// zero if the attempt ended in an error: when an attempt both
	// received a response and subsequently failed (for example while
	// reading the response body), the run records the error and leaves
	// Status zero, so exactly one of Status and Err is ever set.
	Status int

	// Err is the error that ended the attempt, or nil if the attempt
	// produced a usable response. Whenever Err is non-nil, it has the
	// type *url.Error.
	Err error

	// Retryable is the retry policy's verdict on the attempt outcome:
	// true if the policy would allow a retry after this outcome.
	//
	// Retryable describes the outcome only. It does not take the
	// attempt budget into account, so the final run of an execution
	// that exhausted its budget may still be marked retryable.
	Retryable bool

	// Timeout indicates the attempt ended in a timeout, whether from
	// the attempt's own deadline or a timeout deeper in the transport.
	//
	// Attempts ended by the plan's own context are not timeouts from
	// the attempt's perspective, so Timeout is false for them even if
	// the plan context was ended by a deadline.
	Timeout bool

	// Elapsed is the duration of the attempt, from the start of the
	// HTTP request to the receipt of the full response body or the
	// terminal error.
	Elapsed time.Duration
}

// Failed reports whether the run counts as a failure: the attempt
// either ended in an error, or produced an outcome the retry policy
// deemed retryable.
func (r Run) Failed() bool {
	return r.Err != nil || r.Retryable
}
