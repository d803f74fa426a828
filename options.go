// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"errors"
	"time"

	"github.com/dueltech/fetch-extension/request"
	"github.com/dueltech/fetch-extension/retry"
)

// ErrCancelConflict is returned by Client.Call when the per-call
// options specify a positive attempt timeout and the plan's context
// can also be canceled. The two mechanisms race to abort the exchange
// with different semantics (a timed-out attempt may be retried, a
// canceled plan never is), so configuring both is rejected up front.
var ErrCancelConflict = errors.New("fetch: attempt timeout and cancelable plan context are mutually exclusive")

// Options carries per-call configuration for Client.Call. The zero
// value requests a single attempt with no attempt timeout beyond
// whatever the client's timeout policy imposes.
type Options struct {
	// Timeout, if positive, bounds each individual request attempt
	// made during the call. It replaces the client's timeout policy
	// for this call only. A Timeout of zero leaves the client's
	// timeout policy in charge.
	//
	// Timeout may not be combined with a cancelable plan context. See
	// ErrCancelConflict.
	Timeout time.Duration
	// Retry configures retry for this call. Retry is opt-in on the
	// Call path: if Retry is nil, the call makes exactly one attempt
	// regardless of the client's retry policy.
	Retry *RetryOptions
	// OnComplete, if non-nil, is invoked with the execution's report
	// after the final attempt and before Call returns. The report
	// passed to OnComplete is the same one available from the
	// execution's Stats field.
	OnComplete func(*request.Report)
}

// RetryOptions configures the retry behavior of a single Client.Call.
// Its zero value requests the default retry behavior: up to
// retry.DefaultLimit retries, retry.DefaultDelay between attempts, and
// the methods listed in retry.DefaultMethods eligible for retry on 5XX
// responses.
type RetryOptions struct {
	// Limit is the maximum number of retries, so a call makes at most
	// Limit+1 attempts. Zero means retry.DefaultLimit; a negative
	// value disables retry entirely.
	Limit int
	// Delay is the fixed pause between consecutive attempts. Zero
	// means retry.DefaultDelay; a negative value retries immediately
	// with no pause.
	Delay time.Duration
	// Methods lists the HTTP methods eligible for retry after a 5XX
	// response, compared case-insensitively. A nil slice means
	// retry.DefaultMethods. Transient transport errors are retried
	// regardless of method.
	Methods []string
}

// Policy converts the retry options into a retry policy, applying the
// documented defaults for zero values. The returned policy can also be
// installed on a Client's RetryPolicy field to make the same behavior
// apply to Do.
func (r *RetryOptions) Policy() retry.Policy {
	limit := r.Limit
	switch {
	case limit == 0:
		limit = retry.DefaultLimit
	case limit < 0:
		limit = 0
	}

	delay := r.Delay
	switch {
	case delay == 0:
		delay = retry.DefaultDelay
	case delay < 0:
		delay = 0
	}

	methods := r.Methods
	if methods == nil {
		methods = retry.DefaultMethods
	}

	decider := retry.ServerError.And(retry.MethodIn(methods...)).Or(retry.TransientErr)
	return retry.NewPolicy(limit, decider, retry.NewFixedWaiter(delay))
}
