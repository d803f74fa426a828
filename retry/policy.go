// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/dueltech/fetch-extension/request"
)

// A Policy controls if and how retries are done in an HTTP request
// plan execution. After every attempt during the HTTP request plan
// execution, a Policy decides whether the attempt's outcome allows a
// retry and, if so, how long the wait period should be before retrying
// the attempt. Independently of the per-attempt decision, the Policy
// caps the total number of retries through its Limit method.
//
// The decision and the cap are deliberately separate: Decide judges
// only the outcome of the attempt, so the attempt record it seals
// reflects whether the outcome was retryable even when the retry
// budget is already spent. The robust HTTP client enforces the budget
// on top of the decision.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
//
// A Policy is composed of the Decider and Waiter interfaces plus the
// retry limit. While you can implement Policy yourself, it may be more
// convenient to use one of the built-in retry policies, DefaultPolicy
// or Never, or to construct your policy using the NewPolicy constructor
// from existing Decider and Waiter implementations.
type Policy interface {
	Decider
	Waiter
	// Limit returns the maximum number of retries the policy allows
	// after the initial attempt, so an execution under the policy makes
	// at most Limit()+1 attempts.
	Limit() int
}

// DefaultLimit is the number of retries DefaultPolicy allows after the
// initial attempt.
const DefaultLimit = 1

// DefaultPolicy is a general-purpose retry policy suitable for common
// use cases. It is a composition of DefaultDecider for retry decisions
// and DefaultWaiter for wait time calculations, and allows up to
// DefaultLimit retries (i.e. up to 2 total attempts).
var DefaultPolicy Policy = policy{limit: DefaultLimit, decider: DefaultDecider, waiter: DefaultWaiter}

// Never is a policy that never retries. It is useful if you want to use
// the other features of fetch.Client but do not want retries.
var Never Policy = policy{limit: 0, decider: None, waiter: DefaultWaiter}

type policy struct {
	limit   int
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a retry limit, a Decider, and a Waiter into a
// retry Policy. NewPolicy panics if limit is negative or if d or w is
// nil.
func NewPolicy(limit int, d Decider, w Waiter) Policy {
	if limit < 0 {
		panic("fetch/retry: negative limit")
	}
	if d == nil {
		panic("fetch/retry: nil decider")
	}
	if w == nil {
		panic("fetch/retry: nil waiter")
	}
	return policy{limit: limit, decider: d, waiter: w}
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}

func (p policy) Limit() int {
	return p.limit
}
