// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

// An Event identifies a point in the life of a request plan execution
// at which handlers can run. Install a Handler for an event on the
// client's HandlerGroup to extend the client.
type Event int

const (
	// BeforeExecutionStart fires once, before the plan execution
	// starts. Only the execution's plan and ID are populated at this
	// point.
	BeforeExecutionStart Event = iota
	// BeforeAttempt fires before each request attempt. The execution's
	// Request field holds the http.Request about to be sent, and
	// handlers may still adjust it. The request initially shares its
	// URL and Header with the plan, so handlers must clone those
	// reference fields before changing them, or the change leaks into
	// the plan and every later attempt.
	BeforeAttempt
	// BeforeReadBody fires when an attempt produced an HTTP response,
	// after the response headers arrived and before the body is
	// drained into the execution. It fires for every response no
	// matter the status code, and never fires for an attempt that
	// ended in an error instead of a response.
	BeforeReadBody
	// AfterAttemptTimeout fires after an attempt failed with a timeout
	// error. The execution's Err holds the timeout, and the attempt
	// timeout counter has already been incremented.
	AfterAttemptTimeout
	// AfterAttempt fires after every attempt, successful or not. At
	// least one of the execution's Response and Err is non-nil; both
	// are non-nil only when reading the response body failed partway
	// through. By this point the attempt has been sealed into the
	// execution's attempt log, Runs, together with its retry decision.
	AfterAttempt
	// AfterPlanTimeout fires when the deadline on the plan's own
	// context expires, whether that was detected together with an
	// attempt timeout or during a retry wait. The execution's Err
	// holds the cancellation error. When a plan timeout and an attempt
	// timeout coincide, AfterAttempt still fires first.
	AfterPlanTimeout
	// AfterExecutionEnd fires once, after the execution has ended. The
	// execution looks exactly as it did after the final attempt, plus
	// the end time is set and the attempt log has been summarized into
	// the Stats report.
	AfterExecutionEnd
	// eventSentinel counts the events.
	eventSentinel

	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterPlanTimeout",
	"AfterExecutionEnd",
}

// Events returns all events, in the order the client fires them within
// an execution.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		BeforeReadBody,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterPlanTimeout,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
