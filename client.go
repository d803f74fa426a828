// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dueltech/fetch-extension/request"
	"github.com/dueltech/fetch-extension/retry"
	"github.com/dueltech/fetch-extension/timeout"
)

// An HTTPDoer sends one HTTP request and returns its response. The
// standard library's http.Client satisfies the interface and is the
// usual choice, but anything honoring the http.Client.Do contract
// works, including wrapped or instrumented clients.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response, applying
	// whatever low-level policy (redirects, cookies, proxies) the
	// implementation is configured with.
	Do(r *http.Request) (*http.Response, error)
}

var emptyHandlers = HandlerGroup{}

// A Client executes request plans, adding retry, per-attempt timeouts,
// body buffering, an attempt log, and plug-in events on top of a plain
// HTTPDoer. The zero value is ready to use.
//
// A zero value Client sends requests with http.DefaultClient, times
// attempts out per timeout.DefaultPolicy, retries per
// retry.DefaultPolicy, and runs no event handlers.
//
// Reuse clients rather than constructing them per request: the
// HTTPDoer underneath typically caches TCP connections. A Client is
// safe for concurrent use by multiple goroutines.
//
// The split between Client and HTTPDoer separates policy from
// mechanics. The HTTPDoer owns everything about a single
// request/response exchange, including redirect and cookie behavior,
// so consult its documentation for those. The Client drives the doer
// through as many exchanges as the retry policy allows and assembles
// the overall outcome:
//
// • the whole response body is read into the execution's Body field,
// so the caller never manages response streams;
//
// • failed attempts are retried according to a configurable retry
// policy;
//
// • each attempt runs under its own timeout, chosen by a configurable
// timeout policy;
//
// • every attempt is recorded in the execution's attempt log (Runs)
// and summarized into the Stats report when the execution ends; and
//
// • handler chains installed in Handlers are called back at the
// designated points in the attempt loop.
//
// The method set follows http.Client: Do, Get, Head, Post, and
// PostForm are all here under their familiar names. The difference is
// the currency. Methods consume a reusable request.Plan rather than a
// one-shot http.Request, and produce a request.Execution holding the
// buffered body and the execution metadata rather than a raw
// http.Response.
type Client struct {
	// HTTPDoer sends the individual HTTP requests. A nil HTTPDoer
	// means http.DefaultClient.
	HTTPDoer HTTPDoer
	// RetryPolicy decides whether a failed attempt is retried and how
	// long to wait before the next attempt. A nil RetryPolicy means
	// retry.DefaultPolicy.
	RetryPolicy retry.Policy
	// TimeoutPolicy picks the timeout for each attempt. A nil
	// TimeoutPolicy means timeout.DefaultPolicy.
	TimeoutPolicy timeout.Policy
	// Handlers holds the event handler chains to run at the plug-in
	// points. A nil Handlers runs no handlers.
	Handlers *HandlerGroup
}

// Do executes a request plan and returns the finished execution,
// applying the client's timeout and retry policies on top of whatever
// low-level behavior the HTTPDoer adds.
//
// What comes back describes the final attempt of the execution. The
// returned error is non-nil only if that final attempt failed, whether
// from transport trouble, from an attempt or plan timeout, or from
// HTTPDoer policy such as a redirect limit. A response with a non-2XX
// status is not an error.
//
// The execution itself is never nil. On error its Body is nil, and its
// Response is also nil unless the failure happened while reading the
// body of an otherwise successful request; Err always carries the same
// error Do returns. On success both Response and Body are non-nil,
// though Body may be empty.
//
// Errors are always of type *url.Error. The error's Timeout method,
// like the execution's, reports whether the final attempt timed out or
// the plan as a whole did.
//
// Use Call for per-call options, including the outcome report
// callback. For one-line requests, Get, Head, Post, and PostForm wrap
// Do with plan construction.
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	return c.run(p, c.retryPolicy(), c.timeoutPolicy(), nil)
}

// Call executes an HTTP request plan like Do, but with per-call
// configuration supplied in opts.
//
// If opts is nil, Call behaves exactly like Do, using the policies
// installed on the Client. Otherwise opts replaces the Client's
// policies for this call only: opts.Timeout bounds each individual
// attempt, opts.Retry configures retry (retry is opt-in on this path,
// so a nil opts.Retry means the call is never retried), and
// opts.OnComplete, if non-nil, receives the execution's report after
// the final attempt, before Call returns.
//
// A positive opts.Timeout may not be combined with a cancelable plan
// context: the attempt timeout and the plan's cancellation are
// mutually exclusive ways of aborting the exchange. If the plan
// context can be canceled and opts.Timeout is set, Call returns
// ErrCancelConflict before making any attempt, and the returned
// execution is nil.
func (c *Client) Call(p *request.Plan, opts *Options) (*request.Execution, error) {
	if opts == nil {
		return c.Do(p)
	}
	if opts.Timeout > 0 && p.Context().Done() != nil {
		return nil, ErrCancelConflict
	}

	retryPolicy := retry.Never
	if opts.Retry != nil {
		retryPolicy = opts.Retry.Policy()
	}

	timeoutPolicy := c.timeoutPolicy()
	if opts.Timeout > 0 {
		timeoutPolicy = timeout.Fixed(opts.Timeout)
	}

	return c.run(p, retryPolicy, timeoutPolicy, opts.OnComplete)
}

func (c *Client) run(p *request.Plan, retryPolicy retry.Policy, timeoutPolicy timeout.Policy, onComplete func(*request.Report)) (*request.Execution, error) {
	e := request.Execution{
		Plan: p,
		ID:   uuid.NewString(),
	}

	doer := c.doer()

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}
	handlers.run(BeforeExecutionStart, &e)
	// BeforeExecutionStart handlers may replace the plan.
	p = e.Plan
	if p == nil {
		panic("fetch: plan deleted from execution")
	}
	e.Start = time.Now()

RetryLoop:
	for {
		attemptStart := time.Now()
		sendAndReceive(p, &e, doer, handlers, timeoutPolicy)
		elapsed := time.Since(attemptStart)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, &e)
		}

		planCtxErr := p.Context().Err()
		if planCtxErr != nil {
			// Cancellation of the plan context is always terminal, and
			// the caller's cancellation cause is surfaced verbatim, not
			// reinterpreted as a retryable timeout.
			e.Err = urlErrorWrap(p, context.Cause(p.Context()))
			run := sealRun(&e, elapsed, false)
			run.Timeout = false
			e.Runs = append(e.Runs, run)
			handlers.run(AfterAttempt, &e)
			if planCtxErr == context.DeadlineExceeded {
				handlers.run(AfterPlanTimeout, &e)
			}
			break
		}

		retryable := retryPolicy.Decide(&e)
		e.Runs = append(e.Runs, sealRun(&e, elapsed, retryable))
		handlers.run(AfterAttempt, &e)

		if !retryable || len(e.Runs) > retryPolicy.Limit() {
			break
		}

		wait := retryPolicy.Wait(&e)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-p.Context().Done():
			timer.Stop()
			err := p.Context().Err()
			e.Err = urlErrorWrap(p, context.Cause(p.Context()))
			if err == context.DeadlineExceeded {
				handlers.run(AfterPlanTimeout, &e)
			}
			break RetryLoop
		}
		e.Response = nil
		e.Err = nil
		e.Body = nil
		e.Attempt++
	}

	e.End = time.Now()
	e.Stats = request.Summarize(e.Runs)
	handlers.run(AfterExecutionEnd, &e)
	if onComplete != nil {
		onComplete(e.Stats)
	}
	return &e, e.Err
}

// sealRun freezes the outcome of the attempt that just finished into
// an immutable attempt record. When the attempt both received a
// response and ended in an error, the error takes precedence, so
// exactly one of the record's Status and Err is set.
func sealRun(e *request.Execution, elapsed time.Duration, retryable bool) request.Run {
	run := request.Run{
		Retryable: retryable,
		Elapsed:   elapsed,
	}
	if e.Err != nil {
		run.Err = e.Err
		run.Timeout = e.Timeout()
	} else {
		run.Status = e.StatusCode()
	}
	return run
}

func sendAndReceive(p *request.Plan, e *request.Execution, doer HTTPDoer, handlers *HandlerGroup, timeoutPolicy timeout.Policy) {
	ctx, cancel := context.WithTimeout(p.Context(), timeoutPolicy.Timeout(e))
	defer cancel()
	e.Request = p.ToRequest(ctx)
	handlers.run(BeforeAttempt, e)
	var err error
	e.Response, err = doer.Do(e.Request)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	} else {
		readBody(p, e, handlers)
	}
}

func readBody(p *request.Plan, e *request.Execution, handlers *HandlerGroup) {
	defer func() {
		_ = e.Response.Body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	var err error
	e.Body, err = io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	}
}

// Get issues a GET to the given URL through the client's policies.
//
// For custom headers, build a plan with request.NewPlan and use Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the given URL through the client's policies.
//
// For custom headers, build a plan with request.NewPlan and use Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the given URL through the client's policies.
//
// The body may be nil for an empty body, or any of the types
// request.NewPlan accepts: string, []byte, io.Reader, or
// io.ReadCloser.
//
// For custom headers beyond Content-Type, build a plan with
// request.NewPlan and use Do.
func (c *Client) Post(url, contentType string, body any) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the given URL with data's keys and values
// URL-encoded as the request body and Content-Type set to
// application/x-www-form-urlencoded. For other headers, build a plan
// with request.NewPlan and use Do.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections forwards to the HTTPDoer's method of the same
// name, if it has one, and otherwise does nothing.
//
// What "idle" means, and whether anything is closed at all, is up to
// the doer. An http.Client, for instance, passes the call on to its
// Transport only when the Transport itself exposes the method.
func (c *Client) CloseIdleConnections() {
	doer := c.doer()
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}
	return c.HTTPDoer
}

func (c *Client) retryPolicy() retry.Policy {
	if c.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return c.RetryPolicy
}

func (c *Client) timeoutPolicy() timeout.Policy {
	if c.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return c.TimeoutPolicy
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}
	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp mirrors the unexported helper of the same name in
// net/http, so wrapped errors read the way http.Client errors do.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
