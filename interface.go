// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"net/url"

	"github.com/dueltech/fetch-extension/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes an HTTP request plan and returns the finished execution
// state. Client is the canonical implementation, and alternative
// implementations should preserve its observable behavior.
//
// Use Inflate to widen any Doer into an Executor.
type Doer interface {
	Do(p *request.Plan) (*request.Execution, error)
}

// Caller is the interface that wraps the basic Call method.
//
// Call executes an HTTP request plan under per-call options and
// returns the finished execution state. Client is the canonical
// implementation.
//
// Unlike the other single-method interfaces in this package, a Caller
// cannot be emulated from a plain Doer, because Call applies per-call
// policy that Do does not expose. For that reason Executor does not
// include Caller.
type Caller interface {
	Call(p *request.Plan, opts *Options) (*request.Execution, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Get plans a GET request to the given URL, executes the plan, and
// returns the finished execution state. See Client.Get. The
// package-level Get function emulates a Getter on top of any Doer.
type Getter interface {
	Get(url string) (*request.Execution, error)
}

// Header is the interface that wraps the basic Head method.
//
// Head plans a HEAD request to the given URL, executes the plan, and
// returns the finished execution state. See Client.Head. The
// package-level Head function emulates a Header on top of any Doer.
type Header interface {
	Head(url string) (*request.Execution, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Post plans a POST request to the given URL with the given content
// type and body, executes the plan, and returns the finished execution
// state. The body accepts the same types as request.BodyBytes: nil,
// string, []byte, io.Reader, or io.ReadCloser. See Client.Post. The
// package-level Post function emulates a Poster on top of any Doer.
type Poster interface {
	Post(url, contentType string, body any) (*request.Execution, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// PostForm plans a POST request whose body is data's keys and values
// URL-encoded, with the content type application/x-www-form-urlencoded,
// executes the plan, and returns the finished execution state. See
// Client.PostForm. The package-level PostForm function emulates a
// FormPoster on top of any Doer.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Execution, error)
}

// IdleCloser is the interface that wraps the basic
// CloseIdleConnections method.
//
// CloseIdleConnections closes connections that earlier requests left
// idle in keep-alive state, when the underlying implementation
// supports that. Connections currently in use stay open. An
// implementation with no notion of idle connections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, Get, Head, Post,
// PostForm, and CloseIdleConnections methods. Inflate widens any Doer
// into an Executor.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get plans a GET to url and executes the plan on d, so the request
// follows whatever policies d.Do applies. For custom headers, build a
// plan with request.NewPlan and call d.Do directly.
func Get(d Doer, url string) (*request.Execution, error) {
	p, err := request.NewPlan("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Head plans a HEAD to url and executes the plan on d, so the request
// follows whatever policies d.Do applies. For custom headers, build a
// plan with request.NewPlan and call d.Do directly.
func Head(d Doer, url string) (*request.Execution, error) {
	p, err := request.NewPlan("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Post plans a POST to url with the given content type and body, and
// executes the plan on d. The body accepts the same types as
// request.BodyBytes: nil, string, []byte, io.Reader, or io.ReadCloser.
// For custom headers beyond Content-Type, build a plan with
// request.NewPlan and call d.Do directly.
func Post(d Doer, url, contentType string, body any) (*request.Execution, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	p, err := request.NewPlan("POST", url, b)
	if err != nil {
		return nil, err
	}
	p.Header.Set("Content-Type", contentType)
	return d.Do(p)
}

// PostForm plans a POST to url whose body is data's keys and values
// URL-encoded, and executes the plan on d. The Content-Type header is
// application/x-www-form-urlencoded; for any other headers, build a
// plan with request.NewPlan and call d.Do directly.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	return Post(d, url, "application/x-www-form-urlencoded", data.Encode())
}

// Inflate widens a non-nil Doer into an Executor, for handing a plain
// Doer to code that wants the full method set. A Doer that already
// implements Executor is returned unchanged. The emulated
// CloseIdleConnections only acts when the wrapped Doer is itself an
// IdleCloser.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("fetch: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(p *request.Plan) (*request.Execution, error) {
	return i.doer.Do(p)
}

func (i inflated) Get(url string) (*request.Execution, error) {
	return Get(i.doer, url)
}

func (i inflated) Head(url string) (*request.Execution, error) {
	return Head(i.doer, url)
}

func (i inflated) Post(url, contentType string, body any) (*request.Execution, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
