// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// baseRequest supplies the defaulted fields, such as the protocol
// version, that http.NewRequest normally fills in. ToRequest copies it
// rather than paying for a fresh request parse on every attempt.
var baseRequest, _ = http.NewRequest("GET", "", nil)

const (
	nilCtxMsg = "fetch/request: nil context"
)

// A Plan describes one logical HTTP request: everything the robust
// client needs to produce a request attempt, and to reproduce it if
// the attempt has to be retried.
//
// Plan deliberately looks like a trimmed http.Request. Fields keep
// their net/http names and types so existing knowledge transfers.
// Server-side and stream-oriented fields are dropped, and the body is
// a buffered []byte rather than an io.Reader, so it can be replayed
// from the start on every attempt.
//
// Like http.Request, a Plan carries a context. The plan context spans
// the whole execution rather than any single attempt, so canceling it
// also stops retry waits and future attempts, not just the inflight
// request.
type Plan struct {
	// Method is the HTTP method. An empty string means GET.
	Method string

	// URL is the URL to access. URL.Host names the server to connect
	// to, while the Host field below optionally overrides the Host
	// header sent to it.
	URL *urlpkg.URL

	// Header holds the request header fields sent with every attempt.
	// See http.Request.Header for the conventions that apply.
	Header http.Header

	// Body is the buffered request body, replayed from the start on
	// each attempt. Nil or empty means no body is sent.
	Body []byte

	// TransferEncoding lists transfer encodings from outermost to
	// innermost. It can normally be left empty, since http.Client
	// manages chunked encoding on its own.
	TransferEncoding []string

	// Close forces the connection closed after each attempt, which
	// disables TCP connection reuse between attempts in the same way
	// as Transport.DisableKeepAlives.
	Close bool

	// Host optionally overrides the Host header. When empty, URL.Host
	// is sent. International domain names are allowed.
	Host string

	// ctx spans the whole plan execution. Change it only through
	// WithContext, which copies the plan.
	ctx context.Context
}

// NewPlan returns a new Plan with the background context. It is
// otherwise identical to NewPlanWithContext.
func NewPlan(method, url string, body any) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan for the given method and URL,
// with its execution governed by ctx, which must not be nil.
//
// The body may be nil for an empty body, or a string, []byte,
// io.Reader, or io.ReadCloser. Readers are buffered to EOF before the
// constructor returns, and closed if they implement io.Closer. An
// empty method is interpreted as GET.
func NewPlanWithContext(ctx context.Context, method, url string, body any) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("fetch/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Context returns the plan's context, which governs cancellation of
// the plan's whole execution. It is never nil; a plan built without
// one reports the background context. Use WithContext to change it.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p whose context is ctx. It
// panics if ctx is nil.
//
// Everything a client does on behalf of the plan happens under this
// context: connecting and sending each attempt, reading response
// headers and bodies, running event handlers, and sleeping out retry
// waits.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// AddCookie appends a cookie to the plan's Cookie header. As RFC 6265
// section 5.4 requires, all cookies end up on a single Cookie header
// line, separated by semicolons.
//
// AddCookie sanitizes only c's name and value. A Cookie header already
// present on the plan is trusted as is.
func (p *Plan) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the plan's Authorization header for HTTP Basic
// Authentication with the given username and password. Basic
// Authentication transmits the credentials base64 encoded but not
// encrypted. Some protocols layered on top, OAuth2 among them, expect
// the username and password to be URL encoded with url.QueryEscape
// first.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToRequest materializes one attempt: an http.Request carrying the
// plan's method, URL, headers, and body, bound to ctx. A non-empty
// body is served from the plan's buffer, with GetBody populated so the
// transport can replay it across redirects.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	r := baseRequest.WithContext(ctx)
	r.Method = p.Method
	r.URL = p.URL
	r.Header = p.Header
	if len(p.Body) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(p.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(p.Body)), nil
		}
		r.ContentLength = int64(len(p.Body))
	}
	r.TransferEncoding = p.TransferEncoding
	r.Close = p.Close
	r.Host = p.Host
	return r
}

// basicAuth matches the unexported helper of the same name in
// net/http/client.go, so SetBasicAuth produces headers byte-identical
// to http.Request.SetBasicAuth. RFC 2617 wants "userid:password"
// base64 encoded, with no URL encoding applied.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// validMethod reports whether method is a valid extension-method token
// per RFC 7230 section 3.2.6. Methods share the token production with
// header field names, so the check is delegated to httpguts. The empty
// string never reaches this function because it is interpreted as
// "GET" beforehand.
func validMethod(method string) bool {
	return httpguts.ValidHeaderFieldName(method)
}

// hasPort and removeEmptyPort match the unexported helpers of the same
// names in net/http/http.go. RFC 3986 section 6.2.3 calls for "host:"
// to be normalized to "host", and url.Parse leaves the dangling colon
// in place.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
