// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fetch "github.com/dueltech/fetch-extension"
	"github.com/dueltech/fetch-extension/request"
	"github.com/dueltech/fetch-extension/retry"
)

func TestHandlerExecutionEnd(t *testing.T) {
	t.Run("failed execution logs error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))
		e := endedExecution(t, []request.Run{
			{Status: 503, Retryable: true, Elapsed: 10 * time.Millisecond},
		})

		h.Handle(fetch.AfterExecutionEnd, e)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "error", lines[0]["level"])
		assert.Equal(t, "Failed with status 503 after 1 attempt", lines[0]["message"])
		assert.Equal(t, "exec-1", lines[0]["execution_id"])
		assert.Equal(t, "GET", lines[0]["method"])
		assert.Equal(t, "http://example.com/thing", lines[0]["url"])
		assert.EqualValues(t, 1, lines[0]["attempts"])
	})
	t.Run("degraded execution logs warn", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))
		e := endedExecution(t, []request.Run{
			{Status: 503, Retryable: true, Elapsed: 10 * time.Millisecond},
			{Status: 200, Elapsed: 5 * time.Millisecond},
		})
		e.Response = &http.Response{StatusCode: 200}

		h.Handle(fetch.AfterExecutionEnd, e)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "warn", lines[0]["level"])
		assert.Equal(t, "Required 2 attempts (503)", lines[0]["message"])
		assert.EqualValues(t, 2, lines[0]["attempts"])
		assert.EqualValues(t, 200, lines[0]["status"])
	})
	t.Run("clean execution logs info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))
		e := endedExecution(t, []request.Run{
			{Status: 200, Elapsed: 5 * time.Millisecond},
		})
		e.Response = &http.Response{StatusCode: 200}

		h.Handle(fetch.AfterExecutionEnd, e)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "info", lines[0]["level"])
		assert.Equal(t, "fetch completed", lines[0]["message"])
	})
	t.Run("execution error is attached", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))
		e := endedExecution(t, []request.Run{
			{Err: syscall.ECONNREFUSED, Elapsed: time.Millisecond},
		})
		e.Err = syscall.ECONNREFUSED

		h.Handle(fetch.AfterExecutionEnd, e)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "error", lines[0]["level"])
		assert.Contains(t, lines[0], "error")
	})
	t.Run("no report, no line", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))

		h.Handle(fetch.AfterExecutionEnd, &request.Execution{})

		assert.Zero(t, buf.Len())
	})
}

func TestHandlerAttempt(t *testing.T) {
	t.Run("before attempt", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))
		p, err := request.NewPlan("GET", "http://example.com/thing", nil)
		require.NoError(t, err)
		e := &request.Execution{
			ID:      "exec-1",
			Plan:    p,
			Request: p.ToRequest(context.Background()),
			Attempt: 2,
		}

		h.Handle(fetch.BeforeAttempt, e)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "debug", lines[0]["level"])
		assert.Equal(t, "fetch attempt", lines[0]["message"])
		assert.Equal(t, "GET", lines[0]["method"])
		assert.Equal(t, "http://example.com/thing", lines[0]["url"])
		assert.EqualValues(t, 2, lines[0]["attempt"])
	})
	t.Run("after attempt with status", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))
		e := &request.Execution{
			ID:   "exec-1",
			Runs: []request.Run{{Status: 503, Retryable: true, Elapsed: time.Millisecond}},
		}

		h.Handle(fetch.AfterAttempt, e)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "debug", lines[0]["level"])
		assert.Equal(t, "fetch attempt done", lines[0]["message"])
		assert.EqualValues(t, 503, lines[0]["status"])
		assert.Equal(t, true, lines[0]["retryable"])
	})
	t.Run("after attempt with error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))
		e := &request.Execution{
			ID:   "exec-1",
			Runs: []request.Run{{Err: syscall.ECONNRESET, Elapsed: time.Millisecond}},
		}

		h.Handle(fetch.AfterAttempt, e)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "error")
		assert.NotContains(t, lines[0], "status")
	})
	t.Run("timeout warns", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))

		h.Handle(fetch.AfterAttemptTimeout, &request.Execution{ID: "exec-1"})

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "warn", lines[0]["level"])
		assert.Equal(t, "fetch attempt timed out", lines[0]["message"])
	})
	t.Run("unlogged event is ignored", func(t *testing.T) {
		buf := &bytes.Buffer{}
		h := NewHandler(zerolog.New(buf))

		h.Handle(fetch.BeforeExecutionStart, &request.Execution{})

		assert.Zero(t, buf.Len())
	})
}

func TestRequestID(t *testing.T) {
	t.Run("stamps default header", func(t *testing.T) {
		p, err := request.NewPlan("GET", "http://example.com/thing", nil)
		require.NoError(t, err)
		p.Header.Set("Accept", "application/json")
		e := &request.Execution{
			ID:      "exec-42",
			Plan:    p,
			Request: p.ToRequest(context.Background()),
		}

		RequestID("").Handle(fetch.BeforeAttempt, e)

		assert.Equal(t, "exec-42", e.Request.Header.Get(DefaultIDHeader))
		assert.Equal(t, "application/json", e.Request.Header.Get("Accept"))
		// The plan's own header map must not be touched: the attempt
		// request shares it until the handler clones it.
		assert.Empty(t, p.Header.Get(DefaultIDHeader))
	})
	t.Run("stamps custom header", func(t *testing.T) {
		p, err := request.NewPlan("GET", "http://example.com/thing", nil)
		require.NoError(t, err)
		e := &request.Execution{
			ID:      "exec-43",
			Plan:    p,
			Request: p.ToRequest(context.Background()),
		}

		RequestID("X-Correlation-Id").Handle(fetch.BeforeAttempt, e)

		assert.Equal(t, "exec-43", e.Request.Header.Get("X-Correlation-Id"))
		assert.Empty(t, e.Request.Header.Get(DefaultIDHeader))
	})
	t.Run("ignores other events", func(t *testing.T) {
		p, err := request.NewPlan("GET", "http://example.com/thing", nil)
		require.NoError(t, err)
		e := &request.Execution{
			ID:      "exec-44",
			Plan:    p,
			Request: p.ToRequest(context.Background()),
		}

		RequestID("").Handle(fetch.AfterAttempt, e)

		assert.Empty(t, e.Request.Header.Get(DefaultIDHeader))
	})
}

func TestInstall(t *testing.T) {
	buf := &bytes.Buffer{}
	handlers := &fetch.HandlerGroup{}
	h := Install(handlers, zerolog.New(buf))
	require.NotNil(t, h)

	doer := &stubDoer{
		resps: []*http.Response{
			{StatusCode: 503, Body: io.NopCloser(strings.NewReader(""))},
			{StatusCode: 200, Body: io.NopCloser(strings.NewReader("ok"))},
		},
	}
	cl := &fetch.Client{
		HTTPDoer:    doer,
		RetryPolicy: retry.NewPolicy(1, retry.StatusCode(503), retry.NewFixedWaiter(0)),
		Handlers:    handlers,
	}
	p, err := request.NewPlan("GET", "test", nil)
	require.NoError(t, err)

	e, err := cl.Do(p)

	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 2, doer.calls)
	lines := logLines(t, buf)
	var messages []string
	for _, line := range lines {
		messages = append(messages, line["message"].(string))
	}
	assert.Equal(t, []string{
		"fetch attempt",
		"fetch attempt done",
		"fetch attempt",
		"fetch attempt done",
		"Required 2 attempts (503)",
	}, messages)
	assert.Equal(t, "warn", lines[len(lines)-1]["level"])
}

type stubDoer struct {
	resps []*http.Response
	calls int
}

func (d *stubDoer) Do(*http.Request) (*http.Response, error) {
	resp := d.resps[d.calls%len(d.resps)]
	d.calls++
	return resp, nil
}

func endedExecution(t *testing.T, runs []request.Run) *request.Execution {
	t.Helper()
	p, err := request.NewPlan("GET", "http://example.com/thing", nil)
	require.NoError(t, err)
	start := time.Now().Add(-time.Second)
	return &request.Execution{
		ID:      "exec-1",
		Plan:    p,
		Start:   start,
		End:     start.Add(time.Second),
		Attempt: len(runs) - 1,
		Runs:    runs,
		Stats:   request.Summarize(runs),
	}
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		lines = append(lines, m)
	}
	return lines
}
