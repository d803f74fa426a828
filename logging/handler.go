// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"net/http"

	"github.com/rs/zerolog"

	fetch "github.com/dueltech/fetch-extension"
	"github.com/dueltech/fetch-extension/request"
)

// DefaultIDHeader is the request header RequestID writes the execution
// ID into when no header name is given.
const DefaultIDHeader = "X-Request-Id"

// A Handler is an event handler which writes structured log lines
// describing the progress of a request plan execution.
//
// Attempt-level lines are written at debug level, timeouts at warn
// level, and the execution-end line at a level keyed off the
// execution's report: error if the report carries a FailMessage, warn
// if it carries a WarnMessage, and info otherwise. The report message
// doubles as the log message, so a failed execution logs lines like
// "Failed with status 503 after 2 attempts" without further ceremony.
type Handler struct {
	log zerolog.Logger
}

// NewHandler returns a Handler writing to log.
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{log: log}
}

// Install registers a new Handler on g for every event the handler
// logs, and returns the handler.
func Install(g *fetch.HandlerGroup, log zerolog.Logger) *Handler {
	h := NewHandler(log)
	for _, evt := range []fetch.Event{
		fetch.BeforeAttempt,
		fetch.AfterAttemptTimeout,
		fetch.AfterAttempt,
		fetch.AfterPlanTimeout,
		fetch.AfterExecutionEnd,
	} {
		g.PushBack(evt, h)
	}
	return h
}

// Handle writes the log line for evt. Events the handler does not log
// are ignored, so a Handler may be registered for any event.
func (h *Handler) Handle(evt fetch.Event, e *request.Execution) {
	switch evt {
	case fetch.BeforeAttempt:
		h.beforeAttempt(e)
	case fetch.AfterAttemptTimeout:
		h.log.Warn().
			Str("execution_id", e.ID).
			Int("attempt", e.Attempt).
			Msg("fetch attempt timed out")
	case fetch.AfterAttempt:
		h.afterAttempt(e)
	case fetch.AfterPlanTimeout:
		h.log.Warn().
			Str("execution_id", e.ID).
			Int("attempt", e.Attempt).
			Msg("fetch plan timed out")
	case fetch.AfterExecutionEnd:
		h.executionEnd(e)
	}
}

func (h *Handler) beforeAttempt(e *request.Execution) {
	evt := h.log.Debug().
		Str("execution_id", e.ID).
		Str("method", e.Method()).
		Int("attempt", e.Attempt)
	if e.Request != nil && e.Request.URL != nil {
		evt = evt.Str("url", e.Request.URL.String())
	}
	evt.Msg("fetch attempt")
}

func (h *Handler) afterAttempt(e *request.Execution) {
	evt := h.log.Debug().
		Str("execution_id", e.ID).
		Int("attempt", e.Attempt)
	if n := len(e.Runs); n > 0 {
		run := e.Runs[n-1]
		evt = evt.Dur("elapsed", run.Elapsed).
			Bool("retryable", run.Retryable)
		if run.Err != nil {
			evt = evt.Err(run.Err)
		} else {
			evt = evt.Int("status", run.Status)
		}
	}
	evt.Msg("fetch attempt done")
}

func (h *Handler) executionEnd(e *request.Execution) {
	r := e.Stats
	if r == nil {
		return
	}

	var evt *zerolog.Event
	var msg string
	switch {
	case r.FailMessage != "":
		evt = h.log.Error()
		msg = r.FailMessage
	case r.WarnMessage != "":
		evt = h.log.Warn()
		msg = r.WarnMessage
	default:
		evt = h.log.Info()
		msg = "fetch completed"
	}

	evt = evt.Str("execution_id", e.ID).
		Str("method", e.Method()).
		Int("attempts", len(r.Runs)).
		Dur("duration", e.Duration()).
		Dur("total_elapsed", r.TotalElapsed).
		Dur("max_elapsed", r.MaxElapsed)
	if e.Plan != nil && e.Plan.URL != nil {
		evt = evt.Str("url", e.Plan.URL.String())
	}
	if status := e.StatusCode(); status != 0 {
		evt = evt.Int("status", status)
	}
	if e.Err != nil {
		evt = evt.Err(e.Err)
	}
	evt.Msg(msg)
}

// RequestID returns an event handler which stamps every outgoing
// attempt with the execution's ID in the named request header, so
// server-side logs can be joined with client-side reports. If header
// is empty, DefaultIDHeader is used.
//
// The handler only acts on the BeforeAttempt event; register it there.
// It clones the attempt's header map before writing, because the
// attempt request shares its header map with the plan, and the plan
// may be reused for other executions.
func RequestID(header string) fetch.Handler {
	if header == "" {
		header = DefaultIDHeader
	}
	return fetch.HandlerFunc(func(evt fetch.Event, e *request.Execution) {
		if evt != fetch.BeforeAttempt || e.Request == nil {
			return
		}
		h := e.Request.Header.Clone()
		if h == nil {
			h = make(http.Header)
		}
		h.Set(header, e.ID)
		e.Request.Header = h
	})
}
