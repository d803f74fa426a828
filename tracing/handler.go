// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"

	fetch "github.com/dueltech/fetch-extension"
	"github.com/dueltech/fetch-extension/request"
)

const tracerName = "fetch-extension/tracing"

type executionSpanKey struct{}

type attemptSpanKey struct{}

// A Handler is an event handler which records a request plan execution
// as OpenTelemetry spans: one client span for the execution as a whole,
// with one child client span per request attempt.
//
// The execution span is parented to whatever span is active in the
// plan's context, so an execution started inside a traced server
// request shows up under that request. Each attempt span carries the
// W3C trace context of the attempt into the outgoing request headers,
// so a traced server on the other end joins the same trace.
//
// Spans are created from the global tracer provider registered with
// the otel package, and headers are written using the global text map
// propagator. If neither is configured the handler is a no-op beyond
// cloning the attempt headers.
type Handler struct{}

// NewHandler returns a new Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Install registers a new Handler on g for every event the handler
// traces, and returns the handler.
func Install(g *fetch.HandlerGroup) *Handler {
	h := NewHandler()
	for _, evt := range []fetch.Event{
		fetch.BeforeExecutionStart,
		fetch.BeforeAttempt,
		fetch.AfterAttempt,
		fetch.AfterExecutionEnd,
	} {
		g.PushBack(evt, h)
	}
	return h
}

// Handle records the span activity for evt. Events the handler does
// not trace are ignored, so a Handler may be registered for any event.
func (h *Handler) Handle(evt fetch.Event, e *request.Execution) {
	switch evt {
	case fetch.BeforeExecutionStart:
		h.executionStart(e)
	case fetch.BeforeAttempt:
		h.attemptStart(e)
	case fetch.AfterAttempt:
		h.attemptEnd(e)
	case fetch.AfterExecutionEnd:
		h.executionEnd(e)
	}
}

func (h *Handler) executionStart(e *request.Execution) {
	p := e.Plan
	if p == nil {
		return
	}

	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(e.Method()),
		attribute.String("fetch.execution_id", e.ID),
	}
	if p.URL != nil {
		attrs = append(attrs, semconv.URLFull(p.URL.String()))
	}

	_, span := otel.Tracer(tracerName).Start(p.Context(), "fetch "+e.Method(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	e.SetValue(executionSpanKey{}, span)
}

func (h *Handler) attemptStart(e *request.Execution) {
	req := e.Request
	if req == nil {
		return
	}

	ctx := req.Context()
	if parent, ok := e.Value(executionSpanKey{}).(trace.Span); ok {
		ctx = trace.ContextWithSpan(ctx, parent)
	}

	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(e.Method()),
		attribute.Int("fetch.attempt", e.Attempt),
	}
	if req.URL != nil {
		attrs = append(attrs, semconv.URLFull(req.URL.String()))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, e.Method(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	e.SetValue(attemptSpanKey{}, span)

	// Clone before writing: the attempt request shares its header map
	// with the plan, and the plan may be reused for other executions.
	header := req.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	req.Header = header
}

func (h *Handler) attemptEnd(e *request.Execution) {
	span, ok := e.Value(attemptSpanKey{}).(trace.Span)
	if !ok {
		return
	}

	if n := len(e.Runs); n > 0 {
		run := e.Runs[n-1]
		span.SetAttributes(attribute.Bool("fetch.retryable", run.Retryable))
		if run.Err != nil {
			span.RecordError(run.Err)
			span.SetStatus(codes.Error, run.Err.Error())
		} else {
			span.SetAttributes(semconv.HTTPResponseStatusCode(run.Status))
			// Client spans treat any 4xx or 5xx response as an error.
			if run.Status >= 400 {
				span.SetStatus(codes.Error, http.StatusText(run.Status))
			}
		}
	}
	span.End()
}

func (h *Handler) executionEnd(e *request.Execution) {
	span, ok := e.Value(executionSpanKey{}).(trace.Span)
	if !ok {
		return
	}

	if r := e.Stats; r != nil {
		span.SetAttributes(attribute.Int("fetch.attempts", len(r.Runs)))
		if resends := len(r.Runs) - 1; resends > 0 {
			span.SetAttributes(semconv.HTTPRequestResendCount(resends))
		}
		switch {
		case r.FailMessage != "":
			span.SetStatus(codes.Error, r.FailMessage)
		case r.WarnMessage != "":
			span.AddEvent(r.WarnMessage)
		}
	}
	if status := e.StatusCode(); status != 0 {
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	}
	if e.Err != nil {
		span.RecordError(e.Err)
	}
	span.End(trace.WithTimestamp(e.End))
}
