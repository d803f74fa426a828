// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tracing provides an event handler which records request plan
// executions as OpenTelemetry spans.
//
// Install the handler on the client's handler group to get one client
// span per execution with a child span per attempt:
//
//	handlers := &fetch.HandlerGroup{}
//	tracing.Install(handlers)
//	client := &fetch.Client{Handlers: handlers}
//
// The execution span is parented to the span active in the plan's
// context, and each attempt injects its trace context into the
// outgoing request headers, so the whole retry history of a call
// lands in one trace alongside the server-side spans.
//
// The handler uses the global tracer provider and text map propagator
// registered with the otel package.
package tracing
