// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"github.com/dueltech/fetch-extension/request"
)

// A HandlerGroup keeps one chain of handlers per event. Install a
// group in a Client through its Handlers field and the client runs the
// matching chain, in insertion order, whenever that event fires during
// a plan execution.
//
// The zero value is an empty group ready for use. Populate the group
// before sharing the client: PushBack must not be called concurrently
// with running executions.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack appends a handler to the end of the chain for the given
// event. The handler must not be nil.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("fetch: nil handler")
	}
	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}
	g.handlers[evt] = append(g.handlers[evt], h)
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	i := int(evt)
	if i >= len(g.handlers) {
		return
	}
	for _, h := range g.handlers[i] {
		h.Handle(evt, e)
	}
}

// A Handler reacts to an event raised while a client works through a
// request plan. Handlers installed in a client that is shared between
// goroutines must be safe for concurrent use.
type Handler interface {
	// Handle is called once each time the event fires. The execution
	// carries the state accumulated so far; which fields are populated
	// depends on the event.
	Handle(Event, *request.Execution)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
// HandlerFunc(f) is a Handler whose Handle method calls f.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}
