// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging provides event handlers which write structured
// zerolog lines for request plan executions.
//
// Install a handler on the client's handler group to get a debug line
// per attempt and a single summary line per execution, at a level
// matching the outcome report:
//
//	handlers := &fetch.HandlerGroup{}
//	logging.Install(handlers, log)
//	handlers.PushBack(fetch.BeforeAttempt, logging.RequestID(""))
//	client := &fetch.Client{Handlers: handlers}
//
// The RequestID handler additionally stamps each outgoing attempt with
// the execution ID so client and server logs can be correlated.
package logging
