// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads per-call options for the robust HTTP client
// from layered configuration sources: built-in defaults, an optional
// YAML document, and FETCH_-prefixed environment variables.
//
// A minimal configuration enabling retry looks like:
//
//	timeout: 2s
//	retry:
//	  limit: 3
//	  delay: 100 ms
//	  methods: [GET, PUT]
//
// Durations accept either a duration string or a plain integer count
// of milliseconds, so "delay: 100" and "delay: 100 ms" are equivalent.
// Load the configuration and pass it to Client.Call:
//
//	cfg, err := config.Load("fetch.yaml")
//	...
//	ex, err := client.Call(p, cfg.Options())
package config
