// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from HTTP request execution as
// transient or non-transient. This is handy for writing retry policies,
// and for other purposes such as bucketing error metrics.
//
// The recognized transient categories form a small closed set:
// timed out, connection refused, connection reset, address in use,
// broken pipe, host not found, network unreachable, and dns retry.
// Each category carries a short symbolic code (Category.Code) used in
// report summaries.
package transient
