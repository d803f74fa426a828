// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dueltech/fetch-extension/transient"
)

// A Report summarizes a finished plan execution: the ordered attempt
// log plus aggregate timing and a single human-readable outcome
// message.
//
// At most one of FailMessage and WarnMessage is set. FailMessage is
// set when the final attempt failed. WarnMessage is set when the final
// attempt succeeded but the execution needed more than one attempt.
// Neither is set when a single attempt succeeded outright.
type Report struct {
	// Runs is the ordered attempt log the report was computed from.
	Runs []Run

	// TotalElapsed is the sum of the attempt durations in Runs. It
	// excludes time spent waiting between attempts.
	TotalElapsed time.Duration

	// MaxElapsed is the duration of the slowest attempt in Runs.
	MaxElapsed time.Duration

	// FailMessage describes a failed execution, for example
	// "Failed with status 500 after 2 attempts". It is empty if the
	// final attempt did not fail.
	FailMessage string

	// WarnMessage describes a degraded success, for example
	// "Required 2 attempts (503)". It is empty unless the final
	// attempt succeeded after at least one failed attempt.
	WarnMessage string
}

// Last returns the final attempt record in the report, or the zero Run
// if the report contains no records.
func (r *Report) Last() Run {
	if len(r.Runs) == 0 {
		return Run{}
	}

	return r.Runs[len(r.Runs)-1]
}

// Summarize computes a report from an attempt log.
//
// Summarize is a pure function of the log: given the same runs it
// produces an identical report on every call. An empty log produces
// the zero report.
func Summarize(runs []Run) *Report {
	r := &Report{Runs: runs}
	if len(runs) == 0 {
		return r
	}

	for _, run := range runs {
		r.TotalElapsed += run.Elapsed
		if run.Elapsed > r.MaxElapsed {
			r.MaxElapsed = run.Elapsed
		}
	}

	last := runs[len(runs)-1]
	if last.Failed() {
		s := runSummary(last)
		if last.Err == nil {
			s = "status " + s
		}
		r.FailMessage = fmt.Sprintf("Failed with %s after %s", s, attempts(len(runs)))
	} else if len(runs) > 1 {
		var failed []string
		for _, run := range runs[:len(runs)-1] {
			if run.Failed() {
				failed = append(failed, runSummary(run))
			}
		}
		r.WarnMessage = fmt.Sprintf("Required %s (%s)", attempts(len(runs)), strings.Join(failed, ", "))
	}

	return r
}

func attempts(n int) string {
	if n == 1 {
		return "1 attempt"
	}

	return strconv.Itoa(n) + " attempts"
}

func runSummary(r Run) string {
	if r.Err == nil {
		return strconv.Itoa(r.Status)
	}

	return errorSummary(r)
}

// errorSummary renders a run's error as "<kind> (<reason>)" for
// cancellation errors, "<category> (<code>)" for transient transport
// errors, and the verbatim error text for everything else. Timeouts
// imposed by the client's own timeout policy get the fixed reason
// "Timeout"; reasons supplied by the plan's context are preserved
// unchanged.
func errorSummary(r Run) string {
	err := rootErr(r.Err)
	if errors.Is(err, context.DeadlineExceeded) {
		if r.Timeout {
			return "DeadlineExceeded (Timeout)"
		}

		return fmt.Sprintf("DeadlineExceeded (%s)", err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Sprintf("Canceled (%s)", err)
	}
	if cat := transient.Categorize(err); cat != transient.Not {
		return fmt.Sprintf("%s (%s)", cat, cat.Code())
	}

	return err.Error()
}

// rootErr peels the *url.Error wrapper the client puts around every
// attempt error, so summaries show the cause and not the request
// envelope.
func rootErr(err error) error {
	var urlError *url.Error
	if errors.As(err, &urlError) && urlError.Err != nil {
		return urlError.Err
	}

	return err
}
