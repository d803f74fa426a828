// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"net"
	"syscall"
)

// A Category is the transience category of a particular error, as
// reported by function Categorize().
//
// The category Not means the error is not transient from the
// perspective of completing an HTTP request attempt successfully, or
// in other words that a retry after encountering this error is very
// unlikely to succeed.
//
// All other categories indicate the error is transient: a retry after
// encountering the error has some prospect of success. The set of
// transient categories is closed and corresponds to a fixed list of
// low-level failure codes; classification is a pure function of the
// error value.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout. The server may be going
	// through a temporary period of slowness, or the client may succeed
	// on a future attempt waiting longer (increasing its timeout).
	//
	// Function Categorize() will return Timeout if the error or any of
	// its wrapped causes has a Timeout() function that reports true.
	// This covers attempt deadlines (context.DeadlineExceeded) as well
	// as the POSIX error code ETIMEDOUT.
	Timeout
	// ConnRefused indicates the remote host refused the connection,
	// and corresponds to the POSIX error code ECONNREFUSED.
	//
	// Although connection refusal may be a permanent condition, it is
	// classified as transient because it can happen if the service
	// running on the remote host is in the process of starting or
	// restarting. In this case the service is temporarily not listening
	// on the specified port, but will be once its startup is complete.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection, and corresponds to the POSIX
	// error code ECONNRESET.
	//
	// Connection reset is not uncommon if, due to poor deployment
	// processes, a service on the remote host comes down prematurely
	// (i.e. while it is still in the process of responding to a
	// request). As well it may happen in a variety of cases where the
	// remote host is a load balancer. For these reasons, a connection
	// reset tends to indicate a high probability of success on retry.
	ConnReset
	// AddrInUse indicates a local ephemeral port could not be bound
	// because the address was already in use (POSIX EADDRINUSE). Port
	// exhaustion is usually momentary, so a retry is worthwhile.
	AddrInUse
	// BrokenPipe indicates a write on a connection the peer had already
	// closed (POSIX EPIPE). Like a connection reset, it frequently
	// accompanies a service restart on the remote host.
	BrokenPipe
	// HostNotFound indicates the target host name did not resolve.
	//
	// Function Categorize() will return HostNotFound when the error
	// chain contains a *net.DNSError reporting IsNotFound. Negative
	// resolver answers are often cached briefly and can flip during
	// DNS failover, which is why the category counts as transient.
	HostNotFound
	// NetUnreachable indicates no route to the destination network
	// (POSIX ENETUNREACH), as seen during interface flaps and VPN or
	// NAT reconfiguration.
	NetUnreachable
	// DNSRetry indicates a temporary name resolution failure where the
	// resolver itself asks for a retry, the condition libc reports as
	// EAI_AGAIN.
	//
	// Function Categorize() will return DNSRetry when the error chain
	// contains a *net.DNSError reporting IsTemporary but not
	// IsNotFound.
	DNSRetry
)

// Categorize returns the transience category of the given error. All
// non-nil transient errors result in a transience category other than
// Not. A nil error, and an error that is not transient from the
// perspective of completing an HTTP request attempt, both produce the
// return value Not.
//
// In assessing transience, Categorize looks at wrapped cause errors
// contained within err, not just err itself. However, Categorize never
// checks if an error has a Temporary() function that returns true, as
// the semantics of Temporary() aren't entirely clear.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.EADDRINUSE:
			return AddrInUse
		case syscall.EPIPE:
			return BrokenPipe
		case syscall.ENETUNREACH:
			return NetUnreachable
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return HostNotFound
		}
		if dnsErr.IsTemporary {
			return DNSRetry
		}
	}

	return Not
}

var codes = map[Category]string{
	Timeout:        "ETIMEDOUT",
	ConnRefused:    "ECONNREFUSED",
	ConnReset:      "ECONNRESET",
	AddrInUse:      "EADDRINUSE",
	BrokenPipe:     "EPIPE",
	HostNotFound:   "ENOTFOUND",
	NetUnreachable: "ENETUNREACH",
	DNSRetry:       "EAI_AGAIN",
}

var names = map[Category]string{
	Not:            "not transient",
	Timeout:        "timed out",
	ConnRefused:    "connection refused",
	ConnReset:      "connection reset",
	AddrInUse:      "address in use",
	BrokenPipe:     "broken pipe",
	HostNotFound:   "host not found",
	NetUnreachable: "network unreachable",
	DNSRetry:       "dns retry",
}

// Code returns the short symbolic code conventionally associated with
// the category, for example "ECONNREFUSED" for ConnRefused. It returns
// the empty string for Not. The codes are stable and suitable for use
// in metrics and error summaries.
func (c Category) Code() string {
	return codes[c]
}

// String returns a short human-readable name for the category, for
// example "connection refused" for ConnRefused.
func (c Category) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "unknown"
}

type hasTimeout interface {
	Timeout() bool
}
