// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
)

const badBodyTypeMsg = "fetch/request: invalid type (for body use nil, " +
	"string, []byte, io.Reader or io.ReadCloser)"

// BodyBytes buffers a request body value into the byte slice a Plan
// carries.
//
// The accepted body types are nil, string, []byte, io.Reader, and
// io.ReadCloser. A nil body produces a nil slice, a []byte body is
// returned as is without copying, and a string body is converted. A
// reader is drained to EOF and then closed if it implements io.Closer;
// if draining or closing fails the slice is nil and the first failure
// is returned. Any other type is an error.
func BodyBytes(body any) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.Reader:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		if c, ok := x.(io.Closer); ok {
			if err = c.Close(); err != nil {
				return nil, err
			}
		}
		return b, nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}
