// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-onedatafs.
//
// go-onedatafs is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package onedata

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// retryDelay is the base wait between attempts, scaled linearly by the
// attempt number.
const retryDelay = 250 * time.Millisecond

// retryOnTimeout runs operation up to maxRetries+1 times, retrying only
// when the failure is a transport timeout. HTTP-level errors carry an
// *Error and are returned immediately; providers answering at all are
// authoritative.
func retryOnTimeout[T any](ctx context.Context, maxRetries int, operation func() (T, error)) (T, error) {
	var zero T

	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, ctx.Err()
		default:
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if attempt == maxRetries || !isTimeout(err) || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return zero, lastErr
		case <-time.After(retryDelay * time.Duration(attempt+1)):
		}
	}

	return zero, lastErr
}

// isTimeout reports whether err is a transport timeout worth retrying.
func isTimeout(err error) bool {
	// A response was received and rejected; never retry those.
	var restErr *Error
	if errors.As(err, &restErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, os.ErrDeadlineExceeded)
}
