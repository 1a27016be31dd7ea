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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrZoneHostRequired is returned when the Onezone host is missing.
	ErrZoneHostRequired = errors.New("onezone host is required")

	// ErrTokenRequired is returned when no access token is configured.
	ErrTokenRequired = errors.New("access token is required")

	// ErrSpaceNotFound is returned when a space name cannot be resolved
	// to a space known to the zone.
	ErrSpaceNotFound = errors.New("space not found")

	// ErrNoProvider is returned when a space has no supporting providers.
	ErrNoProvider = errors.New("space has no supporting providers")
)

// Error is a failed REST call. StatusCode is always set; the remaining
// fields carry the Onedata error envelope when the response body contained
// one. The envelope wraps POSIX-style error codes in Errno (e.g. "enoent",
// "eacces") which drive the filesystem error mapping.
type Error struct {
	StatusCode  int
	Category    string
	Errno       string
	Description string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("onedata: %d %s: %s", e.StatusCode, e.Category, e.Description)
	}
	return fmt.Sprintf("onedata: request failed with status %d", e.StatusCode)
}

// NotFound reports whether the error indicates a missing file, directory
// or REST resource.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Errno == "enoent"
}

// PermissionDenied reports whether the error indicates missing
// authorization or insufficient POSIX permissions.
func (e *Error) PermissionDenied() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.StatusCode == http.StatusForbidden ||
		e.Errno == "eacces" || e.Errno == "eperm"
}

// AlreadyExists reports whether the error indicates the target already
// exists.
func (e *Error) AlreadyExists() bool {
	return e.StatusCode == http.StatusConflict || e.Errno == "eexist"
}

// NotEmpty reports whether the error indicates a directory that is not
// empty.
func (e *Error) NotEmpty() bool {
	return e.Errno == "enotempty"
}

// IsDirectory reports whether the error indicates a directory where a
// regular file was expected.
func (e *Error) IsDirectory() bool {
	return e.Errno == "eisdir"
}

// NotDirectory reports whether the error indicates a regular file where a
// directory was expected.
func (e *Error) NotDirectory() bool {
	return e.Errno == "enotdir"
}

// NoSpace reports whether the error indicates an exhausted storage
// quota.
func (e *Error) NoSpace() bool {
	return e.Errno == "enospc" || e.Errno == "edquot"
}

// parseError builds an *Error from a non-2xx response. The Onedata error
// envelope has the shape
//
//	{"error": {"id": ..., "details": {"errno": ...}, "description": ...}}
//
// An unparsable body leaves only the status code set.
func parseError(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode}

	var envelope struct {
		Error struct {
			ID      string `json:"id"`
			Details struct {
				Errno string `json:"errno"`
			} `json:"details"`
			Description string `json:"description"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil {
		e.Category = envelope.Error.ID
		e.Errno = envelope.Error.Details.Errno
		e.Description = envelope.Error.Description
	}

	return e
}
