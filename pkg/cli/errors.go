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

package cli

import "errors"

var (
	// Configuration errors

	// ErrZoneHostRequired is returned when zone-host is not set.
	ErrZoneHostRequired = errors.New("zone-host is required")

	// ErrTokenRequired is returned when neither token nor token-file is set.
	ErrTokenRequired = errors.New("token or token-file is required")

	// ErrUnsupportedOutputFormat is returned when an unsupported output format is specified.
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")

	// ErrInvalidMode is returned when a mode argument is not a valid octal string.
	ErrInvalidMode = errors.New("invalid octal mode")
)
