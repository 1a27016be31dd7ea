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

package onedatafs

import (
	"errors"
	"io/fs"
	"os"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

var (
	// ErrIsDirectory indicates the path is a directory
	ErrIsDirectory = errors.New("is a directory")
	// ErrNotDirectory indicates the path is not a directory
	ErrNotDirectory = errors.New("not a directory")
	// ErrNotEmpty indicates a directory that still has entries
	ErrNotEmpty = errors.New("directory not empty")
	// ErrNotSupported indicates an operation the provider does not expose
	ErrNotSupported = errors.New("operation not supported")
	// ErrReadOnly indicates a write on a handle opened without write access
	ErrReadOnly = errors.New("file handle is read-only")
	// ErrWriteOnly indicates a read on a handle opened write-only
	ErrWriteOnly = errors.New("file handle is write-only")
	// ErrNoSpace indicates an exhausted storage quota
	ErrNoSpace = errors.New("no space left on device")
	// ErrRootImmutable indicates a mutation of the root or a space root;
	// spaces are managed in Onezone, not through the filesystem
	ErrRootImmutable = errors.New("root directory is read-only")
)

// translate maps a client error to the filesystem sentinel callers test
// with errors.Is and the os.Is* helpers. Errors without a mapping pass
// through unchanged.
func translate(err error) error {
	var restErr *onedata.Error
	if errors.As(err, &restErr) {
		switch {
		case restErr.NotFound():
			return fs.ErrNotExist
		case restErr.PermissionDenied():
			return fs.ErrPermission
		case restErr.AlreadyExists():
			return fs.ErrExist
		case restErr.NotEmpty():
			return ErrNotEmpty
		case restErr.IsDirectory():
			return ErrIsDirectory
		case restErr.NotDirectory():
			return ErrNotDirectory
		case restErr.NoSpace():
			return ErrNoSpace
		}
		return restErr
	}

	if errors.Is(err, onedata.ErrSpaceNotFound) {
		return fs.ErrNotExist
	}

	return err
}

// wrapPathError wraps err in a *fs.PathError after translation.
func wrapPathError(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: translate(err)}
}

// wrapLinkError wraps err in a *os.LinkError after translation.
func wrapLinkError(op, oldname, newname string, err error) error {
	return &os.LinkError{Op: op, Old: oldname, New: newname, Err: translate(err)}
}

// isNotFound reports whether err denotes a missing file, directory or
// space.
func isNotFound(err error) bool {
	var restErr *onedata.Error
	if errors.As(err, &restErr) {
		return restErr.NotFound()
	}
	return errors.Is(err, onedata.ErrSpaceNotFound)
}

// isAlreadyExists reports whether err denotes an existing target.
func isAlreadyExists(err error) bool {
	var restErr *onedata.Error
	return errors.As(err, &restErr) && restErr.AlreadyExists()
}
