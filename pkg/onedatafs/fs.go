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

// Package onedatafs exposes a Onedata cluster through the afero
// filesystem interfaces. Paths address either all of the user's spaces
// (the first segment naming the space) or, with WithSpace, a single
// space. The adapter keeps no state beyond the REST client: attributes,
// sizes and listings are fetched from the provider on every call.
package onedatafs

import (
	"context"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

// Fs implements afero.Fs on top of a Onedata REST client.
type Fs struct {
	client *onedata.Client
	space  string
}

// New creates a filesystem spanning all spaces accessible to the
// client's token. The first path segment selects the space.
func New(client *onedata.Client) *Fs {
	return &Fs{client: client}
}

// WithSpace returns a filesystem rooted at the named space. Paths no
// longer carry a space segment; the root is the space root.
func (o *Fs) WithSpace(space string) *Fs {
	return &Fs{client: o.client, space: space}
}

// Name returns the name of the filesystem.
func (o *Fs) Name() string {
	return "onedatafs"
}

// Stat returns a FileInfo describing the named file. The root and space
// roots stat as directories.
func (o *Fs) Stat(name string) (os.FileInfo, error) {
	loc, err := o.resolve(name)
	if err != nil {
		return nil, wrapPathError("stat", name, err)
	}

	if loc.root {
		return newRootInfo(), nil
	}

	attrs, err := o.client.GetAttrs(context.Background(), loc.space, loc.path)
	if err != nil {
		return nil, wrapPathError("stat", name, err)
	}

	return newFileInfo(baseName(loc, attrs), attrs), nil
}

// Open opens a file or directory for reading.
func (o *Fs) Open(name string) (afero.File, error) {
	return o.OpenFile(name, os.O_RDONLY, 0)
}

// Create creates or truncates the named file and opens it read-write.
func (o *Fs) Create(name string) (afero.File, error) {
	return o.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// OpenFile opens name with the given flag. A missing file is created
// when flag carries os.O_CREATE, with perm as its mode. Directories only
// accept read-only flags.
func (o *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	loc, err := o.resolve(name)
	if err != nil {
		return nil, wrapPathError("open", name, err)
	}

	ctx := context.Background()
	writeFlags := flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0

	if loc.root {
		if writeFlags {
			return nil, wrapPathError("open", name, ErrRootImmutable)
		}
		return newRootFile(o, name), nil
	}

	if loc.path == "" {
		if writeFlags {
			return nil, wrapPathError("open", name, ErrIsDirectory)
		}
		fileID, err := o.client.ResolveSpaceID(ctx, loc.space)
		if err != nil {
			return nil, wrapPathError("open", name, err)
		}
		return newDirFile(o, loc, fileID, name), nil
	}

	attrs, err := o.client.GetAttrs(ctx, loc.space, loc.path)
	if err != nil {
		if !isNotFound(err) || flag&os.O_CREATE == 0 {
			return nil, wrapPathError("open", name, err)
		}

		fileID, createErr := o.client.CreateFile(ctx, loc.space, loc.path, onedata.FileTypeRegular, false, perm)
		if createErr == nil {
			return newFile(o, loc, fileID, flag, name), nil
		}
		if !isAlreadyExists(createErr) || flag&os.O_EXCL != 0 {
			return nil, wrapPathError("open", name, createErr)
		}

		// Lost a create race; open whatever is there now.
		attrs, err = o.client.GetAttrs(ctx, loc.space, loc.path)
		if err != nil {
			return nil, wrapPathError("open", name, err)
		}
	}

	if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
		return nil, wrapPathError("open", name, fs.ErrExist)
	}

	if attrs.IsDir() {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, wrapPathError("open", name, ErrIsDirectory)
		}
		return newDirFile(o, loc, attrs.FileID, name), nil
	}

	if flag&os.O_TRUNC != 0 && flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if err := o.client.ReplaceContent(ctx, loc.space, attrs.FileID, nil); err != nil {
			return nil, wrapPathError("open", name, err)
		}
	}

	return newFile(o, loc, attrs.FileID, flag, name), nil
}

// Mkdir creates a directory. The parent must exist.
func (o *Fs) Mkdir(name string, perm os.FileMode) error {
	loc, err := o.resolve(name)
	if err != nil {
		return wrapPathError("mkdir", name, err)
	}

	if loc.root || loc.path == "" {
		return wrapPathError("mkdir", name, ErrRootImmutable)
	}

	_, err = o.client.CreateFile(context.Background(), loc.space, loc.path, onedata.FileTypeDirectory, false, perm)
	if err != nil {
		return wrapPathError("mkdir", name, err)
	}

	return nil
}

// MkdirAll creates a directory and all missing parents in a single call;
// the provider materializes the chain. An existing directory is a no-op.
func (o *Fs) MkdirAll(name string, perm os.FileMode) error {
	loc, err := o.resolve(name)
	if err != nil {
		return wrapPathError("mkdir", name, err)
	}

	if loc.root {
		return nil
	}

	ctx := context.Background()

	if loc.path == "" {
		// The space root either exists already or cannot be created here.
		if _, err := o.client.ResolveSpaceID(ctx, loc.space); err != nil {
			return wrapPathError("mkdir", name, ErrRootImmutable)
		}
		return nil
	}

	_, err = o.client.CreateFile(ctx, loc.space, loc.path, onedata.FileTypeDirectory, true, perm)
	if err != nil {
		if isAlreadyExists(err) {
			attrs, statErr := o.client.GetAttrs(ctx, loc.space, loc.path)
			if statErr == nil && attrs.IsDir() {
				return nil
			}
		}
		return wrapPathError("mkdir", name, err)
	}

	return nil
}

// Remove removes a file or empty directory.
func (o *Fs) Remove(name string) error {
	loc, err := o.resolve(name)
	if err != nil {
		return wrapPathError("remove", name, err)
	}

	if loc.root || loc.path == "" {
		return wrapPathError("remove", name, ErrRootImmutable)
	}

	ctx := context.Background()

	attrs, err := o.client.GetAttrs(ctx, loc.space, loc.path)
	if err != nil {
		return wrapPathError("remove", name, err)
	}

	if attrs.IsDir() {
		page, err := o.client.ListChildren(ctx, loc.space, attrs.FileID, 1, "")
		if err != nil {
			return wrapPathError("remove", name, err)
		}
		if len(page.Children) > 0 {
			return wrapPathError("remove", name, ErrNotEmpty)
		}
	}

	if err := o.client.Remove(ctx, loc.space, loc.path); err != nil {
		return wrapPathError("remove", name, err)
	}

	return nil
}

// RemoveAll removes name and any children it contains. The provider
// deletes the subtree server-side. A missing target is a no-op.
func (o *Fs) RemoveAll(name string) error {
	loc, err := o.resolve(name)
	if err != nil {
		return wrapPathError("remove", name, err)
	}

	if loc.root || loc.path == "" {
		return wrapPathError("remove", name, ErrRootImmutable)
	}

	if err := o.client.Remove(context.Background(), loc.space, loc.path); err != nil && !isNotFound(err) {
		return wrapPathError("remove", name, err)
	}

	return nil
}

// Rename moves oldname to newname. Without a bound space the two may
// name different spaces; the destination provider executes the move.
// The root and space roots cannot be renamed.
func (o *Fs) Rename(oldname, newname string) error {
	src, err := o.resolve(oldname)
	if err != nil {
		return wrapLinkError("rename", oldname, newname, err)
	}
	dst, err := o.resolve(newname)
	if err != nil {
		return wrapLinkError("rename", oldname, newname, err)
	}

	if src.root || src.path == "" || dst.root || dst.path == "" {
		return wrapLinkError("rename", oldname, newname, ErrRootImmutable)
	}

	if err := o.client.Move(context.Background(), src.space, src.path, dst.space, dst.path); err != nil {
		return wrapLinkError("rename", oldname, newname, err)
	}

	return nil
}

// Chmod changes the permission bits of the named file.
func (o *Fs) Chmod(name string, mode os.FileMode) error {
	loc, err := o.resolve(name)
	if err != nil {
		return wrapPathError("chmod", name, err)
	}

	if loc.root {
		return wrapPathError("chmod", name, ErrRootImmutable)
	}

	if err := o.client.SetMode(context.Background(), loc.space, loc.path, mode); err != nil {
		return wrapPathError("chmod", name, err)
	}

	return nil
}

// Chown is not supported; the provider manages storage ownership.
func (o *Fs) Chown(name string, uid, gid int) error {
	return wrapPathError("chown", name, ErrNotSupported)
}

// Chtimes is not supported; timestamps are provider-managed.
func (o *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return wrapPathError("chtimes", name, ErrNotSupported)
}

// baseName picks the display name for a location, preferring the name
// the provider reports.
func baseName(loc location, attrs *onedata.Attrs) string {
	if attrs.Name != "" {
		return attrs.Name
	}
	if loc.path == "" {
		return loc.space
	}
	return path.Base(loc.path)
}

// Compile-time check that Fs implements the afero filesystem interface
var _ afero.Fs = (*Fs)(nil)
