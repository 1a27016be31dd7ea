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
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
)

// Error variables
var (
	ErrInvalidWhence  = errors.New("invalid whence")
	ErrNegativeOffset = errors.New("negative offset")

	errWriteAtInAppendMode = errors.New("invalid use of WriteAt on file opened with O_APPEND")
)

// File implements afero.File over the Onedata content endpoints. Every
// read and write is one REST call against the resolved file id; nothing
// is buffered locally, so the handle observes concurrent remote changes.
// The size is re-fetched per read to clamp ranges at the current EOF.
type File struct {
	fs     *Fs
	space  string
	path   string
	name   string
	fileID string
	flag   int
	isDir  bool
	root   bool

	closed atomic.Bool

	mu  sync.Mutex
	pos int64

	// directory listing cursor
	dirBuf   []os.FileInfo
	dirToken string
	dirDone  bool
}

// newFile creates a handle for a regular file.
func newFile(o *Fs, loc location, fileID string, flag int, name string) *File {
	return &File{
		fs:     o,
		space:  loc.space,
		path:   loc.path,
		name:   name,
		fileID: fileID,
		flag:   flag,
	}
}

// newDirFile creates a read-only handle for a directory.
func newDirFile(o *Fs, loc location, fileID string, name string) *File {
	return &File{
		fs:     o,
		space:  loc.space,
		path:   loc.path,
		name:   name,
		fileID: fileID,
		isDir:  true,
	}
}

// newRootFile creates a handle for the synthetic root of a multi-space
// filesystem; its entries are the spaces.
func newRootFile(o *Fs, name string) *File {
	return &File{fs: o, name: name, isDir: true, root: true}
}

// Close closes the file. Writes are unbuffered, so nothing is flushed.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return fs.ErrClosed
	}
	return nil
}

// Name returns the name of the file as it was opened.
func (f *File) Name() string {
	return f.name
}

// Read reads up to len(p) bytes from the current position and advances
// it. Reading at or past the end of the file returns io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if f.closed.Load() {
		return 0, fs.ErrClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isDir {
		return 0, wrapPathError("read", f.name, ErrIsDirectory)
	}
	if !f.readable() {
		return 0, wrapPathError("read", f.name, ErrWriteOnly)
	}

	n, err := f.readAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes at the absolute offset off without moving
// the position. A short read returns io.EOF per the io.ReaderAt
// contract.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.closed.Load() {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, ErrNegativeOffset
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isDir {
		return 0, wrapPathError("read", f.name, ErrIsDirectory)
	}
	if !f.readable() {
		return 0, wrapPathError("read", f.name, ErrWriteOnly)
	}

	return f.readAt(p, off)
}

// readAt performs a ranged read clamped to the file's current size.
// Callers hold the lock.
func (f *File) readAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	size, err := f.size()
	if err != nil {
		return 0, wrapPathError("read", f.name, err)
	}
	if off >= size {
		return 0, io.EOF
	}

	want := int64(len(p))
	if off+want > size {
		want = size - off
	}

	data, err := f.fs.client.ReadRange(context.Background(), f.space, f.fileID, off, want)
	if err != nil {
		return 0, wrapPathError("read", f.name, err)
	}

	n := copy(p, data)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write writes p at the current position and advances it. Under
// os.O_APPEND every write lands at the current end of the file.
func (f *File) Write(p []byte) (int, error) {
	if f.closed.Load() {
		return 0, fs.ErrClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isDir {
		return 0, wrapPathError("write", f.name, ErrIsDirectory)
	}
	if !f.writable() {
		return 0, wrapPathError("write", f.name, ErrReadOnly)
	}

	off := f.pos
	if f.flag&os.O_APPEND != 0 {
		size, err := f.size()
		if err != nil {
			return 0, wrapPathError("write", f.name, err)
		}
		off = size
	}

	if err := f.fs.client.WriteAt(context.Background(), f.space, f.fileID, off, p); err != nil {
		return 0, wrapPathError("write", f.name, err)
	}

	f.pos = off + int64(len(p))
	return len(p), nil
}

// WriteAt writes p at the absolute offset off without moving the
// position. Writing past the end of the file leaves a hole that reads
// back as zeros.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if f.closed.Load() {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	if f.flag&os.O_APPEND != 0 {
		return 0, errWriteAtInAppendMode
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isDir {
		return 0, wrapPathError("write", f.name, ErrIsDirectory)
	}
	if !f.writable() {
		return 0, wrapPathError("write", f.name, ErrReadOnly)
	}

	if err := f.fs.client.WriteAt(context.Background(), f.space, f.fileID, off, p); err != nil {
		return 0, wrapPathError("write", f.name, err)
	}

	return len(p), nil
}

// Seek sets the position for the next Read or Write. Seeking past the
// end of the file is legal; a later write there leaves a hole.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed.Load() {
		return 0, fs.ErrClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isDir {
		return 0, wrapPathError("seek", f.name, ErrIsDirectory)
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		size, err := f.size()
		if err != nil {
			return 0, wrapPathError("seek", f.name, err)
		}
		base = size
	default:
		return 0, ErrInvalidWhence
	}

	pos := base + offset
	if pos < 0 {
		return 0, ErrNegativeOffset
	}

	f.pos = pos
	return pos, nil
}

// Truncate changes the size of the file. Shrinking reads the surviving
// prefix and replaces the content with it; growing writes zeros at the
// current end.
func (f *File) Truncate(size int64) error {
	if f.closed.Load() {
		return fs.ErrClosed
	}
	if size < 0 {
		return ErrNegativeOffset
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isDir {
		return wrapPathError("truncate", f.name, ErrIsDirectory)
	}
	if !f.writable() {
		return wrapPathError("truncate", f.name, ErrReadOnly)
	}

	ctx := context.Background()

	current, err := f.size()
	if err != nil {
		return wrapPathError("truncate", f.name, err)
	}

	switch {
	case size == current:
		return nil

	case size < current:
		var prefix []byte
		if size > 0 {
			prefix, err = f.fs.client.ReadRange(ctx, f.space, f.fileID, 0, size)
			if err != nil {
				return wrapPathError("truncate", f.name, err)
			}
		}
		if err := f.fs.client.ReplaceContent(ctx, f.space, f.fileID, prefix); err != nil {
			return wrapPathError("truncate", f.name, err)
		}

	default:
		zeros := make([]byte, size-current)
		if err := f.fs.client.WriteAt(ctx, f.space, f.fileID, current, zeros); err != nil {
			return wrapPathError("truncate", f.name, err)
		}
	}

	return nil
}

// Readdir returns directory entries, paginating through the provider's
// children listing. With count > 0 successive calls continue where the
// previous one stopped and io.EOF signals exhaustion; count <= 0 drains
// the remaining entries. At the root of a multi-space filesystem the
// entries are the spaces.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if f.closed.Load() {
		return nil, fs.ErrClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isDir {
		return nil, wrapPathError("readdir", f.name, ErrNotDirectory)
	}

	if err := f.fill(count); err != nil {
		return nil, wrapPathError("readdir", f.name, err)
	}

	if count <= 0 {
		entries := f.dirBuf
		f.dirBuf = nil
		if entries == nil {
			entries = []os.FileInfo{}
		}
		return entries, nil
	}

	if len(f.dirBuf) == 0 {
		return nil, io.EOF
	}

	n := count
	if n > len(f.dirBuf) {
		n = len(f.dirBuf)
	}
	entries := f.dirBuf[:n]
	f.dirBuf = f.dirBuf[n:]
	return entries, nil
}

// Readdirnames returns the names of directory entries, with the same
// pagination contract as Readdir.
func (f *File) Readdirnames(n int) ([]string, error) {
	infos, err := f.Readdir(n)
	if err != nil && err != io.EOF {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}

	return names, err
}

// fill fetches listing pages until the buffer holds want entries or the
// listing is exhausted. want <= 0 drains the listing. Callers hold the
// lock.
func (f *File) fill(want int) error {
	if f.root {
		if f.dirDone {
			return nil
		}
		spaces, err := f.fs.client.ListSpaces(context.Background())
		if err != nil {
			return err
		}
		for _, space := range spaces {
			f.dirBuf = append(f.dirBuf, newSpaceInfo(space.Name))
		}
		f.dirDone = true
		return nil
	}

	for !f.dirDone && (want <= 0 || len(f.dirBuf) < want) {
		page, err := f.fs.client.ListChildren(context.Background(), f.space, f.fileID, 0, f.dirToken)
		if err != nil {
			return err
		}

		for _, entry := range page.Children {
			f.dirBuf = append(f.dirBuf, newEntryInfo(entry))
		}

		f.dirToken = page.NextPageToken
		if page.IsLast || page.NextPageToken == "" {
			f.dirDone = true
		}
	}

	return nil
}

// Stat returns the file's current attributes from the provider.
func (f *File) Stat() (os.FileInfo, error) {
	if f.closed.Load() {
		return nil, fs.ErrClosed
	}

	if f.root {
		return newRootInfo(), nil
	}

	attrs, err := f.fs.client.GetAttrsByID(context.Background(), f.space, f.fileID)
	if err != nil {
		return nil, wrapPathError("stat", f.name, err)
	}

	name := attrs.Name
	if name == "" {
		name = path.Base(f.name)
	}

	return newFileInfo(name, attrs), nil
}

// Sync is a no-op; writes reach the provider before Write returns.
func (f *File) Sync() error {
	if f.closed.Load() {
		return fs.ErrClosed
	}
	return nil
}

// WriteString writes a string to the file.
func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// size fetches the file's current size from the provider.
func (f *File) size() (int64, error) {
	attrs, err := f.fs.client.GetAttrsByID(context.Background(), f.space, f.fileID)
	if err != nil {
		return 0, err
	}
	return attrs.Size, nil
}

// readable reports whether the open flag permits reads.
func (f *File) readable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != os.O_WRONLY
}

// writable reports whether the open flag permits writes.
func (f *File) writable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != 0
}

// Compile-time check that File implements the afero file interface
var _ afero.File = (*File)(nil)
