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
	"os"
	"strconv"
	"time"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

// FileInfo implements os.FileInfo for Onedata files and directories.
type FileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	attrs   *onedata.Attrs
}

// Name returns the base name of the file.
func (fi *FileInfo) Name() string {
	return fi.name
}

// Size returns the length in bytes as reported by the provider.
func (fi *FileInfo) Size() int64 {
	return fi.size
}

// Mode returns the file mode bits.
func (fi *FileInfo) Mode() os.FileMode {
	return fi.mode
}

// ModTime returns the modification time.
func (fi *FileInfo) ModTime() time.Time {
	return fi.modTime
}

// IsDir reports whether the entry is a directory.
func (fi *FileInfo) IsDir() bool {
	return fi.mode.IsDir()
}

// Sys returns the raw *onedata.Attrs when the info came from an
// attributes call, carrying the storage uid/gid and file id. Synthetic
// entries (the root, space listings, readdir pages) return nil.
func (fi *FileInfo) Sys() any {
	if fi.attrs == nil {
		return nil
	}
	return fi.attrs
}

// newFileInfo builds a FileInfo from full file attributes.
func newFileInfo(name string, attrs *onedata.Attrs) *FileInfo {
	return &FileInfo{
		name:    name,
		size:    attrs.Size,
		mode:    parseMode(attrs.Mode) | typeMode(attrs.Type),
		modTime: time.Unix(attrs.Mtime, 0),
		attrs:   attrs,
	}
}

// newEntryInfo builds a FileInfo from a directory listing entry.
func newEntryInfo(entry onedata.Entry) *FileInfo {
	return &FileInfo{
		name:    entry.Name,
		size:    entry.Size,
		mode:    parseMode(entry.Mode) | typeMode(entry.Type),
		modTime: time.Unix(entry.Mtime, 0),
	}
}

// newSpaceInfo builds the synthetic directory entry a space shows as when
// listing the root.
func newSpaceInfo(name string) *FileInfo {
	return &FileInfo{name: name, mode: os.ModeDir | 0o755}
}

// newRootInfo builds the synthetic entry for the filesystem root.
func newRootInfo() *FileInfo {
	return &FileInfo{name: "/", mode: os.ModeDir | 0o555}
}

// typeMode maps a Onedata file type to its mode type bit.
func typeMode(t onedata.FileType) os.FileMode {
	switch t {
	case onedata.FileTypeDirectory:
		return os.ModeDir
	case onedata.FileTypeSymlink:
		return os.ModeSymlink
	}
	return 0
}

// parseMode parses the provider's octal mode string ("644", "0644",
// "4755") into permission and setuid/setgid/sticky bits. Unparsable
// strings yield no permissions.
func parseMode(s string) os.FileMode {
	bits, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0
	}

	mode := os.FileMode(bits) & os.ModePerm
	if bits&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if bits&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if bits&0o1000 != 0 {
		mode |= os.ModeSticky
	}

	return mode
}
