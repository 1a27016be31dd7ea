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
	"io/fs"
	"path"
	"strings"
)

// location is a resolved path: the space it lives in and the in-space
// path. The space root has an empty path; the synthetic root of a
// multi-space filesystem has root set and no space.
type location struct {
	space string
	path  string
	root  bool
}

// resolve parses name against the filesystem's path model. With a bound
// space the whole name is an in-space path; otherwise the first segment
// names the space.
func (o *Fs) resolve(name string) (location, error) {
	if strings.ContainsRune(name, 0) {
		return location{}, fs.ErrInvalid
	}

	p := normalizePath(name)

	if o.space != "" {
		return location{space: o.space, path: p}, nil
	}

	if p == "" {
		return location{root: true}, nil
	}

	space, rest, _ := strings.Cut(p, "/")
	return location{space: space, path: rest}, nil
}

// normalizePath cleans a path into slash-separated form without leading
// or trailing separators. The root cleans to the empty string.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	return strings.TrimPrefix(p, "/")
}
