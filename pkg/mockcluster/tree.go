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

package mockcluster

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

// space is one Onedata space with its file tree. The root node's id is
// the space id, mirroring the data API where the space id doubles as the
// root directory's file id.
type space struct {
	id   string
	name string
	root *node
}

// node is a single file or directory.
type node struct {
	id       string
	name     string
	typ      onedata.FileType
	mode     os.FileMode
	data     []byte
	children []*node
	parent   *node

	atime int64
	mtime int64
	ctime int64
	uid   int64
	gid   int64
}

// treeError carries a posix errno through tree operations.
type treeError struct {
	errno       string
	description string
}

func (e *treeError) Error() string {
	return e.description
}

func errnoError(errno, description string) *treeError {
	return &treeError{errno: errno, description: description}
}

// newNode creates a node with a fresh id and current timestamps.
func newNode(name string, typ onedata.FileType, mode os.FileMode) *node {
	now := time.Now().Unix()
	return &node{
		id:    uuid.NewString(),
		name:  name,
		typ:   typ,
		mode:  mode,
		atime: now,
		mtime: now,
		ctime: now,
	}
}

// size returns the byte size reported in attributes.
func (n *node) size() int64 {
	if n.typ == onedata.FileTypeDirectory {
		return 0
	}
	return int64(len(n.data))
}

// isDir reports whether the node is a directory.
func (n *node) isDir() bool {
	return n.typ == onedata.FileTypeDirectory
}

// child returns the named child, or nil.
func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// attach adds a child and keeps the listing order sorted by name.
func (n *node) attach(c *node) {
	c.parent = n
	n.children = append(n.children, c)
	sort.Slice(n.children, func(i, j int) bool {
		return n.children[i].name < n.children[j].name
	})
}

// detach removes a child by identity.
func (n *node) detach(c *node) {
	for i, existing := range n.children {
		if existing == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

// splitSegments splits a slash-separated path into its segments. The
// empty path (the space root) yields no segments.
func splitSegments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// find walks the tree from the space root to the node at path.
func (s *space) find(path string) (*node, error) {
	current := s.root
	for _, segment := range splitSegments(path) {
		if !current.isDir() {
			return nil, errnoError("enotdir", "not a directory")
		}
		next := current.child(segment)
		if next == nil {
			return nil, errnoError("enoent", "no such file or directory")
		}
		current = next
	}
	return current, nil
}

// create makes a file or directory at path, optionally materializing
// missing parent directories. It returns the new node.
func (s *space) create(path string, typ onedata.FileType, createParents bool, mode os.FileMode) (*node, error) {
	segments := splitSegments(path)
	if len(segments) == 0 {
		return nil, errnoError("eexist", "file already exists")
	}

	current := s.root
	for _, segment := range segments[:len(segments)-1] {
		if !current.isDir() {
			return nil, errnoError("enotdir", "not a directory")
		}
		next := current.child(segment)
		if next == nil {
			if !createParents {
				return nil, errnoError("enoent", "no such file or directory")
			}
			next = newNode(segment, onedata.FileTypeDirectory, 0o775)
			current.attach(next)
		}
		current = next
	}

	if !current.isDir() {
		return nil, errnoError("enotdir", "not a directory")
	}

	name := segments[len(segments)-1]
	if current.child(name) != nil {
		return nil, errnoError("eexist", "file already exists")
	}

	created := newNode(name, typ, mode)
	current.attach(created)
	return created, nil
}

// remove deletes the node at path together with its subtree and returns
// the removed node.
func (s *space) remove(path string) (*node, error) {
	target, err := s.find(path)
	if err != nil {
		return nil, err
	}
	if target == s.root {
		return nil, errnoError("eperm", "cannot remove a space root")
	}

	target.parent.detach(target)
	return target, nil
}
