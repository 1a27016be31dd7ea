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

// Package mockcluster runs an in-memory Onedata cluster for tests,
// examples and local development. A single TLS listener answers the
// Onezone directory API, the Oneprovider data API and the CDMI move
// endpoint, with one provider supporting every space. State lives in a
// per-space file tree; errors are reported in the Onedata envelope with
// posix errnos so client error mapping is exercised end to end.
package mockcluster

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

// Cluster is an in-memory Onedata zone plus provider behind one test
// listener. The listener's host:port doubles as the provider domain the
// zone reports.
type Cluster struct {
	server     *httptest.Server
	token      string
	providerID string

	mu     sync.Mutex
	spaces []*space

	failStatus int
	failErrno  string
	timeouts   int
}

// New starts a cluster with no spaces. Callers own Close.
func New() *Cluster {
	gin.SetMode(gin.TestMode)

	m := &Cluster{
		token:      uuid.NewString(),
		providerID: uuid.NewString(),
	}

	router := gin.New()
	m.registerRoutes(router)
	m.server = httptest.NewTLSServer(router)

	return m
}

// Close shuts the listener down.
func (m *Cluster) Close() {
	m.server.Close()
}

// URL returns the cluster's base URL.
func (m *Cluster) URL() string {
	return m.server.URL
}

// Host returns the host:port the cluster answers on. It serves as both
// the zone host and the provider domain.
func (m *Cluster) Host() string {
	return strings.TrimPrefix(m.server.URL, "https://")
}

// Token returns the access token every request must carry.
func (m *Cluster) Token() string {
	return m.token
}

// HTTPClient returns an HTTP client trusting the cluster's TLS
// certificate.
func (m *Cluster) HTTPClient() *http.Client {
	return m.server.Client()
}

// Client returns a ready REST client wired to the cluster.
func (m *Cluster) Client() *onedata.Client {
	client, err := onedata.NewClient(&onedata.Config{
		ZoneHost:   m.Host(),
		Token:      m.token,
		HTTPClient: m.server.Client(),
	})
	if err != nil {
		panic(fmt.Sprintf("mockcluster: build client: %v", err))
	}
	return client
}

// AddSpace registers a space and returns its id.
func (m *Cluster) AddSpace(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.spaceByName(name) != nil {
		panic("mockcluster: duplicate space " + name)
	}

	id := uuid.NewString()
	root := newNode(name, onedata.FileTypeDirectory, 0o775)
	root.id = id

	m.spaces = append(m.spaces, &space{id: id, name: name, root: root})
	return id
}

// MustWriteFile seeds a file, creating missing parent directories. An
// existing file is overwritten.
func (m *Cluster) MustWriteFile(spaceName, path string, data []byte, mode os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.spaceByName(spaceName)
	if s == nil {
		panic("mockcluster: unknown space " + spaceName)
	}

	n, err := s.find(path)
	if err != nil {
		n, err = s.create(path, onedata.FileTypeRegular, true, mode)
		if err != nil {
			panic(fmt.Sprintf("mockcluster: write %s: %v", path, err))
		}
	}
	if n.isDir() {
		panic(fmt.Sprintf("mockcluster: write %s: is a directory", path))
	}

	n.data = append([]byte(nil), data...)
	n.mode = mode
	n.mtime = time.Now().Unix()
}

// MustMkdirAll seeds a directory chain.
func (m *Cluster) MustMkdirAll(spaceName, path string, mode os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.spaceByName(spaceName)
	if s == nil {
		panic("mockcluster: unknown space " + spaceName)
	}

	if n, err := s.find(path); err == nil {
		if !n.isDir() {
			panic(fmt.Sprintf("mockcluster: mkdir %s: not a directory", path))
		}
		return
	}

	if _, err := s.create(path, onedata.FileTypeDirectory, true, mode); err != nil {
		panic(fmt.Sprintf("mockcluster: mkdir %s: %v", path, err))
	}
}

// FailNextWith makes the next request fail with the given status and
// posix errno, then clears itself.
func (m *Cluster) FailNextWith(status int, errno string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus, m.failErrno = status, errno
}

// TimeoutNext makes the next n requests hang until the caller's client
// gives up, for driving retry paths.
func (m *Cluster) TimeoutNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts = n
}

// spaceByName returns the named space. Callers hold the lock.
func (m *Cluster) spaceByName(name string) *space {
	for _, s := range m.spaces {
		if s.name == name {
			return s
		}
	}
	return nil
}

// spaceByID returns the space with the given id. Callers hold the lock.
func (m *Cluster) spaceByID(id string) *space {
	for _, s := range m.spaces {
		if s.id == id {
			return s
		}
	}
	return nil
}

// nodeByID resolves a file id across all spaces. Callers hold the lock.
func (m *Cluster) nodeByID(id string) *node {
	for _, s := range m.spaces {
		if n := s.root.findByID(id); n != nil {
			return n
		}
	}
	return nil
}

// findByID searches the subtree for the node with the given id.
func (n *node) findByID(id string) *node {
	if n.id == id {
		return n
	}
	for _, c := range n.children {
		if found := c.findByID(id); found != nil {
			return found
		}
	}
	return nil
}
