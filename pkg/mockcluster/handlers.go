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
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

// supportSize is the storage support every space reports for the mock
// provider.
const supportSize = int64(1) << 30

// registerRoutes wires the zone, provider and CDMI endpoints.
func (m *Cluster) registerRoutes(router *gin.Engine) {
	router.Use(m.faults, m.requireToken)

	zone := router.Group("/api/v3/onezone")
	{
		zone.GET("/user/effective_spaces", m.handleListSpaces)
		zone.GET("/user/effective_spaces/:id", m.handleSpaceDetails)
		zone.GET("/providers/:id", m.handleProviderDetails)
	}

	provider := router.Group("/api/v3/oneprovider")
	{
		provider.POST("/lookup-file-id/:space", m.handleLookup)
		provider.POST("/lookup-file-id/:space/*path", m.handleLookup)

		provider.GET("/data/:fileId", m.handleGetAttrs)
		provider.PUT("/data/:fileId", m.handleSetAttrs)
		provider.GET("/data/:fileId/children", m.handleListChildren)
		provider.GET("/data/:fileId/content", m.handleReadContent)
		provider.PUT("/data/:fileId/content", m.handleWriteContent)
		provider.PUT("/data/:fileId/path/*path", m.handleCreateFile)
		provider.DELETE("/data/:fileId/path/*path", m.handleDeletePath)
	}

	router.PUT("/cdmi/:space/*path", m.handleCDMIMove)
}

// faults applies one-shot injected failures before any other handling.
func (m *Cluster) faults(c *gin.Context) {
	m.mu.Lock()

	if m.timeouts > 0 {
		m.timeouts--
		m.mu.Unlock()
		select {
		case <-c.Request.Context().Done():
		case <-time.After(30 * time.Second):
		}
		c.Abort()
		return
	}

	if m.failStatus != 0 {
		status, errno := m.failStatus, m.failErrno
		m.failStatus, m.failErrno = 0, ""
		m.mu.Unlock()
		respondErrno(c, status, errno, "injected failure")
		c.Abort()
		return
	}

	m.mu.Unlock()
	c.Next()
}

// requireToken enforces the X-Auth-Token header on every endpoint.
func (m *Cluster) requireToken(c *gin.Context) {
	if c.GetHeader("X-Auth-Token") != m.token {
		respondErrno(c, http.StatusUnauthorized, "eacces", "invalid access token")
		c.Abort()
		return
	}
	c.Next()
}

func (m *Cluster) handleListSpaces(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.spaces))
	for _, s := range m.spaces {
		ids = append(ids, s.id)
	}

	c.JSON(http.StatusOK, gin.H{"spaces": ids})
}

func (m *Cluster) handleSpaceDetails(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.spaceByID(c.Param("id"))
	if s == nil {
		respondErrno(c, http.StatusNotFound, "enoent", "space not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spaceId":   s.id,
		"name":      s.name,
		"providers": gin.H{m.providerID: supportSize},
	})
}

func (m *Cluster) handleProviderDetails(c *gin.Context) {
	if c.Param("id") != m.providerID {
		respondErrno(c, http.StatusNotFound, "enoent", "provider not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"providerId": m.providerID,
		"name":       "mock-provider",
		"domain":     m.Host(),
		"online":     true,
	})
}

func (m *Cluster) handleLookup(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.spaceByName(c.Param("space"))
	if s == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such space")
		return
	}

	n, err := s.find(strings.Trim(c.Param("path"), "/"))
	if err != nil {
		respondTreeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fileId": n.id})
}

func (m *Cluster) handleGetAttrs(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.nodeByID(c.Param("fileId"))
	if n == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such file or directory")
		return
	}

	c.JSON(http.StatusOK, m.attrsJSON(n))
}

func (m *Cluster) handleSetAttrs(c *gin.Context) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Mode == "" {
		respondErrno(c, http.StatusBadRequest, "einval", "invalid attribute update")
		return
	}

	bits, err := strconv.ParseUint(body.Mode, 8, 32)
	if err != nil {
		respondErrno(c, http.StatusBadRequest, "einval", "invalid mode")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.nodeByID(c.Param("fileId"))
	if n == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such file or directory")
		return
	}

	n.mode = posixMode(bits)
	n.ctime = time.Now().Unix()

	c.Status(http.StatusNoContent)
}

func (m *Cluster) handleListChildren(c *gin.Context) {
	limit := 1000
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondErrno(c, http.StatusBadRequest, "einval", "invalid limit")
			return
		}
		limit = parsed
	}

	start := 0
	if raw := c.Query("token"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondErrno(c, http.StatusBadRequest, "einval", "invalid page token")
			return
		}
		start = parsed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.nodeByID(c.Param("fileId"))
	if n == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such file or directory")
		return
	}
	if !n.isDir() {
		respondErrno(c, http.StatusBadRequest, "enotdir", "not a directory")
		return
	}

	if start > len(n.children) {
		start = len(n.children)
	}
	end := start + limit
	if end > len(n.children) {
		end = len(n.children)
	}

	children := make([]gin.H, 0, end-start)
	for _, child := range n.children[start:end] {
		children = append(children, gin.H{
			"file_id": child.id,
			"name":    child.name,
			"type":    child.typ,
			"mode":    modeString(child.mode),
			"size":    child.size(),
			"mtime":   child.mtime,
		})
	}

	isLast := end >= len(n.children)
	resp := gin.H{"children": children, "isLast": isLast}
	if !isLast {
		resp["nextPageToken"] = strconv.Itoa(end)
	}

	c.JSON(http.StatusOK, resp)
}

func (m *Cluster) handleReadContent(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.nodeByID(c.Param("fileId"))
	if n == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such file or directory")
		return
	}
	if n.isDir() {
		respondErrno(c, http.StatusBadRequest, "eisdir", "is a directory")
		return
	}

	n.atime = time.Now().Unix()

	rangeHeader := c.GetHeader("Range")
	if rangeHeader == "" {
		c.Data(http.StatusOK, "application/octet-stream", append([]byte(nil), n.data...))
		return
	}

	var start, end int64
	if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); err != nil || start < 0 || end < start {
		respondErrno(c, http.StatusBadRequest, "einval", "malformed range")
		return
	}

	size := int64(len(n.data))
	if start >= size {
		c.Data(http.StatusPartialContent, "application/octet-stream", []byte{})
		return
	}
	if end >= size {
		end = size - 1
	}

	c.Data(http.StatusPartialContent, "application/octet-stream", append([]byte(nil), n.data[start:end+1]...))
}

func (m *Cluster) handleWriteContent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondErrno(c, http.StatusBadRequest, "eio", "failed to read request body")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.nodeByID(c.Param("fileId"))
	if n == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such file or directory")
		return
	}
	if n.isDir() {
		respondErrno(c, http.StatusBadRequest, "eisdir", "is a directory")
		return
	}

	if raw, ok := c.GetQuery("offset"); ok {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || offset < 0 {
			respondErrno(c, http.StatusBadRequest, "einval", "invalid offset")
			return
		}

		// Writes past the end leave a zero-filled hole.
		if grow := offset + int64(len(body)) - int64(len(n.data)); grow > 0 {
			n.data = append(n.data, make([]byte, grow)...)
		}
		copy(n.data[offset:], body)
	} else {
		n.data = body
	}

	n.mtime = time.Now().Unix()
	c.Status(http.StatusNoContent)
}

func (m *Cluster) handleCreateFile(c *gin.Context) {
	typ := onedata.FileType(c.DefaultQuery("type", "REG"))
	if typ != onedata.FileTypeRegular && typ != onedata.FileTypeDirectory && typ != onedata.FileTypeSymlink {
		respondErrno(c, http.StatusBadRequest, "einval", "invalid file type")
		return
	}

	createParents := c.Query("create_parents") == "true"

	mode := os.FileMode(0o664)
	if typ == onedata.FileTypeDirectory {
		mode = 0o775
	}
	if raw := c.Query("mode"); raw != "" {
		bits, err := strconv.ParseUint(raw, 8, 32)
		if err != nil {
			respondErrno(c, http.StatusBadRequest, "einval", "invalid mode")
			return
		}
		mode = posixMode(bits)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.spaceByID(c.Param("fileId"))
	if s == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such space")
		return
	}

	created, err := s.create(strings.Trim(c.Param("path"), "/"), typ, createParents, mode)
	if err != nil {
		respondTreeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"fileId": created.id})
}

func (m *Cluster) handleDeletePath(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.spaceByID(c.Param("fileId"))
	if s == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such space")
		return
	}

	if _, err := s.remove(strings.Trim(c.Param("path"), "/")); err != nil {
		respondTreeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (m *Cluster) handleCDMIMove(c *gin.Context) {
	var body struct {
		Move string `json:"move"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Move == "" {
		respondErrno(c, http.StatusBadRequest, "einval", "invalid cdmi request")
		return
	}

	srcSpaceName, srcPath, _ := strings.Cut(strings.Trim(body.Move, "/"), "/")
	dstPath := strings.Trim(c.Param("path"), "/")

	m.mu.Lock()
	defer m.mu.Unlock()

	srcSpace := m.spaceByName(srcSpaceName)
	dstSpace := m.spaceByName(c.Param("space"))
	if srcSpace == nil || dstSpace == nil {
		respondErrno(c, http.StatusBadRequest, "enoent", "no such space")
		return
	}

	if srcPath == "" || dstPath == "" {
		respondErrno(c, http.StatusBadRequest, "eperm", "cannot move a space root")
		return
	}

	srcNode, err := srcSpace.find(srcPath)
	if err != nil {
		respondTreeError(c, err)
		return
	}

	dstParent, err := dstSpace.find(parentPath(dstPath))
	if err != nil {
		respondTreeError(c, err)
		return
	}
	if !dstParent.isDir() {
		respondErrno(c, http.StatusBadRequest, "enotdir", "not a directory")
		return
	}

	dstName := lastPathSegment(dstPath)

	if existing := dstParent.child(dstName); existing != nil {
		if existing == srcNode {
			c.Status(http.StatusCreated)
			return
		}
		if existing.isDir() {
			respondErrno(c, http.StatusBadRequest, "eexist", "destination exists")
			return
		}
		dstParent.detach(existing)
	}

	srcNode.parent.detach(srcNode)
	srcNode.name = dstName
	dstParent.attach(srcNode)
	srcNode.ctime = time.Now().Unix()

	c.Status(http.StatusCreated)
}

// attrsJSON renders a node in the attributes wire format. Callers hold
// the lock.
func (m *Cluster) attrsJSON(n *node) gin.H {
	parentID := ""
	if n.parent != nil {
		parentID = n.parent.id
	}

	return gin.H{
		"file_id":          n.id,
		"name":             n.name,
		"type":             n.typ,
		"mode":             modeString(n.mode),
		"size":             n.size(),
		"atime":            n.atime,
		"mtime":            n.mtime,
		"ctime":            n.ctime,
		"storage_user_id":  n.uid,
		"storage_group_id": n.gid,
		"owner_id":         "mock-owner",
		"provider_id":      m.providerID,
		"parent_id":        parentID,
	}
}

// respondErrno writes a Onedata error envelope.
func respondErrno(c *gin.Context, status int, errno, description string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"id":          "posix",
			"details":     gin.H{"errno": errno},
			"description": description,
		},
	})
}

// respondTreeError maps a tree operation failure to an error envelope.
func respondTreeError(c *gin.Context, err error) {
	var te *treeError
	if errors.As(err, &te) {
		respondErrno(c, http.StatusBadRequest, te.errno, te.description)
		return
	}
	respondErrno(c, http.StatusInternalServerError, "eio", err.Error())
}

// modeString renders mode as the octal string the attributes endpoints
// report, without a leading zero.
func modeString(mode os.FileMode) string {
	bits := uint64(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if mode&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if mode&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	return strconv.FormatUint(bits, 8)
}

// posixMode converts raw posix mode bits to an os.FileMode.
func posixMode(bits uint64) os.FileMode {
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

// parentPath returns everything before the final path segment, or the
// empty string for a top-level name.
func parentPath(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// lastPathSegment returns the final path segment.
func lastPathSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
