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
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

func newTestCluster(t *testing.T) (*Cluster, *onedata.Client) {
	t.Helper()

	cluster := New()
	t.Cleanup(cluster.Close)

	client := cluster.Client()
	t.Cleanup(func() { _ = client.Close() })

	return cluster, client
}

func TestCluster_ZoneEndpoints(t *testing.T) {
	cluster, client := newTestCluster(t)

	demoID := cluster.AddSpace("demo")
	archiveID := cluster.AddSpace("archive")

	ctx := context.Background()

	ids, err := client.ListSpaceIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{demoID, archiveID}, ids)

	spaces, err := client.ListSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	assert.Equal(t, "archive", spaces[0].Name)
	assert.Equal(t, "demo", spaces[1].Name)
	require.Len(t, spaces[0].Providers, 1)

	provider, err := client.ProviderDetails(ctx, spaces[0].Providers[0])
	require.NoError(t, err)
	assert.Equal(t, cluster.Host(), provider.Domain)
	assert.True(t, provider.Online)
}

func TestCluster_LookupAndAttrs(t *testing.T) {
	cluster, client := newTestCluster(t)

	spaceID := cluster.AddSpace("demo")
	cluster.MustWriteFile("demo", "reports/q1.txt", []byte("quarterly"), 0o640)

	ctx := context.Background()

	fileID, err := client.LookupFileID(ctx, "demo", "reports/q1.txt")
	require.NoError(t, err)
	require.NotEmpty(t, fileID)

	attrs, err := client.GetAttrs(ctx, "demo", "reports/q1.txt")
	require.NoError(t, err)
	assert.Equal(t, fileID, attrs.FileID)
	assert.Equal(t, "q1.txt", attrs.Name)
	assert.Equal(t, onedata.FileTypeRegular, attrs.Type)
	assert.Equal(t, "640", attrs.Mode)
	assert.Equal(t, int64(9), attrs.Size)

	dirAttrs, err := client.GetAttrs(ctx, "demo", "reports")
	require.NoError(t, err)
	assert.True(t, dirAttrs.IsDir())
	assert.Equal(t, spaceID, dirAttrs.ParentID)

	rootAttrs, err := client.GetAttrs(ctx, "demo", "")
	require.NoError(t, err)
	assert.Equal(t, spaceID, rootAttrs.FileID)
	assert.True(t, rootAttrs.IsDir())
}

func TestCluster_LookupMissingFile(t *testing.T) {
	cluster, client := newTestCluster(t)
	cluster.AddSpace("demo")

	_, err := client.LookupFileID(context.Background(), "demo", "nope.txt")

	var restErr *onedata.Error
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.NotFound())
}

func TestCluster_SetMode(t *testing.T) {
	cluster, client := newTestCluster(t)

	cluster.AddSpace("demo")
	cluster.MustWriteFile("demo", "notes.txt", []byte("x"), 0o644)

	ctx := context.Background()
	require.NoError(t, client.SetMode(ctx, "demo", "notes.txt", 0o600))

	attrs, err := client.GetAttrs(ctx, "demo", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "600", attrs.Mode)
}

func TestCluster_ReadContent(t *testing.T) {
	cluster, client := newTestCluster(t)

	cluster.AddSpace("demo")
	cluster.MustWriteFile("demo", "hello.txt", []byte("hello world"), 0o644)

	ctx := context.Background()
	fileID, err := client.LookupFileID(ctx, "demo", "hello.txt")
	require.NoError(t, err)

	full, err := client.ReadRange(ctx, "demo", fileID, 0, 11)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(full))

	partial, err := client.ReadRange(ctx, "demo", fileID, 6, 5)
	require.NoError(t, err)
	assert.Equal(t, "world", string(partial))

	clamped, err := client.ReadRange(ctx, "demo", fileID, 6, 100)
	require.NoError(t, err)
	assert.Equal(t, "world", string(clamped))
}

func TestCluster_WriteContent(t *testing.T) {
	cluster, client := newTestCluster(t)

	cluster.AddSpace("demo")
	cluster.MustWriteFile("demo", "data.bin", []byte("aaaaaaaa"), 0o644)

	ctx := context.Background()
	fileID, err := client.LookupFileID(ctx, "demo", "data.bin")
	require.NoError(t, err)

	require.NoError(t, client.WriteAt(ctx, "demo", fileID, 2, []byte("BB")))
	got, err := client.ReadRange(ctx, "demo", fileID, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, "aaBBaaaa", string(got))

	// A write past the end leaves a zero-filled hole.
	require.NoError(t, client.WriteAt(ctx, "demo", fileID, 10, []byte("ZZ")))
	got, err = client.ReadRange(ctx, "demo", fileID, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, "aaBBaaaa\x00\x00ZZ", string(got))

	require.NoError(t, client.ReplaceContent(ctx, "demo", fileID, []byte("short")))
	attrs, err := client.GetAttrsByID(ctx, "demo", fileID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), attrs.Size)
}

func TestCluster_CreateAndRemove(t *testing.T) {
	cluster, client := newTestCluster(t)
	cluster.AddSpace("demo")

	ctx := context.Background()

	fileID, err := client.CreateFile(ctx, "demo", "a/b/new.txt", onedata.FileTypeRegular, true, 0o640)
	require.NoError(t, err)
	require.NotEmpty(t, fileID)

	attrs, err := client.GetAttrs(ctx, "demo", "a/b/new.txt")
	require.NoError(t, err)
	assert.Equal(t, "640", attrs.Mode)

	_, err = client.CreateFile(ctx, "demo", "a/b/new.txt", onedata.FileTypeRegular, false, 0o640)
	var restErr *onedata.Error
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.AlreadyExists())

	_, err = client.CreateFile(ctx, "demo", "missing/parent.txt", onedata.FileTypeRegular, false, 0)
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.NotFound())

	require.NoError(t, client.Remove(ctx, "demo", "a"))
	_, err = client.GetAttrs(ctx, "demo", "a/b/new.txt")
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.NotFound())
}

func TestCluster_RemoveSpaceRoot(t *testing.T) {
	cluster, client := newTestCluster(t)
	cluster.AddSpace("demo")

	err := client.Remove(context.Background(), "demo", "")

	var restErr *onedata.Error
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.PermissionDenied())
}

func TestCluster_ListChildrenPagination(t *testing.T) {
	cluster, client := newTestCluster(t)

	spaceID := cluster.AddSpace("demo")
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		cluster.MustWriteFile("demo", name, []byte(name), 0o644)
	}

	ctx := context.Background()

	var names []string
	token := ""
	pages := 0
	for {
		page, err := client.ListChildren(ctx, "demo", spaceID, 2, token)
		require.NoError(t, err)
		pages++
		for _, entry := range page.Children {
			names = append(names, entry.Name)
		}
		if page.IsLast {
			assert.Empty(t, page.NextPageToken)
			break
		}
		require.NotEmpty(t, page.NextPageToken)
		token = page.NextPageToken
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"}, names)
}

func TestCluster_ListChildrenOnFile(t *testing.T) {
	cluster, client := newTestCluster(t)

	cluster.AddSpace("demo")
	cluster.MustWriteFile("demo", "plain.txt", []byte("x"), 0o644)

	ctx := context.Background()
	fileID, err := client.LookupFileID(ctx, "demo", "plain.txt")
	require.NoError(t, err)

	_, err = client.ListChildren(ctx, "demo", fileID, 0, "")

	var restErr *onedata.Error
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.NotDirectory())
}

func TestCluster_MoveAcrossSpaces(t *testing.T) {
	cluster, client := newTestCluster(t)

	cluster.AddSpace("src-space")
	cluster.AddSpace("dst-space")
	cluster.MustWriteFile("src-space", "docs/report.txt", []byte("contents"), 0o644)
	cluster.MustMkdirAll("dst-space", "inbox", 0o775)

	ctx := context.Background()
	srcID, err := client.LookupFileID(ctx, "src-space", "docs/report.txt")
	require.NoError(t, err)

	require.NoError(t, client.Move(ctx, "src-space", "docs/report.txt", "dst-space", "inbox/report.txt"))

	moved, err := client.GetAttrs(ctx, "dst-space", "inbox/report.txt")
	require.NoError(t, err)
	assert.Equal(t, srcID, moved.FileID)
	assert.Equal(t, int64(8), moved.Size)

	var restErr *onedata.Error
	_, err = client.GetAttrs(ctx, "src-space", "docs/report.txt")
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.NotFound())
}

func TestCluster_MoveReplacesFile(t *testing.T) {
	cluster, client := newTestCluster(t)

	cluster.AddSpace("demo")
	cluster.MustWriteFile("demo", "old.txt", []byte("old"), 0o644)
	cluster.MustWriteFile("demo", "new.txt", []byte("replacement"), 0o644)

	ctx := context.Background()
	require.NoError(t, client.Move(ctx, "demo", "new.txt", "demo", "old.txt"))

	attrs, err := client.GetAttrs(ctx, "demo", "old.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(11), attrs.Size)

	var restErr *onedata.Error
	_, err = client.GetAttrs(ctx, "demo", "new.txt")
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.NotFound())
}

func TestCluster_MoveOntoDirectory(t *testing.T) {
	cluster, client := newTestCluster(t)

	cluster.AddSpace("demo")
	cluster.MustWriteFile("demo", "file.txt", []byte("x"), 0o644)
	cluster.MustMkdirAll("demo", "target", 0o775)

	err := client.Move(context.Background(), "demo", "file.txt", "demo", "target")

	var restErr *onedata.Error
	require.ErrorAs(t, err, &restErr)
	assert.True(t, restErr.AlreadyExists())
}

func TestCluster_RejectsBadToken(t *testing.T) {
	cluster := New()
	t.Cleanup(cluster.Close)
	cluster.AddSpace("demo")

	req, err := http.NewRequest(http.MethodGet, cluster.URL()+"/api/v3/onezone/user/effective_spaces", nil)
	require.NoError(t, err)
	req.Header.Set("X-Auth-Token", "wrong")

	resp, err := cluster.HTTPClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var envelope struct {
		Error struct {
			Details struct {
				Errno string `json:"errno"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "eacces", envelope.Error.Details.Errno)
}

func TestCluster_FailNextWith(t *testing.T) {
	cluster, client := newTestCluster(t)
	cluster.AddSpace("demo")

	cluster.FailNextWith(http.StatusInsufficientStorage, "enospc")

	_, err := client.ListSpaceIDs(context.Background())
	var restErr *onedata.Error
	require.ErrorAs(t, err, &restErr)
	assert.Equal(t, http.StatusInsufficientStorage, restErr.StatusCode)
	assert.True(t, restErr.NoSpace())

	// The injected failure is one-shot.
	_, err = client.ListSpaceIDs(context.Background())
	require.NoError(t, err)
}

func TestCluster_TimeoutNext(t *testing.T) {
	cluster := New()
	t.Cleanup(cluster.Close)
	cluster.AddSpace("demo")

	client, err := onedata.NewClient(&onedata.Config{
		ZoneHost:   cluster.Host(),
		Token:      cluster.Token(),
		MaxRetries: 1,
		HTTPClient: &http.Client{
			Transport: cluster.HTTPClient().Transport,
			Timeout:   100 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cluster.TimeoutNext(1)

	ids, err := client.ListSpaceIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestCluster_SeedHelpers(t *testing.T) {
	cluster, _ := newTestCluster(t)
	cluster.AddSpace("demo")

	cluster.MustWriteFile("demo", "dir/file.txt", []byte("one"), 0o644)
	cluster.MustWriteFile("demo", "dir/file.txt", []byte("rewritten"), 0o600)
	cluster.MustMkdirAll("demo", "dir/sub/deep", 0o700)

	assert.Panics(t, func() { cluster.AddSpace("demo") })
	assert.Panics(t, func() { cluster.MustWriteFile("demo", "dir", []byte("x"), 0o644) })
	assert.Panics(t, func() { cluster.MustWriteFile("missing", "f", nil, 0o644) })
}
