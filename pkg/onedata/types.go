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

package onedata

import (
	"net/http"
	"time"

	"github.com/jeremyhahn/go-onedatafs/pkg/adapters"
)

// FileType identifies the kind of a Onedata filesystem entry.
type FileType string

const (
	// FileTypeRegular is a regular file.
	FileTypeRegular FileType = "REG"

	// FileTypeDirectory is a directory.
	FileTypeDirectory FileType = "DIR"

	// FileTypeSymlink is a symbolic link.
	FileTypeSymlink FileType = "LNK"
)

// Default values applied by NewClient when the corresponding Config field
// is zero.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultPageLimit  = 1000
	DefaultMaxRetries = 3
)

// Config holds configuration for creating a Client.
type Config struct {
	// ZoneHost is the Onezone host name, optionally with a port.
	ZoneHost string

	// Token is the Onedata access token sent in the X-Auth-Token header
	// of every request. Ignored when TokenProvider is set.
	Token string

	// TokenProvider supplies access tokens dynamically, e.g. from a file
	// rotated by an external agent. Takes precedence over Token.
	TokenProvider adapters.TokenProvider

	// Timeout bounds each REST request (default: 30s).
	Timeout time.Duration

	// Insecure disables TLS certificate verification. Intended for
	// deployments with self-signed certificates.
	Insecure bool

	// CACertPEM is an additional CA bundle in PEM format, appended to the
	// system roots when verifying zone and provider certificates.
	CACertPEM []byte

	// PageLimit is the number of directory entries requested per
	// children-listing page (default: 1000).
	PageLimit int

	// MaxRetries is the number of times a request is retried after a
	// transport timeout (default: 3).
	MaxRetries int

	// Logger receives debug-level request traces. Defaults to a no-op
	// logger.
	Logger adapters.Logger

	// HTTPClient overrides the internally built HTTP client. Mainly for
	// tests; TLS and timeout settings above are ignored when set.
	HTTPClient *http.Client
}

// Space describes a Onedata space and the providers supporting it.
type Space struct {
	ID        string
	Name      string
	Providers []string
}

// Provider describes a Oneprovider instance registered in a zone.
type Provider struct {
	ID     string `json:"providerId"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Online bool   `json:"online"`
}

// Attrs holds the basic attributes of a file or directory as reported by
// a provider. Mode is an octal permission string without a leading zero,
// e.g. "644". Timestamps are seconds since the Unix epoch.
type Attrs struct {
	FileID         string   `json:"file_id"`
	Name           string   `json:"name"`
	Type           FileType `json:"type"`
	Mode           string   `json:"mode"`
	Size           int64    `json:"size"`
	Atime          int64    `json:"atime"`
	Mtime          int64    `json:"mtime"`
	Ctime          int64    `json:"ctime"`
	OwnerID        string   `json:"owner_id,omitempty"`
	ProviderID     string   `json:"provider_id,omitempty"`
	ParentID       string   `json:"parent_id,omitempty"`
	StorageUserID  int64    `json:"storage_user_id"`
	StorageGroupID int64    `json:"storage_group_id"`
}

// IsDir reports whether the attributes describe a directory.
func (a *Attrs) IsDir() bool {
	return a.Type == FileTypeDirectory
}

// Entry is a single child returned by a children listing.
type Entry struct {
	FileID string   `json:"file_id"`
	Name   string   `json:"name"`
	Type   FileType `json:"type"`
	Mode   string   `json:"mode"`
	Size   int64    `json:"size"`
	Mtime  int64    `json:"mtime"`
}

// ChildrenPage is one page of a directory listing. Callers loop until
// IsLast, passing NextPageToken as the continuation token.
type ChildrenPage struct {
	Children      []Entry `json:"children"`
	IsLast        bool    `json:"isLast"`
	NextPageToken string  `json:"nextPageToken"`
}

// spaceDetails matches the Onezone effective_spaces detail schema.
type spaceDetails struct {
	SpaceID   string           `json:"spaceId"`
	Name      string           `json:"name"`
	Providers map[string]int64 `json:"providers"`
}
