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

// Package onedata implements a REST client for the Onedata file API.
// It resolves spaces and providers through a Onezone directory service
// and performs file operations against the Oneprovider data endpoints
// supporting each space.
package onedata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeremyhahn/go-onedatafs/pkg/adapters"
)

// Client is a REST client for the Onedata file API.
//
// Space identifiers and the provider domain serving each space are
// resolved once and cached for the lifetime of the client. File
// attributes and content are never cached; every call reflects the
// provider's current state.
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     adapters.TokenProvider
	logger     adapters.Logger

	mu              sync.RWMutex
	spaceIDs        map[string]string // space name -> space id
	providerDomains map[string]string // space name -> provider domain
}

// NewClient creates a new Onedata REST client.
func NewClient(config *Config) (*Client, error) {
	if config == nil || config.ZoneHost == "" {
		return nil, ErrZoneHostRequired
	}

	tokens := config.TokenProvider
	if tokens == nil {
		if config.Token == "" {
			return nil, ErrTokenRequired
		}
		tokens = adapters.NewStaticTokenProvider(config.Token)
	}

	logger := config.Logger
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	logger = logger.WithFields(adapters.Field{Key: "component", Value: "onedata"})

	httpClient := config.HTTPClient
	if httpClient == nil {
		tlsConfig, err := adapters.NewClientTLSConfig().
			WithInsecureSkipVerify(config.Insecure).
			WithCACertPEM(config.CACertPEM).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}

		transport := &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     tlsConfig,
		}

		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}

		httpClient = &http.Client{
			Transport: transport,
			Timeout:   timeout,
		}
	}

	return &Client{
		config:          config,
		httpClient:      httpClient,
		tokens:          tokens,
		logger:          logger,
		spaceIDs:        make(map[string]string),
		providerDomains: make(map[string]string),
	}, nil
}

// PageLimit returns the configured directory listing page size.
func (c *Client) PageLimit() int {
	if c.config.PageLimit > 0 {
		return c.config.PageLimit
	}
	return DefaultPageLimit
}

// ListSpaceIDs returns the identifiers of all spaces accessible to the
// token's user.
func (c *Client) ListSpaceIDs(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, c.zoneURL("user/effective_spaces"), nil, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Spaces []string `json:"spaces"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, err
	}

	return result.Spaces, nil
}

// SpaceDetails returns the details of a single space.
func (c *Client) SpaceDetails(ctx context.Context, spaceID string) (*Space, error) {
	resp, err := c.do(ctx, http.MethodGet, c.zoneURL("user/effective_spaces/"+url.PathEscape(spaceID)), nil, nil)
	if err != nil {
		return nil, err
	}

	var details spaceDetails
	if err := json.Unmarshal(resp.body, &details); err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(details.Providers))
	for providerID := range details.Providers {
		providers = append(providers, providerID)
	}
	sort.Strings(providers)

	id := details.SpaceID
	if id == "" {
		id = spaceID
	}

	return &Space{ID: id, Name: details.Name, Providers: providers}, nil
}

// ProviderDetails returns the details of a single provider.
func (c *Client) ProviderDetails(ctx context.Context, providerID string) (*Provider, error) {
	resp, err := c.do(ctx, http.MethodGet, c.zoneURL("providers/"+url.PathEscape(providerID)), nil, nil)
	if err != nil {
		return nil, err
	}

	var provider Provider
	if err := json.Unmarshal(resp.body, &provider); err != nil {
		return nil, err
	}

	return &provider, nil
}

// ListSpaces returns all spaces accessible to the token's user, sorted by
// name.
func (c *Client) ListSpaces(ctx context.Context) ([]Space, error) {
	ids, err := c.ListSpaceIDs(ctx)
	if err != nil {
		return nil, err
	}

	spaces := make([]Space, 0, len(ids))
	for _, id := range ids {
		space, err := c.SpaceDetails(ctx, id)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, *space)
	}

	sort.Slice(spaces, func(i, j int) bool { return spaces[i].Name < spaces[j].Name })

	return spaces, nil
}

// ResolveSpaceID resolves a space name to its identifier. The result is
// cached for the lifetime of the client.
func (c *Client) ResolveSpaceID(ctx context.Context, spaceName string) (string, error) {
	c.mu.RLock()
	if id, ok := c.spaceIDs[spaceName]; ok {
		c.mu.RUnlock()
		return id, nil
	}
	c.mu.RUnlock()

	ids, err := c.ListSpaceIDs(ctx)
	if err != nil {
		return "", err
	}

	for _, id := range ids {
		space, err := c.SpaceDetails(ctx, id)
		if err != nil {
			return "", err
		}
		if space.Name == spaceName {
			c.mu.Lock()
			c.spaceIDs[spaceName] = id
			c.mu.Unlock()
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrSpaceNotFound, spaceName)
}

// ProviderForSpace returns the domain of a provider supporting the space.
// The provider is chosen at random among the space's supporting providers
// and cached for the lifetime of the client.
func (c *Client) ProviderForSpace(ctx context.Context, spaceName string) (string, error) {
	c.mu.RLock()
	if domain, ok := c.providerDomains[spaceName]; ok {
		c.mu.RUnlock()
		return domain, nil
	}
	c.mu.RUnlock()

	spaceID, err := c.ResolveSpaceID(ctx, spaceName)
	if err != nil {
		return "", err
	}

	space, err := c.SpaceDetails(ctx, spaceID)
	if err != nil {
		return "", err
	}

	if len(space.Providers) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoProvider, spaceName)
	}

	providerID := space.Providers[rand.Intn(len(space.Providers))]

	provider, err := c.ProviderDetails(ctx, providerID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.providerDomains[spaceName] = provider.Domain
	c.mu.Unlock()

	return provider.Domain, nil
}

// LookupFileID resolves a path within a space to an opaque file
// identifier. The space root resolves to the space identifier itself,
// which the data API accepts as a file id.
func (c *Client) LookupFileID(ctx context.Context, spaceName, filePath string) (string, error) {
	if filePath == "" {
		return c.ResolveSpaceID(ctx, spaceName)
	}

	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return "", err
	}

	lookupURL := c.providerURL(domain, "lookup-file-id/"+url.PathEscape(spaceName)+"/"+escapePath(filePath))

	resp, err := c.do(ctx, http.MethodPost, lookupURL, nil, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		FileID string `json:"fileId"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return "", err
	}

	return result.FileID, nil
}

// GetAttrs returns the attributes of the file at the given path. An empty
// path addresses the space root.
func (c *Client) GetAttrs(ctx context.Context, spaceName, filePath string) (*Attrs, error) {
	fileID, err := c.LookupFileID(ctx, spaceName, filePath)
	if err != nil {
		return nil, err
	}
	return c.GetAttrsByID(ctx, spaceName, fileID)
}

// GetAttrsByID returns the attributes of the file with the given id.
func (c *Client) GetAttrsByID(ctx context.Context, spaceName, fileID string) (*Attrs, error) {
	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodGet, c.providerURL(domain, "data/"+url.PathEscape(fileID)), nil, nil)
	if err != nil {
		return nil, err
	}

	var attrs Attrs
	if err := json.Unmarshal(resp.body, &attrs); err != nil {
		return nil, err
	}

	return &attrs, nil
}

// SetMode updates the POSIX permission bits of the file at the given
// path. The mode is transmitted as an octal string, the same format the
// attributes endpoint reports.
func (c *Client) SetMode(ctx context.Context, spaceName, filePath string, mode os.FileMode) error {
	fileID, err := c.LookupFileID(ctx, spaceName, filePath)
	if err != nil {
		return err
	}

	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"mode": formatMode(mode)})
	if err != nil {
		return err
	}

	_, err = c.do(ctx, http.MethodPut, c.providerURL(domain, "data/"+url.PathEscape(fileID)), body, nil)
	return err
}

// ListChildren returns one page of the directory listing for the given
// directory id. A limit of zero uses the configured page size; token
// continues from a previous page.
func (c *Client) ListChildren(ctx context.Context, spaceName, dirID string, limit int, token string) (*ChildrenPage, error) {
	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = c.PageLimit()
	}

	params := url.Values{}
	for _, attribute := range []string{"file_id", "name", "type", "mode", "size", "mtime"} {
		params.Add("attribute", attribute)
	}
	params.Set("limit", strconv.Itoa(limit))
	if token != "" {
		params.Set("token", token)
	}

	listURL := c.providerURL(domain, "data/"+url.PathEscape(dirID)+"/children") + "?" + params.Encode()

	resp, err := c.do(ctx, http.MethodGet, listURL, nil, nil)
	if err != nil {
		return nil, err
	}

	var page ChildrenPage
	if err := json.Unmarshal(resp.body, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// ReadRange reads up to size bytes starting at offset from the file with
// the given id. Ranges reaching beyond the end of the file return the
// available prefix.
func (c *Client) ReadRange(ctx context.Context, spaceName, fileID string, offset, size int64) ([]byte, error) {
	if size <= 0 {
		return []byte{}, nil
	}

	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+size-1))

	resp, err := c.do(ctx, http.MethodGet, c.providerURL(domain, "data/"+url.PathEscape(fileID)+"/content"), nil, header)
	if err != nil {
		return nil, err
	}

	return resp.body, nil
}

// WriteAt writes data at the given offset in the file with the given id.
// Writing beyond the end of the file leaves a hole that reads back as
// zeros.
func (c *Client) WriteAt(ctx context.Context, spaceName, fileID string, offset int64, data []byte) error {
	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/octet-stream")

	writeURL := fmt.Sprintf("%s?offset=%d",
		c.providerURL(domain, "data/"+url.PathEscape(fileID)+"/content"), offset)

	_, err = c.do(ctx, http.MethodPut, writeURL, data, header)
	return err
}

// ReplaceContent replaces the entire content of the file with the given
// id, truncating it to len(data).
func (c *Client) ReplaceContent(ctx context.Context, spaceName, fileID string, data []byte) error {
	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/octet-stream")

	_, err = c.do(ctx, http.MethodPut, c.providerURL(domain, "data/"+url.PathEscape(fileID)+"/content"), data, header)
	return err
}

// CreateFile creates a file or directory at the given path and returns
// its identifier. With createParents set, missing ancestor directories
// are created by the provider. A zero mode leaves the provider's default
// in place.
func (c *Client) CreateFile(ctx context.Context, spaceName, filePath string, fileType FileType, createParents bool, mode os.FileMode) (string, error) {
	spaceID, err := c.ResolveSpaceID(ctx, spaceName)
	if err != nil {
		return "", err
	}

	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("type", string(fileType))
	params.Set("create_parents", strconv.FormatBool(createParents))
	if mode != 0 {
		params.Set("mode", formatMode(mode))
	}

	createURL := fmt.Sprintf("%s?%s",
		c.providerURL(domain, "data/"+url.PathEscape(spaceID)+"/path/"+escapePath(filePath)),
		params.Encode())

	resp, err := c.do(ctx, http.MethodPut, createURL, []byte{}, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		FileID string `json:"fileId"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return "", err
	}

	return result.FileID, nil
}

// Remove deletes the file or directory at the given path. Directories
// are removed recursively by the provider.
func (c *Client) Remove(ctx context.Context, spaceName, filePath string) error {
	spaceID, err := c.ResolveSpaceID(ctx, spaceName)
	if err != nil {
		return err
	}

	domain, err := c.ProviderForSpace(ctx, spaceName)
	if err != nil {
		return err
	}

	removeURL := c.providerURL(domain, "data/"+url.PathEscape(spaceID)+"/path/"+escapePath(filePath))

	_, err = c.do(ctx, http.MethodDelete, removeURL, nil, nil)
	return err
}

// Move renames src to dst through the CDMI interface of the destination
// space's provider. Source and destination may live in different spaces.
func (c *Client) Move(ctx context.Context, srcSpace, srcPath, dstSpace, dstPath string) error {
	domain, err := c.ProviderForSpace(ctx, dstSpace)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"move": srcSpace + "/" + srcPath,
	})
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("X-CDMI-Specification-Version", "1.1.1")
	header.Set("Content-Type", "application/cdmi-object")

	_, err = c.do(ctx, http.MethodPut, c.cdmiURL(domain, dstSpace, dstPath), body, header)
	return err
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// zoneURL builds an Onezone API URL for the given path.
func (c *Client) zoneURL(path string) string {
	return fmt.Sprintf("https://%s/api/v3/onezone/%s", c.config.ZoneHost, path)
}

// providerURL builds a Oneprovider API URL for the given path.
func (c *Client) providerURL(domain, path string) string {
	return fmt.Sprintf("https://%s/api/v3/oneprovider/%s", domain, path)
}

// cdmiURL builds a CDMI URL on the given provider.
func (c *Client) cdmiURL(domain, spaceName, filePath string) string {
	return fmt.Sprintf("https://%s/cdmi/%s/%s", domain, url.PathEscape(spaceName), escapePath(filePath))
}

// response is a fully buffered HTTP response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// do executes a REST request with the authentication token attached,
// buffering the response body. Requests are rebuilt from the byte slice
// on each attempt so transport timeouts can be retried safely. Responses
// with status >= 400 are converted to *Error.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, header http.Header) (*response, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	return retryOnTimeout(ctx, c.config.MaxRetries, func() (*response, error) {
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return nil, err
		}

		req.Header.Set("X-Auth-Token", token)
		req.Header.Set("Content-Type", "application/json")
		for key, values := range header {
			req.Header.Del(key)
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		c.logger.Debug(ctx, "request completed",
			adapters.Field{Key: "method", Value: method},
			adapters.Field{Key: "url", Value: rawURL},
			adapters.Field{Key: "status", Value: resp.StatusCode},
			adapters.Field{Key: "duration", Value: time.Since(start).String()},
		)

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, parseError(resp.StatusCode, data)
		}

		return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
	})
}

// formatMode renders permission and setuid/setgid/sticky bits as a
// zero-prefixed octal string, the form the data endpoints accept.
func formatMode(mode os.FileMode) string {
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
	return "0" + strconv.FormatUint(bits, 8)
}

// escapePath escapes each segment of a slash-separated path, keeping the
// separators intact.
func escapePath(p string) string {
	if p == "" {
		return ""
	}
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
