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

package adapters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrMissingCredentials is returned when no access token is available.
	ErrMissingCredentials = errors.New("missing credentials")
)

// TokenProvider supplies the access token attached to every outbound
// request. Applications can implement this interface to integrate token
// refresh flows or secret managers; most deployments use a
// StaticTokenProvider.
type TokenProvider interface {
	// AccessToken returns the token to send in the X-Auth-Token header.
	// Returns ErrMissingCredentials when no token is available.
	AccessToken(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed access token.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider returning the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// AccessToken returns the configured token.
func (p *StaticTokenProvider) AccessToken(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", ErrMissingCredentials
	}
	return p.token, nil
}

// FileTokenProvider reads the access token from a file on every call,
// picking up rotations performed by an external agent.
type FileTokenProvider struct {
	path string
}

// NewFileTokenProvider creates a provider reading tokens from the given path.
func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path}
}

// AccessToken returns the current token from the file. Leading and trailing
// whitespace is stripped.
func (p *FileTokenProvider) AccessToken(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

// EnvTokenProvider reads the access token from an environment variable.
type EnvTokenProvider struct {
	name string
}

// NewEnvTokenProvider creates a provider reading tokens from the named
// environment variable.
func NewEnvTokenProvider(name string) *EnvTokenProvider {
	return &EnvTokenProvider{name: name}
}

// AccessToken returns the token from the environment.
func (p *EnvTokenProvider) AccessToken(ctx context.Context) (string, error) {
	token := strings.TrimSpace(os.Getenv(p.name))
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

// ChainTokenProvider tries each provider in order until one yields a token.
type ChainTokenProvider struct {
	providers []TokenProvider
}

// NewChainTokenProvider creates a provider chaining the given providers.
func NewChainTokenProvider(providers ...TokenProvider) *ChainTokenProvider {
	return &ChainTokenProvider{providers: providers}
}

// AccessToken returns the first token found in the chain.
func (p *ChainTokenProvider) AccessToken(ctx context.Context) (string, error) {
	var lastErr error
	for _, provider := range p.providers {
		token, err := provider.AccessToken(ctx)
		if err == nil {
			return token, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrMissingCredentials
}
