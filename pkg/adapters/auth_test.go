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
	"os"
	"path/filepath"
	"testing"
)

func TestStaticTokenProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsToken", func(t *testing.T) {
		provider := NewStaticTokenProvider("MDAzN2xvY2F0aW9u")
		token, err := provider.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken() error = %v, want nil", err)
		}
		if token != "MDAzN2xvY2F0aW9u" {
			t.Errorf("AccessToken() = %q, want configured token", token)
		}
	})

	t.Run("EmptyToken", func(t *testing.T) {
		provider := NewStaticTokenProvider("")
		_, err := provider.AccessToken(ctx)
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("AccessToken() error = %v, want ErrMissingCredentials", err)
		}
	})
}

func TestFileTokenProvider(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	t.Run("ReadsToken", func(t *testing.T) {
		path := filepath.Join(tmpDir, "token")
		if err := os.WriteFile(path, []byte("  secret-token\n"), 0600); err != nil {
			t.Fatalf("Failed to write token file: %v", err)
		}

		provider := NewFileTokenProvider(path)
		token, err := provider.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken() error = %v, want nil", err)
		}
		if token != "secret-token" {
			t.Errorf("AccessToken() = %q, want trimmed token", token)
		}
	})

	t.Run("PicksUpRotation", func(t *testing.T) {
		path := filepath.Join(tmpDir, "rotated")
		if err := os.WriteFile(path, []byte("first"), 0600); err != nil {
			t.Fatalf("Failed to write token file: %v", err)
		}

		provider := NewFileTokenProvider(path)
		if token, _ := provider.AccessToken(ctx); token != "first" {
			t.Errorf("AccessToken() = %q, want first", token)
		}

		if err := os.WriteFile(path, []byte("second"), 0600); err != nil {
			t.Fatalf("Failed to rewrite token file: %v", err)
		}
		if token, _ := provider.AccessToken(ctx); token != "second" {
			t.Errorf("AccessToken() = %q, want second after rotation", token)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		provider := NewFileTokenProvider(filepath.Join(tmpDir, "nonexistent"))
		_, err := provider.AccessToken(ctx)
		if err == nil {
			t.Error("AccessToken() should fail for missing file")
		}
	})

	t.Run("EmptyFile", func(t *testing.T) {
		path := filepath.Join(tmpDir, "empty")
		if err := os.WriteFile(path, []byte("  \n"), 0600); err != nil {
			t.Fatalf("Failed to write token file: %v", err)
		}

		provider := NewFileTokenProvider(path)
		_, err := provider.AccessToken(ctx)
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("AccessToken() error = %v, want ErrMissingCredentials", err)
		}
	})
}

func TestEnvTokenProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadsToken", func(t *testing.T) {
		t.Setenv("ONEDATAFS_TEST_TOKEN", "env-token")
		provider := NewEnvTokenProvider("ONEDATAFS_TEST_TOKEN")
		token, err := provider.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken() error = %v, want nil", err)
		}
		if token != "env-token" {
			t.Errorf("AccessToken() = %q, want env-token", token)
		}
	})

	t.Run("Unset", func(t *testing.T) {
		provider := NewEnvTokenProvider("ONEDATAFS_TEST_TOKEN_UNSET")
		_, err := provider.AccessToken(ctx)
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("AccessToken() error = %v, want ErrMissingCredentials", err)
		}
	})
}

func TestChainTokenProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstWins", func(t *testing.T) {
		provider := NewChainTokenProvider(
			NewStaticTokenProvider("primary"),
			NewStaticTokenProvider("fallback"),
		)
		token, err := provider.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken() error = %v, want nil", err)
		}
		if token != "primary" {
			t.Errorf("AccessToken() = %q, want primary", token)
		}
	})

	t.Run("FallsThrough", func(t *testing.T) {
		provider := NewChainTokenProvider(
			NewStaticTokenProvider(""),
			NewStaticTokenProvider("fallback"),
		)
		token, err := provider.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken() error = %v, want nil", err)
		}
		if token != "fallback" {
			t.Errorf("AccessToken() = %q, want fallback", token)
		}
	})

	t.Run("AllFail", func(t *testing.T) {
		provider := NewChainTokenProvider(
			NewStaticTokenProvider(""),
			NewStaticTokenProvider(""),
		)
		_, err := provider.AccessToken(ctx)
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("AccessToken() error = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		provider := NewChainTokenProvider()
		_, err := provider.AccessToken(ctx)
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("AccessToken() error = %v, want ErrMissingCredentials", err)
		}
	})
}
