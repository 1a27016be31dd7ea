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

package version

import "testing"

func TestGet(t *testing.T) {
	version := Get()
	if version == "" {
		t.Error("Expected non-empty version")
	}

	if version != Version {
		t.Errorf("Get() = %q, want %q", version, Version)
	}
}

func TestGet_Override(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "9.9.9"
	if got := Get(); got != "9.9.9" {
		t.Errorf("Get() = %q, want 9.9.9 after override", got)
	}
}
