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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError_FullEnvelope(t *testing.T) {
	body := []byte(`{
		"error": {
			"id": "posix",
			"details": {"errno": "enoent"},
			"description": "no such file or directory"
		}
	}`)

	err := parseError(http.StatusBadRequest, body)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "posix", err.Category)
	assert.Equal(t, "enoent", err.Errno)
	assert.Equal(t, "no such file or directory", err.Description)
	assert.Equal(t, "onedata: 400 posix: no such file or directory", err.Error())
}

func TestParseError_EmptyBody(t *testing.T) {
	err := parseError(http.StatusNotFound, nil)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Empty(t, err.Errno)
	assert.Equal(t, "onedata: request failed with status 404", err.Error())
}

func TestParseError_MalformedBody(t *testing.T) {
	err := parseError(http.StatusBadGateway, []byte("<html>nginx</html>"))
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Empty(t, err.Category)
	assert.Empty(t, err.Errno)
}

func TestError_Predicates(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		check func(*Error) bool
		want  bool
	}{
		{"NotFound_Status", &Error{StatusCode: 404}, (*Error).NotFound, true},
		{"NotFound_Errno", &Error{StatusCode: 400, Errno: "enoent"}, (*Error).NotFound, true},
		{"NotFound_Other", &Error{StatusCode: 400, Errno: "eacces"}, (*Error).NotFound, false},
		{"PermissionDenied_Unauthorized", &Error{StatusCode: 401}, (*Error).PermissionDenied, true},
		{"PermissionDenied_Forbidden", &Error{StatusCode: 403}, (*Error).PermissionDenied, true},
		{"PermissionDenied_Eacces", &Error{StatusCode: 400, Errno: "eacces"}, (*Error).PermissionDenied, true},
		{"PermissionDenied_Eperm", &Error{StatusCode: 400, Errno: "eperm"}, (*Error).PermissionDenied, true},
		{"PermissionDenied_Other", &Error{StatusCode: 400, Errno: "enoent"}, (*Error).PermissionDenied, false},
		{"AlreadyExists_Conflict", &Error{StatusCode: 409}, (*Error).AlreadyExists, true},
		{"AlreadyExists_Eexist", &Error{StatusCode: 400, Errno: "eexist"}, (*Error).AlreadyExists, true},
		{"NotEmpty", &Error{StatusCode: 400, Errno: "enotempty"}, (*Error).NotEmpty, true},
		{"NotEmpty_Other", &Error{StatusCode: 400, Errno: "enoent"}, (*Error).NotEmpty, false},
		{"IsDirectory", &Error{StatusCode: 400, Errno: "eisdir"}, (*Error).IsDirectory, true},
		{"NotDirectory", &Error{StatusCode: 400, Errno: "enotdir"}, (*Error).NotDirectory, true},
		{"NoSpace_Enospc", &Error{StatusCode: 400, Errno: "enospc"}, (*Error).NoSpace, true},
		{"NoSpace_Edquot", &Error{StatusCode: 400, Errno: "edquot"}, (*Error).NoSpace, true},
		{"NoSpace_Other", &Error{StatusCode: 507}, (*Error).NoSpace, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}
