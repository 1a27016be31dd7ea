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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/afero"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
	"github.com/jeremyhahn/go-onedatafs/pkg/onedatafs"
	"github.com/jeremyhahn/go-onedatafs/pkg/version"
)

// CommandContext holds the context for executing commands. Fs is the
// Onedata filesystem the commands operate on; Local is the filesystem
// used for the local side of get and put transfers.
type CommandContext struct {
	Client *onedata.Client
	Fs     afero.Fs
	Local  afero.Fs
	Config *Config
}

// NewCommandContext creates a new command context from the configuration.
func NewCommandContext(cfg *Config) (*CommandContext, error) {
	// Validate configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	clientConfig, err := cfg.ClientConfig()
	if err != nil {
		return nil, err
	}

	client, err := onedata.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	fs := onedatafs.New(client)
	if cfg.Space != "" {
		fs = fs.WithSpace(cfg.Space)
	}

	return &CommandContext{
		Client: client,
		Fs:     fs,
		Local:  afero.NewOsFs(),
		Config: cfg,
	}, nil
}

// Close closes the command context and cleans up resources.
func (ctx *CommandContext) Close() error {
	if ctx.Client != nil {
		return ctx.Client.Close()
	}
	return nil
}

// SpacesCommand lists the spaces accessible with the configured token.
func (ctx *CommandContext) SpacesCommand() ([]onedata.Space, error) {
	ctxBg := context.Background()
	return ctx.Client.ListSpaces(ctxBg)
}

// ListCommand lists the entries of a directory.
func (ctx *CommandContext) ListCommand(path string) ([]EntryInfo, error) {
	dir, err := ctx.Fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dir.Close() }()

	infos, err := dir.Readdir(-1)
	if err != nil {
		return nil, err
	}

	return ConvertFileInfos(infos), nil
}

// StatCommand retrieves the attributes of a file or directory.
func (ctx *CommandContext) StatCommand(path string) (os.FileInfo, error) {
	return ctx.Fs.Stat(path)
}

// GetCommand downloads a file from a space.
// If outputPath is empty or "-", writes to stdout.
func (ctx *CommandContext) GetCommand(remotePath, outputPath string) error {
	src, err := ctx.Fs.Open(remotePath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	// Determine output destination
	var writer io.Writer
	if outputPath == "" || outputPath == "-" {
		// Write to stdout
		writer = os.Stdout
	} else {
		// Write to a local file
		file, err := ctx.Local.Create(outputPath)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()
		writer = file
	}

	// Copy the data
	if _, err := io.Copy(writer, src); err != nil {
		return err
	}

	return nil
}

// PutCommand uploads a file into a space.
// If localPath is empty or "-", reads from stdin.
func (ctx *CommandContext) PutCommand(localPath, remotePath string) error {
	// Determine input source
	var reader io.Reader
	if localPath == "" || localPath == "-" {
		// Read from stdin
		reader = os.Stdin
	} else {
		// Open the local file
		file, err := ctx.Local.Open(localPath)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()
		reader = file
	}

	dst, err := ctx.Fs.Create(remotePath)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	// Copy the data
	if _, err := io.Copy(dst, reader); err != nil {
		return err
	}

	return nil
}

// MkdirCommand creates a directory. With parents set, missing
// intermediate directories are created as well.
func (ctx *CommandContext) MkdirCommand(path string, parents bool, mode string) error {
	perm, err := ParseOctalMode(mode)
	if err != nil {
		return err
	}

	if parents {
		return ctx.Fs.MkdirAll(path, perm)
	}
	return ctx.Fs.Mkdir(path, perm)
}

// RemoveCommand removes a file or directory. With recursive set,
// non-empty directories are removed with their contents.
func (ctx *CommandContext) RemoveCommand(path string, recursive bool) error {
	if recursive {
		return ctx.Fs.RemoveAll(path)
	}
	return ctx.Fs.Remove(path)
}

// MoveCommand renames a file or directory, possibly across spaces.
func (ctx *CommandContext) MoveCommand(src, dst string) error {
	return ctx.Fs.Rename(src, dst)
}

// ChmodCommand changes the permission bits of a file or directory.
func (ctx *CommandContext) ChmodCommand(path, mode string) error {
	perm, err := ParseOctalMode(mode)
	if err != nil {
		return err
	}
	return ctx.Fs.Chmod(path, perm)
}

// ConfigCommand returns the current configuration.
func (ctx *CommandContext) ConfigCommand() *Config {
	return ctx.Config
}

// HealthCommand checks that the Onezone service is reachable with the
// configured credentials.
func (ctx *CommandContext) HealthCommand() (map[string]any, error) {
	ctxBg := context.Background()

	ids, err := ctx.Client.ListSpaceIDs(ctxBg)
	if err != nil {
		return map[string]any{
			"status": "unhealthy",
			"zone":   ctx.Config.ZoneHost,
			"error":  err.Error(),
		}, err
	}

	return map[string]any{
		"status":  "healthy",
		"version": version.Get(),
		"zone":    ctx.Config.ZoneHost,
		"spaces":  len(ids),
	}, nil
}

// ParseOctalMode parses a permission string such as "644" or "0755".
// Setuid, setgid and sticky bits are honored.
func ParseOctalMode(s string) (os.FileMode, error) {
	bits, err := strconv.ParseUint(s, 8, 32)
	if err != nil || bits > 0o7777 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}

	mode := os.FileMode(bits & 0o777)
	if bits&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if bits&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if bits&0o1000 != 0 {
		mode |= os.ModeSticky
	}
	return mode, nil
}
