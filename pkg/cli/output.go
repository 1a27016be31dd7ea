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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

// OutputFormat defines the output format type.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
)

// EntryInfo holds information about a file or directory for output
// formatting.
type EntryInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Mode    string    `json:"mode"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

// OperationResult holds the result of an operation.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// NewEntryInfo converts an os.FileInfo into an EntryInfo.
func NewEntryInfo(info os.FileInfo) EntryInfo {
	return EntryInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		Mode:    info.Mode().String(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}

// ConvertFileInfos converts a directory listing into EntryInfo values.
func ConvertFileInfos(infos []os.FileInfo) []EntryInfo {
	entries := make([]EntryInfo, len(infos))
	for i, info := range infos {
		entries[i] = NewEntryInfo(info)
	}
	return entries
}

// FormatOperationResult formats an operation result in the specified format.
func FormatOperationResult(result *OperationResult, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(result)
	case FormatTable:
		return formatResultTable(result)
	default:
		return formatResultText(result)
	}
}

// FormatError formats an error message in the specified format.
func FormatError(err error, format OutputFormat) string {
	result := &OperationResult{
		Success: false,
		Error:   err.Error(),
	}
	return FormatOperationResult(result, format)
}

func formatResultText(result *OperationResult) string {
	if result.Success {
		if result.Message != "" {
			return result.Message + "\n"
		}
		return "Operation completed successfully\n"
	}
	return fmt.Sprintf("Error: %s\n", result.Error)
}

func formatResultTable(result *OperationResult) string {
	if result.Success {
		output := "┌────────────────────────────────────────────────────────┐\n"
		output += "│ Operation Result                                       │\n"
		output += "├────────────────────────────────────────────────────────┤\n"
		output += fmt.Sprintf("│ Status: %-47s │\n", "SUCCESS")
		if result.Message != "" {
			// Split message into lines and wrap if needed
			lines := wrapText(result.Message, 47)
			for _, line := range lines {
				output += fmt.Sprintf("│ %-54s │\n", line)
			}
		}
		output += "└────────────────────────────────────────────────────────┘\n"
		return output
	}

	output := "┌────────────────────────────────────────────────────────┐\n"
	output += "│ Operation Result                                       │\n"
	output += "├────────────────────────────────────────────────────────┤\n"
	output += fmt.Sprintf("│ Status: %-47s │\n", "FAILED")
	lines := wrapText(result.Error, 47)
	for _, line := range lines {
		output += fmt.Sprintf("│ %-54s │\n", line)
	}
	output += "└────────────────────────────────────────────────────────┘\n"
	return output
}

func formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": \"failed to marshal JSON: %s\"}\n", err)
	}
	return string(data) + "\n"
}

// FormatListResult formats a directory listing in the specified format.
func FormatListResult(entries []EntryInfo, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatListJSON(entries)
	case FormatTable:
		return formatListTable(entries)
	default:
		return formatListText(entries)
	}
}

func formatListText(entries []EntryInfo) string {
	if len(entries) == 0 {
		return "No entries found\n"
	}

	var output string
	for _, entry := range entries {
		output += fmt.Sprintf("%s %10s  %s  %s\n",
			entry.Mode,
			formatSize(entry.Size),
			entry.ModTime.Format("2006-01-02 15:04"),
			entry.Name)
	}
	return output
}

func formatListTable(entries []EntryInfo) string {
	if len(entries) == 0 {
		return "No entries found\n"
	}

	var output string
	output += "┌────────────────────────────────────┬──────────────┬──────────────┬──────────────────┐\n"
	output += "│ Name                               │ Mode         │ Size         │ Modified         │\n"
	output += "├────────────────────────────────────┼──────────────┼──────────────┼──────────────────┤\n"

	for _, entry := range entries {
		name := truncate(entry.Name, 34)
		size := formatSize(entry.Size)
		modified := entry.ModTime.Format("2006-01-02 15:04")
		output += fmt.Sprintf("│ %-34s │ %-12s │ %-12s │ %-16s │\n", name, entry.Mode, size, modified)
	}

	output += "└────────────────────────────────────┴──────────────┴──────────────┴──────────────────┘\n"
	output += fmt.Sprintf("Total: %d entry(ies)\n", len(entries))
	return output
}

func formatListJSON(entries []EntryInfo) string {
	result := map[string]any{
		"count":   len(entries),
		"entries": entries,
	}
	return formatJSON(result)
}

// FormatSpacesResult formats a space listing in the specified format.
func FormatSpacesResult(spaces []onedata.Space, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatSpacesJSON(spaces)
	case FormatTable:
		return formatSpacesTable(spaces)
	default:
		return formatSpacesText(spaces)
	}
}

func formatSpacesText(spaces []onedata.Space) string {
	if len(spaces) == 0 {
		return "No spaces found\n"
	}

	var output string
	output += fmt.Sprintf("Found %d space(s):\n\n", len(spaces))
	for _, space := range spaces {
		output += fmt.Sprintf("Name: %s\n", space.Name)
		output += fmt.Sprintf("  ID: %s\n", space.ID)
		output += fmt.Sprintf("  Providers: %d\n", len(space.Providers))
		output += "\n"
	}
	return output
}

func formatSpacesTable(spaces []onedata.Space) string {
	if len(spaces) == 0 {
		return "No spaces found\n"
	}

	var output string
	output += "┌──────────────────────┬────────────────────────────────────────┬────────────┐\n"
	output += "│ Name                 │ ID                                     │ Providers  │\n"
	output += "├──────────────────────┼────────────────────────────────────────┼────────────┤\n"

	for _, space := range spaces {
		name := truncate(space.Name, 20)
		id := truncate(space.ID, 38)
		output += fmt.Sprintf("│ %-20s │ %-38s │ %-10d │\n", name, id, len(space.Providers))
	}

	output += "└──────────────────────┴────────────────────────────────────────┴────────────┘\n"
	output += fmt.Sprintf("Total: %d space(s)\n", len(spaces))
	return output
}

func formatSpacesJSON(spaces []onedata.Space) string {
	type spaceJSON struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Providers int    `json:"providers"`
	}

	jsonSpaces := make([]spaceJSON, len(spaces))
	for i, space := range spaces {
		jsonSpaces[i] = spaceJSON{
			ID:        space.ID,
			Name:      space.Name,
			Providers: len(space.Providers),
		}
	}

	result := map[string]any{
		"count":  len(jsonSpaces),
		"spaces": jsonSpaces,
	}
	return formatJSON(result)
}

// FormatStatResult formats file attributes in the specified format.
func FormatStatResult(info os.FileInfo, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatStatJSON(info)
	case FormatTable:
		return formatStatTable(info)
	default:
		return formatStatText(info)
	}
}

func formatStatText(info os.FileInfo) string {
	var output string
	output += fmt.Sprintf("Name: %s\n", info.Name())
	output += fmt.Sprintf("  Type: %s\n", entryType(info))
	output += fmt.Sprintf("  Size: %s\n", formatSize(info.Size()))
	output += fmt.Sprintf("  Mode: %s\n", info.Mode())
	output += fmt.Sprintf("  Modified: %s\n", info.ModTime().Format(time.RFC3339))

	if attrs, ok := info.Sys().(*onedata.Attrs); ok {
		output += fmt.Sprintf("  File ID: %s\n", attrs.FileID)
		if attrs.ProviderID != "" {
			output += fmt.Sprintf("  Provider ID: %s\n", attrs.ProviderID)
		}
		output += fmt.Sprintf("  Storage UID: %d\n", attrs.StorageUserID)
		output += fmt.Sprintf("  Storage GID: %d\n", attrs.StorageGroupID)
	}
	return output
}

func formatStatTable(info os.FileInfo) string {
	var output string
	output += "┌──────────────────────┬────────────────────────────────────────┐\n"
	output += "│ Field                │ Value                                  │\n"
	output += "├──────────────────────┼────────────────────────────────────────┤\n"
	output += fmt.Sprintf("│ %-20s │ %-38s │\n", "Name", truncate(info.Name(), 38))
	output += fmt.Sprintf("│ %-20s │ %-38s │\n", "Type", entryType(info))
	output += fmt.Sprintf("│ %-20s │ %-38s │\n", "Size", formatSize(info.Size()))
	output += fmt.Sprintf("│ %-20s │ %-38s │\n", "Mode", info.Mode().String())
	output += fmt.Sprintf("│ %-20s │ %-38s │\n", "Modified", info.ModTime().Format(time.RFC3339))

	if attrs, ok := info.Sys().(*onedata.Attrs); ok {
		output += fmt.Sprintf("│ %-20s │ %-38s │\n", "File ID", truncate(attrs.FileID, 38))
		if attrs.ProviderID != "" {
			output += fmt.Sprintf("│ %-20s │ %-38s │\n", "Provider ID", truncate(attrs.ProviderID, 38))
		}
	}

	output += "└──────────────────────┴────────────────────────────────────────┘\n"
	return output
}

func formatStatJSON(info os.FileInfo) string {
	type statJSON struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		Size       int64  `json:"size"`
		Mode       string `json:"mode"`
		ModTime    string `json:"mod_time"`
		FileID     string `json:"file_id,omitempty"`
		ProviderID string `json:"provider_id,omitempty"`
	}

	result := statJSON{
		Name:    info.Name(),
		Type:    entryType(info),
		Size:    info.Size(),
		Mode:    info.Mode().String(),
		ModTime: info.ModTime().Format(time.RFC3339),
	}

	if attrs, ok := info.Sys().(*onedata.Attrs); ok {
		result.FileID = attrs.FileID
		result.ProviderID = attrs.ProviderID
	}

	return formatJSON(result)
}

// entryType names the kind of entry an os.FileInfo describes.
func entryType(info os.FileInfo) string {
	switch {
	case info.IsDir():
		return "directory"
	case info.Mode()&os.ModeSymlink != 0:
		return "symlink"
	default:
		return "file"
	}
}

// FormatHealthResult formats a health check result.
func FormatHealthResult(health map[string]any, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(health)
	case FormatTable:
		return formatHealthTable(health)
	default:
		return formatHealthText(health)
	}
}

func formatHealthText(health map[string]any) string {
	var output string
	output += "Health Check:\n"
	for k, v := range health {
		output += fmt.Sprintf("  %s: %v\n", k, v)
	}
	return output
}

func formatHealthTable(health map[string]any) string {
	var output string
	output += "┌──────────────────────┬────────────────────────────────────────┐\n"
	output += "│ Health Check                                                  │\n"
	output += "├──────────────────────┼────────────────────────────────────────┤\n"
	for k, v := range health {
		output += fmt.Sprintf("│ %-20s │ %-38v │\n", truncate(k, 20), truncate(fmt.Sprint(v), 38))
	}
	output += "└──────────────────────┴────────────────────────────────────────┘\n"
	return output
}

// formatSize formats a byte size into a human-readable string.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// wrapText wraps text to fit within maxWidth characters.
func wrapText(text string, maxWidth int) []string {
	if len(text) <= maxWidth {
		return []string{text}
	}

	// Check if text has no spaces - need to hard wrap
	if !strings.Contains(text, " ") {
		var lines []string
		for len(text) > maxWidth {
			lines = append(lines, text[:maxWidth])
			text = text[maxWidth:]
		}
		if len(text) > 0 {
			lines = append(lines, text)
		}
		return lines
	}

	// Text has spaces - wrap at word boundaries
	var lines []string
	words := strings.Fields(text)
	var currentLine string
	for _, word := range words {
		if len(currentLine) == 0 {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if len(currentLine) > 0 {
		lines = append(lines, currentLine)
	}
	return lines
}
