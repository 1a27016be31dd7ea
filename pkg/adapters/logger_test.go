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
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(999), "UNKNOWN"}, // Test unknown/default case
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	// Capture log output
	var buf bytes.Buffer
	logger := NewDefaultLogger()
	defaultLogger, ok := logger.(*DefaultLogger)
	if !ok {
		t.Fatal("Failed to cast logger to *DefaultLogger")
	}
	// Redirect records into the buffer, keeping the level wiring intact
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: defaultLogger.level})
	defaultLogger.logger = slog.New(handler)

	ctx := context.Background()

	t.Run("Debug", func(t *testing.T) {
		buf.Reset()
		logger.SetLevel(DebugLevel)
		logger.Debug(ctx, "test debug message")
		output := buf.String()
		if !strings.Contains(output, "level=DEBUG") || !strings.Contains(output, "test debug message") {
			t.Errorf("Debug log missing expected content, got: %s", output)
		}
	})

	t.Run("Info", func(t *testing.T) {
		buf.Reset()
		logger.SetLevel(InfoLevel)
		logger.Info(ctx, "test info message")
		output := buf.String()
		if !strings.Contains(output, "level=INFO") || !strings.Contains(output, "test info message") {
			t.Errorf("Info log missing expected content, got: %s", output)
		}
	})

	t.Run("Warn", func(t *testing.T) {
		buf.Reset()
		logger.SetLevel(WarnLevel)
		logger.Warn(ctx, "test warn message")
		output := buf.String()
		if !strings.Contains(output, "level=WARN") || !strings.Contains(output, "test warn message") {
			t.Errorf("Warn log missing expected content, got: %s", output)
		}
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		logger.SetLevel(ErrorLevel)
		logger.Error(ctx, "test error message")
		output := buf.String()
		if !strings.Contains(output, "level=ERROR") || !strings.Contains(output, "test error message") {
			t.Errorf("Error log missing expected content, got: %s", output)
		}
	})
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger()
	defaultLogger, ok := logger.(*DefaultLogger)
	if !ok {
		t.Fatal("Failed to cast logger to *DefaultLogger")
	}
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: defaultLogger.level})
	defaultLogger.logger = slog.New(handler)

	ctx := context.Background()
	logger.SetLevel(WarnLevel)

	logger.Debug(ctx, "should be suppressed")
	logger.Info(ctx, "should be suppressed too")
	if buf.Len() != 0 {
		t.Errorf("Messages below WarnLevel should be suppressed, got: %s", buf.String())
	}

	logger.Warn(ctx, "should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("Warn message missing, got: %s", buf.String())
	}

	if logger.GetLevel() != WarnLevel {
		t.Errorf("GetLevel() = %v, want WarnLevel", logger.GetLevel())
	}
}

func TestDefaultLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger()
	defaultLogger, ok := logger.(*DefaultLogger)
	if !ok {
		t.Fatal("Failed to cast logger to *DefaultLogger")
	}
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: defaultLogger.level})
	defaultLogger.logger = slog.New(handler)
	logger.SetLevel(DebugLevel)

	ctx := context.Background()
	logger.Info(ctx, "test message",
		Field{Key: "key1", Value: "value1"},
		Field{Key: "key2", Value: 42},
	)

	output := buf.String()
	if !strings.Contains(output, "key1=value1") {
		t.Errorf("Log missing field key1=value1, got: %s", output)
	}
	if !strings.Contains(output, "key2=42") {
		t.Errorf("Log missing field key2=42, got: %s", output)
	}

	// Fields added via WithFields appear on every subsequent entry
	buf.Reset()
	child := logger.WithFields(Field{Key: "component", Value: "client"})
	child.Info(ctx, "with base fields")
	if !strings.Contains(buf.String(), "component=client") {
		t.Errorf("Child logger missing base field, got: %s", buf.String())
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()
	ctx := context.Background()

	// None of these should panic or produce output
	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	if child := logger.WithFields(Field{Key: "k", Value: "v"}); child != logger {
		t.Error("NoOpLogger.WithFields should return itself")
	}

	logger.SetLevel(DebugLevel)
	if logger.GetLevel() != DebugLevel {
		t.Errorf("GetLevel() = %v, want DebugLevel", logger.GetLevel())
	}
}
