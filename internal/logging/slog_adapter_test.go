// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler)

	logger.Info("service started", "component", "api", "port", int64(8080))

	out := buf.String()
	if !strings.Contains(out, `"component":"api"`) {
		t.Errorf("missing string attr in output: %q", out)
	}
	if !strings.Contains(out, `"port":8080`) {
		t.Errorf("missing int attr in output: %q", out)
	}
	if !strings.Contains(out, "service started") {
		t.Errorf("missing message in output: %q", out)
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler).With("supervisor", "core")

	logger.Warn("restarting service")

	out := buf.String()
	if !strings.Contains(out, `"supervisor":"core"`) {
		t.Errorf("pre-configured attr missing: %q", out)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler).WithGroup("tree")

	logger.Error("service failed", "name", "preprocess")

	out := buf.String()
	if !strings.Contains(out, `"tree.name":"preprocess"`) {
		t.Errorf("grouped attr not prefixed: %q", out)
	}
}
