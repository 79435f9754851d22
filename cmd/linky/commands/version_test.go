// ABOUTME: Tests for the version command
// ABOUTME: Verifies version output and SetVersion wiring

package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3", "abc1234", "2026-01-01")
	defer SetVersion("dev", "none", "unknown")

	cmd := NewVersionCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := output.String()
	if !strings.Contains(out, "Linky 1.2.3") {
		t.Errorf("output missing version: %s", out)
	}
	if !strings.Contains(out, "abc1234") {
		t.Errorf("output missing commit: %s", out)
	}
	if !strings.Contains(out, "2026-01-01") {
		t.Errorf("output missing build date: %s", out)
	}
}
