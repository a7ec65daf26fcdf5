package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "prerender dev" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestRunRequiresConfiguration(t *testing.T) {
	t.Setenv("PRISMIC_API_ENDPOINT", "")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--env-file", "does-not-exist.env"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error without PRISMIC_API_ENDPOINT")
	}
}
