package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestResolveSecret(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		file    *string
		want    string
		wantErr bool
	}{
		{name: "env only", env: "env-value", want: "env-value"},
		{name: "file only", file: strPtr("file-value\n"), want: "file-value"},
		{name: "file wins over env", env: "env-value", file: strPtr("file-value"), want: "file-value"},
		{name: "neither set", want: ""},
		{name: "whitespace trimmed", file: strPtr("  padded \n\n"), want: "padded"},
		{name: "empty file", file: strPtr(""), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const envName = "TEST_SCENARIO_SECRET"
			t.Setenv(envName, tt.env)
			t.Setenv(envName+"_FILE", "")
			if tt.file != nil {
				t.Setenv(envName+"_FILE", writeSecret(t, *tt.file))
			}

			got, err := ResolveSecret(envName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSecret_FileNotFound(t *testing.T) {
	t.Setenv("TEST_SCENARIO_MISSING_FILE", "/nonexistent/path/secret.txt")

	if _, err := ResolveSecret("TEST_SCENARIO_MISSING"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestResolveSecrets(t *testing.T) {
	t.Setenv("TEST_SCENARIO_A", "a")
	t.Setenv("TEST_SCENARIO_B_FILE", writeSecret(t, "b"))

	got, err := ResolveSecrets("TEST_SCENARIO_A", "TEST_SCENARIO_B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["TEST_SCENARIO_A"] != "a" || got["TEST_SCENARIO_B"] != "b" {
		t.Errorf("unexpected secrets: %v", got)
	}
}

func strPtr(s string) *string { return &s }
