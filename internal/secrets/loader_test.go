package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  file-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	key, err := Load(Source{Name: "gemini api key", File: path, Value: "inline-key"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if key != "file-key" {
		t.Errorf("key = %q, want trimmed file content over inline value", key)
	}
}

func TestLoadFromValue(t *testing.T) {
	key, err := Load(Source{Name: "serpapi api key", Value: " inline-key "})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if key != "inline-key" {
		t.Errorf("key = %q", key)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TEST_API_KEY", "env-key")

	key, err := Load(Source{Name: "gemini api key", EnvVar: "TEST_API_KEY"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if key != "env-key" {
		t.Errorf("key = %q", key)
	}
}

func TestLoadEmptyFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(Source{Name: "gemini api key", File: path}); err == nil {
		t.Fatal("expected error for empty key file")
	}
}

func TestLoadUnconfiguredFails(t *testing.T) {
	_, err := Load(Source{Name: "serpapi api key"})
	if err == nil || !strings.Contains(err.Error(), "serpapi api key") {
		t.Fatalf("error = %v, want named key error", err)
	}
}
