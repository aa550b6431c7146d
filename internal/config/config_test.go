package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadParsesYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ghdispatch.yaml")
	configYAML := strings.TrimSpace(`
owner: octo
repo: collector
workflow_file: download.yml
ref: release
token: file-token
poll_delay_seconds: 2
notify:
  webhook_url: https://example.invalid/webhook/send
  key: abc-123
`)
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(TokenEnv, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Owner != "octo" || cfg.Repo != "collector" {
		t.Fatalf("repository not parsed: %+v", cfg)
	}
	if cfg.Ref != "release" {
		t.Fatalf("ref not parsed, got %q", cfg.Ref)
	}
	if cfg.Token != "file-token" {
		t.Fatalf("token not parsed, got %q", cfg.Token)
	}
	if cfg.PollDelaySeconds != 2 {
		t.Fatalf("poll delay not parsed, got %d", cfg.PollDelaySeconds)
	}
	if cfg.Notify.Key != "abc-123" {
		t.Fatalf("notify key not parsed: %+v", cfg.Notify)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadAppliesDefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ghdispatch.yaml")
	configYAML := "owner: octo\nrepo: collector\nworkflow_file: download.yml\ntoken: file-token\n"
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(TokenEnv, "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Ref != "main" {
		t.Fatalf("expected default ref main, got %q", cfg.Ref)
	}
	if cfg.UserAgent != "ghdispatch" {
		t.Fatalf("expected default user agent, got %q", cfg.UserAgent)
	}
	if cfg.PollDelaySeconds != 5 {
		t.Fatalf("expected default poll delay 5, got %d", cfg.PollDelaySeconds)
	}
	if cfg.Token != "env-token" {
		t.Fatalf("environment must override the file token, got %q", cfg.Token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for empty config")
	}
	for _, want := range []string{"owner", "repo", "workflow_file", "token"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("validation error should mention %q: %v", want, err)
		}
	}
}

func TestWriteDefaultSeedsAndRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ghdispatch.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	t.Setenv(TokenEnv, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("seeded config must parse: %v", err)
	}
	if cfg.Ref != "main" {
		t.Fatalf("seeded config has wrong ref: %q", cfg.Ref)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatal("expected error when seeding over an existing file")
	}
}
