package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://api.runpod.io/graphql" {
		t.Fatalf("unexpected api url: %s", cfg.APIURL)
	}
	if !cfg.Reuse || cfg.PodName != "dashboard" || cfg.GPUTypeID != "NVIDIA A40" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SSH.Username != "root" || cfg.SSHTimeout() != 30*time.Second {
		t.Fatalf("unexpected ssh defaults: %+v", cfg.SSH)
	}
	if cfg.StartupWait() != 300*time.Second {
		t.Fatalf("unexpected startup wait: %v", cfg.StartupWait())
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
podName: training
gpuTypeId: NVIDIA H100
gpuCount: 2
ssh:
  username: dev
  timeoutSeconds: 10
reuse: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PodName != "training" || cfg.GPUTypeID != "NVIDIA H100" || cfg.GPUCount != 2 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Reuse {
		t.Fatalf("reuse=false in file was ignored")
	}
	if cfg.SSH.Username != "dev" || cfg.SSH.TimeoutSeconds != 10 {
		t.Fatalf("ssh section not applied: %+v", cfg.SSH)
	}
	// Untouched keys keep their defaults.
	if cfg.AppPort != 8080 || cfg.VolumeMountPath != "/workspace" {
		t.Fatalf("defaults lost during overlay: %+v", cfg)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("podName: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty pod name", func(c *Config) { c.PodName = " " }, false},
		{"port zero", func(c *Config) { c.AppPort = 0 }, false},
		{"port too high", func(c *Config) { c.AppPort = 70000 }, false},
		{"empty remote command", func(c *Config) { c.RemoteCommand = "" }, false},
		{"bad cloud type", func(c *Config) { c.CloudType = "secure" }, false},
		{"secure cloud", func(c *Config) { c.CloudType = "SECURE" }, true},
		{"empty api url", func(c *Config) { c.APIURL = "" }, false},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		err := cfg.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestExpandPodTemplate(t *testing.T) {
	got := ExpandPodTemplate("dashboard-{pod_id}", "abc123")
	if got != "dashboard-abc123" {
		t.Fatalf("ExpandPodTemplate = %q", got)
	}
	if got := ExpandPodTemplate("static", "abc123"); got != "static" {
		t.Fatalf("template without placeholder changed: %q", got)
	}
}
